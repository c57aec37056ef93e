//go:build linux

package diag

import (
	"syscall"
	"time"
	"unsafe"

	"github.com/tcpls-go/tcpls/pkg/diag/kernel"
)

// rawSocketInfo mirrors a trimmed subset of Linux's struct tcp_info
// (bsd/netinet/tcp.h equivalent: include/uapi/linux/tcp.h), covering the
// fields present since kernel 2.6.2 plus the pacing/byte-counter fields
// gated behind later kernels. Later kernels append more fields; this
// struct intentionally only mirrors the prefix diag.Info surfaces, not
// the kernel's full tcp_info (see DESIGN.md).
type rawSocketInfo struct {
	state       uint8
	caState     uint8
	retransmits uint8
	probes      uint8
	backoff     uint8
	options     uint8
	wscale      uint8 // snd_wscale:4, rcv_wscale:4
	flags       uint8 // delivery_rate_app_limited:1, fastopen_client_fail:2
	rto         uint32
	ato         uint32
	sndMSS      uint32
	rcvMSS      uint32
	unacked     uint32
	sacked      uint32
	lost        uint32
	retrans     uint32
	fackets     uint32
	lastDataSnd uint32
	lastAckSnd  uint32
	lastDataRcv uint32
	lastAckRcv  uint32
	pmtu        uint32
	rcvSSThresh uint32
	rtt         uint32
	rttVar      uint32
	sndSSThresh uint32
	sndCWnd     uint32
	advMSS      uint32
	reordering  uint32
	rcvRTT      uint32
	rcvSpace    uint32
	totalRetran uint32
	pacingRate  uint64 // valid from kernel 3.15
	maxPacing   uint64
	bytesAcked  uint64 // valid from kernel 4.1
	bytesRecvd  uint64
}

var sizeOfRawSocketInfo = int(unsafe.Sizeof(rawSocketInfo{}))

var (
	kernelAtLeast3_15 bool
	kernelAtLeast4_1  bool
	kernelGateErr     error
)

func init() {
	var err error
	var ok bool
	if ok, err = kernel.AtLeast(3, 15, 0); err == nil {
		kernelAtLeast3_15 = ok
	} else {
		kernelGateErr = err
	}
	if ok, err = kernel.AtLeast(4, 1, 0); err == nil {
		kernelAtLeast4_1 = ok
	} else {
		kernelGateErr = err
	}
}

// Supported reports whether socket diagnostics are available on this
// platform.
func Supported() bool { return kernelGateErr == nil }

// Query calls getsockopt(SOL_TCP, TCP_INFO) on fd and unpacks the result.
func Query(fd uintptr) (*Info, error) {
	var raw rawSocketInfo
	length := uint32(sizeOfRawSocketInfo)

	_, _, errno := syscall.Syscall6(
		syscall.SYS_GETSOCKOPT,
		fd,
		uintptr(syscall.SOL_TCP),
		uintptr(syscall.TCP_INFO),
		uintptr(unsafe.Pointer(&raw)),
		uintptr(unsafe.Pointer(&length)),
		0,
	)
	if errno != 0 {
		return nil, errno
	}
	return raw.unpack(), nil
}

func (raw *rawSocketInfo) unpack() *Info {
	info := &Info{
		State:          tcpStateName(raw.state),
		RTT:            time.Duration(raw.rtt) * time.Microsecond,
		RTTVariance:    time.Duration(raw.rttVar) * time.Microsecond,
		Retransmits:    uint64(raw.totalRetran),
		SendMSS:        uint64(raw.sndMSS),
		RecvMSS:        uint64(raw.rcvMSS),
		SendCongestion: uint64(raw.sndCWnd),
		SendSSThresh:   uint64(raw.sndSSThresh),
	}
	if kernelAtLeast3_15 {
		rate := raw.pacingRate
		info.PacingRate = &rate
	}
	if kernelAtLeast4_1 {
		acked, recvd := raw.bytesAcked, raw.bytesRecvd
		info.BytesAcked = &acked
		info.BytesReceived = &recvd
	}
	return info
}

var tcpStates = [...]string{
	"ESTABLISHED", "SYN_SENT", "SYN_RECV", "FIN_WAIT1", "FIN_WAIT2",
	"TIME_WAIT", "CLOSE", "CLOSE_WAIT", "LAST_ACK", "LISTEN", "CLOSING",
}

func tcpStateName(s uint8) string {
	if int(s) >= 1 && int(s) <= len(tcpStates) {
		return tcpStates[s-1]
	}
	return "UNKNOWN"
}

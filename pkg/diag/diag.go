// Package diag supplements TCPLS's protocol-level diagnostics (ACK and
// stream bookkeeping, see the root package's AckInfo/StreamInfo) with
// OS-level tcp_info for the TCP socket a TLS session rides on — RTT,
// retransmits, congestion window, and the rest of the kernel's own view
// of the same connection (SPEC_FULL.md, "Diagnostics").
//
// This is not part of the TCPLS wire protocol. A TCPLS connection's
// liveness probing (PING/ACK) only tells you the peer is responsive; the
// kernel's tcp_info tells you *how well* the underlying transport is
// doing, which is why pkg/tcplsnet gathers both side by side.
package diag

import "time"

// Info is the cross-platform socket diagnostic snapshot. Fields absent on
// a given kernel/platform are left at their zero value; Supported()
// reports whether any of this is available at all on the current OS.
type Info struct {
	State          string        `json:"state"`
	RTT            time.Duration `json:"rtt" tcpi:"name=rtt_seconds,prom_type=gauge,prom_help='Smoothed round-trip time'"`
	RTTVariance    time.Duration `json:"rttVariance" tcpi:"name=rtt_variance_seconds,prom_type=gauge,prom_help='Round-trip time variance'"`
	Retransmits    uint64        `json:"retransmits" tcpi:"name=retransmits_total,prom_type=counter,prom_help='Total retransmits observed'"`
	SendMSS        uint64        `json:"sendMSS" tcpi:"name=send_mss_bytes,prom_type=gauge,prom_help='Current send maximum segment size'"`
	RecvMSS        uint64        `json:"recvMSS" tcpi:"name=recv_mss_bytes,prom_type=gauge,prom_help='Current receive maximum segment size'"`
	SendCongestion uint64        `json:"sendCongestionWindow" tcpi:"name=send_congestion_window,prom_type=gauge,prom_help='Current congestion window'"`
	SendSSThresh   uint64        `json:"sendSlowStartThreshold" tcpi:"name=send_slow_start_threshold,prom_type=gauge,prom_help='Current slow-start threshold'"`
	PacingRate     *uint64       `json:"pacingRate,omitempty" tcpi:"name=pacing_rate_bytes_per_second,prom_type=gauge,prom_help='Pacing rate, kernel >= 3.15 only'"`
	BytesAcked     *uint64       `json:"bytesAcked,omitempty" tcpi:"name=bytes_acked_total,prom_type=counter,prom_help='Bytes acked, kernel >= 4.1 only'"`
	BytesReceived  *uint64       `json:"bytesReceived,omitempty" tcpi:"name=bytes_received_total,prom_type=counter,prom_help='Bytes received, kernel >= 4.1 only'"`
}

// ToMap flattens Info for structured logging/metrics labeling, the way
// the teacher's tcpinfo package flattens Info for JSON.
func (i *Info) ToMap() map[string]any {
	if i == nil {
		return map[string]any{}
	}
	m := map[string]any{
		"state":                i.State,
		"rtt":                  i.RTT.String(),
		"rttVariance":          i.RTTVariance.String(),
		"retransmits":          i.Retransmits,
		"sendMSS":              i.SendMSS,
		"recvMSS":              i.RecvMSS,
		"sendCongestionWindow": i.SendCongestion,
		"sendSlowStartThresh":  i.SendSSThresh,
	}
	if i.PacingRate != nil {
		m["pacingRate"] = *i.PacingRate
	}
	if i.BytesAcked != nil {
		m["bytesAcked"] = *i.BytesAcked
	}
	if i.BytesReceived != nil {
		m["bytesReceived"] = *i.BytesReceived
	}
	return m
}

// Warnings surfaces anomalies worth logging, mirroring the teacher's
// conniver.Conn.Warnings/GetWarnings pattern.
func (i *Info) Warnings() []string {
	if i == nil || i.Retransmits == 0 {
		return nil
	}
	return []string{"retransmits observed on underlying socket"}
}

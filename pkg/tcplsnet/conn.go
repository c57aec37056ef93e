// Package tcplsnet wraps a net.Conn carrying a TCPLS session the way the
// teacher's sockstats/conniver packages wrap a plain TCP connection: it
// tracks bytes/timestamps on Read/Write, gathers pkg/diag socket
// diagnostics on open and close, and tags the connection with a trace
// id for correlating log lines across a multiplexed session
// (SPEC_FULL.md "Diagnostics").
//
// This package does not speak the TLS or TCPLS wire formats itself; it
// is the glue between a caller's net.Conn/tls.Conn, the tcpls.Connection
// state machine, and pkg/diag.
package tcplsnet

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/rs/xid"

	"github.com/tcpls-go/tcpls"
	"github.com/tcpls-go/tcpls/pkg/diag"
)

const (
	Opened = 0
	Closed = 1
)

var StateMap = map[int]string{
	Opened: "open",
	Closed: "close",
}

// ReportFn is invoked once on open and once on close, mirroring the
// teacher's conniver.ReportStatsFn.
type ReportFn func(*Conn, int)

// Conn wraps a net.Conn and the tcpls.Connection riding on top of it.
type Conn struct {
	net.Conn
	Context context.Context
	TraceID xid.ID

	tcpls *tcpls.Connection

	reportStats ReportFn
	OpenedAt    int64
	ClosedAt    int64
	FirstRxAt   int64
	FirstTxAt   int64
	LastRxAt    int64
	LastTxAt    int64
	TxBytes     int64
	RxBytes     int64
	RxErr       error
	TxErr       error
	InfoErr     error
	Reconnects  int
	OpenedInfo  *diag.Info
	ClosedInfo  *diag.Info

	supportsDiag bool
}

// Wrap wraps ncon, associates it with tc (the TCPLS state for this
// session), and triggers an immediate Opened report.
func Wrap(ctx context.Context, ncon net.Conn, tc *tcpls.Connection, reportFn ReportFn) *Conn {
	w := &Conn{
		Conn:         ncon,
		Context:      ctx,
		TraceID:      xid.New(),
		tcpls:        tc,
		reportStats:  reportFn,
		OpenedAt:     time.Now().UnixNano(),
		supportsDiag: diag.Supported(),
	}
	w.gatherAndReport(Opened)
	return w
}

// TCPLS returns the tcpls.Connection multiplexed over this net.Conn.
func (w *Conn) TCPLS() *tcpls.Connection { return w.tcpls }

func (w *Conn) gatherAndReport(state int) {
	if w.reportStats == nil {
		return
	}
	if state == Opened && w.OpenedInfo != nil {
		return
	}
	if state == Closed && w.ClosedInfo != nil {
		return
	}
	defer w.reportStats(w, state)

	if !w.supportsDiag || w.InfoErr != nil {
		return
	}

	tcpConn, ok := w.Conn.(*net.TCPConn)
	if !ok {
		return
	}
	rawConn, err := tcpConn.SyscallConn()
	if err != nil {
		return
	}

	var info *diag.Info
	if err := rawConn.Control(func(fd uintptr) {
		info, err = diag.Query(fd)
	}); err != nil {
		w.InfoErr = err
		return
	}
	if err != nil {
		w.InfoErr = err
		return
	}

	if state == Opened {
		w.OpenedInfo = info
		return
	}
	w.ClosedInfo = info
}

// SetReconnects records how many attempts were needed to open this
// connection, for the final report.
func (w *Conn) SetReconnects(n int) { w.Reconnects = n }

// Close reports the Closed state, gathering a final tcp_info sample,
// then closes the underlying connection.
func (w *Conn) Close() error {
	w.ClosedAt = time.Now().UnixNano()
	w.gatherAndReport(Closed)
	return w.Conn.Close()
}

// Read delegates to the wrapped conn, then tracks received bytes and
// timestamps.
func (w *Conn) Read(b []byte) (int, error) {
	n, err := w.Conn.Read(b)
	if err == nil && n > 0 {
		ts := time.Now().UnixNano()
		if w.FirstRxAt == 0 {
			w.FirstRxAt = ts
		}
		w.LastRxAt = ts
	}
	w.RxBytes += int64(n)
	if netErr, ok := err.(net.Error); ok && !netErr.Timeout() {
		w.RxErr = err
	}
	return n, err
}

// Write delegates to the wrapped conn, then tracks sent bytes and
// timestamps.
func (w *Conn) Write(b []byte) (int, error) {
	n, err := w.Conn.Write(b)
	if err == nil && n > 0 {
		ts := time.Now().UnixNano()
		if w.FirstTxAt == 0 {
			w.FirstTxAt = ts
		}
		w.LastTxAt = ts
	}
	w.TxBytes += int64(n)
	w.TxErr = err
	if netErr, ok := err.(net.Error); ok && !netErr.Timeout() {
		w.TxErr = err
	}
	return n, err
}

// Warnings surfaces reconnect counts and diag.Info anomalies from
// either the open or close sample.
func (w *Conn) Warnings() []string {
	var warns []string
	if w.Reconnects > 0 {
		warns = append(warns, "reconnects="+strconv.Itoa(w.Reconnects))
	}
	for _, info := range []*diag.Info{w.OpenedInfo, w.ClosedInfo} {
		warns = append(warns, info.Warnings()...)
	}
	return warns
}

// ToMap flattens the wrapper's fields for structured logging, mirroring
// conniver.Conn.ToMap.
func (w *Conn) ToMap() map[string]any {
	m := map[string]any{
		"traceId":    w.TraceID.String(),
		"openedAt":   w.OpenedAt,
		"closedAt":   w.ClosedAt,
		"firstRxAt":  w.FirstRxAt,
		"firstTxAt":  w.FirstTxAt,
		"lastRxAt":   w.LastRxAt,
		"lastTxAt":   w.LastTxAt,
		"txBytes":    w.TxBytes,
		"rxBytes":    w.RxBytes,
		"reconnects": w.Reconnects,
		"warnings":   w.Warnings(),
	}
	if w.RxErr != nil {
		m["rxErr"] = w.RxErr.Error()
	}
	if w.TxErr != nil {
		m["txErr"] = w.TxErr.Error()
	}
	if w.InfoErr != nil {
		m["infoErr"] = w.InfoErr.Error()
	}
	if w.OpenedInfo != nil {
		m["openedInfo"] = w.OpenedInfo.ToMap()
	}
	if w.ClosedInfo != nil {
		m["closedInfo"] = w.ClosedInfo.ToMap()
	}
	if w.tcpls != nil {
		m["connId"] = w.tcpls.ConnID()
		m["ack"] = w.tcpls.LastAckInfo()
	}
	return m
}

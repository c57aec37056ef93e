// Package tlsadapter adapts a *tls.Conn to tcpls.TLSSession (spec.md §6).
//
// TCPLS needs the TLS layer's sent-record sequence number to stamp
// outgoing ACKs, but crypto/tls does not expose it. Each WritePlaintext
// call hands the TLS layer one TCPLS record (bounded by
// tcplsframe.MaxRecordSize, itself sized to fit inside one TLS record
// after its overhead), so a local counter incremented once per
// successful Write tracks the same sequence the peer's TLS stack
// assigns internally.
package tlsadapter

import (
	"crypto/tls"
	"sync/atomic"

	"github.com/tcpls-go/tcpls/pkg/tcplsframe"
)

// Adapter wraps a handshaked *tls.Conn as a tcpls.TLSSession.
type Adapter struct {
	conn *tls.Conn
	seq  uint64 // atomic: records sent so far

	readBuf []byte
}

// New wraps conn. The caller must have already completed the TLS
// handshake (e.g. via conn.HandshakeContext).
func New(conn *tls.Conn) *Adapter {
	return &Adapter{
		conn:    conn,
		readBuf: make([]byte, tcplsframe.MaxFragmentLen),
	}
}

// WritePlaintext writes one TCPLS record as TLS application data and
// advances the internal record-sequence counter.
func (a *Adapter) WritePlaintext(record []byte) error {
	if _, err := a.conn.Write(record); err != nil {
		return err
	}
	atomic.AddUint64(&a.seq, 1)
	return nil
}

// ReadPlaintext reads the next chunk of decrypted application data. It
// may return fewer bytes than a full TCPLS record if the peer's write
// was itself fragmented across TLS records.
func (a *Adapter) ReadPlaintext() ([]byte, error) {
	n, err := a.conn.Read(a.readBuf)
	if n == 0 {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, a.readBuf[:n])
	return out, err
}

// CurrentTLSRecordSequence returns the number of records written so far.
func (a *Adapter) CurrentTLSRecordSequence() uint64 {
	return atomic.LoadUint64(&a.seq)
}

// WantsRead always reports true: Adapter drives a blocking *tls.Conn, so
// the caller's I/O loop should always attempt a read between writes.
func (a *Adapter) WantsRead() bool { return true }

// WantsWrite always reports true, for the same reason as WantsRead.
func (a *Adapter) WantsWrite() bool { return true }

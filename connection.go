package tcpls

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/tcpls-go/tcpls/pkg/tcplsframe"
	"github.com/tcpls-go/tcpls/pkg/tcplsstream"
)

// ErrStreamNotFound is returned by GetStreamData for an id with no
// registered stream (spec.md §4.6, §7). It is the one wire-adjacent
// error that is not fatal to the session — it is a caller error.
var ErrStreamNotFound = fmt.Errorf("tcpls: stream not found")

// Connection holds all per-TLS-session TCPLS state: the stream registry,
// the staged control (ACK) buffer, and the record-sequence bookkeeping
// used to generate and interpret ACKs (spec.md §3).
//
// A Connection is created once per TLS session and lives until TLS
// closure. It is not safe for concurrent use: spec.md §5 mandates a
// single-threaded, cooperative scheduling model with no internal locks.
type Connection struct {
	connID uint32
	role   Role

	streams      map[uint32]*tcplsstream.Stream
	streamOrder  []uint32 // insertion order, for deterministic record assembly (spec.md §9)
	controlBuf   []byte
	internalSeq  uint64 // last TLS record sequence we sent, echoed in the next ACK
	receivedSeq  uint64 // last value learned from a peer ACK
	ackReceived  bool
	lastStreamID uint32 // highest stream id passed to AttachStream
	lastProcID   uint32 // last stream id seen in ProcessRecord

	metrics MetricsRecorder
}

// MetricsRecorder receives protocol-level events as they happen, for
// export via pkg/exporter.Collector (SPEC_FULL.md "Diagnostics"). All
// methods must be cheap and non-blocking: Connection calls them inline
// on the send/receive path. A nil MetricsRecorder is valid; Connection
// checks before every call.
type MetricsRecorder interface {
	FrameDispatched(t tcplsframe.Type)
	AckStaged()
	AckDropped()
	PingReceived()
	BytesQueued(n int)
	BytesSent(n int)
}

// SetMetrics installs a MetricsRecorder. Pass nil to disable reporting.
func (c *Connection) SetMetrics(m MetricsRecorder) {
	c.metrics = m
}

// New constructs a Connection seeded with stream 0, per spec.md §3
// "Lifecycle".
func New(connID uint32, role Role) *Connection {
	c := &Connection{
		connID:  connID,
		role:    role,
		streams: make(map[uint32]*tcplsstream.Stream),
	}
	c.registerStream(tcplsstream.New(0, nil))
	return c
}

// ConnID returns the connection identifier.
func (c *Connection) ConnID() uint32 { return c.connID }

// Role returns which side of the connection this is.
func (c *Connection) Role() Role { return c.role }

// SetData appends to stream 0's send buffer (spec.md §6).
func (c *Connection) SetData(b []byte) {
	c.streams[0].AddDataToSend(b)
	if c.metrics != nil {
		c.metrics.BytesQueued(len(b))
	}
}

// AttachStream installs a pre-built stream under id, e.g. one produced by
// tcplsstream.Builder (spec.md §4.6, §4.7). It overwrites any existing
// stream with the same id.
func (c *Connection) AttachStream(s *tcplsstream.Stream, id uint32) {
	if _, exists := c.streams[id]; !exists {
		c.streamOrder = append(c.streamOrder, id)
	}
	c.streams[id] = s
	if id > c.lastStreamID {
		c.lastStreamID = id
	}
}

func (c *Connection) registerStream(s *tcplsstream.Stream) {
	if _, exists := c.streams[s.ID()]; !exists {
		c.streamOrder = append(c.streamOrder, s.ID())
	}
	c.streams[s.ID()] = s
}

// getOrCreateStream implements spec.md §4.6: an unknown stream_id arriving
// in a STREAM frame implicitly creates an empty stream with that id.
func (c *Connection) getOrCreateStream(id uint32) *tcplsstream.Stream {
	if s, ok := c.streams[id]; ok {
		return s
	}
	s := tcplsstream.New(id, nil)
	c.registerStream(s)
	logrus.WithFields(logrus.Fields{"conn_id": c.connID, "stream_id": id}).
		Debug("tcpls: implicitly created stream for unknown id")
	return s
}

// GetStreamData returns the reassembled receive buffer for id, or
// ErrStreamNotFound if no such stream has ever been seen (spec.md §4.6,
// §7). Unlike the implicit-creation path in ProcessRecord, an explicit
// query for an absent id is a caller error.
func (c *Connection) GetStreamData(id uint32) ([]byte, error) {
	s, ok := c.streams[id]
	if !ok {
		return nil, ErrStreamNotFound
	}
	return s.RecvData(), nil
}

// HasData reports whether any stream has unsent bytes queued (spec.md §6,
// §9 Open Question (b): OR-accumulation across streams).
func (c *Connection) HasData() bool {
	for _, id := range c.streamOrder {
		if c.streams[id].HasDataToSend() {
			return true
		}
	}
	return false
}

// UpdateTLSRecordSequence feeds the current TLS-layer sent-record
// sequence number; the next staged ACK carries it (spec.md §4.5).
func (c *Connection) UpdateTLSRecordSequence(seq uint64) {
	c.internalSeq = seq
}

// HasReceivedAck reports the edge flag set the last time an ACK frame
// was processed (spec.md §3, used by the ping/file demos).
func (c *Connection) HasReceivedAck() bool { return c.ackReceived }

// InvertAck clears the ack-received edge flag, for the ping-pong client
// pattern that waits for the *next* ack after consuming this one
// (spec.md §6).
func (c *Connection) InvertAck() { c.ackReceived = false }

// AckInfo summarizes the TCPLS-layer ACK bookkeeping for diagnostics
// (spec.md §6 "informational accessors").
type AckInfo struct {
	InternalHighestRecordSeq uint64
	HighestRecordSeqReceived uint64
	AckReceived              bool
}

// LastAckInfo returns the current ACK bookkeeping snapshot.
func (c *Connection) LastAckInfo() AckInfo {
	return AckInfo{
		InternalHighestRecordSeq: c.internalSeq,
		HighestRecordSeqReceived: c.receivedSeq,
		AckReceived:              c.ackReceived,
	}
}

// StreamInfo summarizes one stream's buffers and offsets for diagnostics.
type StreamInfo struct {
	ID             uint32
	SendOffset     uint64
	RecvOffset     uint64
	SendBufLen     int
	RecvBufLen     int
	LastFrameType  tcplsframe.Type
}

// StreamsReceivedInfo returns a diagnostic snapshot of every registered
// stream, in registry (insertion) order (spec.md §6).
func (c *Connection) StreamsReceivedInfo() []StreamInfo {
	out := make([]StreamInfo, 0, len(c.streamOrder))
	for _, id := range c.streamOrder {
		s := c.streams[id]
		out = append(out, StreamInfo{
			ID:            s.ID(),
			SendOffset:    s.SendOffset(),
			RecvOffset:    s.RecvOffset(),
			SendBufLen:    s.SendBufLen(),
			RecvBufLen:    len(s.RecvData()),
			LastFrameType: s.LastFrameType(),
		})
	}
	return out
}

// Package tcplsstream implements the per-stream send/receive buffers,
// offset tracking, and frame segmentation/reassembly of a single TCPLS
// stream (spec.md §3, §4.2).
package tcplsstream

import (
	"github.com/sirupsen/logrus"

	"github.com/tcpls-go/tcpls/pkg/tcplsframe"
)

// Stream is one independent, ordered byte channel multiplexed over a
// TCPLS connection. It has no open/closed state machine of its own
// (spec.md §4.2 "State machine"): a Stream is just its buffers and
// offsets, and reception of STREAM_FIN is not distinguished from STREAM
// at this layer.
type Stream struct {
	id         uint32
	recvOffset uint64
	sendOffset uint64
	sendBuf    []byte
	recvBuf    []byte

	// lastFrameType records the most recently decoded frame's type, the
	// only place the FIN signal is currently visible (spec.md §4.2).
	lastFrameType tcplsframe.Type
}

// New constructs a stream pre-loaded with recvData (normally empty; the
// connection layer always passes nil).
func New(id uint32, recvData []byte) *Stream {
	return &Stream{id: id, recvBuf: recvData}
}

// ID returns the stream identifier.
func (s *Stream) ID() uint32 { return s.id }

// RecvOffset returns the highest offset seen in any STREAM frame for this
// stream. This is overwritten, not maxed, on each received frame — see
// spec.md §9 "recv_offset semantics": correct only under strictly
// in-order delivery, which a single TLS session provides.
func (s *Stream) RecvOffset() uint64 { return s.recvOffset }

// SendOffset returns the count of bytes already serialized into outgoing
// frames.
func (s *Stream) SendOffset() uint64 { return s.sendOffset }

// RecvData returns the bytes reassembled so far from incoming STREAM
// frames.
func (s *Stream) RecvData() []byte { return s.recvBuf }

// SendBufLen returns the number of bytes queued by the application,
// including bytes already framed.
func (s *Stream) SendBufLen() int { return len(s.sendBuf) }

// LastFrameType reports the type of the last frame decoded for this
// stream (STREAM or STREAM_FIN), or Padding if none yet.
func (s *Stream) LastFrameType() tcplsframe.Type { return s.lastFrameType }

// AddDataToSend appends to the send buffer. There is no size cap at this
// layer (spec.md §4.8): the caller/application is responsible for not
// growing it without bound.
func (s *Stream) AddDataToSend(b []byte) {
	s.sendBuf = append(s.sendBuf, b...)
}

// HasDataToSend reports whether any queued bytes remain unframed.
func (s *Stream) HasDataToSend() bool {
	return s.sendOffset < uint64(len(s.sendBuf))
}

// CreateStreamFrame serializes the next chunk of the send buffer into a
// STREAM or STREAM_FIN frame that fits within budget bytes, or returns
// ok=false if the send buffer is empty or fully consumed (spec.md §4.2).
//
// Postcondition: the returned frame's length is <= budget.
func (s *Stream) CreateStreamFrame(budget int) (frame []byte, ok bool) {
	if !s.HasDataToSend() {
		return nil, false
	}

	remaining := len(s.sendBuf) - int(s.sendOffset)
	typ := tcplsframe.StreamFin
	payloadLen := remaining
	if remaining+tcplsframe.StreamHeaderSize > budget {
		typ = tcplsframe.Stream
		payloadLen = budget - tcplsframe.StreamHeaderSize
	}

	start := int(s.sendOffset)
	payload := s.sendBuf[start : start+payloadLen]

	frame = make([]byte, 0, payloadLen+tcplsframe.StreamHeaderSize)
	frame = append(frame, payload...)
	frame = tcplsframe.AppendUint16(frame, uint16(payloadLen))
	frame = tcplsframe.AppendUint64(frame, s.sendOffset)
	frame = tcplsframe.AppendUint32(frame, s.id)
	frame = append(frame, byte(typ))

	s.sendOffset += uint64(payloadLen)

	logrus.WithFields(logrus.Fields{
		"stream_id": s.id,
		"len":       payloadLen,
		"type":      typ,
	}).Trace("tcplsstream: created data frame")

	return frame, true
}

// ReadStreamFrame consumes a STREAM/STREAM_FIN frame's remainder: the
// caller has already stripped the trailing type byte and the 4-byte
// stream id. It returns the number of bytes consumed from slice
// (len + 10, per spec.md §4.2), not counting the type+id the caller
// already removed.
func (s *Stream) ReadStreamFrame(slice []byte, typ tcplsframe.Type) (int, error) {
	if len(slice) < 10 {
		return 0, tcplsframe.ErrBadSliceLength
	}

	cursor := len(slice)

	offset, err := tcplsframe.DecodeUint64(slice[cursor-8 : cursor])
	if err != nil {
		return 0, err
	}
	cursor -= 8
	s.recvOffset = offset

	length, err := tcplsframe.DecodeUint16(slice[cursor-2 : cursor])
	if err != nil {
		return 0, err
	}
	cursor -= 2

	if int(length) > cursor {
		return 0, tcplsframe.ErrBadSliceLength
	}

	payload := slice[cursor-int(length) : cursor]
	s.recvBuf = append(s.recvBuf, payload...)
	s.lastFrameType = typ

	logrus.WithFields(logrus.Fields{
		"stream_id": s.id,
		"len":       length,
		"offset":    offset,
	}).Trace("tcplsstream: read data frame")

	return int(length) + 8 + 2, nil
}

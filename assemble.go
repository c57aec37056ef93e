package tcpls

import (
	"github.com/sirupsen/logrus"

	"github.com/tcpls-go/tcpls/pkg/tcplsframe"
)

// BuildRecord assembles the next outgoing TCPLS record: as much queued
// stream data as fits, followed by any staged control (ACK) frames,
// per spec.md §4.3.
//
// Data frames occupy the head of the record and control frames the
// tail, matching the reverse-scan decoder in ProcessRecord — the decoder
// sees control frames first.
//
// An empty record (nothing queued) is represented as a single PADDING
// byte so the I/O loop stays live. Any record that would exceed
// MaxRecordSize is tcplsframe.ErrRecordTooLarge, a programmer error.
func (c *Connection) BuildRecord() ([]byte, error) {
	spaceLeft := tcplsframe.MaxRecordSize - len(c.controlBuf)

	var record []byte
	for _, id := range c.streamOrder {
		s := c.streams[id]
		for s.HasDataToSend() && spaceLeft > tcplsframe.MinStreamDataSize {
			frame, ok := s.CreateStreamFrame(spaceLeft)
			if !ok {
				break
			}
			record = append(record, frame...)
			spaceLeft -= len(frame)
		}
	}

	if len(record)+len(c.controlBuf) <= tcplsframe.MaxRecordSize {
		record = append(record, c.controlBuf...)
		c.controlBuf = c.controlBuf[:0]
	}

	if len(record) == 0 {
		record = []byte{byte(tcplsframe.Padding)}
	}

	if len(record) == 0 || len(record) > tcplsframe.MaxRecordSize {
		return nil, tcplsframe.ErrRecordTooLarge
	}

	if c.metrics != nil {
		c.metrics.BytesSent(len(record))
	}

	logrus.WithFields(logrus.Fields{"conn_id": c.connID, "len": len(record)}).
		Trace("tcpls: built record")

	return record, nil
}

// stageAck appends an ACK frame to the control buffer, carrying the most
// recent sequence fed via UpdateTLSRecordSequence (spec.md §4.5). If the
// control buffer is already too full, the ACK is dropped silently — the
// next build_record opportunity absorbs it (spec.md §7 NotEnoughSpace:
// silent, deferred).
func (c *Connection) stageAck() {
	if len(c.controlBuf)+tcplsframe.AckFrameSize > tcplsframe.MaxRecordSize {
		logrus.WithField("conn_id", c.connID).Debug("tcpls: dropping ACK, control buffer full")
		if c.metrics != nil {
			c.metrics.AckDropped()
		}
		return
	}
	f := tcplsframe.AckFrame{HighestRecordSeq: c.internalSeq, ConnID: c.connID}
	c.controlBuf = f.Encode(c.controlBuf)
	if c.metrics != nil {
		c.metrics.AckStaged()
	}
}

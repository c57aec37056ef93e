package tcpls

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/tcpls-go/tcpls/pkg/tcplsframe"
)

// ProcessRecord reverse-scans a decrypted TLS payload and dispatches each
// frame it contains (spec.md §4.4). Frames are tail-tagged, so the scan
// walks from the end of the payload toward the start; decoding a frame at
// position `end` always looks at payload[end-1] as the type tag.
//
// Unlike the spec's index-based "while i > 0, then handle index 0
// specially" framing (spec.md §9 notes this is awkward), this loop tracks
// the count of unprocessed bytes rather than a raw index, so the last
// byte of the payload is handled by the same loop body as everything
// else — no post-loop special case is needed.
func (c *Connection) ProcessRecord(payload []byte) error {
	end := len(payload)

	for end > 0 {
		typ := tcplsframe.Type(payload[end-1])

		switch {
		case typ == tcplsframe.Padding:
			end--
			c.recordFrame(typ)

		case typ == tcplsframe.Ping:
			end--
			c.recordFrame(typ)
			if c.metrics != nil {
				c.metrics.PingReceived()
			}
			c.stageAck()

		case typ == tcplsframe.Ack:
			if end < tcplsframe.AckFrameSize {
				return fmt.Errorf("tcpls: truncated ACK frame: %w", tcplsframe.ErrBadSliceLength)
			}
			trailer := payload[end-tcplsframe.AckFrameSize : end-1]
			ack, err := tcplsframe.DecodeAckTrailer(trailer)
			if err != nil {
				return err
			}
			c.receivedSeq = ack.HighestRecordSeq
			c.ackReceived = true
			end -= tcplsframe.AckFrameSize
			c.recordFrame(typ)
			logrus.WithFields(logrus.Fields{
				"conn_id": c.connID, "seq": ack.HighestRecordSeq, "peer_conn_id": ack.ConnID,
			}).Trace("tcpls: received ACK")

		case typ == tcplsframe.Stream || typ == tcplsframe.StreamFin:
			const idAndType = 5
			if end < tcplsframe.StreamHeaderSize {
				return fmt.Errorf("tcpls: truncated stream frame: %w", tcplsframe.ErrBadSliceLength)
			}
			streamID, err := tcplsframe.DecodeUint32(payload[end-idAndType : end-1])
			if err != nil {
				return err
			}

			// length sits just before offset+id+type in the trailer
			// (payload ... length(2) offset(8) stream_id(4) type(1));
			// validate it against the remaining record before handing
			// the slice to ReadStreamFrame, since it is peer-controlled
			// and up to 65535.
			length, err := tcplsframe.DecodeUint16(payload[end-tcplsframe.StreamHeaderSize : end-tcplsframe.StreamHeaderSize+2])
			if err != nil {
				return err
			}
			if int(length) > end-tcplsframe.StreamHeaderSize {
				return fmt.Errorf("tcpls: stream frame length exceeds remaining record bytes: %w", tcplsframe.ErrBadSliceLength)
			}

			s := c.getOrCreateStream(streamID)
			c.lastProcID = streamID

			consumed, err := s.ReadStreamFrame(payload[:end-idAndType], typ)
			if err != nil {
				return err
			}
			end -= idAndType + consumed
			c.recordFrame(typ)

		case typ.Reserved():
			return fmt.Errorf("tcpls: %w: %s", tcplsframe.ErrReservedType, typ)

		default:
			return fmt.Errorf("tcpls: %w: 0x%02x", tcplsframe.ErrUnknownType, byte(typ))
		}
	}

	return nil
}

func (c *Connection) recordFrame(t tcplsframe.Type) {
	if c.metrics != nil {
		c.metrics.FrameDispatched(t)
	}
}

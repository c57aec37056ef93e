package tcplsframe

// AckFrame is the 13-byte control frame carrying the sender's most recent
// outbound TLS record sequence number back to the peer (spec.md §3, §4.5).
type AckFrame struct {
	HighestRecordSeq uint64
	ConnID           uint32
}

// Encode appends the wire encoding of the frame to dst: highest record
// sequence, then conn id, then the trailing type tag. 13 bytes total.
func (f AckFrame) Encode(dst []byte) []byte {
	dst = AppendUint64(dst, f.HighestRecordSeq)
	dst = AppendUint32(dst, f.ConnID)
	dst = append(dst, byte(Ack))
	return dst
}

// DecodeAckTrailer reads an ACK frame's body from the 12 bytes immediately
// preceding an already-consumed Ack type tag.
func DecodeAckTrailer(b []byte) (AckFrame, error) {
	if len(b) != AckFrameSize-1 {
		return AckFrame{}, ErrBadSliceLength
	}
	seq, err := DecodeUint64(b[:8])
	if err != nil {
		return AckFrame{}, err
	}
	connID, err := DecodeUint32(b[8:12])
	if err != nil {
		return AckFrame{}, err
	}
	return AckFrame{HighestRecordSeq: seq, ConnID: connID}, nil
}

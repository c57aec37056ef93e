package tcplsframe

import "encoding/binary"

// DecodeUint16 reads a big-endian u16 from a slice that must be exactly 2
// bytes long. Any other length is ErrBadSliceLength (spec.md §4.1, §8).
func DecodeUint16(b []byte) (uint16, error) {
	if len(b) != 2 {
		return 0, ErrBadSliceLength
	}
	return binary.BigEndian.Uint16(b), nil
}

// DecodeUint32 reads a big-endian u32 from a 4-byte slice.
func DecodeUint32(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, ErrBadSliceLength
	}
	return binary.BigEndian.Uint32(b), nil
}

// DecodeUint64 reads a big-endian u64 from an 8-byte slice.
func DecodeUint64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, ErrBadSliceLength
	}
	return binary.BigEndian.Uint64(b), nil
}

// AppendUint16 appends the big-endian encoding of v to dst.
func AppendUint16(dst []byte, v uint16) []byte {
	return binary.BigEndian.AppendUint16(dst, v)
}

// AppendUint32 appends the big-endian encoding of v to dst.
func AppendUint32(dst []byte, v uint32) []byte {
	return binary.BigEndian.AppendUint32(dst, v)
}

// AppendUint64 appends the big-endian encoding of v to dst.
func AppendUint64(dst []byte, v uint64) []byte {
	return binary.BigEndian.AppendUint64(dst, v)
}

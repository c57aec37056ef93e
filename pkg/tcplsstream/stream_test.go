package tcplsstream

import (
	"crypto/rand"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/tcpls-go/tcpls/pkg/tcplsframe"
)

func randBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	if n > 0 {
		_, err := rand.Read(b)
		assert.NilError(t, err)
	}
	return b
}

func expectedTrailer(payload []byte, offset uint64, streamID uint32, typ tcplsframe.Type) []byte {
	want := append([]byte{}, payload...)
	want = tcplsframe.AppendUint16(want, uint16(len(payload)))
	want = tcplsframe.AppendUint64(want, offset)
	want = tcplsframe.AppendUint32(want, streamID)
	want = append(want, byte(typ))
	return want
}

// TestCreateStreamFrame_MaxSize mirrors test_stream_creation_max_frame_size:
// a send buffer exactly MaxStreamDataSize long, drained at MaxRecordSize,
// produces a single STREAM_FIN frame.
func TestCreateStreamFrame_MaxSize(t *testing.T) {
	data := randBytes(t, tcplsframe.MaxStreamDataSize)
	s := NewBuilder(2).AddData(data).Build()

	frame, ok := s.CreateStreamFrame(tcplsframe.MaxRecordSize)
	assert.Assert(t, ok)
	assert.DeepEqual(t, frame, expectedTrailer(data, 0, 2, tcplsframe.StreamFin))

	_, ok = s.CreateStreamFrame(tcplsframe.MaxRecordSize)
	assert.Assert(t, !ok)
}

// TestCreateStreamFrame_Empty mirrors test_stream_creation_min_frame_size:
// an empty send buffer yields no frame at all.
func TestCreateStreamFrame_Empty(t *testing.T) {
	s := NewBuilder(2).Build()
	_, ok := s.CreateStreamFrame(tcplsframe.MaxRecordSize)
	assert.Assert(t, !ok)
}

// TestCreateStreamFrame_Small mirrors test_stream_creation_random_frame_size.
func TestCreateStreamFrame_Small(t *testing.T) {
	data := randBytes(t, 65)
	s := NewBuilder(2).AddData(data).Build()

	frame, ok := s.CreateStreamFrame(tcplsframe.MaxRecordSize)
	assert.Assert(t, ok)
	assert.DeepEqual(t, frame, expectedTrailer(data, 0, 2, tcplsframe.StreamFin))
}

// TestCreateStreamFrame_Segmentation mirrors
// test_stream_creation_more_than_frame_size: data bigger than one frame's
// budget is split into a STREAM frame (non-final) then a STREAM_FIN.
func TestCreateStreamFrame_Segmentation(t *testing.T) {
	size1 := tcplsframe.MaxStreamDataSize
	size2 := tcplsframe.MaxStreamDataSize / 2
	data1 := randBytes(t, size1)
	data2 := randBytes(t, size2)

	s := NewBuilder(2).AddData(data1).AddData(data2).Build()

	frame1, ok := s.CreateStreamFrame(tcplsframe.MaxRecordSize)
	assert.Assert(t, ok)
	assert.DeepEqual(t, frame1, expectedTrailer(data1, 0, 2, tcplsframe.Stream))
	assert.Equal(t, s.SendOffset(), uint64(size1))

	frame2, ok := s.CreateStreamFrame(tcplsframe.MaxRecordSize)
	assert.Assert(t, ok)
	assert.DeepEqual(t, frame2, expectedTrailer(data2, uint64(size1), 2, tcplsframe.StreamFin))
	assert.Equal(t, s.SendOffset(), uint64(size1+size2))
}

// TestCreateStreamFrame_TightBudget checks the budget-exceeded path uses
// STREAM (not STREAM_FIN) and respects the postcondition that the
// returned frame never exceeds budget (spec.md §8).
func TestCreateStreamFrame_TightBudget(t *testing.T) {
	data := randBytes(t, 1000)
	s := NewBuilder(9).AddData(data).Build()

	budget := tcplsframe.StreamHeaderSize + 100
	frame, ok := s.CreateStreamFrame(budget)
	assert.Assert(t, ok)
	assert.Assert(t, len(frame) <= budget)
	assert.Equal(t, len(frame), budget)
	assert.Equal(t, tcplsframe.Type(frame[len(frame)-1]), tcplsframe.Stream)
}

// TestAddDataThenDrainRoundTrip is the generic invariant from spec.md §8:
// draining CreateStreamFrame with any valid budget until it returns false
// reproduces the original bytes in order, and advances send_offset to
// len(D).
func TestAddDataThenDrainRoundTrip(t *testing.T) {
	data := randBytes(t, 10_000)
	s := NewBuilder(1).AddData(data).Build()

	const budget = tcplsframe.StreamHeaderSize + 777
	var got []byte
	for {
		frame, ok := s.CreateStreamFrame(budget)
		if !ok {
			break
		}
		payloadLen := len(frame) - tcplsframe.StreamHeaderSize
		got = append(got, frame[:payloadLen]...)
	}
	assert.DeepEqual(t, got, data)
	assert.Equal(t, s.SendOffset(), uint64(len(data)))
}

// TestReadStreamFrameRoundTrip checks that encoding then decoding a
// STREAM frame reproduces the payload and the consumed-byte count from
// spec.md §4.2 (len + 10).
func TestReadStreamFrameRoundTrip(t *testing.T) {
	data := randBytes(t, 65)
	sender := NewBuilder(2).AddData(data).Build()
	frame, ok := sender.CreateStreamFrame(tcplsframe.MaxRecordSize)
	assert.Assert(t, ok)

	// strip trailing type byte and stream id, as the connection
	// dispatcher would before delegating to Stream.ReadStreamFrame.
	typ := tcplsframe.Type(frame[len(frame)-1])
	withoutTypeAndID := frame[:len(frame)-5]

	recv := New(2, nil)
	consumed, err := recv.ReadStreamFrame(withoutTypeAndID, typ)
	assert.NilError(t, err)
	assert.Equal(t, consumed, len(data)+10)
	assert.DeepEqual(t, recv.RecvData(), data)
	assert.Equal(t, recv.RecvOffset(), uint64(0))
	assert.Equal(t, recv.LastFrameType(), tcplsframe.StreamFin)
}

// TestReadStreamFrameTruncated checks that a frame too short to hold the
// offset+length trailer is rejected rather than indexing slice out of
// range.
func TestReadStreamFrameTruncated(t *testing.T) {
	recv := New(2, nil)

	_, err := recv.ReadStreamFrame(nil, tcplsframe.Stream)
	assert.ErrorIs(t, err, tcplsframe.ErrBadSliceLength)

	_, err = recv.ReadStreamFrame(make([]byte, 9), tcplsframe.Stream)
	assert.ErrorIs(t, err, tcplsframe.ErrBadSliceLength)
}

// TestReadStreamFrameLengthOverrunsSlice checks that a length field
// claiming more payload than is actually present is rejected rather than
// indexing slice out of range.
func TestReadStreamFrameLengthOverrunsSlice(t *testing.T) {
	recv := New(2, nil)

	// 10-byte trailer (offset + length) with length=1 but zero payload
	// bytes preceding it.
	slice := tcplsframe.AppendUint16(nil, 1)
	slice = tcplsframe.AppendUint64(slice, 0)

	_, err := recv.ReadStreamFrame(slice, tcplsframe.Stream)
	assert.ErrorIs(t, err, tcplsframe.ErrBadSliceLength)
}

package tcpls

import (
	"crypto/rand"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/tcpls-go/tcpls/pkg/tcplsframe"
	"github.com/tcpls-go/tcpls/pkg/tcplsstream"
)

// TestPingAckScenario mirrors spec.md §8 scenario 1.
func TestPingAckScenario(t *testing.T) {
	client := New(0, Client)
	server := New(0, Server)

	// The ACK carries the sequence held when the PING stages it.
	server.UpdateTLSRecordSequence(7)
	err := server.ProcessRecord([]byte{byte(tcplsframe.Ping)})
	assert.NilError(t, err)

	record, err := server.BuildRecord()
	assert.NilError(t, err)

	want := []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x07, 0x00, 0x00, 0x00, 0x00, 0x04}
	assert.DeepEqual(t, record, want)
	assert.Equal(t, len(record), tcplsframe.AckFrameSize)
	assert.Equal(t, record[len(record)-1], byte(tcplsframe.Ack))

	assert.NilError(t, client.ProcessRecord(record))
	assert.Equal(t, client.LastAckInfo().HighestRecordSeqReceived, uint64(7))
	assert.Assert(t, client.HasReceivedAck())
}

// TestSmallStreamScenario mirrors spec.md §8 scenario 2.
func TestSmallStreamScenario(t *testing.T) {
	client := New(0, Client)
	client.SetData([]byte{0x41, 0x42, 0x43})

	record, err := client.BuildRecord()
	assert.NilError(t, err)

	want := []byte{
		0x41, 0x42, 0x43, // payload
		0x00, 0x03, // len=3
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // offset=0
		0x00, 0x00, 0x00, 0x00, // stream_id=0
		0x03, // STREAM_FIN
	}
	assert.DeepEqual(t, record, want)

	server := New(0, Server)
	assert.NilError(t, server.ProcessRecord(record))

	got, err := server.GetStreamData(0)
	assert.NilError(t, err)
	assert.DeepEqual(t, got, []byte{0x41, 0x42, 0x43})
}

// TestSegmentationScenario mirrors spec.md §8 scenario 3.
func TestSegmentationScenario(t *testing.T) {
	size := tcplsframe.MaxStreamDataSize + 100
	data := make([]byte, size)
	_, err := rand.Read(data)
	assert.NilError(t, err)

	client := New(0, Client)
	client.SetData(data)

	record1, err := client.BuildRecord()
	assert.NilError(t, err)
	assert.Equal(t, len(record1), tcplsframe.MaxStreamDataSize+tcplsframe.StreamHeaderSize)
	assert.Equal(t, record1[len(record1)-1], byte(tcplsframe.Stream))

	record2, err := client.BuildRecord()
	assert.NilError(t, err)
	assert.Equal(t, len(record2), 100+tcplsframe.StreamHeaderSize)
	assert.Equal(t, record2[len(record2)-1], byte(tcplsframe.StreamFin))

	server := New(0, Server)
	assert.NilError(t, server.ProcessRecord(record1))
	assert.NilError(t, server.ProcessRecord(record2))

	got, err := server.GetStreamData(0)
	assert.NilError(t, err)
	assert.DeepEqual(t, got, data)
}

// TestUnknownStreamIDScenario mirrors spec.md §8 scenario 4.
func TestUnknownStreamIDScenario(t *testing.T) {
	client := New(0, Client)
	s := tcplsstream.NewBuilder(4).AddData([]byte("hello")).Build()
	client.AttachStream(s, 4)

	record, err := client.BuildRecord()
	assert.NilError(t, err)

	server := New(0, Server)
	assert.NilError(t, server.ProcessRecord(record))

	got, err := server.GetStreamData(4)
	assert.NilError(t, err)
	assert.DeepEqual(t, got, []byte("hello"))
}

// TestUnknownTypeScenario mirrors spec.md §8 scenario 5.
func TestUnknownTypeScenario(t *testing.T) {
	server := New(0, Server)
	err := server.ProcessRecord([]byte{0xFE})
	assert.ErrorIs(t, err, tcplsframe.ErrUnknownType)
}

// TestReservedTypeIsFatal exercises spec.md §3/§9: reserved codepoints
// are wired in the taxonomy but fatal to decode in this revision.
func TestReservedTypeIsFatal(t *testing.T) {
	server := New(0, Server)
	err := server.ProcessRecord([]byte{byte(tcplsframe.NewToken)})
	assert.ErrorIs(t, err, tcplsframe.ErrReservedType)
}

// TestTruncatedStreamFrameIsRejected exercises spec.md §7/§8: a record
// with just enough bytes for a stream id + type tag, but no offset/length
// trailer, must be rejected rather than panic.
func TestTruncatedStreamFrameIsRejected(t *testing.T) {
	server := New(0, Server)
	record := []byte{0, 0, 0, 4, byte(tcplsframe.Stream)}
	err := server.ProcessRecord(record)
	assert.ErrorIs(t, err, tcplsframe.ErrBadSliceLength)
}

// TestStreamFrameLengthOverrunIsRejected exercises spec.md §7/§8: a
// stream frame whose peer-supplied length field claims more payload than
// the record actually carries must be rejected rather than panic or read
// out of bounds.
func TestStreamFrameLengthOverrunIsRejected(t *testing.T) {
	server := New(0, Server)

	record := tcplsframe.AppendUint16(nil, 1) // length=1, zero payload bytes precede it
	record = tcplsframe.AppendUint64(record, 0)
	record = tcplsframe.AppendUint32(record, 4)
	record = append(record, byte(tcplsframe.Stream))

	err := server.ProcessRecord(record)
	assert.ErrorIs(t, err, tcplsframe.ErrBadSliceLength)
}

// TestDispatcherStagesAckAndAppendsStream exercises spec.md §8's literal dispatcher example:
// a record containing [STREAM(id=2, "abc") ‖ PING] stages exactly one
// ACK and appends "abc" to stream 2.
func TestDispatcherStagesAckAndAppendsStream(t *testing.T) {
	sender := New(0, Client)
	s := tcplsstream.NewBuilder(2).AddData([]byte("abc")).Build()
	sender.AttachStream(s, 2)
	streamFrame, err := sender.BuildRecord()
	assert.NilError(t, err)
	// the sender's control buffer is empty, so the record is the bare
	// STREAM frame; append a PING to get [STREAM ‖ PING].
	record := append(streamFrame, byte(tcplsframe.Ping))

	server := New(0, Server)
	assert.NilError(t, server.ProcessRecord(record))

	got, err := server.GetStreamData(2)
	assert.NilError(t, err)
	assert.DeepEqual(t, got, []byte("abc"))

	next, err := server.BuildRecord()
	assert.NilError(t, err)
	assert.Equal(t, len(next), tcplsframe.AckFrameSize)
	assert.Equal(t, next[len(next)-1], byte(tcplsframe.Ack))
}

// TestStreamNotFound exercises spec.md §4.8: an explicit query for an
// id that was never seen is a caller error, not an implicit creation.
func TestStreamNotFound(t *testing.T) {
	c := New(0, Server)
	_, err := c.GetStreamData(99)
	assert.ErrorIs(t, err, ErrStreamNotFound)
}

// TestBuildRecordNeverExceedsMaxSize is the bound from spec.md §8.
func TestBuildRecordNeverExceedsMaxSize(t *testing.T) {
	c := New(0, Client)
	data := make([]byte, tcplsframe.MaxStreamDataSize*3)
	_, err := rand.Read(data)
	assert.NilError(t, err)
	c.SetData(data)

	for c.HasData() {
		record, err := c.BuildRecord()
		assert.NilError(t, err)
		assert.Assert(t, len(record) > 0)
		assert.Assert(t, len(record) <= tcplsframe.MaxRecordSize)
	}
}

// TestRoundTripIdentity is spec.md §8's "Round-trip" property: processing
// everything one peer's BuildRecord emits is an identity on observable
// stream contents.
func TestRoundTripIdentity(t *testing.T) {
	client := New(0, Client)
	payloads := [][]byte{
		[]byte("first stream payload"),
		make([]byte, tcplsframe.MaxStreamDataSize+500),
	}
	_, err := rand.Read(payloads[1])
	assert.NilError(t, err)

	client.SetData(payloads[0])
	s := tcplsstream.NewBuilder(2).AddData(payloads[1]).Build()
	client.AttachStream(s, 2)

	server := New(0, Server)
	for client.HasData() {
		record, err := client.BuildRecord()
		assert.NilError(t, err)
		assert.NilError(t, server.ProcessRecord(record))
	}

	got0, err := server.GetStreamData(0)
	assert.NilError(t, err)
	assert.DeepEqual(t, got0, payloads[0])

	got2, err := server.GetStreamData(2)
	assert.NilError(t, err)
	assert.DeepEqual(t, got2, payloads[1])
}

// TestEmptyRecordIsSinglePadding checks the MinStreamDataSize / idle
// path: with nothing queued, BuildRecord still returns a live single
// PADDING byte (spec.md §4.3 step 4).
func TestEmptyRecordIsSinglePadding(t *testing.T) {
	c := New(0, Client)
	record, err := c.BuildRecord()
	assert.NilError(t, err)
	assert.DeepEqual(t, record, []byte{byte(tcplsframe.Padding)})
}

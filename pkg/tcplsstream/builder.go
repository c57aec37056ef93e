package tcplsstream

// Builder accumulates data for a stream before it exists, so the sender
// can pre-populate per-file streams and hand them to a connection in a
// single attach call (spec.md §4.7).
type Builder struct {
	id      uint32
	sendBuf []byte
}

// NewBuilder starts building a stream with the given id.
func NewBuilder(id uint32) *Builder {
	return &Builder{id: id}
}

// AddData appends data to the stream-to-be's send buffer.
func (b *Builder) AddData(data []byte) *Builder {
	b.sendBuf = append(b.sendBuf, data...)
	return b
}

// Build consumes the builder and returns the resulting Stream, with zero
// offsets and an empty receive buffer.
func (b *Builder) Build() *Stream {
	return &Stream{id: b.id, sendBuf: b.sendBuf}
}

package remotefs

// Buffer is a staging buffer with an explicit position and limit over a
// fixed capacity. A buffer is either addressable, meaning its backing
// array may be read and written directly, or non-addressable, in which
// case fills go through an intermediate copy. ReadBuffer resolves the
// variant once per call through Array.
type Buffer struct {
	data     []byte
	position int
	limit    int
	direct   bool
}

// NewBuffer returns an addressable buffer of the given capacity, with the
// position at zero and the limit at capacity.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{
		data:  make([]byte, capacity),
		limit: capacity,
	}
}

// NewDirectBuffer returns a non-addressable buffer of the given capacity.
// Its backing store is not exposed through Array, so fills stage through a
// temporary array.
func NewDirectBuffer(capacity int) *Buffer {
	return &Buffer{
		data:   make([]byte, capacity),
		limit:  capacity,
		direct: true,
	}
}

// Array returns the backing array when the buffer is addressable.
func (b *Buffer) Array() ([]byte, bool) {
	if b.direct {
		return nil, false
	}
	return b.data, true
}

func (b *Buffer) Capacity() int {
	return len(b.data)
}

func (b *Buffer) Position() int {
	return b.position
}

// SetPosition moves the write/read position. The position may not pass the
// limit.
func (b *Buffer) SetPosition(position int) {
	if position < 0 || position > b.limit {
		panic("remotefs: buffer position out of range")
	}
	b.position = position
}

func (b *Buffer) Limit() int {
	return b.limit
}

// SetLimit moves the limit. The position is pulled back if it would pass
// the new limit.
func (b *Buffer) SetLimit(limit int) {
	if limit < 0 || limit > len(b.data) {
		panic("remotefs: buffer limit out of range")
	}
	b.limit = limit
	if b.position > limit {
		b.position = limit
	}
}

// Remaining returns the bytes left between position and limit.
func (b *Buffer) Remaining() int {
	return b.limit - b.position
}

// Put copies p into the buffer at the current position, bounded by the
// limit, and advances the position by the bytes written.
func (b *Buffer) Put(p []byte) int {
	n := copy(b.data[b.position:b.limit], p)
	b.position += n
	return n
}

// Bytes returns the readable window, the contents from the start of the
// buffer up to the current position.
func (b *Buffer) Bytes() []byte {
	return b.data[:b.position]
}

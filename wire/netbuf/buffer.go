package netbuf

import (
	"errors"
	"sync/atomic"
)

// DefaultSize is the capacity of a Buffer returned by New, large enough for
// any non-jumbo Ethernet frame.
const DefaultSize = 2048

// ErrFull is returned by Write when the backing array has no room left.
var ErrFull = errors.New("netbuf: buffer is full")

type ownership uint8

const (
	pooled ownership = iota
	external
)

// Buffer is a recyclable, refcounted window onto a byte array: [start, end)
// is the live content, [end, cap) is free room to Extend or Write into.
// Clone shares the backing array across multiple owners (e.g. a hub
// fanning one frame out to every peer but its ingress) by bumping a
// refcount instead of copying; Release only returns a pooled Buffer's
// backing array to its pool once every clone has released it. Release is a
// no-op for a Buffer built with FromBytes, since that array is owned by
// the caller.
type Buffer struct {
	v     []byte
	start int32
	end   int32
	own   ownership
	refs  *int32
}

// New allocates a Buffer with 0 length and DefaultSize capacity.
func New() *Buffer {
	return newPooled(alloc(DefaultSize))
}

// NewWithSize allocates a Buffer with 0 length and capacity at least size.
func NewWithSize(size int32) *Buffer {
	return newPooled(alloc(size))
}

func newPooled(v []byte) *Buffer {
	refs := int32(1)
	return &Buffer{v: v, own: pooled, refs: &refs}
}

// FromBytes wraps an existing byte slice as a Buffer's full content.
// Release does not recycle b; the caller keeps ownership of it.
func FromBytes(b []byte) *Buffer {
	refs := int32(1)
	return &Buffer{v: b, end: int32(len(b)), own: external, refs: &refs}
}

// Clone returns a new Buffer sharing this one's backing array and current
// window, bumping the shared refcount. The clone and the original are each
// independently Release-able; the backing array is recycled only once
// every outstanding clone has released it. Mutating the shared bytes
// through one clone is visible through all of them — callers that need to
// mutate (NAT rewrite, TTL decrement) must copy into a fresh Buffer first.
func (b *Buffer) Clone() *Buffer {
	atomic.AddInt32(b.refs, 1)
	return &Buffer{v: b.v, start: b.start, end: b.end, own: b.own, refs: b.refs}
}

// Release drops this Buffer's reference. Once the last outstanding clone
// releases, a pooled Buffer's backing array is returned to its pool. The
// Buffer must not be used again after calling Release.
func (b *Buffer) Release() {
	if b == nil || b.v == nil {
		return
	}
	v := b.v
	b.v = nil
	if b.own == external {
		return
	}
	if atomic.AddInt32(b.refs, -1) > 0 {
		return
	}
	free(v)
}

// Len returns the length of the live content.
func (b *Buffer) Len() int32 {
	if b == nil {
		return 0
	}
	return b.end - b.start
}

// Cap returns the total capacity of the backing array.
func (b *Buffer) Cap() int32 {
	if b == nil {
		return 0
	}
	return int32(len(b.v))
}

// IsEmpty reports whether the buffer has no live content.
func (b *Buffer) IsEmpty() bool {
	return b.Len() == 0
}

// Bytes returns the live content.
func (b *Buffer) Bytes() []byte {
	return b.v[b.start:b.end]
}

// BytesFrom returns the live content starting at the given offset from
// start. A negative offset counts back from the end.
func (b *Buffer) BytesFrom(from int32) []byte {
	if from < 0 {
		from += b.Len()
	}
	return b.v[b.start+from : b.end]
}

// BytesTo returns the live content up to the given offset from start. A
// negative offset counts back from the end.
func (b *Buffer) BytesTo(to int32) []byte {
	if to < 0 {
		to += b.Len()
	}
	return b.v[b.start : b.start+to]
}

// BytesRange returns the live content between two offsets from start.
// Negative offsets count back from the end.
func (b *Buffer) BytesRange(from, to int32) []byte {
	if from < 0 {
		from += b.Len()
	}
	if to < 0 {
		to += b.Len()
	}
	return b.v[b.start+from : b.start+to]
}

// Advance drops the first n bytes of live content without copying the
// remainder, exposing the next header in a layered packet (e.g. skipping
// past an Ethernet header to reach the IPv4 payload).
func (b *Buffer) Advance(n int32) {
	b.start += n
	b.clampStart()
}

// Extend grows the live content by n bytes at the end, zeroing and
// returning the newly exposed region. Panics if that would exceed Cap.
func (b *Buffer) Extend(n int32) []byte {
	end := b.end + n
	if end > int32(len(b.v)) {
		panic("netbuf: extend out of bounds")
	}
	ext := b.v[b.end:end]
	clear(ext)
	b.end = end
	return ext
}

// Resize sets the live content to [start+from, start+to).
func (b *Buffer) Resize(from, to int32) {
	if from < 0 {
		from += b.Len()
	}
	if to < 0 {
		to += b.Len()
	}
	if to < from {
		panic("netbuf: invalid resize range")
	}
	oldEnd := b.end
	b.end = b.start + to
	b.start += from
	b.clampStart()
	if b.end > oldEnd {
		clear(b.v[oldEnd:b.end])
	}
}

func (b *Buffer) clampStart() {
	if b.start < 0 {
		b.start = 0
	}
	if b.start > b.end {
		b.start = b.end
	}
}

// Write appends data to the end of the live content, growing it. Returns
// ErrFull (with whatever bytes did fit written) if the backing array runs
// out of room.
func (b *Buffer) Write(data []byte) (int, error) {
	n := copy(b.v[b.end:], data)
	b.end += int32(n)
	if n < len(data) {
		return n, ErrFull
	}
	return n, nil
}

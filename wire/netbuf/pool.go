// Package netbuf provides the pooled, zero-copy-friendly byte buffer that
// every wire codec in package wire reads and writes through. A Buffer is a
// window (start, end) onto a possibly larger backing array, so stripping an
// outer header (advancing past an Ethernet or IPv4 header) never copies the
// payload underneath it.
package netbuf

import "sync"

func createAllocFunc(size int32) func() interface{} {
	return func() interface{} {
		return make([]byte, size)
	}
}

// Pool tiers are sized around Ethernet's common frame sizes: a standard
// 1500-byte MTU frame fits the first tier, jumbo frames the second, and a
// fully reassembled IPv4/IPv6 datagram (up to 65535 bytes) the third.
const numPools = 3

var (
	pool     [numPools]sync.Pool
	poolSize [numPools]int32
)

func init() {
	sizes := [numPools]int32{2048, 9216, 65536}
	for i, size := range sizes {
		pool[i] = sync.Pool{New: createAllocFunc(size)}
		poolSize[i] = size
	}
}

// getPool returns the smallest pool whose buffers are at least size bytes,
// or nil if size exceeds every tier.
func getPool(size int32) *sync.Pool {
	for idx, ps := range poolSize {
		if size <= ps {
			return &pool[idx]
		}
	}
	return nil
}

// alloc returns a byte slice with capacity at least size, drawn from a pool
// tier when one fits.
func alloc(size int32) []byte {
	p := getPool(size)
	if p == nil {
		return make([]byte, size)
	}
	b := p.Get().([]byte)
	if int32(cap(b)) < size {
		return make([]byte, size)
	}
	return b[:size]
}

// free returns b to its pool tier, if it came from one.
func free(b []byte) {
	size := int32(cap(b))
	b = b[:cap(b)]
	for i := numPools - 1; i >= 0; i-- {
		if size == poolSize[i] {
			pool[i].Put(b)
			return
		}
	}
}

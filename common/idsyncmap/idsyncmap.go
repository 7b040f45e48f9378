// Package idsyncmap is a concurrency-safe map keyed by an auto-incrementing
// int32 id, used wherever a device needs to hand out a stable handle for a
// registered entry (ARP cache lines, NAT mapping table rows) and later look
// the whole set up or revoke one by handle.
package idsyncmap

import (
	"sync"

	"github.com/canndrew/netsim-sub001/common/counter"
)

type IDSyncMap[T any] interface {
	// Add inserts value under a freshly minted id and returns that id.
	Add(T) int32
	// Remove deletes the entry for id, if present.
	Remove(id int32)
	// Snapshot returns a copy of the current id -> value set.
	Snapshot() map[int32]T
}

type idSyncMap[T any] struct {
	data   map[int32]T
	mu     *sync.RWMutex
	nextID counter.Counter[int32]
}

func NewIDSyncMap[T any]() IDSyncMap[T] {
	return &idSyncMap[T]{
		data:   make(map[int32]T),
		mu:     &sync.RWMutex{},
		nextID: counter.NewCounter32(0),
	}
}

func (c *idSyncMap[T]) Add(value T) int32 {
	id := c.nextID.Add(1) - 1
	c.mu.Lock()
	c.data[id] = value
	c.mu.Unlock()
	return id
}

func (c *idSyncMap[T]) Remove(id int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, id)
}

func (c *idSyncMap[T]) Snapshot() map[int32]T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[int32]T, len(c.data))
	for id, value := range c.data {
		out[id] = value
	}
	return out
}

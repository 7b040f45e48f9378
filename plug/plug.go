// Package plug implements Plug[T], the typed bidirectional packet conduit
// that connects every device in package device, every machine interface in
// package iface, and every node.Recipe's escape point together into a
// fabric. Grounded on the reference stack's future-based mpsc Plug,
// realized here as a pair of goroutine-backed unbounded Go channels per
// §9 of SPEC_FULL.md's design notes.
package plug

import "context"

// Plug is one end of a bidirectional connection: Send enqueues a value for
// the peer, Poll dequeues a value sent by the peer. A Plug must not be used
// from more than one goroutine at a time for sending, nor more than one for
// receiving; SplitSenderReceiver hands the two directions to independent
// goroutines.
type Plug[T any] struct {
	send chan<- T
	recv <-chan T
}

// NewPair creates two Plugs, each end of the same connection: whatever is
// Sent on one is Polled from the other.
func NewPair[T any]() (Plug[T], Plug[T]) {
	aIn, aOut := newUnboundedChan[T]()
	bIn, bOut := newUnboundedChan[T]()
	return Plug[T]{send: aIn, recv: bOut}, Plug[T]{send: bIn, recv: aOut}
}

// Send enqueues v for the peer. Never blocks on the peer keeping up and
// never drops v; it only blocks momentarily on the internal forwarding
// goroutine accepting the value.
func (p Plug[T]) Send(v T) {
	p.send <- v
}

// Poll waits for the next value from the peer, or for ctx to be done,
// whichever comes first. ok is false if the peer closed its send side (or
// ctx expired).
func (p Plug[T]) Poll(ctx context.Context) (v T, ok bool) {
	select {
	case v, ok = <-p.recv:
		return v, ok
	case <-ctx.Done():
		return v, false
	}
}

// Close shuts down this Plug's send direction; the peer observes end of
// stream once it has drained anything already in flight.
func (p Plug[T]) Close() {
	close(p.send)
}

// SplitSenderReceiver hands the two directions of the Plug to independent
// owners, so the sending side and receiving side can run in different
// goroutines without sharing the Plug value.
func (p Plug[T]) SplitSenderReceiver() (Sender[T], Receiver[T]) {
	return Sender[T]{ch: p.send}, Receiver[T]{ch: p.recv}
}

// Sender is the send-only half of a Plug.
type Sender[T any] struct {
	ch chan<- T
}

func (s Sender[T]) Send(v T) { s.ch <- v }
func (s Sender[T]) Close()   { close(s.ch) }

// Receiver is the receive-only half of a Plug.
type Receiver[T any] struct {
	ch <-chan T
}

func (r Receiver[T]) Poll(ctx context.Context) (v T, ok bool) {
	select {
	case v, ok = <-r.ch:
		return v, ok
	case <-ctx.Done():
		return v, false
	}
}

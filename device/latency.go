package device

import (
	"container/heap"
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/canndrew/netsim-sub001/plug"
)

// Latency wraps a Plug in per-packet delay: each packet is held for
// minLatency + expRand*meanAdditionalLatency, where expRand is exponentially
// distributed (mean 1). A non-zero meanAdditionalLatency can reorder
// packets, since later-arriving packets can draw a shorter delay — this is
// a documented property of the shaper, not a bug.
func Latency[T any](inner plug.Plug[T], minLatency, meanAdditionalLatency time.Duration) plug.Plug[T] {
	a, b := plug.NewPair[T]()
	innerSender, innerReceiver := inner.SplitSenderReceiver()
	outerSender, outerReceiver := a.SplitSenderReceiver()

	go runDelayDirection(innerReceiver, outerSender, minLatency, meanAdditionalLatency)
	go runDelayDirection(outerReceiver, innerSender, minLatency, meanAdditionalLatency)

	return b
}

type delayedItem[T any] struct {
	deadline time.Time
	value    T
}

type delayHeap[T any] []delayedItem[T]

func (h delayHeap[T]) Len() int            { return len(h) }
func (h delayHeap[T]) Less(i, j int) bool  { return h[i].deadline.Before(h[j].deadline) }
func (h delayHeap[T]) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *delayHeap[T]) Push(x interface{}) { *h = append(*h, x.(delayedItem[T])) }
func (h *delayHeap[T]) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

type pollResult[T any] struct {
	v  T
	ok bool
}

// pollLoop runs in its own goroutine for the lifetime of runDelayDirection,
// feeding every polled item (or the final close) onto results. This keeps
// exactly one Poll call outstanding on in at any time, even though the
// select loop below also waits on a delay timer.
func pollLoop[T any](ctx context.Context, in plug.Receiver[T], results chan<- pollResult[T]) {
	for {
		v, ok := in.Poll(ctx)
		results <- pollResult[T]{v: v, ok: ok}
		if !ok {
			return
		}
	}
}

// runDelayDirection schedules every item polled from in onto a
// container/heap-ordered priority queue keyed by its randomized deadline,
// and emits it on out once that deadline passes.
func runDelayDirection[T any](in plug.Receiver[T], out plug.Sender[T], minLatency, meanAdditionalLatency time.Duration) {
	defer out.Close()

	h := &delayHeap[T]{}
	heap.Init(h)
	ctx := context.Background()

	results := make(chan pollResult[T])
	go pollLoop(ctx, in, results)

	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}

	closed := false
	for {
		var timerC <-chan time.Time
		if h.Len() > 0 {
			d := time.Until((*h)[0].deadline)
			if d <= 0 {
				item := heap.Pop(h).(delayedItem[T])
				out.Send(item.value)
				continue
			}
			timer.Reset(d)
			timerC = timer.C
		}

		if closed && h.Len() == 0 {
			return
		}

		var resultsC <-chan pollResult[T]
		if !closed {
			resultsC = results
		}

		select {
		case r := <-resultsC:
			if !r.ok {
				closed = true
				continue
			}
			delay := minLatency + expDelay(meanAdditionalLatency)
			heap.Push(h, delayedItem[T]{deadline: time.Now().Add(delay), value: r.v})
		case <-timerC:
			item := heap.Pop(h).(delayedItem[T])
			out.Send(item.value)
		}
	}
}

// expDelay draws an exponentially-distributed duration with mean
// meanLatency, via inverse-CDF sampling: -ln(1-U) for U uniform on [0,1).
func expDelay(meanLatency time.Duration) time.Duration {
	if meanLatency <= 0 {
		return 0
	}
	u := rand.Float64()
	expRand := -math.Log(1 - u)
	return time.Duration(expRand * float64(meanLatency))
}

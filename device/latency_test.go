package device

import (
	"context"
	"testing"
	"time"

	"github.com/canndrew/netsim-sub001/plug"
)

func TestLatencyAppliesFloor(t *testing.T) {
	inner, innerPeer := plug.NewPair[int]()
	outer := Latency[int](inner, 20*time.Millisecond, 0)

	innerPeer.Send(7)

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	v, ok := outer.Poll(ctx)
	elapsed := time.Since(start)

	if !ok || v != 7 {
		t.Fatalf("got (%v, %v), want (7, true)", v, ok)
	}
	if elapsed < 20*time.Millisecond {
		t.Fatalf("delivered after %v, want >= floor", elapsed)
	}
}

func TestLatencyAdditionalDelayConverges(t *testing.T) {
	inner, innerPeer := plug.NewPair[int]()
	outer := Latency[int](inner, 0, 10*time.Millisecond)

	const n = 200
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Items are sent one at a time so each measured delay is that item's
	// own; sending them all at once would overlap the delays.
	var total time.Duration
	for i := 0; i < n; i++ {
		start := time.Now()
		innerPeer.Send(i)
		if _, ok := outer.Poll(ctx); !ok {
			t.Fatalf("plug closed early at item %d", i)
		}
		total += time.Since(start)
	}

	avg := total / n
	if avg < 3*time.Millisecond || avg > 30*time.Millisecond {
		t.Fatalf("average delay %v outside plausible range around 10ms mean", avg)
	}
}

func TestLatencyClosesWhenInnerCloses(t *testing.T) {
	inner, innerPeer := plug.NewPair[int]()
	outer := Latency[int](inner, time.Millisecond, 0)

	innerPeer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, ok := outer.Poll(ctx); ok {
		t.Fatalf("expected outer plug to close once inner closes")
	}
}

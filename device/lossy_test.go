package device

import (
	"context"
	"testing"
	"time"

	"github.com/canndrew/netsim-sub001/plug"
)

func TestPacketLossZeroRatePassesEverything(t *testing.T) {
	inner, innerPeer := plug.NewPair[int]()
	outer := PacketLoss[int](inner, 0, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 50; i++ {
		innerPeer.Send(i)
		v, ok := outer.Poll(ctx)
		if !ok || v != i {
			t.Fatalf("item %d: got (%v, %v)", i, v, ok)
		}
	}
}

func TestPacketLossFullRateDropsEverything(t *testing.T) {
	inner, innerPeer := plug.NewPair[int]()
	outer := PacketLoss[int](inner, 1, time.Millisecond)

	time.Sleep(20 * time.Millisecond)

	for i := 0; i < 20; i++ {
		innerPeer.Send(i)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, ok := outer.Poll(ctx); ok {
		t.Fatalf("expected every packet dropped at lossRate=1, got a delivery")
	}
}

func TestPacketLossConvergesToRoughRate(t *testing.T) {
	inner, innerPeer := plug.NewPair[int]()
	outer := PacketLoss[int](inner, 0.5, time.Millisecond)

	const n = 400
	go func() {
		for i := 0; i < n; i++ {
			innerPeer.Send(i)
			time.Sleep(200 * time.Microsecond)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	delivered := 0
	for {
		v, ok := outer.Poll(ctx)
		if !ok {
			break
		}
		_ = v
		delivered++
		if delivered >= n {
			break
		}
	}
	if delivered == 0 || delivered == n {
		t.Fatalf("delivered %d/%d, want a partial fraction for lossRate=0.5", delivered, n)
	}
}

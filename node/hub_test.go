package node

import (
	"context"
	"testing"
	"time"

	"github.com/canndrew/netsim-sub001/machine"
	"github.com/canndrew/netsim-sub001/plug"
	"github.com/canndrew/netsim-sub001/sched"
	"github.com/canndrew/netsim-sub001/wire"
)

func fakeEtherLeaf(result string) (EtherRecipe[string], *plug.EtherPlug) {
	var captured plug.EtherPlug
	recipe := func(s *sched.Scheduler) (*machine.SpawnComplete[string], plug.EtherPlug) {
		inner, outer := plug.NewPair[wire.EtherFrame]()
		captured = inner
		return machine.Completed(result), outer
	}
	return recipe, &captured
}

func TestHubFloodsFramesToOtherChildrenAndEscape(t *testing.T) {
	s := newTestScheduler()

	recipeA, aSide := fakeEtherLeaf("a")
	recipeB, bSide := fakeEtherLeaf("b")

	recipe := Hub[string](recipeA, recipeB)
	_, escape := recipe(s)

	aSender, _ := aSide.SplitSenderReceiver()
	_, bReceiver := bSide.SplitSenderReceiver()
	_, escapeReceiver := escape.SplitSenderReceiver()

	frame := wire.NewEtherFrame(wire.Broadcast, [6]byte{1, 2, 3, 4, 5, 6}, wire.EtherTypeIPv4, []byte("hello"))
	aSender.Send(frame)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, ok := bReceiver.Poll(ctx); !ok {
		t.Fatalf("expected the frame to be flooded to the other child")
	}
	if _, ok := escapeReceiver.Poll(ctx); !ok {
		t.Fatalf("expected the frame to be flooded to the escape plug")
	}
}

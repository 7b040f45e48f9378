package device

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/canndrew/netsim-sub001/common/task"
	"github.com/canndrew/netsim-sub001/plug"
)

// lossState is the two-state Markov chain driving PacketLoss: PASSING lets
// packets through, LOSSY drops them. lossRate is the steady-state fraction
// of time spent in LOSSY, not a per-packet drop probability.
type lossState int32

const (
	statePassing lossState = 0
	stateLossy   lossState = 1
)

// PacketLoss wraps a Plug with a Gilbert-Elliott-style burst loss model: a
// background ticker flips between PASSING and LOSSY every meanLossDuration
// on average, weighted so that the long-run fraction of LOSSY time equals
// lossRate. While in LOSSY, every packet in both directions is dropped.
func PacketLoss[T any](inner plug.Plug[T], lossRate float64, meanLossDuration time.Duration) plug.Plug[T] {
	a, b := plug.NewPair[T]()
	innerSender, innerReceiver := inner.SplitSenderReceiver()
	outerSender, outerReceiver := a.SplitSenderReceiver()

	state := new(int32)
	atomic.StoreInt32(state, int32(statePassing))

	if lossRate > 0 && meanLossDuration > 0 {
		driver := newLossDriver(state, lossRate, meanLossDuration)
		driver.run()
	}

	go runLossyDirection(innerReceiver, outerSender, state)
	go runLossyDirection(outerReceiver, innerSender, state)

	return b
}

func runLossyDirection[T any](in plug.Receiver[T], out plug.Sender[T], state *int32) {
	defer out.Close()
	ctx := context.Background()
	for {
		v, ok := in.Poll(ctx)
		if !ok {
			return
		}
		if lossState(atomic.LoadInt32(state)) == stateLossy {
			continue
		}
		out.Send(v)
	}
}

// lossDriver alternates state on a task.Periodic tick. Each tick it decides,
// by a coin weighted with lossRate, whether the link should currently be
// LOSSY or PASSING; meanLossDuration controls how often that coin is
// flipped, which in turn controls burst length.
type lossDriver struct {
	state            *int32
	lossRate         float64
	meanLossDuration time.Duration
}

func newLossDriver(state *int32, lossRate float64, meanLossDuration time.Duration) *lossDriver {
	return &lossDriver{state: state, lossRate: lossRate, meanLossDuration: meanLossDuration}
}

func (d *lossDriver) run() {
	periodic := &task.Periodic{
		Interval: d.meanLossDuration,
		Execute:  d.tick,
	}
	periodic.Start()
}

func (d *lossDriver) tick() error {
	if rand.Float64() < d.lossRate {
		atomic.StoreInt32(d.state, int32(stateLossy))
	} else {
		atomic.StoreInt32(d.state, int32(statePassing))
	}
	return nil
}

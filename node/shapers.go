package node

import (
	"time"

	"github.com/canndrew/netsim-sub001/device"
	"github.com/canndrew/netsim-sub001/machine"
	"github.com/canndrew/netsim-sub001/plug"
	"github.com/canndrew/netsim-sub001/sched"
	"github.com/canndrew/netsim-sub001/wire"
)

// Hops wraps child's plug in a TTLHop device, decrementing every packet's
// TTL/hop-limit by n and dropping it once expired.
func Hops[R any](n int, child Recipe[R]) Recipe[R] {
	return func(s *sched.Scheduler, rng wire.Ipv4Range) (*machine.SpawnComplete[R], plug.Ipv4Plug) {
		complete, childPlug := child(s, rng)
		hop := device.TTLHop{NumHops: uint8(n)}
		return complete, hop.WrapIpv4(childPlug)
	}
}

// Latency wraps child's plug in a latency shaper: every packet is held for
// at least min, plus an exponentially distributed additional delay
// averaging mean.
func Latency[R any](min, mean time.Duration, child Recipe[R]) Recipe[R] {
	return func(s *sched.Scheduler, rng wire.Ipv4Range) (*machine.SpawnComplete[R], plug.Ipv4Plug) {
		complete, childPlug := child(s, rng)
		shaped := device.Latency[wire.Ipv4Packet](childPlug, min, mean)
		return complete, shaped
	}
}

// PacketLoss wraps child's plug in a burst-loss shaper: lossRate is the
// steady-state fraction of time packets are dropped, with bursts of
// dropped/passed traffic averaging meanDuration in length.
func PacketLoss[R any](lossRate float64, meanDuration time.Duration, child Recipe[R]) Recipe[R] {
	return func(s *sched.Scheduler, rng wire.Ipv4Range) (*machine.SpawnComplete[R], plug.Ipv4Plug) {
		complete, childPlug := child(s, rng)
		shaped := device.PacketLoss[wire.Ipv4Packet](childPlug, lossRate, meanDuration)
		return complete, shaped
	}
}

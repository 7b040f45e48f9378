package node

import (
	"net/netip"

	"github.com/canndrew/netsim-sub001/device"
	"github.com/canndrew/netsim-sub001/machine"
	"github.com/canndrew/netsim-sub001/plug"
	"github.com/canndrew/netsim-sub001/sched"
	"github.com/canndrew/netsim-sub001/wire"
)

// Router splits rng into one sub-range per child, builds every child
// concurrently (bounded by the Scheduler), and joins them with an IPv4
// router device. The router's own address defaults to rng's base address
// plus one host if ipOverride is nil. The subtree's escape plug is the
// router's last peer, with a route covering all of rng, so it receives
// packets for addresses in rng that no child's sub-range holds (Split
// leaves some unclaimed when the child count is not a power of two).
// Packets arriving on the escape plug are routed to children by the
// children's own routes; packets for addresses outside rng match no route
// and are dropped.
func Router[R any](ipOverride *netip.Addr, children ...Recipe[R]) Recipe[[]R] {
	return func(s *sched.Scheduler, rng wire.Ipv4Range) (*machine.SpawnComplete[[]R], plug.Ipv4Plug) {
		routerIP := rng.BaseAddr()
		routerIP[3]++
		if ipOverride != nil {
			routerIP = ipOverride.As4()
		}

		subRanges, err := rng.Split(len(children))
		if err != nil {
			newError("failed to split range for router children").Base(err).AtError().WriteToLog()
		}

		completes := make([]*machine.SpawnComplete[R], len(children))
		peers := make([]device.RouterPeer, len(children)+1)

		tasks := make([]func() error, len(children))
		for i, child := range children {
			i, child := i, child
			tasks[i] = func() error {
				complete, childPlug := child(s, subRanges[i])
				completes[i] = complete
				peers[i] = device.RouterPeer{
					Plug:   childPlug,
					Routes: []wire.Ipv4Route{{Destination: subRanges[i]}},
				}
				return nil
			}
		}
		if err := s.Run(tasks...); err != nil {
			newError("failed to build router children").Base(err).AtError().WriteToLog()
		}

		escapeInner, escapeOuter := plug.NewPair[wire.Ipv4Packet]()
		peers[len(children)] = device.RouterPeer{
			Plug:   escapeInner,
			Routes: []wire.Ipv4Route{{Destination: rng}},
		}

		r := device.NewRouter(routerIP, peers)
		r.Spawn(s.Context())

		complete := machine.Join(s.Context(), completes)
		return complete, escapeOuter
	}
}

// RouterTuple2 is Router's heterogeneous-children form: two recipes with
// different result types, bundled into a Pair on completion.
func RouterTuple2[A, B any](ipOverride *netip.Addr, first Recipe[A], second Recipe[B]) Recipe[Pair[A, B]] {
	return func(s *sched.Scheduler, rng wire.Ipv4Range) (*machine.SpawnComplete[Pair[A, B]], plug.Ipv4Plug) {
		routerIP := rng.BaseAddr()
		routerIP[3]++
		if ipOverride != nil {
			routerIP = ipOverride.As4()
		}

		subRanges, err := rng.Split(2)
		if err != nil {
			newError("failed to split range for router children").Base(err).AtError().WriteToLog()
		}

		var firstComplete *machine.SpawnComplete[A]
		var secondComplete *machine.SpawnComplete[B]
		var firstPlug, secondPlug plug.Ipv4Plug

		_ = s.Run(
			func() error { firstComplete, firstPlug = first(s, subRanges[0]); return nil },
			func() error { secondComplete, secondPlug = second(s, subRanges[1]); return nil },
		)

		escapeInner, escapeOuter := plug.NewPair[wire.Ipv4Packet]()
		r := device.NewRouter(routerIP, []device.RouterPeer{
			{Plug: firstPlug, Routes: []wire.Ipv4Route{{Destination: subRanges[0]}}},
			{Plug: secondPlug, Routes: []wire.Ipv4Route{{Destination: subRanges[1]}}},
			{Plug: escapeInner, Routes: []wire.Ipv4Route{{Destination: rng}}},
		})
		r.Spawn(s.Context())

		joined := machine.JoinPair(s.Context(), firstComplete, secondComplete)
		complete := machine.Map(s.Context(), joined, func(p machine.Pair2[A, B]) Pair[A, B] {
			return Pair[A, B]{First: p.First, Second: p.Second}
		})
		return complete, escapeOuter
	}
}

// RouterTuple3 is the three-child form of RouterTuple2.
func RouterTuple3[A, B, C any](ipOverride *netip.Addr, first Recipe[A], second Recipe[B], third Recipe[C]) Recipe[Triple[A, B, C]] {
	return func(s *sched.Scheduler, rng wire.Ipv4Range) (*machine.SpawnComplete[Triple[A, B, C]], plug.Ipv4Plug) {
		routerIP := rng.BaseAddr()
		routerIP[3]++
		if ipOverride != nil {
			routerIP = ipOverride.As4()
		}

		subRanges, err := rng.Split(3)
		if err != nil {
			newError("failed to split range for router children").Base(err).AtError().WriteToLog()
		}

		var firstComplete *machine.SpawnComplete[A]
		var secondComplete *machine.SpawnComplete[B]
		var thirdComplete *machine.SpawnComplete[C]
		var firstPlug, secondPlug, thirdPlug plug.Ipv4Plug

		_ = s.Run(
			func() error { firstComplete, firstPlug = first(s, subRanges[0]); return nil },
			func() error { secondComplete, secondPlug = second(s, subRanges[1]); return nil },
			func() error { thirdComplete, thirdPlug = third(s, subRanges[2]); return nil },
		)

		escapeInner, escapeOuter := plug.NewPair[wire.Ipv4Packet]()
		r := device.NewRouter(routerIP, []device.RouterPeer{
			{Plug: firstPlug, Routes: []wire.Ipv4Route{{Destination: subRanges[0]}}},
			{Plug: secondPlug, Routes: []wire.Ipv4Route{{Destination: subRanges[1]}}},
			{Plug: thirdPlug, Routes: []wire.Ipv4Route{{Destination: subRanges[2]}}},
			{Plug: escapeInner, Routes: []wire.Ipv4Route{{Destination: rng}}},
		})
		r.Spawn(s.Context())

		joined := machine.JoinTriple(s.Context(), firstComplete, secondComplete, thirdComplete)
		complete := machine.Map(s.Context(), joined, func(t machine.Triple3[A, B, C]) Triple[A, B, C] {
			return Triple[A, B, C]{First: t.First, Second: t.Second, Third: t.Third}
		})
		return complete, escapeOuter
	}
}

package node

import (
	"net/netip"

	"github.com/canndrew/netsim-sub001/device"
	"github.com/canndrew/netsim-sub001/iface"
	"github.com/canndrew/netsim-sub001/machine"
	"github.com/canndrew/netsim-sub001/plug"
	"github.com/canndrew/netsim-sub001/sched"
	"github.com/canndrew/netsim-sub001/wire"
)

// Ipv6Machine is Machine's IPv6 analogue: a leaf recipe spawning a machine
// with a TUN interface carrying a random address out of rng.
func Ipv6Machine[R any](f func(ip netip.Addr) R) Ipv6Recipe[R] {
	return func(s *sched.Scheduler, rng wire.Ipv6Range) (*machine.SpawnComplete[R], plug.Ipv6Plug) {
		addr := rng.RandomClientAddr()

		inner, outer := plug.NewPair[wire.IpPacket]()
		builder := iface.Builder{
			Mode:          iface.TUN,
			Address6:      addr,
			PrefixLength6: rng.Prefix(),
			MTU:           1500,
		}

		complete, err := machine.Spawn[R](s.Context(), []machine.InterfaceSpec{
			machine.TunInterface(builder, inner),
		}, func() R {
			return f(netip.AddrFrom16(addr))
		})
		if err != nil {
			newError("failed to spawn ipv6 machine").Base(err).AtError().WriteToLog()
		}

		return complete, plug.IpPlugToIpv6Plug(outer)
	}
}

// Ipv6Router is Router's IPv6 analogue. IPv6 subtrees are expected to be
// routed rather than NATed (see device.RouterV6's doc comment), so there is
// no Ipv6 equivalent of node.Nat.
func Ipv6Router[R any](ipOverride *netip.Addr, children ...Ipv6Recipe[R]) Ipv6Recipe[[]R] {
	return func(s *sched.Scheduler, rng wire.Ipv6Range) (*machine.SpawnComplete[[]R], plug.Ipv6Plug) {
		routerIP := rng.BaseAddr()
		routerIP[15]++
		if ipOverride != nil {
			routerIP = ipOverride.As16()
		}

		subRanges, err := rng.Split(len(children))
		if err != nil {
			newError("failed to split range for ipv6 router children").Base(err).AtError().WriteToLog()
		}

		completes := make([]*machine.SpawnComplete[R], len(children))
		peers := make([]device.RouterV6Peer, len(children)+1)

		tasks := make([]func() error, len(children))
		for i, child := range children {
			i, child := i, child
			tasks[i] = func() error {
				complete, childPlug := child(s, subRanges[i])
				completes[i] = complete
				peers[i] = device.RouterV6Peer{
					Plug:   childPlug,
					Routes: []wire.Ipv6Route{{Destination: subRanges[i]}},
				}
				return nil
			}
		}
		if err := s.Run(tasks...); err != nil {
			newError("failed to build ipv6 router children").Base(err).AtError().WriteToLog()
		}

		escapeInner, escapeOuter := plug.NewPair[wire.Ipv6Packet]()
		peers[len(children)] = device.RouterV6Peer{
			Plug:   escapeInner,
			Routes: []wire.Ipv6Route{{Destination: rng}},
		}

		r := device.NewRouterV6(routerIP, peers)
		r.Spawn(s.Context())

		complete := machine.Join(s.Context(), completes)
		return complete, escapeOuter
	}
}

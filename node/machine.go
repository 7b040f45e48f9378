package node

import (
	"net/netip"

	"github.com/canndrew/netsim-sub001/iface"
	"github.com/canndrew/netsim-sub001/machine"
	"github.com/canndrew/netsim-sub001/plug"
	"github.com/canndrew/netsim-sub001/sched"
	"github.com/canndrew/netsim-sub001/wire"
)

// Machine is a leaf recipe: it picks a random client address in rng, spawns
// a machine with a TUN interface carrying that address, and runs f inside
// the machine's isolated namespace. f's return value becomes the subtree's
// completion result.
func Machine[R any](f func(ip netip.Addr) R) Recipe[R] {
	return func(s *sched.Scheduler, rng wire.Ipv4Range) (*machine.SpawnComplete[R], plug.Ipv4Plug) {
		addr := rng.RandomClientAddr()

		inner, outer := plug.NewPair[wire.IpPacket]()
		builder := iface.Builder{
			Mode:         iface.TUN,
			Address:      addr,
			PrefixLength: rng.Prefix(),
			MTU:          1500,
		}

		// machine.Spawn always returns a non-nil complete: on a build
		// failure it's pre-loaded with the error, so logging here and
		// continuing to return it still surfaces the failure to whoever
		// ends up calling complete.Wait on the assembled tree.
		complete, err := machine.Spawn[R](s.Context(), []machine.InterfaceSpec{
			machine.TunInterface(builder, inner),
		}, func() R {
			return f(netip.AddrFrom4(addr))
		})
		if err != nil {
			newError("failed to spawn machine").Base(err).AtError().WriteToLog()
		}

		return complete, plug.IpPlugToIpv4Plug(outer)
	}
}

// Endpoint is the Ethernet-layer analogue of Machine: a leaf with no
// assigned IP address, attached directly to a broadcast domain. Address
// assignment (if any) is the responsibility of an enclosing EtherAdaptor.
func Endpoint[R any](f func() R) EtherRecipe[R] {
	return func(s *sched.Scheduler) (*machine.SpawnComplete[R], plug.EtherPlug) {
		inner, outer := plug.NewPair[wire.EtherFrame]()
		builder := iface.Builder{Mode: iface.TAP, MTU: 1500}

		complete, err := machine.Spawn[R](s.Context(), []machine.InterfaceSpec{
			machine.TapInterface(builder, inner),
		}, f)
		if err != nil {
			newError("failed to spawn endpoint").Base(err).AtError().WriteToLog()
		}

		return complete, outer
	}
}

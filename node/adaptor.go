package node

import (
	"math/rand"

	"github.com/canndrew/netsim-sub001/device"
	"github.com/canndrew/netsim-sub001/machine"
	"github.com/canndrew/netsim-sub001/plug"
	"github.com/canndrew/netsim-sub001/sched"
	"github.com/canndrew/netsim-sub001/wire"
)

// EtherAdaptor lifts an EtherRecipe subtree into an IPv4 one: it claims one
// address from rng for itself, answers ARP on behalf of that address, and
// bridges everything else through to child's broadcast domain.
func EtherAdaptor[R any](child EtherRecipe[R]) Recipe[R] {
	return func(s *sched.Scheduler, rng wire.Ipv4Range) (*machine.SpawnComplete[R], plug.Ipv4Plug) {
		addr := rng.RandomClientAddr()
		mac := randomLocalMac()

		complete, etherPlug := child(s)

		ip4Inner, ip4Outer := plug.NewPair[wire.Ipv4Packet]()
		adaptor := device.NewEtherIpv4Adaptor(mac, addr, etherPlug, ip4Inner)
		adaptor.Spawn(s.Context())

		return complete, ip4Outer
	}
}

// randomLocalMac generates a locally-administered, unicast MAC address:
// the pack has no address-assignment authority of its own, so every
// EtherAdaptor instance just mints one at build time.
func randomLocalMac() wire.MacAddr {
	var mac wire.MacAddr
	rand.Read(mac[:])
	mac[0] &^= 0x01 // clear multicast bit
	mac[0] |= 0x02  // set locally-administered bit
	return mac
}

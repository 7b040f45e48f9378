package node

import (
	"math/rand"

	"github.com/canndrew/netsim-sub001/device"
	"github.com/canndrew/netsim-sub001/machine"
	"github.com/canndrew/netsim-sub001/plug"
	"github.com/canndrew/netsim-sub001/sched"
	"github.com/canndrew/netsim-sub001/wire"
)

// Nat wraps child in a NAT device: it reserves one public IP from rng and
// runs child under a freshly minted private /24, invisible to rng — only
// the reserved public address and the NAT's translation ever cross back
// into the parent subtree. cfg.PublicIP and cfg.PrivateSubnet are filled
// in automatically if left zero-valued.
func Nat[R any](cfg device.NatConfig, child Recipe[R]) Recipe[R] {
	return func(s *sched.Scheduler, rng wire.Ipv4Range) (*machine.SpawnComplete[R], plug.Ipv4Plug) {
		if cfg.PublicIP == ([4]byte{}) {
			cfg.PublicIP = rng.RandomClientAddr()
		}
		privateRange := cfg.PrivateSubnet
		if privateRange == (wire.Ipv4Range{}) {
			privateRange = randomPrivateSubnet()
			cfg.PrivateSubnet = privateRange
		}

		complete, privatePlug := child(s, privateRange)

		publicInner, publicOuter := plug.NewPair[wire.Ipv4Packet]()
		nat := device.NewNat(cfg, privatePlug, publicInner)
		nat.Spawn(s.Context())

		return complete, publicOuter
	}
}

// randomPrivateSubnet picks a /24 inside 10.0.0.0/8 for a NAT's hidden
// interior, so sibling Nat recipes in the same tree are unlikely to
// collide even though nothing enforces disjointness across them.
func randomPrivateSubnet() wire.Ipv4Range {
	return wire.NewIpv4Range([4]byte{10, byte(rand.Intn(256)), byte(rand.Intn(256)), 0}, 24)
}

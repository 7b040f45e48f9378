// Package network is the outermost facade: it owns a Scheduler and
// exposes one SpawnXTree function per link type, each driving a
// node.Recipe (or its Ipv6/Ether sibling) to build a full simulated
// topology and return its completion plus the plug at which the whole
// tree attaches to whatever the caller wants to play "the rest of the
// internet" — inject packets, observe what leaves, or just ignore it.
package network

import (
	"context"

	"github.com/canndrew/netsim-sub001/machine"
	"github.com/canndrew/netsim-sub001/node"
	"github.com/canndrew/netsim-sub001/plug"
	"github.com/canndrew/netsim-sub001/sched"
	"github.com/canndrew/netsim-sub001/wire"
)

// Scheduler bounds how many subtrees build concurrently; it is sched's
// type directly so node recipes and network tree-roots share one
// implementation without importing each other.
type Scheduler = sched.Scheduler

// Network holds the Scheduler every SpawnXTree call in a session shares.
type Network struct {
	scheduler *Scheduler
}

// New creates a Network whose builds run under ctx, at most maxConcurrency
// subtrees at a time (0 means unbounded). Canceling ctx is how a caller
// tears an entire fabric down.
func New(ctx context.Context, maxConcurrency int) *Network {
	return &Network{scheduler: sched.New(ctx, maxConcurrency)}
}

// Scheduler returns the Network's Scheduler, for callers composing
// recipes directly rather than through a SpawnXTree call.
func (n *Network) Scheduler() *Scheduler { return n.scheduler }

// SpawnIpv4Tree builds recipe as the root of an IPv4 subtree spanning rng.
func SpawnIpv4Tree[R any](n *Network, rng wire.Ipv4Range, recipe node.Recipe[R]) (*machine.SpawnComplete[R], plug.Ipv4Plug) {
	return recipe(n.scheduler, rng)
}

// SpawnIpv6Tree builds recipe as the root of an IPv6 subtree spanning rng.
func SpawnIpv6Tree[R any](n *Network, rng wire.Ipv6Range, recipe node.Ipv6Recipe[R]) (*machine.SpawnComplete[R], plug.Ipv6Plug) {
	return recipe(n.scheduler, rng)
}

// SpawnEtherTree builds recipe as the root of an Ethernet subtree with no
// address range of its own.
func SpawnEtherTree[R any](n *Network, recipe node.EtherRecipe[R]) (*machine.SpawnComplete[R], plug.EtherPlug) {
	return recipe(n.scheduler)
}

// SpawnIpTree builds an IPv4 recipe tree the same way SpawnIpv4Tree does,
// but lifts its escape plug into the either-version IpPlug sum type, for
// attaching under a larger dual-stack topology that also carries IPv6.
func SpawnIpTree[R any](n *Network, rng wire.Ipv4Range, recipe node.Recipe[R]) (*machine.SpawnComplete[R], plug.IpPlug) {
	complete, v4 := recipe(n.scheduler, rng)
	return complete, plug.Ipv4PlugToIpPlug(v4)
}

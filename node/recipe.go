// Package node provides the recipe combinators used to assemble a
// simulated network as a tree: each node.Recipe is an immutable
// description that, given a Scheduler and an address range to carve up,
// builds its subtree and returns the caller-visible result of every leaf
// machine plus the plug at which the subtree attaches to its parent.
//
// Recipes are pure builders — closures that capture their configuration
// but spawn nothing until Build (via network.SpawnIpv4Tree and friends)
// actually calls them. This mirrors the reference stack's pattern of
// describing a topology declaratively and only wiring goroutines together
// at the end, adapted from a future-combinator style to Go's closure-based
// generic erasure (see SPEC_FULL.md §9).
package node

import (
	"github.com/canndrew/netsim-sub001/machine"
	"github.com/canndrew/netsim-sub001/plug"
	"github.com/canndrew/netsim-sub001/sched"
	"github.com/canndrew/netsim-sub001/wire"
)

// Recipe builds an IPv4 subtree: given a scheduler and the address range
// assigned to this subtree, it returns the completion of every machine it
// spawned (boxed as R) and the Ipv4Plug at which the subtree escapes to its
// parent.
type Recipe[R any] func(s *sched.Scheduler, rng wire.Ipv4Range) (*machine.SpawnComplete[R], plug.Ipv4Plug)

// Ipv6Recipe is the IPv6 analogue of Recipe.
type Ipv6Recipe[R any] func(s *sched.Scheduler, rng wire.Ipv6Range) (*machine.SpawnComplete[R], plug.Ipv6Plug)

// EtherRecipe builds a subtree attached to an Ethernet broadcast domain,
// with no IP range of its own (addresses, if any, are assigned above it by
// an EtherAdaptor).
type EtherRecipe[R any] func(s *sched.Scheduler) (*machine.SpawnComplete[R], plug.EtherPlug)

// Pair bundles the results of a two-child RouterTuple2.
type Pair[A, B any] struct {
	First  A
	Second B
}

// Triple bundles the results of a three-child RouterTuple3.
type Triple[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

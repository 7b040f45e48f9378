package device

import (
	"context"

	"github.com/canndrew/netsim-sub001/plug"
	"github.com/canndrew/netsim-sub001/wire"
)

// RouterV6Peer is the IPv6 analogue of RouterPeer.
type RouterV6Peer struct {
	Plug   plug.Ipv6Plug
	Routes []wire.Ipv6Route
}

// RouterV6 is the IPv6 analogue of Router. IPv6 networks in this module are
// expected to be routed, not NATed (see device.Nat's IPv4-only scope).
type RouterV6 struct {
	ip        [16]byte
	senders   []plug.Sender[wire.Ipv6Packet]
	receivers []plug.Receiver[wire.Ipv6Packet]
	routes    [][]wire.Ipv6Route
}

// NewRouterV6 creates a RouterV6 with its own address ip and the given peers.
func NewRouterV6(ip [16]byte, peers []RouterV6Peer) *RouterV6 {
	r := &RouterV6{
		ip:        ip,
		senders:   make([]plug.Sender[wire.Ipv6Packet], len(peers)),
		receivers: make([]plug.Receiver[wire.Ipv6Packet], len(peers)),
		routes:    make([][]wire.Ipv6Route, len(peers)),
	}
	for i, p := range peers {
		r.senders[i], r.receivers[i] = p.Plug.SplitSenderReceiver()
		r.routes[i] = p.Routes
	}
	return r
}

// Spawn starts one goroutine per peer; see Router.Spawn.
func (r *RouterV6) Spawn(ctx context.Context) {
	for i := range r.receivers {
		go r.runPeer(ctx, i)
	}
}

func (r *RouterV6) runPeer(ctx context.Context, ingress int) {
	for {
		pkt, ok := r.receivers[ingress].Poll(ctx)
		if !ok {
			return
		}
		r.route(pkt)
	}
}

func (r *RouterV6) route(pkt wire.Ipv6Packet) {
	dst := pkt.Dst()
	if dst == r.ip {
		newError("dropping packet addressed to the router itself").AtDebug().WriteToLog()
		return
	}
	for i, routes := range r.routes {
		for _, route := range routes {
			if route.Destination.Contains(dst) {
				r.senders[i].Send(pkt)
				return
			}
		}
	}
	newError("no route for destination, dropping packet").AtDebug().WriteToLog()
}

package device

import (
	"context"

	"github.com/canndrew/netsim-sub001/plug"
	"github.com/canndrew/netsim-sub001/wire"
)

// RouterPeer is one of a Router's attached links: a plug plus the set of
// destination ranges reachable through it.
type RouterPeer struct {
	Plug   plug.Ipv4Plug
	Routes []wire.Ipv4Route
}

// Router forwards IPv4 packets among N peers by linear first-match route
// lookup, in peer declaration order — not longest-prefix match. Correctness
// relies on the caller building route tables that partition the address
// space exactly (see node.Router).
type Router struct {
	ip        [4]byte
	senders   []plug.Sender[wire.Ipv4Packet]
	receivers []plug.Receiver[wire.Ipv4Packet]
	routes    [][]wire.Ipv4Route
}

// NewRouter creates a Router with its own address ip and the given peers.
func NewRouter(ip [4]byte, peers []RouterPeer) *Router {
	r := &Router{
		ip:        ip,
		senders:   make([]plug.Sender[wire.Ipv4Packet], len(peers)),
		receivers: make([]plug.Receiver[wire.Ipv4Packet], len(peers)),
		routes:    make([][]wire.Ipv4Route, len(peers)),
	}
	for i, p := range peers {
		r.senders[i], r.receivers[i] = p.Plug.SplitSenderReceiver()
		r.routes[i] = p.Routes
	}
	return r
}

// Spawn starts one goroutine per peer reading that peer's inbound packets
// and routing them onward. Each goroutine returns once its peer
// half-closes.
func (r *Router) Spawn(ctx context.Context) {
	for i := range r.receivers {
		go r.runPeer(ctx, i)
	}
}

func (r *Router) runPeer(ctx context.Context, ingress int) {
	for {
		pkt, ok := r.receivers[ingress].Poll(ctx)
		if !ok {
			return
		}
		r.route(pkt)
	}
}

func (r *Router) route(pkt wire.Ipv4Packet) {
	dst := pkt.Dst()
	if dst == r.ip {
		newError("dropping packet addressed to the router itself").AtDebug().WriteToLog()
		pkt.Buffer().Release()
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
	newError("no route for destination, dropping packet").WithPrefix(dst).AtDebug().WriteToLog()
	pkt.Buffer().Release()
}

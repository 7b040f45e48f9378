package device

import (
	"context"

	"github.com/canndrew/netsim-sub001/plug"
	"github.com/canndrew/netsim-sub001/wire"
)

// TTLHop decrements the IPv4 TTL (or IPv6 hop limit) of every packet that
// passes through it by NumHops, dropping any packet whose TTL would reach
// zero or below, simulating the effect of NumHops intermediate routers
// without modeling them individually.
type TTLHop struct {
	NumHops uint8
	// GenerateTimeExceeded makes WrapIpv4 answer each packet it drops with
	// an ICMPv4 Time Exceeded addressed to the dropped packet's source. The
	// message is sent onward in the direction the dropped packet was
	// travelling, not back out of the side it arrived on, so it reaches the
	// source only if the far side routes it back. WrapIpv6 ignores this
	// field. Off by default.
	GenerateTimeExceeded bool
}

// WrapIpv4 wraps inner with this hop count applied in both directions.
func (h TTLHop) WrapIpv4(inner plug.Ipv4Plug) plug.Ipv4Plug {
	a, b := plug.NewPair[wire.Ipv4Packet]()
	innerSender, innerReceiver := inner.SplitSenderReceiver()
	outerSender, outerReceiver := a.SplitSenderReceiver()

	go h.runIpv4(innerReceiver, outerSender)
	go h.runIpv4(outerReceiver, innerSender)

	return b
}

func (h TTLHop) runIpv4(in plug.Receiver[wire.Ipv4Packet], out plug.Sender[wire.Ipv4Packet]) {
	defer out.Close()
	ctx := context.Background()
	for {
		pkt, ok := in.Poll(ctx)
		if !ok {
			return
		}
		ttl := pkt.TTL()
		if ttl <= h.NumHops {
			newError("packet exceeded hop count, dropping").AtDebug().WriteToLog()
			if h.GenerateTimeExceeded {
				h.sendTimeExceededIpv4(pkt, out)
			}
			pkt.Buffer().Release()
			continue
		}
		pkt.SetTTL(ttl - h.NumHops)
		out.Send(pkt)
	}
}

func (h TTLHop) sendTimeExceededIpv4(pkt wire.Ipv4Packet, out plug.Sender[wire.Ipv4Packet]) {
	src := pkt.Dst()
	dst := pkt.Src()
	body := pkt.AsBytes()
	if len(body) > 28 {
		body = body[:28]
	}
	msg := wire.NewIcmpv4Packet(wire.ICMPv4TypeTimeExceeded, wire.ICMPv4CodeTTLExceeded, 0, body)
	reply := wire.NewIpv4Packet(wire.Ipv4Fields{Src: src, Dst: dst, Protocol: wire.ProtocolICMPv4, TTL: 64}, msg.AsBytes())
	out.Send(reply)
}

// WrapIpv6 wraps inner with this hop count applied in both directions.
func (h TTLHop) WrapIpv6(inner plug.Ipv6Plug) plug.Ipv6Plug {
	a, b := plug.NewPair[wire.Ipv6Packet]()
	innerSender, innerReceiver := inner.SplitSenderReceiver()
	outerSender, outerReceiver := a.SplitSenderReceiver()

	go h.runIpv6(innerReceiver, outerSender)
	go h.runIpv6(outerReceiver, innerSender)

	return b
}

func (h TTLHop) runIpv6(in plug.Receiver[wire.Ipv6Packet], out plug.Sender[wire.Ipv6Packet]) {
	defer out.Close()
	ctx := context.Background()
	for {
		pkt, ok := in.Poll(ctx)
		if !ok {
			return
		}
		limit := pkt.HopLimit()
		if limit <= h.NumHops {
			newError("packet exceeded hop limit, dropping").AtDebug().WriteToLog()
			pkt.Buffer().Release()
			continue
		}
		pkt.SetHopLimit(limit - h.NumHops)
		out.Send(pkt)
	}
}

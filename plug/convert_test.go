package plug_test

import (
	"context"
	"testing"
	"time"

	. "github.com/canndrew/netsim-sub001/plug"
	"github.com/canndrew/netsim-sub001/wire"
)

func TestIpPlugToIpv4PlugForwardsV4AndDropsV6(t *testing.T) {
	t.Parallel()

	ipA, ipB := NewPair[wire.IpPacket]()
	v4 := IpPlugToIpv4Plug(ipB)

	v4Packet := wire.NewIpv4Packet(wire.Ipv4Fields{Protocol: wire.ProtocolUDP, TTL: 1}, nil)
	v6Packet := wire.NewIpv6Packet(wire.Ipv6Fields{NextHeader: wire.ProtocolUDP, HopLimit: 1}, nil)

	ipA.Send(wire.IpPacket{V4: v4Packet})
	ipA.Send(wire.IpPacket{V6: v6Packet, IsIPv6: true})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, ok := v4.Poll(ctx)
	if !ok {
		t.Fatal("expected the v4 packet to arrive")
	}
	if got.Protocol() != wire.ProtocolUDP {
		t.Fatalf("forwarded packet protocol = %v, want UDP", got.Protocol())
	}

	shortCtx, cancel2 := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel2()
	if _, ok := v4.Poll(shortCtx); ok {
		t.Fatal("the v6 packet should have been dropped, not forwarded")
	}
}

func TestIpv4PacketSentBackIsWrapped(t *testing.T) {
	t.Parallel()

	ipA, ipB := NewPair[wire.IpPacket]()
	v4 := IpPlugToIpv4Plug(ipB)

	pkt := wire.NewIpv4Packet(wire.Ipv4Fields{Protocol: wire.ProtocolUDP, TTL: 1}, nil)
	v4.Send(pkt)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, ok := ipA.Poll(ctx)
	if !ok {
		t.Fatal("expected the wrapped packet to arrive on the IpPlug side")
	}
	if got.IsIPv6 {
		t.Fatal("a packet sent on the v4 side should not be wrapped as v6")
	}
}

func TestIpv4PlugToIpPlugWrapsOutgoingAndUnwrapsIncoming(t *testing.T) {
	t.Parallel()

	v4A, v4B := NewPair[wire.Ipv4Packet]()
	ip := Ipv4PlugToIpPlug(v4B)

	pkt := wire.NewIpv4Packet(wire.Ipv4Fields{Protocol: wire.ProtocolUDP, TTL: 1}, nil)
	v4A.Send(pkt)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, ok := ip.Poll(ctx)
	if !ok {
		t.Fatal("expected the v4 packet to arrive wrapped on the IpPlug side")
	}
	if got.IsIPv6 {
		t.Fatal("a packet lifted from an ipv4-only plug should never be tagged ipv6")
	}

	ip.Send(wire.IpPacket{V4: pkt})
	got2, ok := v4A.Poll(ctx)
	if !ok {
		t.Fatal("expected the packet sent back on the IpPlug side to reach the v4 side")
	}
	if got2.Protocol() != wire.ProtocolUDP {
		t.Fatalf("forwarded packet protocol = %v, want UDP", got2.Protocol())
	}
}

func TestIpv6PlugToIpPlugWrapsOutgoingAndUnwrapsIncoming(t *testing.T) {
	t.Parallel()

	v6A, v6B := NewPair[wire.Ipv6Packet]()
	ip := Ipv6PlugToIpPlug(v6B)

	pkt := wire.NewIpv6Packet(wire.Ipv6Fields{NextHeader: wire.ProtocolUDP, HopLimit: 1}, nil)
	v6A.Send(pkt)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, ok := ip.Poll(ctx)
	if !ok {
		t.Fatal("expected the v6 packet to arrive wrapped on the IpPlug side")
	}
	if !got.IsIPv6 {
		t.Fatal("a packet lifted from an ipv6-only plug should always be tagged ipv6")
	}

	ip.Send(wire.IpPacket{V6: pkt, IsIPv6: true})
	if _, ok := v6A.Poll(ctx); !ok {
		t.Fatal("expected the packet sent back on the IpPlug side to reach the v6 side")
	}
}

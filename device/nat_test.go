package device

import (
	"context"
	"testing"
	"time"

	"github.com/canndrew/netsim-sub001/plug"
	"github.com/canndrew/netsim-sub001/wire"
	"github.com/canndrew/netsim-sub001/wire/netbuf"
)

// requireValidIPv4Header re-decodes out's own header fields (version/IHL
// live in byte 0, checksum at bytes 10:11) and verifies the checksum,
// guarding against a translation that clobbers the IP header instead of
// the L4 segment it's supposed to rewrite.
func requireValidIPv4Header(t *testing.T, out wire.Ipv4Packet) {
	t.Helper()
	b := out.AsBytes()
	if b[0]>>4 != 4 {
		t.Fatalf("IP version nibble = %d, want 4 (header byte 0 = 0x%02x)", b[0]>>4, b[0])
	}
	if !out.VerifyChecksum() {
		t.Fatalf("IPv4 header checksum does not validate after translation")
	}
}

func newTestNat(t *testing.T, cone ConeType) (plug.Ipv4Plug, plug.Ipv4Plug, [4]byte) {
	t.Helper()
	privatePlug, privatePeer := plug.NewPair[wire.Ipv4Packet]()
	publicPlug, publicPeer := plug.NewPair[wire.Ipv4Packet]()
	publicIP := [4]byte{203, 0, 113, 1}

	cfg := NatConfig{
		PublicIP:      publicIP,
		PrivateSubnet: wire.Ipv4LocalSubnet192(),
		ConeType:      cone,
	}
	n := NewNat(cfg, privatePlug, publicPlug)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	n.Spawn(ctx)

	return privatePeer, publicPeer, publicIP
}

func TestNatRewritesSourceOutbound(t *testing.T) {
	privatePeer, publicPeer, publicIP := newTestNat(t, Symmetric)

	privAddr := [4]byte{192, 168, 0, 5}
	dstAddr := [4]byte{8, 8, 8, 8}
	udp := wire.NewUdpPacketIPv4(40000, 53, privAddr, dstAddr, []byte("query"))
	ip := wire.NewIpv4Packet(wire.Ipv4Fields{Src: privAddr, Dst: dstAddr, Protocol: wire.ProtocolUDP, TTL: 64}, udp.AsBytes())

	privatePeer.Send(ip)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	out, ok := publicPeer.Poll(ctx)
	if !ok {
		t.Fatalf("expected translated packet on public side")
	}
	if out.Src() != publicIP {
		t.Fatalf("Src() = %v, want %v", out.Src(), publicIP)
	}
	if out.Dst() != dstAddr {
		t.Fatalf("Dst() = %v, want %v", out.Dst(), dstAddr)
	}
	requireValidIPv4Header(t, out)
	seg, err := wire.DecodeUdpPacket(netbuf.FromBytes(out.Payload()))
	if err != nil {
		t.Fatalf("DecodeUdpPacket: %v", err)
	}
	if seg.SrcPort() < 1024 {
		t.Fatalf("SrcPort() = %d, want an allocated port >= 1024", seg.SrcPort())
	}
	if seg.SrcPort() == 40000 {
		t.Fatalf("SrcPort() still reads the private port %d, translation did not rewrite the UDP header", seg.SrcPort())
	}
}

func TestNatRoundTripSymmetric(t *testing.T) {
	privatePeer, publicPeer, _ := newTestNat(t, Symmetric)

	privAddr := [4]byte{192, 168, 0, 5}
	dstAddr := [4]byte{8, 8, 8, 8}
	udp := wire.NewUdpPacketIPv4(40000, 53, privAddr, dstAddr, []byte("query"))
	outIP := wire.NewIpv4Packet(wire.Ipv4Fields{Src: privAddr, Dst: dstAddr, Protocol: wire.ProtocolUDP, TTL: 64}, udp.AsBytes())
	privatePeer.Send(outIP)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	translated, ok := publicPeer.Poll(ctx)
	if !ok {
		t.Fatalf("expected outbound translation")
	}
	requireValidIPv4Header(t, translated)
	translatedSeg, _ := wire.DecodeUdpPacket(netbuf.FromBytes(translated.Payload()))
	pubPort := translatedSeg.SrcPort()

	reply := wire.NewUdpPacketIPv4(53, pubPort, dstAddr, translated.Src(), []byte("answer"))
	replyIP := wire.NewIpv4Packet(wire.Ipv4Fields{Src: dstAddr, Dst: translated.Src(), Protocol: wire.ProtocolUDP, TTL: 64}, reply.AsBytes())
	publicPeer.Send(replyIP)

	back, ok := privatePeer.Poll(ctx)
	if !ok {
		t.Fatalf("expected return packet translated back to private side")
	}
	if back.Dst() != privAddr {
		t.Fatalf("Dst() = %v, want %v", back.Dst(), privAddr)
	}
	requireValidIPv4Header(t, back)
	backSeg, _ := wire.DecodeUdpPacket(netbuf.FromBytes(back.Payload()))
	if backSeg.DstPort() != 40000 {
		t.Fatalf("DstPort() = %d, want 40000", backSeg.DstPort())
	}
}

func TestNatSymmetricRejectsWrongPeer(t *testing.T) {
	privatePeer, publicPeer, _ := newTestNat(t, Symmetric)

	privAddr := [4]byte{192, 168, 0, 5}
	dstAddr := [4]byte{8, 8, 8, 8}
	udp := wire.NewUdpPacketIPv4(40000, 53, privAddr, dstAddr, []byte("query"))
	outIP := wire.NewIpv4Packet(wire.Ipv4Fields{Src: privAddr, Dst: dstAddr, Protocol: wire.ProtocolUDP, TTL: 64}, udp.AsBytes())
	privatePeer.Send(outIP)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	translated, ok := publicPeer.Poll(ctx)
	if !ok {
		t.Fatalf("expected outbound translation")
	}
	requireValidIPv4Header(t, translated)
	translatedSeg, _ := wire.DecodeUdpPacket(netbuf.FromBytes(translated.Payload()))
	pubPort := translatedSeg.SrcPort()

	otherAddr := [4]byte{9, 9, 9, 9}
	reply := wire.NewUdpPacketIPv4(53, pubPort, otherAddr, translated.Src(), []byte("spoofed"))
	replyIP := wire.NewIpv4Packet(wire.Ipv4Fields{Src: otherAddr, Dst: translated.Src(), Protocol: wire.ProtocolUDP, TTL: 64}, reply.AsBytes())
	publicPeer.Send(replyIP)

	shortCtx, cancel2 := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel2()
	if _, ok := privatePeer.Poll(shortCtx); ok {
		t.Fatalf("expected packet from an unmatched peer to be dropped under Symmetric")
	}
}

func TestNatBindingsReflectsLiveMapping(t *testing.T) {
	privatePlug, privatePeer := plug.NewPair[wire.Ipv4Packet]()
	publicPlug, publicPeer := plug.NewPair[wire.Ipv4Packet]()

	cfg := NatConfig{
		PublicIP:      [4]byte{203, 0, 113, 1},
		PrivateSubnet: wire.Ipv4LocalSubnet192(),
		ConeType:      Symmetric,
	}
	n := NewNat(cfg, privatePlug, publicPlug)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	n.Spawn(ctx)

	if got := n.Bindings(); len(got) != 0 {
		t.Fatalf("Bindings() before any traffic = %v, want empty", got)
	}

	privAddr := [4]byte{192, 168, 0, 5}
	dstAddr := [4]byte{8, 8, 8, 8}
	udp := wire.NewUdpPacketIPv4(40000, 53, privAddr, dstAddr, []byte("query"))
	outIP := wire.NewIpv4Packet(wire.Ipv4Fields{Src: privAddr, Dst: dstAddr, Protocol: wire.ProtocolUDP, TTL: 64}, udp.AsBytes())
	privatePeer.Send(outIP)

	pollCtx, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	if _, ok := publicPeer.Poll(pollCtx); !ok {
		t.Fatalf("expected outbound translation")
	}

	bindings := n.Bindings()
	if len(bindings) != 1 {
		t.Fatalf("Bindings() after one flow = %v, want exactly one entry", bindings)
	}
	for _, b := range bindings {
		if b.PrivAddr != privAddr || b.PrivPort != 40000 {
			t.Fatalf("binding = %+v, want PrivAddr=%v PrivPort=40000", b, privAddr)
		}
	}
}

package wire_test

import (
	"bytes"
	"testing"

	. "github.com/canndrew/netsim-sub001/wire"
)

func TestIpv4PacketRoundTripAndChecksum(t *testing.T) {
	t.Parallel()

	src := [4]byte{192, 168, 0, 1}
	dst := [4]byte{192, 168, 0, 2}
	p := NewIpv4Packet(Ipv4Fields{Src: src, Dst: dst, Protocol: ProtocolUDP, TTL: 64, ID: 0xbeef}, []byte("hello"))
	defer p.Buffer().Release()

	if !p.VerifyChecksum() {
		t.Fatal("freshly built packet failed checksum verification")
	}

	decoded, err := DecodeIpv4Packet(p.Buffer())
	if err != nil {
		t.Fatalf("DecodeIpv4Packet() error = %v", err)
	}
	if decoded.Src() != src || decoded.Dst() != dst {
		t.Fatalf("address mismatch: src=%v dst=%v", decoded.Src(), decoded.Dst())
	}
	if decoded.Protocol() != ProtocolUDP || decoded.TTL() != 64 || decoded.ID() != 0xbeef {
		t.Fatalf("header field mismatch: %+v", decoded)
	}
	if !bytes.Equal(decoded.Payload(), []byte("hello")) {
		t.Fatalf("Payload() = %q, want %q", decoded.Payload(), "hello")
	}
}

func TestIpv4SetTTLRecomputesChecksum(t *testing.T) {
	t.Parallel()

	p := NewIpv4Packet(Ipv4Fields{Src: [4]byte{1, 1, 1, 1}, Dst: [4]byte{2, 2, 2, 2}, Protocol: ProtocolUDP, TTL: 10}, nil)
	defer p.Buffer().Release()

	p.SetTTL(9)
	if p.TTL() != 9 {
		t.Fatalf("TTL() = %d, want 9", p.TTL())
	}
	if !p.VerifyChecksum() {
		t.Fatal("checksum invalid after SetTTL")
	}
}

func TestIpv4SetSrcDstRecomputesChecksum(t *testing.T) {
	t.Parallel()

	p := NewIpv4Packet(Ipv4Fields{Src: [4]byte{1, 1, 1, 1}, Dst: [4]byte{2, 2, 2, 2}, Protocol: ProtocolUDP, TTL: 10}, nil)
	defer p.Buffer().Release()

	p.SetSrc([4]byte{9, 9, 9, 9})
	p.SetDst([4]byte{8, 8, 8, 8})
	if !p.VerifyChecksum() {
		t.Fatal("checksum invalid after SetSrc/SetDst")
	}
}

func TestDecodeIpv4PacketBadVersion(t *testing.T) {
	t.Parallel()

	buf := netbufFromBytes(make([]byte, 20))
	buf.Bytes()[0] = 0x55 // version 5
	if _, err := DecodeIpv4Packet(buf); err == nil {
		t.Fatal("DecodeIpv4Packet() with bad version succeeded, want error")
	}
}

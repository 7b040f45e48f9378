package wire_test

import (
	"bytes"
	"testing"

	. "github.com/canndrew/netsim-sub001/wire"
)

func TestUdpPacketRoundTripAndChecksum(t *testing.T) {
	t.Parallel()

	src := [4]byte{10, 0, 0, 1}
	dst := [4]byte{10, 0, 0, 2}
	p := NewUdpPacketIPv4(5353, 53, src, dst, []byte("query"))
	defer p.Buffer().Release()

	sum := ChecksumIPv4Pseudo(src, dst, uint8(ProtocolUDP), p.AsBytes())
	if sum != 0 {
		t.Fatalf("checksum over a freshly built segment = %#04x, want 0", sum)
	}

	decoded, err := DecodeUdpPacket(p.Buffer())
	if err != nil {
		t.Fatalf("DecodeUdpPacket() error = %v", err)
	}
	if decoded.SrcPort() != 5353 || decoded.DstPort() != 53 {
		t.Fatalf("port mismatch: src=%d dst=%d", decoded.SrcPort(), decoded.DstPort())
	}
	if !bytes.Equal(decoded.Payload(), []byte("query")) {
		t.Fatalf("Payload() = %q, want %q", decoded.Payload(), "query")
	}
}

func TestUdpRecomputeChecksumAfterNatRewrite(t *testing.T) {
	t.Parallel()

	src := [4]byte{10, 0, 0, 1}
	dst := [4]byte{8, 8, 8, 8}
	p := NewUdpPacketIPv4(40000, 53, src, dst, []byte("x"))
	defer p.Buffer().Release()

	newSrc := [4]byte{203, 0, 113, 9}
	p.SetSrcPort(55555)
	p.RecomputeChecksumIPv4(newSrc, dst)

	if sum := ChecksumIPv4Pseudo(newSrc, dst, uint8(ProtocolUDP), p.AsBytes()); sum != 0 {
		t.Fatalf("checksum after rewrite = %#04x, want 0", sum)
	}
}

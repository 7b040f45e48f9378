package wire_test

import (
	"encoding/binary"
	"testing"

	. "github.com/canndrew/netsim-sub001/wire"
)

func newTestTcpSegment(srcPort, dstPort uint16, flags uint8) []byte {
	b := make([]byte, tcpMinHeaderLenForTest)
	binary.BigEndian.PutUint16(b[0:2], srcPort)
	binary.BigEndian.PutUint16(b[2:4], dstPort)
	b[12] = 5 << 4 // data offset: 5 words, no options
	b[13] = flags
	return b
}

const tcpMinHeaderLenForTest = 20

func TestTcpPacketDecodeAndFlags(t *testing.T) {
	t.Parallel()

	raw := newTestTcpSegment(443, 51000, TCPFlagSYN|TCPFlagACK)
	buf := netbufFromBytes(raw)

	p, err := DecodeTcpPacket(buf)
	if err != nil {
		t.Fatalf("DecodeTcpPacket() error = %v", err)
	}
	if p.SrcPort() != 443 || p.DstPort() != 51000 {
		t.Fatalf("port mismatch: src=%d dst=%d", p.SrcPort(), p.DstPort())
	}
	if p.Flags()&TCPFlagSYN == 0 || p.Flags()&TCPFlagACK == 0 {
		t.Fatalf("Flags() = %#02x, want SYN|ACK set", p.Flags())
	}
}

func TestDecodeTcpPacketBadDataOffset(t *testing.T) {
	t.Parallel()

	raw := newTestTcpSegment(1, 2, 0)
	raw[12] = 2 << 4 // data offset smaller than the fixed header
	buf := netbufFromBytes(raw)

	if _, err := DecodeTcpPacket(buf); err == nil {
		t.Fatal("DecodeTcpPacket() with a too-small data offset succeeded, want error")
	}
}

package wire

import (
	"encoding/binary"

	"github.com/canndrew/netsim-sub001/wire/netbuf"
)

const udpHeaderLen = 8

// UdpPacket is a zero-copy view over a UDP segment.
type UdpPacket struct {
	buf *netbuf.Buffer
}

// DecodeUdpPacket views buf as a UDP segment.
func DecodeUdpPacket(buf *netbuf.Buffer) (UdpPacket, error) {
	if buf.Len() < udpHeaderLen {
		return UdpPacket{}, errTooShort("udp", udpHeaderLen, int(buf.Len()))
	}
	return UdpPacket{buf: buf}, nil
}

// NewUdpPacketIPv4 allocates a UDP segment and finalizes its checksum
// against the given IPv4 pseudo-header addresses.
func NewUdpPacketIPv4(srcPort, dstPort uint16, src, dst [4]byte, payload []byte) UdpPacket {
	buf := netbuf.NewWithSize(int32(udpHeaderLen + len(payload)))
	b := buf.Extend(int32(udpHeaderLen))
	binary.BigEndian.PutUint16(b[0:2], srcPort)
	binary.BigEndian.PutUint16(b[2:4], dstPort)
	binary.BigEndian.PutUint16(b[4:6], uint16(udpHeaderLen+len(payload)))
	copy(buf.Extend(int32(len(payload))), payload)

	p := UdpPacket{buf: buf}
	sum := ChecksumIPv4Pseudo(src, dst, uint8(ProtocolUDP), p.buf.Bytes())
	binary.BigEndian.PutUint16(p.buf.Bytes()[6:8], sum)
	return p
}

func (p UdpPacket) SrcPort() uint16 { return binary.BigEndian.Uint16(p.buf.Bytes()[0:2]) }
func (p UdpPacket) DstPort() uint16 { return binary.BigEndian.Uint16(p.buf.Bytes()[2:4]) }

func (p UdpPacket) SetSrcPort(port uint16) { binary.BigEndian.PutUint16(p.buf.Bytes()[0:2], port) }
func (p UdpPacket) SetDstPort(port uint16) { binary.BigEndian.PutUint16(p.buf.Bytes()[2:4], port) }

// RecomputeChecksumIPv4 recomputes the checksum after a NAT rewrite of the
// addresses or ports.
func (p UdpPacket) RecomputeChecksumIPv4(src, dst [4]byte) {
	b := p.buf.Bytes()
	b[6], b[7] = 0, 0
	sum := ChecksumIPv4Pseudo(src, dst, uint8(ProtocolUDP), b)
	binary.BigEndian.PutUint16(b[6:8], sum)
}

func (p UdpPacket) Payload() []byte { return p.buf.Bytes()[udpHeaderLen:] }

func (p UdpPacket) AsBytes() []byte { return p.buf.Bytes() }

func (p UdpPacket) Buffer() *netbuf.Buffer { return p.buf }

package wire

import (
	"encoding/binary"

	"github.com/canndrew/netsim-sub001/wire/netbuf"
)

const ipv6HeaderLen = 40

// Ipv6Packet is a zero-copy view over an IPv6 datagram. Extension headers
// are not supported: NextHeader is always the upper-layer protocol.
type Ipv6Packet struct {
	buf *netbuf.Buffer
}

// DecodeIpv6Packet views buf as an IPv6 datagram.
func DecodeIpv6Packet(buf *netbuf.Buffer) (Ipv6Packet, error) {
	if buf.Len() < ipv6HeaderLen {
		return Ipv6Packet{}, errTooShort("ipv6", ipv6HeaderLen, int(buf.Len()))
	}
	b := buf.Bytes()
	if b[0]>>4 != 6 {
		return Ipv6Packet{}, &DecodeError{Layer: "ipv6", Msg: "bad version field"}
	}
	payloadLen := int(binary.BigEndian.Uint16(b[4:6]))
	if int32(ipv6HeaderLen+payloadLen) > buf.Len() {
		return Ipv6Packet{}, &DecodeError{Layer: "ipv6", Msg: "payload length exceeds buffer"}
	}
	return Ipv6Packet{buf: buf}, nil
}

// Ipv6Fields describes the header fields a caller supplies to build a new
// packet.
type Ipv6Fields struct {
	Src        [16]byte
	Dst        [16]byte
	NextHeader IPProtocol
	HopLimit   uint8
}

// NewIpv6Packet allocates an IPv6 datagram wrapping payload.
func NewIpv6Packet(f Ipv6Fields, payload []byte) Ipv6Packet {
	buf := netbuf.NewWithSize(int32(ipv6HeaderLen + len(payload)))
	b := buf.Extend(int32(ipv6HeaderLen))
	b[0] = 0x60 // version 6
	binary.BigEndian.PutUint16(b[4:6], uint16(len(payload)))
	b[6] = byte(f.NextHeader)
	b[7] = f.HopLimit
	copy(b[8:24], f.Src[:])
	copy(b[24:40], f.Dst[:])
	copy(buf.Extend(int32(len(payload))), payload)
	return Ipv6Packet{buf: buf}
}

func (p Ipv6Packet) Src() [16]byte {
	var a [16]byte
	copy(a[:], p.buf.Bytes()[8:24])
	return a
}

func (p Ipv6Packet) Dst() [16]byte {
	var a [16]byte
	copy(a[:], p.buf.Bytes()[24:40])
	return a
}

func (p Ipv6Packet) NextHeader() IPProtocol { return IPProtocol(p.buf.Bytes()[6]) }
func (p Ipv6Packet) HopLimit() uint8        { return p.buf.Bytes()[7] }

// SetHopLimit rewrites the hop limit field. IPv6 has no header checksum.
func (p Ipv6Packet) SetHopLimit(hl uint8) { p.buf.Bytes()[7] = hl }

// SetSrc rewrites the source address. Used by NAT-like translation, though
// this module's NAT device is IPv4-only (see device.Nat).
func (p Ipv6Packet) SetSrc(addr [16]byte) { copy(p.buf.Bytes()[8:24], addr[:]) }

// SetDst rewrites the destination address.
func (p Ipv6Packet) SetDst(addr [16]byte) { copy(p.buf.Bytes()[24:40], addr[:]) }

func (p Ipv6Packet) Payload() []byte {
	payloadLen := int(binary.BigEndian.Uint16(p.buf.Bytes()[4:6]))
	return p.buf.Bytes()[ipv6HeaderLen : ipv6HeaderLen+payloadLen]
}

func (p Ipv6Packet) AsBytes() []byte { return p.buf.Bytes() }

func (p Ipv6Packet) Buffer() *netbuf.Buffer { return p.buf }

// IpPacket is a closed sum over the two IP versions a decoded Ethernet
// payload can resolve to, used by devices (hub, router) that operate at
// the IP layer without caring which version they're forwarding.
type IpPacket struct {
	V4     Ipv4Packet
	V6     Ipv6Packet
	IsIPv6 bool
}

// DecodeIpPacket sniffs the IP version nibble and dispatches to
// DecodeIpv4Packet or DecodeIpv6Packet.
func DecodeIpPacket(buf *netbuf.Buffer) (IpPacket, error) {
	if buf.Len() < 1 {
		return IpPacket{}, errTooShort("ip", 1, int(buf.Len()))
	}
	switch buf.Bytes()[0] >> 4 {
	case 4:
		v4, err := DecodeIpv4Packet(buf)
		if err != nil {
			return IpPacket{}, err
		}
		return IpPacket{V4: v4}, nil
	case 6:
		v6, err := DecodeIpv6Packet(buf)
		if err != nil {
			return IpPacket{}, err
		}
		return IpPacket{V6: v6, IsIPv6: true}, nil
	default:
		return IpPacket{}, &DecodeError{Layer: "ip", Msg: "unknown IP version"}
	}
}

func (p IpPacket) AsBytes() []byte {
	if p.IsIPv6 {
		return p.V6.AsBytes()
	}
	return p.V4.AsBytes()
}

func (p IpPacket) Buffer() *netbuf.Buffer {
	if p.IsIPv6 {
		return p.V6.Buffer()
	}
	return p.V4.Buffer()
}

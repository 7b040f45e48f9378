package wire

import (
	"encoding/binary"

	"github.com/canndrew/netsim-sub001/wire/netbuf"
)

// IPProtocol is the IPv4/IPv6 next-header protocol number.
type IPProtocol uint8

const (
	ProtocolICMPv4 IPProtocol = 1
	ProtocolTCP    IPProtocol = 6
	ProtocolUDP    IPProtocol = 17
	ProtocolICMPv6 IPProtocol = 58
)

const ipv4MinHeaderLen = 20

// Ipv4Packet is a zero-copy view over an IPv4 datagram with no options
// (IHL is always 5 words / 20 bytes on emission; parsing tolerates a
// larger IHL by skipping the options when locating the payload).
type Ipv4Packet struct {
	buf *netbuf.Buffer
}

// DecodeIpv4Packet views buf as an IPv4 datagram. Returns a *DecodeError on
// truncation, a bad version field, or a header length that exceeds the
// buffer.
func DecodeIpv4Packet(buf *netbuf.Buffer) (Ipv4Packet, error) {
	if buf.Len() < ipv4MinHeaderLen {
		return Ipv4Packet{}, errTooShort("ipv4", ipv4MinHeaderLen, int(buf.Len()))
	}
	b := buf.Bytes()
	if b[0]>>4 != 4 {
		return Ipv4Packet{}, &DecodeError{Layer: "ipv4", Msg: "bad version field"}
	}
	ihl := int(b[0]&0x0f) * 4
	if ihl < ipv4MinHeaderLen || int32(ihl) > buf.Len() {
		return Ipv4Packet{}, &DecodeError{Layer: "ipv4", Msg: "invalid header length"}
	}
	totalLen := int(binary.BigEndian.Uint16(b[2:4]))
	if int32(totalLen) > buf.Len() {
		return Ipv4Packet{}, &DecodeError{Layer: "ipv4", Msg: "total length exceeds buffer"}
	}
	return Ipv4Packet{buf: buf}, nil
}

// Ipv4Fields describes the header fields a caller supplies to build a new
// packet; Checksum and TotalLength are computed by NewIpv4Packet.
type Ipv4Fields struct {
	Src      [4]byte
	Dst      [4]byte
	Protocol IPProtocol
	TTL      uint8
	ID       uint16
}

// NewIpv4Packet allocates a header-only (no options) IPv4 datagram wrapping
// payload, finalizing the header checksum.
func NewIpv4Packet(f Ipv4Fields, payload []byte) Ipv4Packet {
	buf := netbuf.NewWithSize(int32(ipv4MinHeaderLen + len(payload)))
	b := buf.Extend(int32(ipv4MinHeaderLen))
	b[0] = 0x45 // version 4, IHL 5
	binary.BigEndian.PutUint16(b[2:4], uint16(ipv4MinHeaderLen+len(payload)))
	binary.BigEndian.PutUint16(b[4:6], f.ID)
	b[8] = f.TTL
	b[9] = byte(f.Protocol)
	copy(b[12:16], f.Src[:])
	copy(b[16:20], f.Dst[:])
	copy(buf.Extend(int32(len(payload))), payload)

	p := Ipv4Packet{buf: buf}
	p.finalizeChecksum()
	return p
}

func (p Ipv4Packet) headerLen() int {
	return int(p.buf.Bytes()[0]&0x0f) * 4
}

func (p Ipv4Packet) finalizeChecksum() {
	b := p.buf.Bytes()
	b[10], b[11] = 0, 0
	sum := Checksum1sComplement(b[:p.headerLen()])
	binary.BigEndian.PutUint16(b[10:12], sum)
}

func (p Ipv4Packet) Src() [4]byte {
	var a [4]byte
	copy(a[:], p.buf.Bytes()[12:16])
	return a
}

func (p Ipv4Packet) Dst() [4]byte {
	var a [4]byte
	copy(a[:], p.buf.Bytes()[16:20])
	return a
}

func (p Ipv4Packet) Protocol() IPProtocol { return IPProtocol(p.buf.Bytes()[9]) }
func (p Ipv4Packet) TTL() uint8           { return p.buf.Bytes()[8] }
func (p Ipv4Packet) ID() uint16           { return binary.BigEndian.Uint16(p.buf.Bytes()[4:6]) }

// Checksum returns the header checksum field as transmitted.
func (p Ipv4Packet) Checksum() uint16 {
	return binary.BigEndian.Uint16(p.buf.Bytes()[10:12])
}

// VerifyChecksum reports whether the header checksum, taken over the
// header as received, is valid (sums to zero).
func (p Ipv4Packet) VerifyChecksum() bool {
	return Checksum1sComplement(p.buf.Bytes()[:p.headerLen()]) == 0
}

// SetTTL rewrites the TTL field and recomputes the header checksum. Used by
// the hop-count decrementer.
func (p Ipv4Packet) SetTTL(ttl uint8) {
	p.buf.Bytes()[8] = ttl
	p.finalizeChecksum()
}

// SetSrc rewrites the source address and recomputes the header checksum.
// Used by NAT translation.
func (p Ipv4Packet) SetSrc(addr [4]byte) {
	copy(p.buf.Bytes()[12:16], addr[:])
	p.finalizeChecksum()
}

// SetDst rewrites the destination address and recomputes the header
// checksum. Used by NAT translation.
func (p Ipv4Packet) SetDst(addr [4]byte) {
	copy(p.buf.Bytes()[16:20], addr[:])
	p.finalizeChecksum()
}

// Payload returns the bytes following the (possibly options-bearing)
// header, up to the declared total length.
func (p Ipv4Packet) Payload() []byte {
	totalLen := int(binary.BigEndian.Uint16(p.buf.Bytes()[2:4]))
	return p.buf.Bytes()[p.headerLen():totalLen]
}

func (p Ipv4Packet) AsBytes() []byte { return p.buf.Bytes() }

func (p Ipv4Packet) Buffer() *netbuf.Buffer { return p.buf }

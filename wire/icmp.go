package wire

import (
	"encoding/binary"

	"github.com/canndrew/netsim-sub001/wire/netbuf"
)

const icmpHeaderLen = 8

// ICMPv4 type/code values this module emits.
const (
	ICMPv4TypeEchoRequest     = 8
	ICMPv4TypeEchoReply       = 0
	ICMPv4TypeTimeExceeded    = 11
	ICMPv4CodeTTLExceeded     = 0
)

// ICMPv6 type/code values this module emits.
const (
	ICMPv6TypeEchoRequest  = 128
	ICMPv6TypeEchoReply    = 129
	ICMPv6TypeTimeExceeded = 3
	ICMPv6CodeHopExceeded  = 0
)

// IcmpPacket is a zero-copy view over an ICMPv4 or ICMPv6 message: an
// 8-byte header (type, code, checksum, 4 bytes of type-specific data)
// followed by a body.
type IcmpPacket struct {
	buf *netbuf.Buffer
}

// DecodeIcmpPacket views buf as an ICMP message.
func DecodeIcmpPacket(buf *netbuf.Buffer) (IcmpPacket, error) {
	if buf.Len() < icmpHeaderLen {
		return IcmpPacket{}, errTooShort("icmp", icmpHeaderLen, int(buf.Len()))
	}
	return IcmpPacket{buf: buf}, nil
}

// NewIcmpv4Packet allocates an ICMPv4 message and finalizes its checksum
// (ICMPv4 uses a plain one's-complement checksum, no pseudo-header).
func NewIcmpv4Packet(icmpType, code uint8, rest uint32, body []byte) IcmpPacket {
	buf := netbuf.NewWithSize(int32(icmpHeaderLen + len(body)))
	b := buf.Extend(int32(icmpHeaderLen))
	b[0], b[1] = icmpType, code
	binary.BigEndian.PutUint32(b[4:8], rest)
	copy(buf.Extend(int32(len(body))), body)

	p := IcmpPacket{buf: buf}
	sum := Checksum1sComplement(p.buf.Bytes())
	binary.BigEndian.PutUint16(p.buf.Bytes()[2:4], sum)
	return p
}

// NewIcmpv6Packet allocates an ICMPv6 message and finalizes its checksum
// against the IPv6 pseudo-header.
func NewIcmpv6Packet(icmpType, code uint8, rest uint32, body []byte, src, dst [16]byte) IcmpPacket {
	buf := netbuf.NewWithSize(int32(icmpHeaderLen + len(body)))
	b := buf.Extend(int32(icmpHeaderLen))
	b[0], b[1] = icmpType, code
	binary.BigEndian.PutUint32(b[4:8], rest)
	copy(buf.Extend(int32(len(body))), body)

	p := IcmpPacket{buf: buf}
	sum := ChecksumIPv6Pseudo(src, dst, uint8(ProtocolICMPv6), p.buf.Bytes())
	binary.BigEndian.PutUint16(p.buf.Bytes()[2:4], sum)
	return p
}

func (p IcmpPacket) Type() uint8 { return p.buf.Bytes()[0] }
func (p IcmpPacket) Code() uint8 { return p.buf.Bytes()[1] }

func (p IcmpPacket) Body() []byte { return p.buf.Bytes()[icmpHeaderLen:] }

func (p IcmpPacket) AsBytes() []byte { return p.buf.Bytes() }

func (p IcmpPacket) Buffer() *netbuf.Buffer { return p.buf }

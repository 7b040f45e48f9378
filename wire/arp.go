package wire

import (
	"encoding/binary"

	"github.com/canndrew/netsim-sub001/wire/netbuf"
)

// ArpOperation is the ARP opcode.
type ArpOperation uint16

const (
	ArpRequest ArpOperation = 1
	ArpReply   ArpOperation = 2
)

const arpPacketLen = 28

// arp hardware/protocol type codes for Ethernet/IPv4, the only combination
// this module emits or parses.
const (
	arpHardwareTypeEthernet = 1
	arpProtocolTypeIPv4     = 0x0800
)

// ArpPacket is a zero-copy view over an Ethernet/IPv4 ARP packet.
type ArpPacket struct {
	buf *netbuf.Buffer
}

// ParseArp views buf as an ARP packet. Returns ErrUnknownArpOperation for
// any opcode other than request or reply, and a *DecodeError if buf is too
// short or declares a hardware/protocol type this module doesn't support.
func ParseArp(buf *netbuf.Buffer) (ArpPacket, error) {
	if buf.Len() < arpPacketLen {
		return ArpPacket{}, errTooShort("arp", arpPacketLen, int(buf.Len()))
	}
	p := ArpPacket{buf: buf}
	b := buf.Bytes()
	if binary.BigEndian.Uint16(b[0:2]) != arpHardwareTypeEthernet {
		return ArpPacket{}, &DecodeError{Layer: "arp", Msg: "unsupported hardware type"}
	}
	if binary.BigEndian.Uint16(b[2:4]) != arpProtocolTypeIPv4 {
		return ArpPacket{}, &DecodeError{Layer: "arp", Msg: "unsupported protocol type"}
	}
	switch p.Operation() {
	case ArpRequest, ArpReply:
		return p, nil
	default:
		return ArpPacket{}, ErrUnknownArpOperation
	}
}

func newArp(op ArpOperation, senderMac MacAddr, senderIP [4]byte, targetMac MacAddr, targetIP [4]byte) ArpPacket {
	buf := netbuf.NewWithSize(arpPacketLen)
	b := buf.Extend(arpPacketLen)
	binary.BigEndian.PutUint16(b[0:2], arpHardwareTypeEthernet)
	binary.BigEndian.PutUint16(b[2:4], arpProtocolTypeIPv4)
	b[4] = 6 // hardware address length
	b[5] = 4 // protocol address length
	binary.BigEndian.PutUint16(b[6:8], uint16(op))
	copy(b[8:14], senderMac[:])
	copy(b[14:18], senderIP[:])
	copy(b[18:24], targetMac[:])
	copy(b[24:28], targetIP[:])
	return ArpPacket{buf: buf}
}

// NewArpRequest builds an ARP request ("who has targetIP? tell senderIP").
func NewArpRequest(senderMac MacAddr, senderIP [4]byte, targetIP [4]byte) ArpPacket {
	return newArp(ArpRequest, senderMac, senderIP, MacAddr{}, targetIP)
}

// NewArpReply builds an ARP reply ("targetIP is at senderMac").
func NewArpReply(senderMac MacAddr, senderIP [4]byte, targetMac MacAddr, targetIP [4]byte) ArpPacket {
	return newArp(ArpReply, senderMac, senderIP, targetMac, targetIP)
}

func (p ArpPacket) Operation() ArpOperation {
	return ArpOperation(binary.BigEndian.Uint16(p.buf.Bytes()[6:8]))
}

func (p ArpPacket) SenderMac() MacAddr { return MacAddrFromBytes(p.buf.Bytes()[8:14]) }

func (p ArpPacket) SenderIP() [4]byte {
	var a [4]byte
	copy(a[:], p.buf.Bytes()[14:18])
	return a
}

func (p ArpPacket) TargetMac() MacAddr { return MacAddrFromBytes(p.buf.Bytes()[18:24]) }

func (p ArpPacket) TargetIP() [4]byte {
	var a [4]byte
	copy(a[:], p.buf.Bytes()[24:28])
	return a
}

func (p ArpPacket) AsBytes() []byte { return p.buf.Bytes() }

func (p ArpPacket) Buffer() *netbuf.Buffer { return p.buf }

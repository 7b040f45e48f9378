package wire

import (
	"encoding/binary"

	"github.com/canndrew/netsim-sub001/wire/netbuf"
)

const tcpMinHeaderLen = 20

// TCP flag bits, as laid out in the 13th header byte.
const (
	TCPFlagFIN = 1 << 0
	TCPFlagSYN = 1 << 1
	TCPFlagRST = 1 << 2
	TCPFlagPSH = 1 << 3
	TCPFlagACK = 1 << 4
)

// TcpPacket is a zero-copy view over a TCP segment. This module treats TCP
// as a header format only, for NAT port translation: there is no
// connection tracking or retransmission logic (see SPEC_FULL.md §9).
type TcpPacket struct {
	buf *netbuf.Buffer
}

// DecodeTcpPacket views buf as a TCP segment.
func DecodeTcpPacket(buf *netbuf.Buffer) (TcpPacket, error) {
	if buf.Len() < tcpMinHeaderLen {
		return TcpPacket{}, errTooShort("tcp", tcpMinHeaderLen, int(buf.Len()))
	}
	dataOffset := int(buf.Bytes()[12]>>4) * 4
	if dataOffset < tcpMinHeaderLen || int32(dataOffset) > buf.Len() {
		return TcpPacket{}, &DecodeError{Layer: "tcp", Msg: "invalid data offset"}
	}
	return TcpPacket{buf: buf}, nil
}

func (p TcpPacket) SrcPort() uint16 { return binary.BigEndian.Uint16(p.buf.Bytes()[0:2]) }
func (p TcpPacket) DstPort() uint16 { return binary.BigEndian.Uint16(p.buf.Bytes()[2:4]) }
func (p TcpPacket) Flags() uint8    { return p.buf.Bytes()[13] }

func (p TcpPacket) SetSrcPort(port uint16) { binary.BigEndian.PutUint16(p.buf.Bytes()[0:2], port) }
func (p TcpPacket) SetDstPort(port uint16) { binary.BigEndian.PutUint16(p.buf.Bytes()[2:4], port) }

func (p TcpPacket) dataOffset() int { return int(p.buf.Bytes()[12]>>4) * 4 }

// RecomputeChecksumIPv4 recomputes the checksum after a NAT rewrite.
func (p TcpPacket) RecomputeChecksumIPv4(src, dst [4]byte) {
	b := p.buf.Bytes()
	b[16], b[17] = 0, 0
	sum := ChecksumIPv4Pseudo(src, dst, uint8(ProtocolTCP), b)
	binary.BigEndian.PutUint16(b[16:18], sum)
}

func (p TcpPacket) Payload() []byte { return p.buf.Bytes()[p.dataOffset():] }

func (p TcpPacket) AsBytes() []byte { return p.buf.Bytes() }

func (p TcpPacket) Buffer() *netbuf.Buffer { return p.buf }

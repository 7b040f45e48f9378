package wire

import (
	"encoding/binary"

	"github.com/canndrew/netsim-sub001/wire/netbuf"
)

// EtherType identifies the payload carried by an Ethernet frame.
type EtherType uint16

const (
	EtherTypeIPv4 EtherType = 0x0800
	EtherTypeARP  EtherType = 0x0806
	EtherTypeIPv6 EtherType = 0x86DD
)

const etherHeaderLen = 14

// EtherFrame is a zero-copy view over an Ethernet II frame: 14-byte header
// (destination MAC, source MAC, ethertype) followed by payload.
type EtherFrame struct {
	buf *netbuf.Buffer
}

// DecodeEtherFrame views buf as an Ethernet II frame. Returns a
// *DecodeError if buf is shorter than the fixed header.
func DecodeEtherFrame(buf *netbuf.Buffer) (EtherFrame, error) {
	if buf.Len() < etherHeaderLen {
		return EtherFrame{}, errTooShort("ether", etherHeaderLen, int(buf.Len()))
	}
	return EtherFrame{buf: buf}, nil
}

// NewEtherFrame allocates a new frame with the given header fields wrapping
// payload (copied into the frame's own buffer).
func NewEtherFrame(dst, src MacAddr, etherType EtherType, payload []byte) EtherFrame {
	buf := netbuf.NewWithSize(int32(etherHeaderLen + len(payload)))
	f := EtherFrame{buf: buf}
	buf.Extend(etherHeaderLen)
	f.SetDst(dst)
	f.SetSrc(src)
	f.SetEtherType(etherType)
	copy(buf.Extend(int32(len(payload))), payload)
	return f
}

func (f EtherFrame) AsBytes() []byte { return f.buf.Bytes() }

func (f EtherFrame) Dst() MacAddr { return MacAddrFromBytes(f.buf.Bytes()[0:6]) }
func (f EtherFrame) Src() MacAddr { return MacAddrFromBytes(f.buf.Bytes()[6:12]) }

func (f EtherFrame) EtherType() EtherType {
	return EtherType(binary.BigEndian.Uint16(f.buf.Bytes()[12:14]))
}

func (f EtherFrame) SetDst(m MacAddr) { copy(f.buf.Bytes()[0:6], m[:]) }
func (f EtherFrame) SetSrc(m MacAddr) { copy(f.buf.Bytes()[6:12], m[:]) }

func (f EtherFrame) SetEtherType(t EtherType) {
	binary.BigEndian.PutUint16(f.buf.Bytes()[12:14], uint16(t))
}

// Payload returns the bytes following the Ethernet header.
func (f EtherFrame) Payload() []byte { return f.buf.Bytes()[etherHeaderLen:] }

// Buffer returns the underlying netbuf.Buffer, for Release or further
// layered decoding (e.g. Advance-ing past this header).
func (f EtherFrame) Buffer() *netbuf.Buffer { return f.buf }

// Clone returns a frame sharing this one's backing bytes (see
// netbuf.Buffer.Clone), for fanning one frame out to several hub peers
// without copying.
func (f EtherFrame) Clone() EtherFrame { return EtherFrame{buf: f.buf.Clone()} }

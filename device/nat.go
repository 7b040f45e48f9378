package device

import (
	"context"
	"time"

	"github.com/canndrew/netsim-sub001/plug"
	"github.com/canndrew/netsim-sub001/wire"
	"github.com/canndrew/netsim-sub001/wire/netbuf"
)

// ConeType selects which inbound peers a NAT mapping accepts return
// traffic from. The zero value is Symmetric, the default; the others follow
// from least to most restrictive.
type ConeType int

const (
	// Symmetric allocates a distinct mapping per destination (address and
	// port), the default and most restrictive behavior.
	Symmetric ConeType = iota
	// FullCone lets any external host reach an open mapping.
	FullCone
	// RestrictedCone requires the external host's address to match a
	// destination the mapping has sent to.
	RestrictedCone
	// PortRestrictedCone additionally requires the external port to match.
	PortRestrictedCone
)

// NatConfig configures a Nat device.
type NatConfig struct {
	PublicIP      [4]byte
	PrivateSubnet wire.Ipv4Range
	Hairpinning   bool
	ConeType      ConeType
	// UDPIdleTimeout is how long a UDP/ICMP mapping survives without
	// traffic. Zero means the default of 60s.
	UDPIdleTimeout time.Duration
	// TCPIdleTimeout is how long a TCP mapping survives without traffic.
	// Zero means the default of 5 minutes.
	TCPIdleTimeout time.Duration
}

func (c NatConfig) udpTimeout() time.Duration {
	if c.UDPIdleTimeout > 0 {
		return c.UDPIdleTimeout
	}
	return 60 * time.Second
}

func (c NatConfig) tcpTimeout() time.Duration {
	if c.TCPIdleTimeout > 0 {
		return c.TCPIdleTimeout
	}
	return 5 * time.Minute
}

// Nat is an IPv4 source-NAT device with one private-side peer and one
// public-side peer. It rewrites the source address/port of outbound
// packets to PublicIP and an allocated port, and reverses the mapping for
// inbound packets, per SPEC_FULL.md §4.7. Fragmented datagrams and
// protocols other than UDP/TCP/ICMP echo are dropped.
type Nat struct {
	cfg NatConfig

	privateSender   plug.Sender[wire.Ipv4Packet]
	privateReceiver plug.Receiver[wire.Ipv4Packet]
	publicSender    plug.Sender[wire.Ipv4Packet]
	publicReceiver  plug.Receiver[wire.Ipv4Packet]

	table *natTable
}

// NewNat creates a Nat device sitting between private and public, which
// become the device's two Plugs. NewNat alone does no work; call Spawn.
func NewNat(cfg NatConfig, private, public plug.Ipv4Plug) *Nat {
	n := &Nat{cfg: cfg, table: newNatTable()}
	n.privateSender, n.privateReceiver = private.SplitSenderReceiver()
	n.publicSender, n.publicReceiver = public.SplitSenderReceiver()
	return n
}

// Spawn starts the outbound and inbound translation goroutines.
func (n *Nat) Spawn(ctx context.Context) {
	go n.runOutbound(ctx)
	go n.runInbound(ctx)
}

// Bindings returns a snapshot of every live translation this Nat is
// currently holding open.
func (n *Nat) Bindings() map[int32]NatBinding {
	return n.table.Bindings()
}

func isFragment(pkt wire.Ipv4Packet) bool {
	b := pkt.AsBytes()
	flagsFrag := uint16(b[6])<<8 | uint16(b[7])
	moreFragments := flagsFrag&0x2000 != 0
	fragOffset := flagsFrag & 0x1fff
	return moreFragments || fragOffset != 0
}

func (n *Nat) runOutbound(ctx context.Context) {
	for {
		pkt, ok := n.privateReceiver.Poll(ctx)
		if !ok {
			return
		}
		n.translateOutbound(pkt)
	}
}

func (n *Nat) runInbound(ctx context.Context) {
	for {
		pkt, ok := n.publicReceiver.Poll(ctx)
		if !ok {
			return
		}
		n.translateInbound(pkt)
	}
}

func (n *Nat) translateOutbound(pkt wire.Ipv4Packet) {
	if isFragment(pkt) {
		newError("dropping fragmented outbound packet, fragment reassembly is out of scope").AtDebug().WriteToLog()
		pkt.Buffer().Release()
		return
	}

	privAddr := pkt.Src()
	dstAddr := pkt.Dst()

	var protocol natProtocol
	var privPort, dstPort uint16

	switch pkt.Protocol() {
	case wire.ProtocolUDP:
		seg, err := wire.DecodeUdpPacket(netbuf.FromBytes(pkt.Payload()))
		if err != nil {
			newError("dropping malformed UDP segment").Base(err).AtDebug().WriteToLog()
			pkt.Buffer().Release()
			return
		}
		protocol, privPort, dstPort = natUDP, seg.SrcPort(), seg.DstPort()
	case wire.ProtocolTCP:
		seg, err := wire.DecodeTcpPacket(netbuf.FromBytes(pkt.Payload()))
		if err != nil {
			newError("dropping malformed TCP segment").Base(err).AtDebug().WriteToLog()
			pkt.Buffer().Release()
			return
		}
		protocol, privPort, dstPort = natTCP, seg.SrcPort(), seg.DstPort()
	case wire.ProtocolICMPv4:
		msg, err := wire.DecodeIcmpPacket(netbuf.FromBytes(pkt.Payload()))
		if err != nil || msg.Type() != wire.ICMPv4TypeEchoRequest {
			newError("dropping unsupported ICMPv4 message through NAT").AtDebug().WriteToLog()
			pkt.Buffer().Release()
			return
		}
		protocol, privPort = natICMP, echoIdentifier(msg)
	default:
		newError("dropping packet with unsupported protocol through NAT").AtDebug().WriteToLog()
		pkt.Buffer().Release()
		return
	}

	key := natKey{protocol: protocol, privAddr: privAddr, privPort: privPort, dstAddr: dstAddr, dstPort: dstPort}
	timeout := n.cfg.udpTimeout()
	if protocol == natTCP {
		timeout = n.cfg.tcpTimeout()
	}

	pubPort, err := n.table.lookupOutbound(key, n.cfg.ConeType, timeout, func(natKey) {})
	if err != nil {
		newError("dropping outbound packet, NAT allocation failed").Base(err).AtWarning().WriteToLog()
		pkt.Buffer().Release()
		return
	}

	pkt.SetSrc(n.cfg.PublicIP)
	switch protocol {
	case natUDP:
		seg, _ := wire.DecodeUdpPacket(netbuf.FromBytes(pkt.Payload()))
		seg.SetSrcPort(pubPort)
		seg.RecomputeChecksumIPv4(n.cfg.PublicIP, dstAddr)
	case natTCP:
		seg, _ := wire.DecodeTcpPacket(netbuf.FromBytes(pkt.Payload()))
		seg.SetSrcPort(pubPort)
		seg.RecomputeChecksumIPv4(n.cfg.PublicIP, dstAddr)
	case natICMP:
		rewriteEchoIdentifier(pkt, pubPort)
	}

	if n.cfg.Hairpinning && n.cfg.PrivateSubnet.Contains(dstAddr) {
		n.privateSender.Send(pkt)
		return
	}
	n.publicSender.Send(pkt)
}

func (n *Nat) translateInbound(pkt wire.Ipv4Packet) {
	if isFragment(pkt) {
		pkt.Buffer().Release()
		return
	}

	srcAddr := pkt.Src()

	var protocol natProtocol
	var srcPort, pubPort uint16

	switch pkt.Protocol() {
	case wire.ProtocolUDP:
		seg, err := wire.DecodeUdpPacket(netbuf.FromBytes(pkt.Payload()))
		if err != nil {
			pkt.Buffer().Release()
			return
		}
		protocol, srcPort, pubPort = natUDP, seg.SrcPort(), seg.DstPort()
	case wire.ProtocolTCP:
		seg, err := wire.DecodeTcpPacket(netbuf.FromBytes(pkt.Payload()))
		if err != nil {
			pkt.Buffer().Release()
			return
		}
		protocol, srcPort, pubPort = natTCP, seg.SrcPort(), seg.DstPort()
	case wire.ProtocolICMPv4:
		msg, err := wire.DecodeIcmpPacket(netbuf.FromBytes(pkt.Payload()))
		if err != nil || msg.Type() != wire.ICMPv4TypeEchoReply {
			pkt.Buffer().Release()
			return
		}
		protocol, pubPort = natICMP, echoIdentifier(msg)
	default:
		pkt.Buffer().Release()
		return
	}

	m, ok := n.table.lookupInbound(protocol, pubPort, srcAddr, srcPort, n.cfg.ConeType)
	if !ok {
		newError("dropping inbound packet, no matching NAT mapping").WithPrefix(NatError{Kind: MappingMiss}).AtDebug().WriteToLog()
		pkt.Buffer().Release()
		return
	}

	privAddr := m.key.privAddr
	pkt.SetDst(privAddr)
	switch protocol {
	case natUDP:
		seg, _ := wire.DecodeUdpPacket(netbuf.FromBytes(pkt.Payload()))
		seg.SetDstPort(m.key.privPort)
		seg.RecomputeChecksumIPv4(srcAddr, privAddr)
	case natTCP:
		seg, _ := wire.DecodeTcpPacket(netbuf.FromBytes(pkt.Payload()))
		seg.SetDstPort(m.key.privPort)
		seg.RecomputeChecksumIPv4(srcAddr, privAddr)
	case natICMP:
		rewriteEchoIdentifier(pkt, m.key.privPort)
	}

	n.privateSender.Send(pkt)
}

func echoIdentifier(msg wire.IcmpPacket) uint16 {
	b := msg.AsBytes()
	return uint16(b[4])<<8 | uint16(b[5])
}

// rewriteEchoIdentifier rewrites an ICMP echo message's identifier field
// (used as the NAT's port-equivalent for ICMP) and recomputes its
// checksum, which has no pseudo-header over IPv4.
func rewriteEchoIdentifier(pkt wire.Ipv4Packet, id uint16) {
	msg, err := wire.DecodeIcmpPacket(netbuf.FromBytes(pkt.Payload()))
	if err != nil {
		return
	}
	b := msg.AsBytes()
	b[4], b[5] = byte(id>>8), byte(id)
	b[2], b[3] = 0, 0
	sum := wire.Checksum1sComplement(b)
	b[2], b[3] = byte(sum>>8), byte(sum)
}

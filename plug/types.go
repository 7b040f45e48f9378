package plug

import "github.com/canndrew/netsim-sub001/wire"

// EtherPlug carries raw Ethernet II frames, the link layer a machine's
// network interface and an Ether<->IPv4 adaptor speak.
type EtherPlug = Plug[wire.EtherFrame]

// IpPlug carries either-version IP packets, the link layer hubs and
// routers operate at.
type IpPlug = Plug[wire.IpPacket]

// Ipv4Plug carries only IPv4 packets.
type Ipv4Plug = Plug[wire.Ipv4Packet]

// Ipv6Plug carries only IPv6 packets.
type Ipv6Plug = Plug[wire.Ipv6Packet]

package wire

// Ipv4Route is one entry in an IPv4 router or NAT peer's route table: a
// destination range reachable through this peer, with an optional next-hop
// gateway address (nil when the peer itself is directly attached).
type Ipv4Route struct {
	Destination Ipv4Range
	Gateway     *[4]byte
}

// Ipv6Route is the IPv6 analogue of Ipv4Route.
type Ipv6Route struct {
	Destination Ipv6Range
	Gateway     *[16]byte
}

// Package device implements the virtual devices that sit between plugs in
// a simulated network: hubs, routers, NAT, link shapers, the Ethernet/IPv4
// adaptor, and the TTL hop counter. Most devices run one goroutine per port
// with no shared state at all, each owning its slice of the device's data
// exclusively. The two devices whose ports must agree on shared state
// across goroutines (Nat's table, EtherIpv4Adaptor's ARP cache) guard it
// with a single sync.Mutex rather than trying to partition it — see each
// type's doc comment. Per SPEC_FULL.md §5.
package device

import "github.com/canndrew/netsim-sub001/common/errors"

func newError(msg ...interface{}) *errors.Error { return errors.New(msg...) }

// NatErrorKind classifies a NatError.
type NatErrorKind int

const (
	NoFreePorts NatErrorKind = iota
	MappingMiss
	UnsupportedProtocol
)

func (k NatErrorKind) String() string {
	switch k {
	case NoFreePorts:
		return "NoFreePorts"
	case MappingMiss:
		return "MappingMiss"
	case UnsupportedProtocol:
		return "UnsupportedProtocol"
	default:
		return "Unknown"
	}
}

// NatError reports why an outbound or inbound packet was dropped by a NAT
// device. Every NatError resolves to the packet being dropped; it never
// propagates as a fatal error out of the device goroutine.
type NatError struct {
	Kind NatErrorKind
	Msg  string
}

func (e *NatError) Error() string { return "device: nat: " + e.Kind.String() + ": " + e.Msg }

package wire

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"math/rand"
	"strconv"
	"strings"
)

// Ipv4Range is a contiguous block of IPv4 addresses, expressed as a base
// address and a prefix length in [0, 32].
type Ipv4Range struct {
	base   uint32
	prefix uint8
}

// ParseIpv4Range parses "A.B.C.D/N". Returns a *RangeError on a missing or
// extra '/', an unparsable address, or a prefix outside [0, 32].
func ParseIpv4Range(s string) (Ipv4Range, error) {
	parts := strings.Split(s, "/")
	if len(parts) < 2 {
		return Ipv4Range{}, &RangeError{Op: "ParseIpv4Range", Msg: "missing '/' delimiter"}
	}
	if len(parts) > 2 {
		return Ipv4Range{}, &RangeError{Op: "ParseIpv4Range", Msg: "more than one '/' delimiter"}
	}

	addr, err := parseIpv4Addr(parts[0])
	if err != nil {
		return Ipv4Range{}, &RangeError{Op: "ParseIpv4Range", Msg: "invalid address: " + err.Error()}
	}
	prefix, err := strconv.Atoi(parts[1])
	if err != nil || prefix < 0 || prefix > 32 {
		return Ipv4Range{}, &RangeError{Op: "ParseIpv4Range", Msg: "invalid prefix length"}
	}
	return NewIpv4Range(addr, uint8(prefix)), nil
}

// NewIpv4Range masks addr down to the base of the prefix-length network
// containing it.
func NewIpv4Range(addr [4]byte, prefix uint8) Ipv4Range {
	mask := netmaskBits32(prefix)
	return Ipv4Range{base: binary.BigEndian.Uint32(addr[:]) & mask, prefix: prefix}
}

func netmaskBits32(prefix uint8) uint32 {
	if prefix == 0 {
		return 0
	}
	return ^uint32(0) << (32 - prefix)
}

// Ipv4Global is the whole IPv4 address space, 0.0.0.0/0.
func Ipv4Global() Ipv4Range { return Ipv4Range{base: 0, prefix: 0} }

// Ipv4Loopback is 127.0.0.0/8.
func Ipv4Loopback() Ipv4Range { return NewIpv4Range([4]byte{127, 0, 0, 0}, 8) }

// Ipv4LinkLocal is 169.254.0.0/16.
func Ipv4LinkLocal() Ipv4Range { return NewIpv4Range([4]byte{169, 254, 0, 0}, 16) }

// Ipv4LocalSubnet10 is 10.0.0.0/8.
func Ipv4LocalSubnet10() Ipv4Range { return NewIpv4Range([4]byte{10, 0, 0, 0}, 8) }

// Ipv4LocalSubnet172 is 172.16.0.0/12.
func Ipv4LocalSubnet172() Ipv4Range { return NewIpv4Range([4]byte{172, 16, 0, 0}, 12) }

// Ipv4LocalSubnet192 is 192.168.0.0/16.
func Ipv4LocalSubnet192() Ipv4Range { return NewIpv4Range([4]byte{192, 168, 0, 0}, 16) }

// Prefix returns the netmask prefix length.
func (r Ipv4Range) Prefix() uint8 { return r.prefix }

// BaseAddr returns the lowest address in the range.
func (r Ipv4Range) BaseAddr() [4]byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], r.base)
	return b
}

// Netmask returns the range's netmask as an address.
func (r Ipv4Range) Netmask() [4]byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], netmaskBits32(r.prefix))
	return b
}

// BroadcastAddr returns the highest address in the range (all host bits set).
func (r Ipv4Range) BroadcastAddr() [4]byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], r.base|^netmaskBits32(r.prefix))
	return b
}

// Contains reports whether addr falls within the range.
func (r Ipv4Range) Contains(addr [4]byte) bool {
	a := binary.BigEndian.Uint32(addr[:])
	mask := netmaskBits32(r.prefix)
	return a&mask == r.base&mask
}

// RandomClientAddr returns a uniformly random host address in the range,
// excluding the base (network) and broadcast addresses. Panics if the
// range has no usable host addresses (prefix >= 31).
func (r Ipv4Range) RandomClientAddr() [4]byte {
	hostBits := 32 - r.prefix
	if hostBits < 2 {
		panic("wire: Ipv4Range has no usable host addresses")
	}
	numHosts := uint32(1) << hostBits
	for {
		offset := rand.Uint32() & (numHosts - 1)
		if offset == 0 || offset == numHosts-1 {
			continue
		}
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], r.base|offset)
		return b
	}
}

// Split partitions the range into n equal-size child ranges, each with the
// prefix extended by ceil(log2(n)) bits. Returns a *RangeError if n is not
// positive or the range does not have enough host bits to hold n children.
func (r Ipv4Range) Split(n int) ([]Ipv4Range, error) {
	if n <= 0 {
		return nil, &RangeError{Op: "Ipv4Range.Split", Msg: "n must be positive"}
	}
	extraBits := uint8(bits.Len(uint(n - 1)))
	if int(r.prefix)+int(extraBits) > 32 {
		return nil, &RangeError{Op: "Ipv4Range.Split", Msg: fmt.Sprintf("range has too few host bits to split into %d parts", n)}
	}
	childPrefix := r.prefix + extraBits
	step := ^netmaskBits32(childPrefix) + 1

	out := make([]Ipv4Range, n)
	for i := 0; i < n; i++ {
		out[i] = Ipv4Range{base: r.base + uint32(i)*step, prefix: childPrefix}
	}
	return out, nil
}

func (r Ipv4Range) String() string {
	b := r.BaseAddr()
	return fmt.Sprintf("%d.%d.%d.%d/%d", b[0], b[1], b[2], b[3], r.prefix)
}

func parseIpv4Addr(s string) ([4]byte, error) {
	var out [4]byte
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return out, fmt.Errorf("expected 4 dot-separated octets, got %d", len(parts))
	}
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || v > 255 {
			return out, fmt.Errorf("invalid octet %q", p)
		}
		out[i] = byte(v)
	}
	return out, nil
}

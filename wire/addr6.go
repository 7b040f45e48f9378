package wire

import (
	"fmt"
	"math/big"
	"math/bits"
	"math/rand"
	"net"
	"strconv"
	"strings"
)

// Ipv6Range is the 128-bit analogue of Ipv4Range.
type Ipv6Range struct {
	base   [16]byte
	prefix uint8
}

// ParseIpv6Range parses "addr/N" using net.ParseIP for the address half.
func ParseIpv6Range(s string) (Ipv6Range, error) {
	parts := strings.Split(s, "/")
	if len(parts) < 2 {
		return Ipv6Range{}, &RangeError{Op: "ParseIpv6Range", Msg: "missing '/' delimiter"}
	}
	if len(parts) > 2 {
		return Ipv6Range{}, &RangeError{Op: "ParseIpv6Range", Msg: "more than one '/' delimiter"}
	}

	ip := net.ParseIP(parts[0])
	if ip == nil || ip.To16() == nil {
		return Ipv6Range{}, &RangeError{Op: "ParseIpv6Range", Msg: "invalid address"}
	}
	prefix, err := strconv.Atoi(parts[1])
	if err != nil || prefix < 0 || prefix > 128 {
		return Ipv6Range{}, &RangeError{Op: "ParseIpv6Range", Msg: "invalid prefix length"}
	}

	var addr [16]byte
	copy(addr[:], ip.To16())
	return NewIpv6Range(addr, uint8(prefix)), nil
}

// NewIpv6Range masks addr down to the base of the prefix-length network
// containing it.
func NewIpv6Range(addr [16]byte, prefix uint8) Ipv6Range {
	mask := netmaskBits128(prefix)
	var base [16]byte
	for i := range base {
		base[i] = addr[i] & mask[i]
	}
	return Ipv6Range{base: base, prefix: prefix}
}

func netmaskBits128(prefix uint8) [16]byte {
	var mask [16]byte
	full := prefix / 8
	for i := uint8(0); i < full && i < 16; i++ {
		mask[i] = 0xff
	}
	if full < 16 {
		rem := prefix % 8
		if rem > 0 {
			mask[full] = ^byte(0xff >> rem)
		}
	}
	return mask
}

// Ipv6Global is the whole IPv6 address space, ::/0.
func Ipv6Global() Ipv6Range { return Ipv6Range{prefix: 0} }

// Ipv6LinkLocal is fe80::/10.
func Ipv6LinkLocal() Ipv6Range {
	return NewIpv6Range([16]byte{0xfe, 0x80}, 10)
}

// Ipv6UniqueLocal is the unique-local (ULA) range fc00::/7.
func Ipv6UniqueLocal() Ipv6Range {
	return NewIpv6Range([16]byte{0xfc}, 7)
}

// Ipv6Documentation is the documentation-only range 2001:db8::/32.
func Ipv6Documentation() Ipv6Range {
	return NewIpv6Range([16]byte{0x20, 0x01, 0x0d, 0xb8}, 32)
}

// Ipv6Loopback is ::1/128.
func Ipv6Loopback() Ipv6Range {
	var addr [16]byte
	addr[15] = 1
	return NewIpv6Range(addr, 128)
}

// Prefix returns the netmask prefix length.
func (r Ipv6Range) Prefix() uint8 { return r.prefix }

// BaseAddr returns the lowest address in the range.
func (r Ipv6Range) BaseAddr() [16]byte { return r.base }

// Contains reports whether addr falls within the range.
func (r Ipv6Range) Contains(addr [16]byte) bool {
	mask := netmaskBits128(r.prefix)
	for i := range addr {
		if addr[i]&mask[i] != r.base[i]&mask[i] {
			return false
		}
	}
	return true
}

// RandomClientAddr returns a uniformly random host address in the range,
// excluding the all-zero host part. Panics if the range has fewer than 2
// host bits.
func (r Ipv6Range) RandomClientAddr() [16]byte {
	hostBits := 128 - int(r.prefix)
	if hostBits < 1 {
		panic("wire: Ipv6Range has no usable host addresses")
	}
	mask := netmaskBits128(r.prefix)
	for {
		var addr [16]byte
		rand.Read(addr[:])
		allZeroHost := true
		for i := range addr {
			hostByte := addr[i] &^ mask[i]
			addr[i] = (r.base[i] & mask[i]) | hostByte
			if hostByte != 0 {
				allZeroHost = false
			}
		}
		if allZeroHost {
			continue
		}
		return addr
	}
}

// Split partitions the range into n equal-size child ranges, each with the
// prefix extended by ceil(log2(n)) bits.
func (r Ipv6Range) Split(n int) ([]Ipv6Range, error) {
	if n <= 0 {
		return nil, &RangeError{Op: "Ipv6Range.Split", Msg: "n must be positive"}
	}
	extraBits := bits.Len(uint(n - 1))
	if int(r.prefix)+extraBits > 128 {
		return nil, &RangeError{Op: "Ipv6Range.Split", Msg: fmt.Sprintf("range has too few host bits to split into %d parts", n)}
	}
	childPrefix := r.prefix + uint8(extraBits)

	base := new(big.Int).SetBytes(r.base[:])
	step := new(big.Int).Lsh(big.NewInt(1), uint(128-int(childPrefix)))

	out := make([]Ipv6Range, n)
	for i := 0; i < n; i++ {
		addr := new(big.Int).Add(base, new(big.Int).Mul(step, big.NewInt(int64(i))))
		out[i] = Ipv6Range{base: bigTo16(addr), prefix: childPrefix}
	}
	return out, nil
}

// bigTo16 renders a non-negative big.Int into a 16-byte big-endian array,
// left-padding with zeros.
func bigTo16(v *big.Int) [16]byte {
	var out [16]byte
	b := v.Bytes()
	copy(out[16-len(b):], b)
	return out
}

func (r Ipv6Range) String() string {
	ip := net.IP(r.base[:])
	return fmt.Sprintf("%s/%d", ip.String(), r.prefix)
}

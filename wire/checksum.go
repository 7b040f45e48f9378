package wire

import "encoding/binary"

// Checksum1sComplement computes the Internet checksum (RFC 1071): the
// one's complement of the one's-complement sum of the data treated as
// big-endian 16-bit words, with an odd trailing byte padded with zero.
func Checksum1sComplement(data []byte) uint16 {
	return ^fold(partialSum(data))
}

// ChecksumIPv4Pseudo computes a transport checksum (UDP/TCP) over the IPv4
// pseudo-header {src, dst, zero, protocol, length} followed by the segment
// itself, with the segment's own checksum field assumed already zeroed by
// the caller. The pseudo-header is a fixed 12 bytes, so it always ends on a
// 16-bit word boundary and the segment's sum can be folded in independently.
func ChecksumIPv4Pseudo(src, dst [4]byte, protocol uint8, segment []byte) uint16 {
	var pseudo [12]byte
	copy(pseudo[0:4], src[:])
	copy(pseudo[4:8], dst[:])
	pseudo[9] = protocol
	binary.BigEndian.PutUint16(pseudo[10:12], uint16(len(segment)))
	return ^fold(partialSum(pseudo[:]) + partialSum(segment))
}

// ChecksumIPv6Pseudo computes a transport checksum over the IPv6
// pseudo-header {src, dst, upper-layer length, zero x3, next header}
// followed by the segment itself. The pseudo-header is a fixed 40 bytes.
func ChecksumIPv6Pseudo(src, dst [16]byte, nextHeader uint8, segment []byte) uint16 {
	var pseudo [40]byte
	copy(pseudo[0:16], src[:])
	copy(pseudo[16:32], dst[:])
	binary.BigEndian.PutUint32(pseudo[32:36], uint32(len(segment)))
	pseudo[39] = nextHeader
	return ^fold(partialSum(pseudo[:]) + partialSum(segment))
}

// partialSum sums data as big-endian 16-bit words without folding carries
// or complementing, so multiple partial sums can be added together before
// the final fold.
func partialSum(data []byte) uint32 {
	var sum uint32
	n := len(data)
	for i := 0; i+1 < n; i += 2 {
		sum += uint32(binary.BigEndian.Uint16(data[i : i+2]))
	}
	if n%2 == 1 {
		sum += uint32(data[n-1]) << 8
	}
	return sum
}

func fold(sum uint32) uint16 {
	for sum > 0xffff {
		sum = (sum & 0xffff) + (sum >> 16)
	}
	return uint16(sum)
}

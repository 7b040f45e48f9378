// Package wire implements the Ethernet/ARP/IPv4/IPv6/UDP/TCP/ICMP codecs
// that every device in package device and every machine interface in
// package iface reads and writes. Every decoder is zero-copy (it views an
// existing netbuf.Buffer) and returns a DecodeError instead of panicking on
// malformed input, matching the reference stack's "never panic on untrusted
// bytes" discipline.
package wire

import "fmt"

// MacAddr is the hardware address of an Ethernet interface.
type MacAddr [6]byte

// Broadcast is FF:FF:FF:FF:FF:FF.
var Broadcast = MacAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// MacAddrFromBytes builds a MacAddr from a 6-byte slice. Panics if b is not
// exactly 6 bytes; callers at a decode boundary should slice-check first.
func MacAddrFromBytes(b []byte) MacAddr {
	var m MacAddr
	copy(m[:], b)
	return m
}

// Matches reports whether a frame destined for m should be received by an
// interface whose own hardware address is iface: either m is the broadcast
// address, or the two addresses are equal.
func (m MacAddr) Matches(iface MacAddr) bool {
	return m == Broadcast || m == iface
}

func (m MacAddr) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", m[0], m[1], m[2], m[3], m[4], m[5])
}

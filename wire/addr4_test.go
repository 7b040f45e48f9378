package wire_test

import (
	"testing"

	. "github.com/canndrew/netsim-sub001/wire"
)

func TestParseIpv4Range(t *testing.T) {
	t.Parallel()

	r, err := ParseIpv4Range("192.168.1.0/24")
	if err != nil {
		t.Fatalf("ParseIpv4Range() error = %v", err)
	}
	if got := r.BaseAddr(); got != [4]byte{192, 168, 1, 0} {
		t.Fatalf("BaseAddr() = %v, want 192.168.1.0", got)
	}
	if got := r.BroadcastAddr(); got != [4]byte{192, 168, 1, 255} {
		t.Fatalf("BroadcastAddr() = %v, want 192.168.1.255", got)
	}
}

func TestParseIpv4RangeErrors(t *testing.T) {
	t.Parallel()

	cases := []string{"10.0.0.0", "10.0.0.0/24/8", "not-an-ip/24", "10.0.0.0/33", "10.0.0.0/-1"}
	for _, s := range cases {
		if _, err := ParseIpv4Range(s); err == nil {
			t.Errorf("ParseIpv4Range(%q) succeeded, want error", s)
		}
	}
}

func TestIpv4RangeRandomClientAddrContained(t *testing.T) {
	t.Parallel()

	r, err := ParseIpv4Range("10.1.2.0/24")
	if err != nil {
		t.Fatal(err)
	}
	base := r.BaseAddr()
	broadcast := r.BroadcastAddr()
	for i := 0; i < 1000; i++ {
		addr := r.RandomClientAddr()
		if !r.Contains(addr) {
			t.Fatalf("RandomClientAddr() %v not contained in %v", addr, r)
		}
		if addr == base {
			t.Fatalf("RandomClientAddr() returned the base address %v", addr)
		}
		if addr == broadcast {
			t.Fatalf("RandomClientAddr() returned the broadcast address %v", addr)
		}
	}
}

func TestIpv4RangeSplitPartitionsDisjointAndCovering(t *testing.T) {
	t.Parallel()

	r, err := ParseIpv4Range("10.0.0.0/24")
	if err != nil {
		t.Fatal(err)
	}
	children, err := r.Split(4)
	if err != nil {
		t.Fatalf("Split(4) error = %v", err)
	}
	if len(children) != 4 {
		t.Fatalf("Split(4) returned %d children, want 4", len(children))
	}
	for i, c := range children {
		if c.Prefix() != 26 {
			t.Errorf("child %d prefix = %d, want 26", i, c.Prefix())
		}
		if !r.Contains(c.BaseAddr()) {
			t.Errorf("child %d base %v not contained in parent", i, c.BaseAddr())
		}
	}
	// Disjoint: no child's base falls inside another child's range.
	for i, a := range children {
		for j, b := range children {
			if i == j {
				continue
			}
			if b.Contains(a.BaseAddr()) {
				t.Errorf("child %d (%v) overlaps child %d (%v)", i, a, j, b)
			}
		}
	}
}

func TestIpv4RangeSplitTooManyParts(t *testing.T) {
	t.Parallel()

	r, _ := ParseIpv4Range("10.0.0.0/31")
	if _, err := r.Split(8); err == nil {
		t.Fatal("Split(8) on a /31 succeeded, want error")
	}
}

func TestMacAddrMatches(t *testing.T) {
	t.Parallel()

	iface := MacAddrFromBytes([]byte{0, 1, 2, 3, 4, 5})
	if !Broadcast.Matches(iface) {
		t.Fatal("broadcast should match any interface")
	}
	if !iface.Matches(iface) {
		t.Fatal("an address should match itself")
	}
	other := MacAddrFromBytes([]byte{0, 1, 2, 3, 4, 6})
	if other.Matches(iface) {
		t.Fatal("unrelated address should not match")
	}
}

package device

import (
	"math/rand"
	"sync"
	"time"

	"github.com/canndrew/netsim-sub001/common/idsyncmap"
	"github.com/canndrew/netsim-sub001/common/signal"
)

// NatBinding is a snapshot of one live translation, for tests and
// diagnostics that want to inspect a Nat device's table without reaching
// into its internals.
type NatBinding struct {
	PrivAddr [4]byte
	PrivPort uint16
	PubPort  uint16
}

// natProtocol distinguishes the two transports Nat translates.
type natProtocol uint8

const (
	natUDP natProtocol = iota
	natTCP
	natICMP
)

// natKey identifies a mapping by the private-side 4-tuple (for UDP/TCP) or
// the private address and ICMP echo identifier (for ICMP).
type natKey struct {
	protocol natProtocol
	privAddr [4]byte
	privPort uint16
	dstAddr  [4]byte
	dstPort  uint16
}

// natMapping is one allocated translation: privAddr:privPort <->
// publicIP:pubPort, scoped per dstAddr:dstPort according to the NAT's
// ConeType.
type natMapping struct {
	key       natKey
	pubPort   uint16
	timer     *signal.ActivityTimer
	bindingID int32
}

// natTable tracks the live private->public port allocations for one Nat
// device, keyed both by the outbound (private-side) tuple and by the
// inbound (public port, protocol) pair so translation is O(1) in either
// direction.
type natTable struct {
	mu sync.Mutex

	byPrivate map[natKey]*natMapping
	byPublic  map[natProtocol]map[uint16]*natMapping
	bindings  idsyncmap.IDSyncMap[NatBinding]

	portLow, portHigh uint16
}

func newNatTable() *natTable {
	return &natTable{
		byPrivate: make(map[natKey]*natMapping),
		byPublic:  make(map[natProtocol]map[uint16]*natMapping),
		bindings:  idsyncmap.NewIDSyncMap[NatBinding](),
		portLow:   1024,
		portHigh:  65535,
	}
}

// Bindings returns a snapshot of every live translation, keyed by an
// opaque id stable for the binding's lifetime. Used by tests and by
// callers wanting to observe NAT table occupancy without a data race.
func (t *natTable) Bindings() map[int32]NatBinding {
	return t.bindings.Snapshot()
}

// coneKey narrows a full natKey down to what ConeType says distinguishes
// mappings: a FullCone mapping is shared across every destination, a
// Symmetric mapping is unique per destination (the key as given).
func coneKey(k natKey, cone ConeType) natKey {
	switch cone {
	case FullCone:
		k.dstAddr = [4]byte{}
		k.dstPort = 0
	case RestrictedCone:
		k.dstPort = 0
	case PortRestrictedCone, Symmetric:
		// key unchanged: both fields participate.
	}
	return k
}

// lookupOutbound finds or allocates a mapping for an outbound packet,
// returning the public port to rewrite the source to. idleTimeout governs
// how long the mapping survives after the last packet translated through
// it; onExpire is invoked (by the ActivityTimer's own goroutine) once the
// mapping is evicted.
func (t *natTable) lookupOutbound(k natKey, cone ConeType, idleTimeout time.Duration, onExpire func(natKey)) (uint16, error) {
	ck := coneKey(k, cone)

	t.mu.Lock()
	defer t.mu.Unlock()

	if m, ok := t.byPrivate[ck]; ok {
		m.timer.Update()
		return m.pubPort, nil
	}

	port, err := t.allocPortLocked(k.protocol)
	if err != nil {
		return 0, err
	}

	m := &natMapping{key: ck, pubPort: port}
	m.timer = signal.NewActivityTimer(idleTimeout, func() {
		t.evict(ck, k.protocol, port)
		onExpire(ck)
	})
	m.bindingID = t.bindings.Add(NatBinding{PrivAddr: k.privAddr, PrivPort: k.privPort, PubPort: port})

	t.byPrivate[ck] = m
	t.publicTable(k.protocol)[port] = m
	return port, nil
}

// lookupInbound finds the mapping a returning packet addressed to pubPort
// belongs to, enforcing ConeType's restriction on which peers may reach it
// through the mapping.
func (t *natTable) lookupInbound(protocol natProtocol, pubPort uint16, srcAddr [4]byte, srcPort uint16, cone ConeType) (*natMapping, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	m, ok := t.publicTable(protocol)[pubPort]
	if !ok {
		return nil, false
	}

	switch cone {
	case RestrictedCone:
		if m.key.dstAddr != srcAddr {
			return nil, false
		}
	case PortRestrictedCone, Symmetric:
		if m.key.dstAddr != srcAddr || m.key.dstPort != srcPort {
			return nil, false
		}
	}

	m.timer.Update()
	return m, true
}

func (t *natTable) publicTable(protocol natProtocol) map[uint16]*natMapping {
	m, ok := t.byPublic[protocol]
	if !ok {
		m = make(map[uint16]*natMapping)
		t.byPublic[protocol] = m
	}
	return m
}

// allocPortLocked picks a random free port in [portLow, portHigh] for
// protocol, linear-probing forward on collision. Returns a *NatError with
// Kind NoFreePorts once every port in the range is taken.
func (t *natTable) allocPortLocked(protocol natProtocol) (uint16, error) {
	table := t.publicTable(protocol)
	span := int(t.portHigh) - int(t.portLow) + 1
	start := t.portLow + uint16(rand.Intn(span))

	for i := 0; i < span; i++ {
		candidate := t.portLow + uint16((int(start-t.portLow)+i)%span)
		if _, taken := table[candidate]; !taken {
			return candidate, nil
		}
	}
	return 0, &NatError{Kind: NoFreePorts, Msg: "no free ports for protocol"}
}

func (t *natTable) evict(ck natKey, protocol natProtocol, port uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if m, ok := t.byPrivate[ck]; ok {
		t.bindings.Remove(m.bindingID)
	}
	delete(t.byPrivate, ck)
	delete(t.publicTable(protocol), port)
}

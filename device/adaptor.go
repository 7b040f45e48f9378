package device

import (
	"context"
	"sync"
	"time"

	"github.com/canndrew/netsim-sub001/common/signal"
	"github.com/canndrew/netsim-sub001/plug"
	"github.com/canndrew/netsim-sub001/wire"
	"github.com/canndrew/netsim-sub001/wire/netbuf"
)

// ArpCacheMaxPending is the default number of outbound packets held per
// unresolved destination address before the oldest is dropped to make
// room for a new one.
const ArpCacheMaxPending = 8

// DefaultArpResolveTimeout is how long an outstanding ARP request is given
// to resolve before every packet queued for it is dropped.
const DefaultArpResolveTimeout = time.Second

// DefaultArpCacheTTL is how long a resolved MAC address is trusted before
// it is swept from the cache and must be re-resolved.
const DefaultArpCacheTTL = 60 * time.Second

// EtherIpv4Adaptor bridges a broadcast-domain EtherPlug to an IPv4 Ipv4Plug,
// answering ARP for its own address and resolving peer addresses via ARP
// before wrapping outbound IPv4 packets in an Ethernet frame.
type EtherIpv4Adaptor struct {
	mac MacAddrConfig
	ip  [4]byte

	resolveTimeout time.Duration
	cacheTTL       time.Duration
	maxPending     int

	etherSender   plug.Sender[wire.EtherFrame]
	etherReceiver plug.Receiver[wire.EtherFrame]
	ip4Sender     plug.Sender[wire.Ipv4Packet]
	ip4Receiver   plug.Receiver[wire.Ipv4Packet]

	mu      sync.Mutex
	cache   map[[4]byte]cacheEntry
	pending map[[4]byte]*pendingEntry
}

// MacAddrConfig is the adaptor's own hardware address.
type MacAddrConfig = wire.MacAddr

type cacheEntry struct {
	mac   wire.MacAddr
	timer *signal.ActivityTimer
}

type pendingEntry struct {
	packets []wire.Ipv4Packet
	timer   *signal.ActivityTimer
}

// NewEtherIpv4Adaptor creates an adaptor with its own mac/ip, sitting
// between ether and ip4, with the default ARP settings: at most
// ArpCacheMaxPending (8) packets queued per unresolved address, a
// DefaultArpResolveTimeout (1s) resolve timeout and a DefaultArpCacheTTL
// (60s) cache lifetime. NewEtherIpv4Adaptor alone does no work; call
// Spawn.
func NewEtherIpv4Adaptor(mac wire.MacAddr, ip [4]byte, ether plug.EtherPlug, ip4 plug.Ipv4Plug) *EtherIpv4Adaptor {
	a := &EtherIpv4Adaptor{
		mac:            mac,
		ip:             ip,
		resolveTimeout: DefaultArpResolveTimeout,
		cacheTTL:       DefaultArpCacheTTL,
		maxPending:     ArpCacheMaxPending,
		cache:          make(map[[4]byte]cacheEntry),
		pending:        make(map[[4]byte]*pendingEntry),
	}
	a.etherSender, a.etherReceiver = ether.SplitSenderReceiver()
	a.ip4Sender, a.ip4Receiver = ip4.SplitSenderReceiver()
	return a
}

// Spawn starts the adaptor's two forwarding goroutines.
func (a *EtherIpv4Adaptor) Spawn(ctx context.Context) {
	go a.runEtherSide(ctx)
	go a.runIp4Side(ctx)
}

func (a *EtherIpv4Adaptor) runEtherSide(ctx context.Context) {
	for {
		frame, ok := a.etherReceiver.Poll(ctx)
		if !ok {
			return
		}
		a.handleFrame(frame)
	}
}

func (a *EtherIpv4Adaptor) runIp4Side(ctx context.Context) {
	for {
		pkt, ok := a.ip4Receiver.Poll(ctx)
		if !ok {
			return
		}
		a.handleOutbound(pkt)
	}
}

func (a *EtherIpv4Adaptor) handleFrame(frame wire.EtherFrame) {
	if frame.Dst() != a.mac && frame.Dst() != wire.Broadcast {
		newError("dropping frame not addressed to this adaptor").AtDebug().WriteToLog()
		frame.Buffer().Release()
		return
	}

	switch frame.EtherType() {
	case wire.EtherTypeARP:
		a.handleArp(frame)
	case wire.EtherTypeIPv4:
		a.handleInboundIPv4(frame)
	default:
		newError("dropping frame with unsupported ethertype").AtDebug().WriteToLog()
		frame.Buffer().Release()
	}
}

func (a *EtherIpv4Adaptor) handleArp(frame wire.EtherFrame) {
	defer frame.Buffer().Release()

	pkt, err := wire.ParseArp(netbuf.FromBytes(frame.Payload()))
	if err != nil {
		newError("dropping malformed ARP packet").Base(err).AtDebug().WriteToLog()
		return
	}

	a.learn(pkt.SenderIP(), pkt.SenderMac())

	switch pkt.Operation() {
	case wire.ArpRequest:
		if pkt.TargetIP() != a.ip {
			return
		}
		reply := wire.NewArpReply(a.mac, a.ip, pkt.SenderMac(), pkt.SenderIP())
		out := wire.NewEtherFrame(pkt.SenderMac(), a.mac, wire.EtherTypeARP, reply.AsBytes())
		a.etherSender.Send(out)
	case wire.ArpReply:
		a.flushPending(pkt.SenderIP())
	}
}

func (a *EtherIpv4Adaptor) handleInboundIPv4(frame wire.EtherFrame) {
	buf := frame.Buffer()
	buf.Advance(14)
	pkt, err := wire.DecodeIpv4Packet(buf)
	if err != nil {
		newError("dropping malformed IPv4 packet").Base(err).AtDebug().WriteToLog()
		buf.Release()
		return
	}
	a.ip4Sender.Send(pkt)
}

func (a *EtherIpv4Adaptor) handleOutbound(pkt wire.Ipv4Packet) {
	dst := pkt.Dst()

	a.mu.Lock()
	entry, ok := a.cache[dst]
	a.mu.Unlock()
	if ok {
		frame := wire.NewEtherFrame(entry.mac, a.mac, wire.EtherTypeIPv4, pkt.AsBytes())
		pkt.Buffer().Release()
		a.etherSender.Send(frame)
		return
	}

	a.queuePending(pkt)
}

func (a *EtherIpv4Adaptor) queuePending(pkt wire.Ipv4Packet) {
	dst := pkt.Dst()

	a.mu.Lock()
	pe, exists := a.pending[dst]
	if !exists {
		pe = &pendingEntry{}
		a.pending[dst] = pe
		pe.timer = signal.NewActivityTimer(a.resolveTimeout, func() { a.dropPending(dst) })
	}
	if len(pe.packets) >= a.maxPending {
		dropped := pe.packets[0]
		pe.packets = pe.packets[1:]
		dropped.Buffer().Release()
	}
	pe.packets = append(pe.packets, pkt)
	a.mu.Unlock()

	if !exists {
		req := wire.NewArpRequest(a.mac, a.ip, dst)
		frame := wire.NewEtherFrame(wire.Broadcast, a.mac, wire.EtherTypeARP, req.AsBytes())
		a.etherSender.Send(frame)
		newError("sent ARP request").WithPrefix(dst).AtDebug().WriteToLog()
	}
}

func (a *EtherIpv4Adaptor) dropPending(dst [4]byte) {
	a.mu.Lock()
	pe, ok := a.pending[dst]
	if ok {
		delete(a.pending, dst)
	}
	a.mu.Unlock()
	if !ok {
		return
	}
	newError("ARP resolution timed out, dropping queued packets").WithPrefix(dst).AtDebug().WriteToLog()
	for _, pkt := range pe.packets {
		pkt.Buffer().Release()
	}
}

func (a *EtherIpv4Adaptor) flushPending(addr [4]byte) {
	a.mu.Lock()
	pe, ok := a.pending[addr]
	entry, hasMac := a.cache[addr]
	if ok {
		delete(a.pending, addr)
		pe.timer.Stop()
	}
	a.mu.Unlock()
	if !ok || !hasMac {
		return
	}
	for _, pkt := range pe.packets {
		frame := wire.NewEtherFrame(entry.mac, a.mac, wire.EtherTypeIPv4, pkt.AsBytes())
		pkt.Buffer().Release()
		a.etherSender.Send(frame)
	}
}

// learn records or refreshes a resolved address, arming (or re-arming) its
// TTL eviction timer.
func (a *EtherIpv4Adaptor) learn(ip [4]byte, mac wire.MacAddr) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if e, ok := a.cache[ip]; ok {
		e.mac = mac
		e.timer.Update()
		a.cache[ip] = e
		return
	}
	a.cache[ip] = cacheEntry{
		mac:   mac,
		timer: signal.NewActivityTimer(a.cacheTTL, func() { a.evictCache(ip) }),
	}
}

func (a *EtherIpv4Adaptor) evictCache(ip [4]byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.cache, ip)
}

package node

import (
	"context"
	"testing"
	"time"

	"github.com/canndrew/netsim-sub001/machine"
	"github.com/canndrew/netsim-sub001/plug"
	"github.com/canndrew/netsim-sub001/sched"
	"github.com/canndrew/netsim-sub001/wire"
	"github.com/canndrew/netsim-sub001/wire/netbuf"
)

func TestEtherAdaptorSendsArpForUnresolvedDestination(t *testing.T) {
	s := newTestScheduler()
	rng := wire.Ipv4LocalSubnet192()

	var etherSide plug.EtherPlug
	fakeEndpoint := func(s *sched.Scheduler) (*machine.SpawnComplete[string], plug.EtherPlug) {
		in, out := plug.NewPair[wire.EtherFrame]()
		etherSide = in
		return machine.Completed("leaf"), out
	}

	recipe := EtherAdaptor[string](fakeEndpoint)
	_, ip4Escape := recipe(s, rng)

	_, etherReceiver := etherSide.SplitSenderReceiver()
	ip4Sender, _ := ip4Escape.SplitSenderReceiver()

	dst := rng.BaseAddr()
	dst[3] += 50
	pkt := wire.NewIpv4Packet(wire.Ipv4Fields{Src: rng.BaseAddr(), Dst: dst, Protocol: wire.ProtocolUDP, TTL: 64}, nil)
	ip4Sender.Send(pkt)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	frame, ok := etherReceiver.Poll(ctx)
	if !ok {
		t.Fatalf("expected an Ethernet frame (an ARP request) for the unresolved destination")
	}
	if frame.EtherType() != wire.EtherTypeARP {
		t.Fatalf("EtherType() = %v, want ARP", frame.EtherType())
	}
	arp, err := wire.ParseArp(netbuf.FromBytes(frame.Payload()))
	if err != nil {
		t.Fatalf("ParseArp: %v", err)
	}
	if arp.Operation() != wire.ArpRequest {
		t.Fatalf("Operation() = %v, want ArpRequest", arp.Operation())
	}
}

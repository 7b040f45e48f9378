package plug

import (
	"context"

	"github.com/canndrew/netsim-sub001/common/errors"
	"github.com/canndrew/netsim-sub001/wire"
)

func newError(msg ...interface{}) *errors.Error { return errors.New(msg...) }

// IpPlugToIpv4Plug adapts an either-version IpPlug down to an IPv4-only
// Ipv4Plug: packets arriving as IPv6 are dropped and logged at Debug;
// packets sent out are wrapped back into the IpPacket sum type.
func IpPlugToIpv4Plug(p IpPlug) Ipv4Plug {
	a, b := NewPair[wire.Ipv4Packet]()
	go runIpToIpv4(p, a)
	return b
}

func runIpToIpv4(ip IpPlug, v4 Ipv4Plug) {
	ipSender, ipReceiver := ip.SplitSenderReceiver()
	v4Sender, v4Receiver := v4.SplitSenderReceiver()
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			pkt, ok := ipReceiver.Poll(ctx)
			if !ok {
				v4Sender.Close()
				return
			}
			if pkt.IsIPv6 {
				newError("dropping an ipv6 packet on an ipv4-only plug").AtDebug().WriteToLog()
				continue
			}
			v4Sender.Send(pkt.V4)
		}
	}()

	for {
		pkt, ok := v4Receiver.Poll(ctx)
		if !ok {
			ipSender.Close()
			<-done
			return
		}
		ipSender.Send(wire.IpPacket{V4: pkt})
	}
}

// Ipv4PlugToIpPlug lifts an IPv4-only plug into the either-version IpPlug
// sum type, for attaching an IPv4-only subtree under a dual-stack parent.
func Ipv4PlugToIpPlug(p Ipv4Plug) IpPlug {
	a, b := NewPair[wire.IpPacket]()
	go runIpv4ToIp(p, a)
	return b
}

func runIpv4ToIp(v4 Ipv4Plug, ip IpPlug) {
	v4Sender, v4Receiver := v4.SplitSenderReceiver()
	ipSender, ipReceiver := ip.SplitSenderReceiver()
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			pkt, ok := v4Receiver.Poll(ctx)
			if !ok {
				ipSender.Close()
				return
			}
			ipSender.Send(wire.IpPacket{V4: pkt})
		}
	}()

	for {
		pkt, ok := ipReceiver.Poll(ctx)
		if !ok {
			v4Sender.Close()
			<-done
			return
		}
		if pkt.IsIPv6 {
			newError("dropping an ipv6 packet on an ipv4-only plug").AtDebug().WriteToLog()
			continue
		}
		v4Sender.Send(pkt.V4)
	}
}

// Ipv6PlugToIpPlug lifts an IPv6-only plug into the either-version IpPlug
// sum type, for attaching an IPv6-only subtree under a dual-stack parent.
func Ipv6PlugToIpPlug(p Ipv6Plug) IpPlug {
	a, b := NewPair[wire.IpPacket]()
	go runIpv6ToIp(p, a)
	return b
}

func runIpv6ToIp(v6 Ipv6Plug, ip IpPlug) {
	v6Sender, v6Receiver := v6.SplitSenderReceiver()
	ipSender, ipReceiver := ip.SplitSenderReceiver()
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			pkt, ok := v6Receiver.Poll(ctx)
			if !ok {
				ipSender.Close()
				return
			}
			ipSender.Send(wire.IpPacket{V6: pkt, IsIPv6: true})
		}
	}()

	for {
		pkt, ok := ipReceiver.Poll(ctx)
		if !ok {
			v6Sender.Close()
			<-done
			return
		}
		if !pkt.IsIPv6 {
			newError("dropping an ipv4 packet on an ipv6-only plug").AtDebug().WriteToLog()
			continue
		}
		v6Sender.Send(pkt.V6)
	}
}

// IpPlugToIpv6Plug adapts an either-version IpPlug down to an IPv6-only
// Ipv6Plug, dropping IPv4 packets (logged at Debug).
func IpPlugToIpv6Plug(p IpPlug) Ipv6Plug {
	a, b := NewPair[wire.Ipv6Packet]()
	go runIpToIpv6(p, a)
	return b
}

func runIpToIpv6(ip IpPlug, v6 Ipv6Plug) {
	ipSender, ipReceiver := ip.SplitSenderReceiver()
	v6Sender, v6Receiver := v6.SplitSenderReceiver()
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			pkt, ok := ipReceiver.Poll(ctx)
			if !ok {
				v6Sender.Close()
				return
			}
			if !pkt.IsIPv6 {
				newError("dropping an ipv4 packet on an ipv6-only plug").AtDebug().WriteToLog()
				continue
			}
			v6Sender.Send(pkt.V6)
		}
	}()

	for {
		pkt, ok := v6Receiver.Poll(ctx)
		if !ok {
			ipSender.Close()
			<-done
			return
		}
		ipSender.Send(wire.IpPacket{V6: pkt, IsIPv6: true})
	}
}

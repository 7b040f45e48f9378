//go:build linux

package iface

import (
	"context"
	"net"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"github.com/canndrew/netsim-sub001/plug"
	"github.com/canndrew/netsim-sub001/wire"
	"github.com/canndrew/netsim-sub001/wire/netbuf"
)

// Mode records whether a Builder describes a TUN (IP-layer, no L2 header)
// or TAP (Ethernet-layer) device. The device type itself is chosen by the
// method called (Build opens a TAP, BuildTun a TUN); Mode only decides
// whether HardwareAddr is applied, which happens for TAP alone.
type Mode int

const (
	TUN Mode = iota
	TAP
)

// Builder describes a kernel interface to create in the current network
// namespace and the addressing to apply to it. Address/PrefixLength/Routes
// and Address6/PrefixLength6/Routes6 are independent: a dual-stack TUN
// sets both, an IPv6-only one leaves the v4 fields zero.
type Builder struct {
	Name          string
	Mode          Mode
	Address       [4]byte
	PrefixLength  uint8
	Routes        []wire.Ipv4Route
	Address6      [16]byte
	PrefixLength6 uint8
	Routes6       []wire.Ipv6Route
	HardwareAddr  wire.MacAddr // TAP only; zero value leaves the kernel-assigned address.
	MTU           int
}

// Handle is a built, live kernel interface. ReadPacket/WritePacket move raw
// frames (TAP) or IP packets (TUN) across the tun/tap fd.
type Handle struct {
	fd   int
	link netlink.Link
	name string
}

const defaultMTU = 1500

// Build creates the interface described by b and starts two goroutines
// copying packets between the kernel fd and p: one reading the fd and
// sending each packet on p, one polling p and writing to the fd. Both
// terminate, and the interface is torn down, once p half-closes or ctx is
// done.
func (b Builder) Build(ctx context.Context, p plug.EtherPlug) (*Handle, error) {
	h, err := b.open(true)
	if err != nil {
		return nil, err
	}
	if err := b.configure(h); err != nil {
		h.Close()
		return nil, err
	}

	go b.runTapRead(ctx, h, p)
	go b.runTapWrite(ctx, h, p)

	return h, nil
}

// BuildTun is the TUN-device analogue of Build, carrying bare IP packets
// rather than Ethernet frames.
func (b Builder) BuildTun(ctx context.Context, p plug.IpPlug) (*Handle, error) {
	h, err := b.open(false)
	if err != nil {
		return nil, err
	}
	if err := b.configure(h); err != nil {
		h.Close()
		return nil, err
	}

	go b.runTunRead(ctx, h, p)
	go b.runTunWrite(ctx, h, p)

	return h, nil
}

func (b Builder) open(tap bool) (*Handle, error) {
	fd, err := unix.Open("/dev/net/tun", unix.O_RDWR, 0)
	if err != nil {
		return nil, &BuildError{Kind: CreateTunTap, Err: err}
	}

	ifr, err := unix.NewIfreq(b.Name)
	if err != nil {
		unix.Close(fd)
		return nil, &BuildError{Kind: CreateTunTap, Err: err}
	}
	flags := unix.IFF_NO_PI
	if tap {
		flags |= unix.IFF_TAP
	} else {
		flags |= unix.IFF_TUN
	}
	ifr.SetUint16(uint16(flags))
	if err := unix.IoctlIfreq(fd, unix.TUNSETIFF, ifr); err != nil {
		unix.Close(fd)
		return nil, &BuildError{Kind: CreateTunTap, Err: err}
	}
	if err := unix.SetNonblock(fd, false); err != nil {
		unix.Close(fd)
		return nil, &BuildError{Kind: CreateTunTap, Err: err}
	}

	link, err := netlink.LinkByName(b.Name)
	if err != nil {
		unix.Close(fd)
		return nil, &BuildError{Kind: CreateTunTap, Err: err}
	}

	return &Handle{fd: fd, link: link, name: b.Name}, nil
}

func (b Builder) configure(h *Handle) error {
	mtu := b.MTU
	if mtu == 0 {
		mtu = defaultMTU
	}
	if err := netlink.LinkSetMTU(h.link, mtu); err != nil {
		return &BuildError{Kind: SetMtu, Err: err}
	}

	if b.Mode == TAP && b.HardwareAddr != (wire.MacAddr{}) {
		if err := netlink.LinkSetHardwareAddr(h.link, net.HardwareAddr(b.HardwareAddr[:])); err != nil {
			return &BuildError{Kind: SetAddress, Err: err}
		}
	}

	if b.Address != ([4]byte{}) || b.PrefixLength != 0 {
		addr := &netlink.Addr{IPNet: &net.IPNet{
			IP:   net.IPv4(b.Address[0], b.Address[1], b.Address[2], b.Address[3]),
			Mask: net.CIDRMask(int(b.PrefixLength), 32),
		}}
		if err := netlink.AddrAdd(h.link, addr); err != nil {
			return &BuildError{Kind: SetAddress, Err: err}
		}
	}

	if b.Address6 != ([16]byte{}) || b.PrefixLength6 != 0 {
		addr6 := &netlink.Addr{IPNet: &net.IPNet{
			IP:   net.IP(b.Address6[:]),
			Mask: net.CIDRMask(int(b.PrefixLength6), 128),
		}}
		if err := netlink.AddrAdd(h.link, addr6); err != nil {
			return &BuildError{Kind: SetAddress, Err: err}
		}
	}

	if err := netlink.LinkSetUp(h.link); err != nil {
		return &BuildError{Kind: BringUp, Err: err}
	}

	for _, route := range b.Routes {
		base := route.Destination.BaseAddr()
		dst := &net.IPNet{
			IP:   net.IPv4(base[0], base[1], base[2], base[3]),
			Mask: net.CIDRMask(int(route.Destination.Prefix()), 32),
		}
		r := &netlink.Route{LinkIndex: h.link.Attrs().Index, Dst: dst}
		if route.Gateway != nil {
			gw := *route.Gateway
			r.Gw = net.IPv4(gw[0], gw[1], gw[2], gw[3])
		}
		if err := netlink.RouteAdd(r); err != nil {
			return &BuildError{Kind: SetRoute, Err: err}
		}
	}

	for _, route := range b.Routes6 {
		base := route.Destination.BaseAddr()
		dst := &net.IPNet{
			IP:   net.IP(base[:]),
			Mask: net.CIDRMask(int(route.Destination.Prefix()), 128),
		}
		r := &netlink.Route{LinkIndex: h.link.Attrs().Index, Dst: dst}
		if route.Gateway != nil {
			gw := *route.Gateway
			r.Gw = net.IP(gw[:])
		}
		if err := netlink.RouteAdd(r); err != nil {
			return &BuildError{Kind: SetRoute, Err: err}
		}
	}

	return nil
}

// ReadPacket reads one frame or packet off the kernel fd into a freshly
// allocated netbuf.Buffer.
func (h *Handle) ReadPacket() (*netbuf.Buffer, error) {
	buf := netbuf.New()
	n, err := unix.Read(h.fd, buf.Extend(netbuf.DefaultSize))
	if err != nil {
		buf.Release()
		return nil, err
	}
	buf.Resize(0, int32(n))
	return buf, nil
}

// WritePacket injects b into the kernel interface.
func (h *Handle) WritePacket(b []byte) error {
	_, err := unix.Write(h.fd, b)
	return err
}

// Close tears down the interface: deletes the link and closes the tun fd.
func (h *Handle) Close() error {
	_ = netlink.LinkDel(h.link)
	return unix.Close(h.fd)
}

func (b Builder) runTapRead(ctx context.Context, h *Handle, p plug.EtherPlug) {
	sender, _ := p.SplitSenderReceiver()
	defer sender.Close()
	for {
		if ctx.Err() != nil {
			return
		}
		buf, err := h.ReadPacket()
		if err != nil {
			return
		}
		frame, err := wire.DecodeEtherFrame(buf)
		if err != nil {
			newError("dropping malformed frame read from tap device").Base(err).AtDebug().WriteToLog()
			buf.Release()
			continue
		}
		sender.Send(frame)
	}
}

func (b Builder) runTapWrite(ctx context.Context, h *Handle, p plug.EtherPlug) {
	_, receiver := p.SplitSenderReceiver()
	for {
		frame, ok := receiver.Poll(ctx)
		if !ok {
			h.Close()
			return
		}
		if err := h.WritePacket(frame.AsBytes()); err != nil {
			newError("failed writing frame to tap device").Base(err).AtWarning().WriteToLog()
		}
		frame.Buffer().Release()
	}
}

func (b Builder) runTunRead(ctx context.Context, h *Handle, p plug.IpPlug) {
	sender, _ := p.SplitSenderReceiver()
	defer sender.Close()
	for {
		if ctx.Err() != nil {
			return
		}
		buf, err := h.ReadPacket()
		if err != nil {
			return
		}
		pkt, err := wire.DecodeIpPacket(buf)
		if err != nil {
			newError("dropping malformed packet read from tun device").Base(err).AtDebug().WriteToLog()
			buf.Release()
			continue
		}
		sender.Send(pkt)
	}
}

func (b Builder) runTunWrite(ctx context.Context, h *Handle, p plug.IpPlug) {
	_, receiver := p.SplitSenderReceiver()
	for {
		pkt, ok := receiver.Poll(ctx)
		if !ok {
			h.Close()
			return
		}
		if err := h.WritePacket(pkt.AsBytes()); err != nil {
			newError("failed writing packet to tun device").Base(err).AtWarning().WriteToLog()
		}
		pkt.Buffer().Release()
	}
}

// Package iface binds a plug.EtherPlug (or plug.IpPlug, for a TUN device)
// to a kernel network interface living in the current network namespace,
// grounded on the reference stack's proxy/tun package but driving a real
// TUN/TAP fd instead of handing it to a userspace IP stack. Linux-only:
// TUN/TAP and netlink are Linux kernel facilities.
package iface

import "github.com/canndrew/netsim-sub001/common/errors"

func newError(msg ...interface{}) *errors.Error { return errors.New(msg...) }

// BuildErrorKind classifies a BuildError.
type BuildErrorKind int

const (
	CreateTunTap BuildErrorKind = iota
	SetAddress
	SetRoute
	SetMtu
	BringUp
)

func (k BuildErrorKind) String() string {
	switch k {
	case CreateTunTap:
		return "CreateTunTap"
	case SetAddress:
		return "SetAddress"
	case SetRoute:
		return "SetRoute"
	case SetMtu:
		return "SetMtu"
	case BringUp:
		return "BringUp"
	default:
		return "Unknown"
	}
}

// BuildError reports which stage of interface setup failed and why.
type BuildError struct {
	Kind BuildErrorKind
	Err  error
}

func (e *BuildError) Error() string {
	return "iface: " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *BuildError) Unwrap() error { return e.Err }

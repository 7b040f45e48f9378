//go:build linux

package machine

import (
	"context"
	"runtime"

	"github.com/google/uuid"
	"github.com/vishvananda/netns"

	"github.com/canndrew/netsim-sub001/iface"
	"github.com/canndrew/netsim-sub001/plug"
)

// InterfaceSpec attaches one built kernel interface inside the machine's
// namespace. Build constructors (TapInterface, TunInterface) close over the
// iface.Builder and the plug the interface should carry packets to/from.
type InterfaceSpec struct {
	attach func(ctx context.Context) error
}

// TapInterface attaches an Ethernet-layer TAP device carrying p.
func TapInterface(b iface.Builder, p plug.EtherPlug) InterfaceSpec {
	return InterfaceSpec{attach: func(ctx context.Context) error {
		_, err := b.Build(ctx, p)
		return err
	}}
}

// TunInterface attaches an IP-layer TUN device carrying p.
func TunInterface(b iface.Builder, p plug.IpPlug) InterfaceSpec {
	return InterfaceSpec{attach: func(ctx context.Context) error {
		_, err := b.BuildTun(ctx, p)
		return err
	}}
}

// SpawnComplete wraps a machine's eventual result (or failure) as a
// one-shot channel. Dropping it without calling Wait aborts nothing; the
// machine's user function runs to completion regardless.
type SpawnComplete[R any] struct {
	id   uuid.UUID
	done chan spawnResult[R]
}

// ID uniquely identifies this machine, for correlating its log lines
// across the namespace-setup goroutine and its own dedicated goroutine.
func (c *SpawnComplete[R]) ID() uuid.UUID { return c.id }

type spawnResult[R any] struct {
	value R
	err   *SpawnError
}

// Wait blocks until the machine's user function returns or panics, or ctx
// is done first.
func (c *SpawnComplete[R]) Wait(ctx context.Context) (R, error) {
	var zero R
	select {
	case r, ok := <-c.done:
		if !ok {
			return zero, &SpawnError{Msg: "thread destroyed"}
		}
		if r.err != nil {
			return zero, r.err
		}
		return r.value, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Spawn creates a fresh network namespace, builds and attaches every
// interface in ifaces, then runs f on a dedicated OS-thread-locked
// goroutine pinned to that namespace. The calling goroutine restores its
// own namespace before returning; f's result (or panic) is delivered
// through the returned SpawnComplete.
//
// Spawn always returns a non-nil *SpawnComplete, even on a control-plane
// failure (namespace create, interface build): in that case the returned
// error is also queued as the SpawnComplete's eventual Wait result, so a
// recipe tree that discards the immediate error (logging it and continuing
// to assemble the rest of the subtree, as node.Router's children do) still
// surfaces the failure to whatever caller eventually waits on the root.
func Spawn[R any](ctx context.Context, ifaces []InterfaceSpec, f func() R) (*SpawnComplete[R], error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	id := uuid.New()

	failed := func(buildErr *SpawnError) (*SpawnComplete[R], error) {
		complete := &SpawnComplete[R]{id: id, done: make(chan spawnResult[R], 1)}
		newError("machine failed to start").WithPrefix(id).Base(buildErr).AtError().WriteToLog()
		complete.done <- spawnResult[R]{err: buildErr}
		return complete, buildErr
	}

	origNS, err := netns.Get()
	if err != nil {
		return failed(&SpawnError{Msg: "failed to capture current namespace: " + err.Error()})
	}
	defer origNS.Close()

	newNS, err := netns.New()
	if err != nil {
		return failed(&SpawnError{Msg: "failed to create network namespace: " + err.Error()})
	}

	for _, spec := range ifaces {
		if err := spec.attach(ctx); err != nil {
			netns.Set(origNS)
			newNS.Close()
			return failed(&SpawnError{Msg: "failed to build machine interface: " + err.Error()})
		}
	}

	complete := &SpawnComplete[R]{id: id, done: make(chan spawnResult[R], 1)}

	go runMachine(newNS, f, complete)

	if err := netns.Set(origNS); err != nil {
		return complete, newError("failed to restore original namespace").WithPrefix(id).Base(err).AtError()
	}

	return complete, nil
}

// runMachine is the body of the dedicated machine goroutine: it locks its
// own OS thread, switches into ns, and runs f, recovering a panic into a
// SpawnError rather than crashing the process.
func runMachine[R any](ns netns.NsHandle, f func() R, complete *SpawnComplete[R]) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer ns.Close()

	if err := netns.Set(ns); err != nil {
		complete.done <- spawnResult[R]{err: &SpawnError{Msg: "failed to enter machine namespace: " + err.Error()}}
		return
	}

	defer func() {
		if r := recover(); r != nil {
			complete.done <- spawnResult[R]{err: &SpawnError{Panic: r}}
		}
	}()

	value := f()
	complete.done <- spawnResult[R]{value: value}
}

//go:build linux

// Package isolate moves the calling goroutine's OS thread into a fresh
// network namespace for the duration of a function call, so that host-level
// socket calls the function makes are sandboxed without constructing a full
// node recipe. Grounded on the same lock-thread/netns.Set/defer-restore
// idiom as package machine, applied to a single inline call rather than a
// dedicated worker goroutine.
package isolate

import (
	"runtime"

	"github.com/vishvananda/netns"

	"github.com/canndrew/netsim-sub001/common/errors"
)

func newError(msg ...interface{}) *errors.Error { return errors.New(msg...) }

// Run locks the current goroutine to its OS thread, switches that thread
// into a fresh network namespace, runs f, and restores the original
// namespace before returning — including when f panics, in which case Run
// re-panics with the original value after restoring.
func Run(f func() error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	origNS, err := netns.Get()
	if err != nil {
		return newError("failed to capture current namespace").Base(err).AtError()
	}
	defer origNS.Close()

	newNS, err := netns.New()
	if err != nil {
		return newError("failed to create network namespace").Base(err).AtError()
	}
	defer newNS.Close()

	defer func() {
		if err := netns.Set(origNS); err != nil {
			newError("failed to restore original namespace").Base(err).AtError().WriteToLog()
		}
	}()

	return f()
}

// Package machine spawns isolated simulated hosts: a fresh network
// namespace, zero or more kernel interfaces bound to plugs (via package
// iface), and a user function running on its own OS-thread-locked
// goroutine pinned to that namespace. Grounded on the container-runtime
// netns-switch idiom (lock thread, netns.Set, defer restore) seen
// throughout the reference corpus's CNI-plugin and network-namespace code.
package machine

import (
	"fmt"

	"github.com/canndrew/netsim-sub001/common/errors"
)

func newError(msg ...interface{}) *errors.Error { return errors.New(msg...) }

// SpawnError reports that a machine's user function panicked, or that its
// completion channel closed without a value (a defer-ordering bug guard
// that should never trigger in practice).
type SpawnError struct {
	Msg   string
	Panic interface{}
}

func (e *SpawnError) Error() string {
	if e.Panic != nil {
		return "machine: user function panicked: " + toString(e.Panic)
	}
	return "machine: " + e.Msg
}

func toString(v interface{}) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	return fmt.Sprint(v)
}

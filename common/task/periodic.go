package task

import (
	"sync"
	"time"

	"github.com/canndrew/netsim-sub001/common/errors"
)

//go:generate true

// Periodic is a task that runs periodically until closed. It backs the NAT
// idle-mapping sweeper and the Ether<->IPv4 adaptor's ARP-cache aging.
type Periodic struct {
	// Interval between runs of Execute.
	Interval time.Duration
	// Execute is the task function, invoked every Interval while running.
	Execute func() error

	access  sync.Mutex
	timer   *time.Timer
	running bool
}

func (t *Periodic) hasClosed() bool {
	t.access.Lock()
	defer t.access.Unlock()
	return !t.running
}

func (t *Periodic) checkedExecute() {
	if t.hasClosed() {
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				newError("periodic task panicked: ", r).AtError().WriteToLog()
			}
		}()

		if err := t.Execute(); err != nil {
			newError("periodic task execution failed").Base(err).AtWarning().WriteToLog()
		}

		t.access.Lock()
		if t.running {
			t.timer = time.AfterFunc(t.Interval, t.checkedExecute)
		}
		t.access.Unlock()
	}()
}

// Start begins running Execute every Interval. Calling Start on an
// already-running Periodic is a no-op.
func (t *Periodic) Start() error {
	t.access.Lock()
	if t.running {
		t.access.Unlock()
		return nil
	}
	t.running = true
	t.access.Unlock()

	t.checkedExecute()
	return nil
}

// Close stops future runs. A run already in flight is allowed to finish.
func (t *Periodic) Close() error {
	t.access.Lock()
	defer t.access.Unlock()

	t.running = false
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	return nil
}

func newError(msg ...interface{}) *errors.Error {
	return errors.New(msg...)
}

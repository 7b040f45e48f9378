package signal

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/canndrew/netsim-sub001/common/task"
)

// ActivityUpdater is implemented by anything an ActivityTimer tracks
// liveness for.
type ActivityUpdater interface {
	Update()
}

// ActivityTimer fires onTimeout once no Update() call has been observed for
// a full Interval. It backs NAT mapping expiry (§4.7) and the Ether<->IPv4
// adaptor's pending-ARP resolution timeout.
type ActivityTimer struct {
	mu        sync.RWMutex
	updated   chan struct{}
	checkTask *task.Periodic
	onTimeout func()
	consumed  atomic.Bool
	once      sync.Once
}

// Update marks the tracked activity as alive for one more Interval.
func (t *ActivityTimer) Update() {
	select {
	case t.updated <- struct{}{}:
	default:
	}
}

func (t *ActivityTimer) check() error {
	select {
	case <-t.updated:
	default:
		t.finish()
	}
	return nil
}

func (t *ActivityTimer) finish() {
	t.once.Do(func() {
		t.consumed.Store(true)
		t.mu.Lock()
		defer t.mu.Unlock()

		if t.checkTask != nil {
			_ = t.checkTask.Close()
		}
		t.onTimeout()
	})
}

// SetTimeout (re)arms the timer with a new Interval, replacing any timer
// already running. A zero timeout fires onTimeout immediately.
func (t *ActivityTimer) SetTimeout(timeout time.Duration) {
	if t.consumed.Load() {
		return
	}
	if timeout <= 0 {
		t.finish()
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.consumed.Load() {
		return
	}

	next := &task.Periodic{Interval: timeout, Execute: t.check}
	if t.checkTask != nil {
		_ = t.checkTask.Close()
	}
	t.checkTask = next
	t.Update()
	_ = next.Start()
}

// Stop disarms the timer permanently without invoking onTimeout.
func (t *ActivityTimer) Stop() {
	t.once.Do(func() {
		t.consumed.Store(true)
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.checkTask != nil {
			_ = t.checkTask.Close()
		}
	})
}

// NewActivityTimer creates an armed ActivityTimer that calls onTimeout after
// timeout has elapsed with no Update() call.
func NewActivityTimer(timeout time.Duration, onTimeout func()) *ActivityTimer {
	timer := &ActivityTimer{
		updated:   make(chan struct{}, 1),
		onTimeout: onTimeout,
	}
	timer.SetTimeout(timeout)
	return timer
}

package task_test

import (
	"sync/atomic"
	"testing"
	"time"

	. "github.com/canndrew/netsim-sub001/common/task"
)

func TestPeriodicTaskStop(t *testing.T) {
	t.Parallel()

	var runs uint64
	pt := &Periodic{
		Interval: time.Millisecond * 100,
		Execute: func() error {
			atomic.AddUint64(&runs, 1)
			return nil
		},
	}

	if err := pt.Start(); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond * 350)
	if err := pt.Close(); err != nil {
		t.Fatal(err)
	}

	got := atomic.LoadUint64(&runs)
	if got < 2 || got > 5 {
		t.Fatalf("expected roughly 4 runs (at 0, 100, 200, 300ms) in 350ms at 100ms interval, got %d", got)
	}

	time.Sleep(time.Millisecond * 200)
	if stopped := atomic.LoadUint64(&runs); stopped != got {
		t.Fatalf("task kept running after Close: %d -> %d", got, stopped)
	}
}

func TestPeriodicDoubleStart(t *testing.T) {
	t.Parallel()

	pt := &Periodic{
		Interval: time.Hour,
		Execute:  func() error { return nil },
	}
	if err := pt.Start(); err != nil {
		t.Fatal(err)
	}
	if err := pt.Start(); err != nil {
		t.Fatalf("second Start must be a no-op, got error: %v", err)
	}
	_ = pt.Close()
}

package signal_test

import (
	"sync/atomic"
	"testing"
	"time"

	. "github.com/canndrew/netsim-sub001/common/signal"
)

func TestActivityTimerFiresOnIdle(t *testing.T) {
	t.Parallel()

	var fired int32
	timer := NewActivityTimer(50*time.Millisecond, func() {
		atomic.StoreInt32(&fired, 1)
	})
	defer timer.Stop()

	time.Sleep(200 * time.Millisecond)
	if atomic.LoadInt32(&fired) != 1 {
		t.Fatal("timer should have fired after idling past its timeout")
	}
}

func TestActivityTimerResetByUpdate(t *testing.T) {
	t.Parallel()

	var fired int32
	timer := NewActivityTimer(80*time.Millisecond, func() {
		atomic.StoreInt32(&fired, 1)
	})
	defer timer.Stop()

	for i := 0; i < 5; i++ {
		time.Sleep(40 * time.Millisecond)
		timer.Update()
	}
	if atomic.LoadInt32(&fired) != 0 {
		t.Fatal("timer fired despite continual Update() calls")
	}
}

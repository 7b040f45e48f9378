//go:build linux

package isolate

import (
	"errors"
	"os"
	"testing"
)

func requireNetns(t *testing.T) {
	t.Helper()
	if os.Getenv("NETSIM_TEST_NETNS") != "1" {
		t.Skip("set NETSIM_TEST_NETNS=1 and run as root to exercise real network namespaces")
	}
}

func TestRunPropagatesError(t *testing.T) {
	requireNetns(t)

	sentinel := errors.New("boom")
	err := Run(func() error { return sentinel })
	if err != sentinel {
		t.Fatalf("Run() = %v, want %v", err, sentinel)
	}
}

func TestRunPropagatesPanic(t *testing.T) {
	requireNetns(t)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected Run to let a panic from f propagate")
		}
	}()
	_ = Run(func() error { panic("boom") })
}

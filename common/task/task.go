package task

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// OnSuccess returns a func that runs g() only if f() succeeds.
func OnSuccess(f func() error, g func() error) func() error {
	return func() error {
		if err := f(); err != nil {
			return err
		}
		return g()
	}
}

// Run executes tasks with bounded concurrency (at most maxConcurrency at a
// time; 0 means unbounded) and returns the first error encountered, or nil
// if every task succeeds. This is what node's composite recipes (router,
// NAT-wrapped subtrees) use to build multiple children at once while
// preserving the "root completion reports the first error" contract.
func Run(ctx context.Context, maxConcurrency int, tasks ...func() error) error {
	if len(tasks) == 0 {
		return nil
	}

	g, _ := errgroup.WithContext(ctx)
	if maxConcurrency > 0 {
		g.SetLimit(maxConcurrency)
	}
	for _, t := range tasks {
		g.Go(t)
	}
	return g.Wait()
}

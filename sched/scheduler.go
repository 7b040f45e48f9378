// Package sched provides the bounded-concurrency task runner node recipes
// use to build a subtree's children without serializing them, and that
// package network exposes to callers as network.Scheduler. Split out of
// both so that node (recipes) and network (tree roots) can each depend on
// it without depending on each other.
package sched

import (
	"context"

	"github.com/canndrew/netsim-sub001/common/task"
)

// Scheduler bounds how many node-recipe subtrees build concurrently and
// carries the build-time context every recipe's interface/machine setup
// runs under.
type Scheduler struct {
	ctx            context.Context
	maxConcurrency int
}

// New creates a Scheduler rooted at ctx, allowing at most maxConcurrency
// concurrent builds (0 means unbounded). Every machine and device spawned
// while building a recipe tree inherits ctx; tearing the fabric down is the
// caller's responsibility via canceling ctx or half-closing the root plug.
func New(ctx context.Context, maxConcurrency int) *Scheduler {
	return &Scheduler{ctx: ctx, maxConcurrency: maxConcurrency}
}

// Context returns the build-time context passed to New.
func (s *Scheduler) Context() context.Context { return s.ctx }

// Run runs every task to completion, at most s.maxConcurrency at a time,
// and returns the first error encountered (if any), per
// common/task.Run's first-error-wins semantics.
func (s *Scheduler) Run(tasks ...func() error) error {
	return task.Run(s.ctx, s.maxConcurrency, tasks...)
}

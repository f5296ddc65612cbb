// Package run drives the execution phase: a bounded worker pool pulls
// tests off the ordered list, hands them to the executor one at a time and
// attaches the results. Dispatch stops early when the failure limit or the
// testing time limit is reached; tests that never started keep a nil
// result and stay out of every report.
package run

import (
	"context"
	"time"

	"github.com/google/uuid"

	"proctor/internal/test"
)

// Executor runs a single test and classifies every outcome itself. It is
// called concurrently for distinct cases and must never fail outright; an
// internal problem comes back as an UNRESOLVED result.
type Executor interface {
	Execute(ctx context.Context, c *test.Case) *test.Result
}

// ProgressFunc is invoked once per completed test, from the worker that
// finished it. Completion order is unrelated to dispatch order and the
// callback must return quickly.
type ProgressFunc func(c *test.Case)

// Run is one execution of the selected tests. The test list is fixed
// before Execute starts; during execution only each case's own result slot
// is written, by exactly one worker.
type Run struct {
	ID    string
	Tests []*test.Case

	// Elapsed is the wall clock of the execution phase.
	Elapsed time.Duration
	// Skipped counts tests that were never dispatched because dispatch
	// stopped early.
	Skipped int
}

// NewRun creates a run over the selected tests.
func NewRun(tests []*test.Case) *Run {
	return &Run{
		ID:    uuid.New().String(),
		Tests: tests,
	}
}

// Completed returns the tests that finished with a result, in selection
// order.
func (r *Run) Completed() []*test.Case {
	completed := make([]*test.Case, 0, len(r.Tests))
	for _, c := range r.Tests {
		if c.Result() != nil {
			completed = append(completed, c)
		}
	}
	return completed
}

package run

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"proctor/internal/config"
	"proctor/pkg/logging"
)

// Dispatch halt causes. Exactly one wins; in-flight tests still finish.
const (
	runActive int32 = iota
	haltTimeLimit
	haltFailureLimit
)

// Execute runs every test through the executor with at most cfg.Workers
// concurrent slots, never more slots than tests. It returns the context
// error when interrupted, in which case in-flight commands are killed and
// their results discarded.
func (r *Run) Execute(ctx context.Context, exec Executor, cfg *config.Config, diag *config.Diagnostics, progress ProgressFunc) error {
	start := time.Now()
	defer func() {
		r.Elapsed = time.Since(start)
	}()

	workers := cfg.Workers
	if len(r.Tests) < workers {
		workers = len(r.Tests)
	}
	if workers == 0 {
		return nil
	}
	logging.Debug("Scheduler", "running %d tests with %d workers", len(r.Tests), workers)

	var (
		cursor   atomic.Int64
		failures atomic.Int64
		halted   atomic.Int32
	)
	halt := func(cause int32) {
		halted.CompareAndSwap(runActive, cause)
	}

	if cfg.MaxTime > 0 {
		timer := time.AfterFunc(cfg.MaxTime, func() {
			halt(haltTimeLimit)
		})
		defer timer.Stop()
	}

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				next := cursor.Add(1) - 1
				if next >= int64(len(r.Tests)) || halted.Load() != runActive {
					return nil
				}
				if err := gctx.Err(); err != nil {
					return err
				}

				c := r.Tests[next]
				result := exec.Execute(gctx, c)
				if err := gctx.Err(); err != nil {
					return err
				}
				c.SetResult(result)

				if cfg.MaxFailures > 0 && result.Code.IsFailure() &&
					failures.Add(1) >= int64(cfg.MaxFailures) {
					halt(haltFailureLimit)
				}
				if progress != nil {
					progress(c)
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, c := range r.Tests {
		if c.Result() == nil {
			r.Skipped++
		}
	}
	switch halted.Load() {
	case haltTimeLimit:
		diag.Note("reached testing time limit, skipping %d remaining tests", r.Skipped)
	case haltFailureLimit:
		diag.Note("reached maximum number of test failures, skipping %d remaining tests", r.Skipped)
	}
	return nil
}

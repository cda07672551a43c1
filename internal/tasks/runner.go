package tasks

import (
	"context"
	"sync"
	"sync/atomic"
)

// Unit is one zero-argument unit of asynchronous work. The returned error is
// recorded as that unit's outcome and never propagates out of the runner.
type Unit func(ctx context.Context) error

// RunOutcome summarizes a BoundedRunner run. Callers distinguish "completed
// fully" from "stopped early" by comparing Processed to Total.
type RunOutcome struct {
	Processed int
	Failed    int
	Total     int
}

// Complete reports whether every queued unit settled.
func (o RunOutcome) Complete() bool { return o.Processed == o.Total }

// BoundedRunner executes a queue of units with at most Limit in flight.
// Cancel is idempotent and sticky: workers stop pulling new work, in-flight
// units are aborted through their context, and the run still resolves
// normally. A Cancel landing before Run makes the run resolve immediately,
// so a runner is single-use once cancelled.
type BoundedRunner struct {
	limit     int
	processed atomic.Int64
	total     atomic.Int64

	mu        sync.Mutex
	cancelled bool
	cancelRun context.CancelFunc
}

// NewBoundedRunner creates a runner with the given concurrency ceiling.
// Limits below one are clamped to one.
func NewBoundedRunner(limit int) *BoundedRunner {
	if limit < 1 {
		limit = 1
	}
	return &BoundedRunner{limit: limit}
}

// Cancel requests the current run stop. Safe to call from any goroutine and
// before or after the run; repeated calls are no-ops.
func (r *BoundedRunner) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = true
	if r.cancelRun != nil {
		r.cancelRun()
	}
}

// Progress returns the live counters: units settled so far and the declared
// total. A failed unit still counts as processed.
func (r *BoundedRunner) Progress() (processed, total int) {
	return int(r.processed.Load()), int(r.total.Load())
}

// Run drains the queue with at most limit units in flight, pulling the next
// queued unit as each one settles. onSettle, when non-nil, fires after every
// settlement with the updated counters. Run resolves once all workers have
// exited; it never returns an error and never lets a unit panic escape.
func (r *BoundedRunner) Run(ctx context.Context, units []Unit, onSettle func(processed, total int)) RunOutcome {
	r.processed.Store(0)
	r.total.Store(int64(len(units)))

	// Cancellation is never reset here: a Cancel that raced ahead of Run
	// must still stop this run.
	r.mu.Lock()
	runCtx, cancel := context.WithCancel(ctx)
	r.cancelRun = cancel
	if r.cancelled {
		cancel()
	}
	r.mu.Unlock()
	defer cancel()

	jobs := make(chan Unit, len(units))
	for _, u := range units {
		jobs <- u
	}
	close(jobs)

	var failed atomic.Int64
	var settleMu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < r.limit; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for unit := range jobs {
				if r.stopped(runCtx) {
					return
				}
				if err := r.runUnit(runCtx, unit); err != nil {
					failed.Add(1)
				}
				processed := r.processed.Add(1)
				if onSettle != nil {
					settleMu.Lock()
					onSettle(int(processed), len(units))
					settleMu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	return RunOutcome{
		Processed: int(r.processed.Load()),
		Failed:    int(failed.Load()),
		Total:     len(units),
	}
}

func (r *BoundedRunner) stopped(ctx context.Context) bool {
	r.mu.Lock()
	cancelled := r.cancelled
	r.mu.Unlock()
	if cancelled {
		return true
	}
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// runUnit executes one unit, converting a panic into that unit's error.
// Failures are contained at the unit boundary: they affect only the unit's
// counted outcome.
func (r *BoundedRunner) runUnit(ctx context.Context, unit Unit) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &unitPanicError{value: rec}
		}
	}()
	return unit(ctx)
}

type unitPanicError struct{ value any }

func (e *unitPanicError) Error() string { return "unit of work panicked" }

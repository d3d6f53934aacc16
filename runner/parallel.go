package runner

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/unitrun/unitrun/status"
)

// runParallel executes the tests concurrently and folds the outcomes in
// registration order, so the aggregate counters and the sticky first-failed
// indices are identical to a serial run. Every case gets its own status and
// options snapshot; the shared result is only touched during the ordered
// fold. Quit and abort cannot prevent already-scheduled cases from running,
// so their stop semantics apply to the fold instead: results after the
// stopping case are discarded.
func (r *Runner) runParallel(ctx context.Context, tests []TestFunc, result *Result) {
	statuses := make([]*status.Status, len(tests))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for idx, fn := range tests {
		idx, fn := idx, fn
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			statuses[idx] = r.invoke(gctx, idx, fn)
			return nil
		})
	}
	// The workers only record statuses; no error surfaces here.
	_ = g.Wait()

	for idx := range tests {
		if ctx.Err() != nil && statuses[idx] == nil {
			result.StoppedEarly = true
			result.StopCause = StopCauseContext
			return
		}
		cr, failed, stopCause := r.evaluate(result.RunID, idx, statuses[idx])
		r.aggregate(result, cr, failed)
		if stopCause != "" {
			result.StoppedEarly = true
			result.StopCause = stopCause
			return
		}
	}
}

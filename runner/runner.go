// Package runner owns the ordered collection of registered test functions
// and drives the execution loop: invoking each test with an options
// snapshot, collecting the returned status, aggregating failure counts and
// applying the stop-on-error and abort policies.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/unitrun/unitrun/metrics"
	"github.com/unitrun/unitrun/options"
	"github.com/unitrun/unitrun/registry"
	"github.com/unitrun/unitrun/status"
)

// TestFunc is the contract the runner invokes: a test function receives a
// read-only options snapshot and returns the completed status of its case.
// This is the plugin point through which all test logic enters the system.
type TestFunc func(opts *options.Options) *status.Status

// RunStatus is the aggregate outcome of a run.
type RunStatus string

const (
	RunStatusPass RunStatus = "pass"
	RunStatusFail RunStatus = "fail"
)

// Stop causes recorded when a run ends before the last registered test.
const (
	StopCauseQuit        = "quitted"
	StopCauseAbort       = "aborted"
	StopCauseStopOnError = "stop-on-error"
	StopCauseContext     = "context"
)

// Config carries the collaborators a Runner is built from.
type Config struct {
	Options *options.Options
	Log     log.Logger
	// Plan, when non-nil, is installed on every per-test options snapshot.
	Plan *registry.Plan
	// Parallel runs the registered tests concurrently. Incompatible with
	// stop-on-error and interactive prompting.
	Parallel    bool
	Concurrency int
	// Sleep replaces time.Sleep for the inter-test delay. Tests inject a
	// recording implementation.
	Sleep func(time.Duration)
}

// Runner executes registered test functions in order.
type Runner struct {
	opts        *options.Options
	log         log.Logger
	plan        *registry.Plan
	parallel    bool
	concurrency int
	sleep       func(time.Duration)
	tracer      trace.Tracer

	mu    sync.Mutex
	tests []TestFunc
}

// NewRunner validates the config and builds a Runner.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Options == nil {
		cfg.Options = options.New()
	}
	if cfg.Log == nil {
		cfg.Log = log.NewLogger(log.DiscardHandler())
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	if cfg.Parallel {
		if cfg.Options.StopOnError {
			return nil, errors.New("parallel execution is incompatible with stop-on-error")
		}
		if cfg.Options.Interactive {
			return nil, errors.New("parallel execution is incompatible with interactive prompting")
		}
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	return &Runner{
		opts:        cfg.Options,
		log:         cfg.Log,
		plan:        cfg.Plan,
		parallel:    cfg.Parallel,
		concurrency: cfg.Concurrency,
		sleep:       cfg.Sleep,
		tracer:      otel.Tracer("unitrun/runner"),
	}, nil
}

// Load appends a test function to the registered list. Registration order
// is execution order; there is no reordering or randomization.
func (r *Runner) Load(fn TestFunc) error {
	if fn == nil {
		return errors.New("cannot load a nil test function")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tests = append(r.tests, fn)
	return nil
}

// Loaded returns the number of registered test functions.
func (r *Runner) Loaded() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tests)
}

// FirstFailed identifies the first failure of a run. Test is the 1-based
// ordinal of the failing test in registration order; Group, Case and
// Subtest come from the failing status (0 when unknown).
type FirstFailed struct {
	Test    int
	Group   int
	Case    int
	Subtest int
}

// CaseResult is the runner's record of one executed test case.
type CaseResult struct {
	Index         int
	Group         int
	Case          int
	GroupName     string
	CaseDesc      string
	Disposition   status.Disposition
	Passed        bool
	Subtests      int
	Errors        int
	FailedSubtest int
	Duration      time.Duration
	Err           error
}

// Result captures the aggregate outcome of a run.
type Result struct {
	RunID        string
	Cases        []CaseResult
	Subtests     int
	Failures     int
	FirstFailed  *FirstFailed
	Start        time.Time
	End          time.Time
	Duration     time.Duration
	Status       RunStatus
	StoppedEarly bool
	StopCause    string

	firstTest    setOnce
	firstGroup   setOnce
	firstCase    setOnce
	firstSubtest setOnce
}

// Passed reports whether the whole run succeeded: no failures were
// aggregated.
func (r *Result) Passed() bool {
	return r.Failures == 0
}

// String renders a one-line run summary.
func (r *Result) String() string {
	summary := fmt.Sprintf("%d cases, %d sub-tests, %d failures (run %s, %s)",
		len(r.Cases), r.Subtests, r.Failures, r.RunID, r.Duration.Round(time.Millisecond))
	if r.FirstFailed != nil {
		summary += fmt.Sprintf("; first failure at test %d (group %d, case %d, sub-test %d)",
			r.FirstFailed.Test, r.FirstFailed.Group, r.FirstFailed.Case, r.FirstFailed.Subtest)
	}
	return summary
}

// Run executes the registered tests and returns the aggregate result. It
// fails immediately when no tests were ever registered. A test that fails
// is recorded once; there is no re-execution.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	r.mu.Lock()
	tests := make([]TestFunc, len(r.tests))
	copy(tests, r.tests)
	r.mu.Unlock()

	if len(tests) == 0 {
		return nil, errors.New("no tests registered")
	}

	runID := uuid.New().String()
	result := &Result{RunID: runID, Start: time.Now()}

	ctx, span := r.tracer.Start(ctx, "unitrun.run",
		trace.WithAttributes(
			attribute.String("run_id", runID),
			attribute.Int("tests", len(tests)),
		))
	defer span.End()

	r.log.Debug("Running all tests", "run_id", runID, "tests", len(tests), "parallel", r.parallel)

	if r.parallel {
		r.runParallel(ctx, tests, result)
	} else {
		r.runSerial(ctx, tests, result)
	}

	result.End = time.Now()
	result.Duration = result.End.Sub(result.Start)
	result.Status = RunStatusPass
	if !result.Passed() {
		result.Status = RunStatusFail
	}
	if result.firstTest.IsSet() {
		result.FirstFailed = &FirstFailed{
			Test:    result.firstTest.Get(),
			Group:   result.firstGroup.Get(),
			Case:    result.firstCase.Get(),
			Subtest: result.firstSubtest.Get(),
		}
	}

	metrics.RecordRun(runID, string(result.Status), len(result.Cases), result.Failures, result.Duration)
	span.SetAttributes(
		attribute.String("status", string(result.Status)),
		attribute.Int("failures", result.Failures),
	)

	r.log.Info("Test run completed",
		"run_id", runID, "status", result.Status,
		"cases", len(result.Cases), "failures", result.Failures)
	return result, nil
}

func (r *Runner) runSerial(ctx context.Context, tests []TestFunc, result *Result) {
	idx := -1
	for {
		idx++
		if idx >= len(tests) {
			return
		}
		if ctx.Err() != nil {
			result.StoppedEarly = true
			result.StopCause = StopCauseContext
			return
		}
		if idx > 0 && r.opts.SleepTime() > 0 && !r.opts.Simulated {
			r.sleep(r.opts.SleepTime())
		}

		st := r.invoke(ctx, idx, tests[idx])
		cr, failed, stopCause := r.evaluate(result.RunID, idx, st)
		r.aggregate(result, cr, failed)

		if stopCause != "" {
			result.StoppedEarly = true
			result.StopCause = stopCause
			return
		}
		if r.opts.StopOnError && result.Failures > 0 {
			result.StoppedEarly = true
			result.StopCause = StopCauseStopOnError
			return
		}
	}
}

// invoke runs a single test function under its own options snapshot and
// span.
func (r *Runner) invoke(ctx context.Context, idx int, fn TestFunc) *status.Status {
	snapshot := r.opts.Snapshot()
	snapshot.SetCurrentTest(idx)
	if r.plan != nil {
		snapshot.Plan = r.plan
	}

	_, span := r.tracer.Start(ctx, "unitrun.case",
		trace.WithAttributes(attribute.Int("test_index", idx)))
	defer span.End()

	if r.opts.ShowProgress {
		r.log.Info("Running test", "index", idx)
	}
	st := fn(snapshot)
	if st != nil && st.Disposition() == status.DispositionContinue &&
		(snapshot.Interactive || snapshot.ResponseAfter() != 0) {
		if err := st.AskAfter(fmt.Sprintf("case %d.%d finished", st.Group(), st.Case())); err != nil {
			r.log.Warn("after-prompt failed", "index", idx, "err", err)
		}
	}
	if st != nil {
		span.SetAttributes(
			attribute.String("group", st.GroupName()),
			attribute.String("case", st.CaseDescription()),
			attribute.String("disposition", string(st.Disposition())),
			attribute.Int("errors", st.ErrorCount()),
		)
	}
	return st
}

// evaluate applies the disposal rules to a returned status: continue with a
// failing result or an explicit failed disposition count as failures;
// quitted stops the run and counts as a failure only when the case had
// already failed; aborted stops the run and always counts as a failure;
// did-not-test has no aggregate effect.
func (r *Runner) evaluate(runID string, idx int, st *status.Status) (CaseResult, bool, string) {
	cr := CaseResult{Index: idx}

	if st == nil {
		cr.Err = errors.New("test returned no status")
		cr.Disposition = status.DispositionFailed
		metrics.RecordError("nil_status")
		return cr, true, ""
	}

	cr.Group = st.Group()
	cr.Case = st.Case()
	cr.GroupName = st.GroupName()
	cr.CaseDesc = st.CaseDescription()
	cr.Disposition = st.Disposition()
	cr.Subtests = st.Subtest()
	cr.Errors = st.ErrorCount()
	cr.FailedSubtest = st.FailedSubtest()
	cr.Duration = st.TimeDelta(false)

	failed := false
	stopCause := ""
	switch st.Disposition() {
	case status.DispositionDidNotTest:
		// Skipped by a filter; no aggregate effect.
	case status.DispositionContinue:
		failed = !st.Result()
	case status.DispositionFailed:
		failed = true
	case status.DispositionQuitted:
		// Quitting carries no penalty of its own; a failure recorded
		// before the quit still counts.
		failed = !st.IsOkay()
		stopCause = StopCauseQuit
	case status.DispositionAborted:
		failed = true
		stopCause = StopCauseAbort
	}

	if !failed && r.opts.NeedSubtests &&
		st.Disposition() != status.DispositionDidNotTest && st.Subtest() == 0 {
		cr.Err = errors.New("no sub-tests were run")
		failed = true
	}

	cr.Passed = !failed && st.IsOkay()
	metrics.RecordCase(runID, cr.GroupName, cr.CaseDesc, cr.Disposition, cr.Errors)
	return cr, failed, stopCause
}

// aggregate folds a case result into the run result, pinning the sticky
// first-failed indices on the first failure.
func (r *Runner) aggregate(result *Result, cr CaseResult, failed bool) {
	result.Cases = append(result.Cases, cr)
	result.Subtests += cr.Subtests
	if !failed {
		return
	}
	result.Failures++
	if result.firstTest.Set(cr.Index + 1) {
		result.firstGroup.Set(cr.Group)
		result.firstCase.Set(cr.Case)
		result.firstSubtest.Set(cr.FailedSubtest)
	}
	if cr.Err != nil {
		r.log.Warn("Test case failed", "index", cr.Index, "err", cr.Err)
	} else {
		r.log.Warn("Test case failed",
			"index", cr.Index, "group", cr.GroupName, "case", cr.CaseDesc,
			"disposition", cr.Disposition, "errors", cr.Errors)
	}
}

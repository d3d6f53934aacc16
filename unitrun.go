package unitrun

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/unitrun/unitrun/exitcodes"
	"github.com/unitrun/unitrun/registry"
	"github.com/unitrun/unitrun/reporting"
	"github.com/unitrun/unitrun/runner"
)

// App drives the framework: it owns the registered test functions, runs
// them once or on an interval, renders results and reports the outcome.
type App struct {
	ctx       context.Context
	config    *Config
	version   string
	tests     []runner.TestFunc
	plan      *registry.Plan
	scheduler TestScheduler
	formatter ResultFormatter
	summary   *reporting.SummarySink
	result    *runner.Result

	running atomic.Bool

	shutdownCallback func(error) // Callback to signal application shutdown
}

// New builds the application from its configuration and the test functions
// to run.
func New(ctx context.Context, config *Config, version string, tests []runner.TestFunc, shutdownCallback func(error)) (*App, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if len(tests) == 0 {
		return nil, errors.New("at least one test function is required")
	}

	config.Log.Debug("Creating unitrun app",
		"planFile", config.PlanFile,
		"runInterval", config.RunInterval,
		"runOnce", config.RunOnce,
		"parallel", config.Parallel)

	var plan *registry.Plan
	if config.PlanFile != "" {
		reg, err := registry.NewRegistry(registry.Config{
			Log:      config.Log,
			PlanFile: config.PlanFile,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create registry: %w", err)
		}
		plan = reg.Plan()
	}

	return &App{
		ctx:              ctx,
		config:           config,
		version:          version,
		tests:            tests,
		plan:             plan,
		formatter:        NewConsoleResultFormatter(config.Log),
		summary:          reporting.NewSummarySink(config.OutputDir),
		shutdownCallback: shutdownCallback,
	}, nil
}

// Start runs the tests, either once or periodically at the configured
// interval.
func (a *App) Start(ctx context.Context) error {
	// Panics anywhere below are runtime errors, not test failures.
	defer func() {
		if r := recover(); r != nil {
			a.config.Log.Error("Runtime error occurred", "error", r)
			os.Exit(exitcodes.RuntimeErr)
		}
	}()

	a.ctx = ctx
	a.running.Store(true)

	if a.config.RunOnce {
		a.config.Log.Info("Starting unitrun in run-once mode", "version", a.version)
	} else {
		a.config.Log.Info("Starting unitrun in continuous mode", "version", a.version, "interval", a.config.RunInterval)
	}

	a.scheduler = NewDefaultTestScheduler(a.config.RunInterval, a.config.RunOnce, a.config.Log)
	a.scheduler.RegisterCallback(a.runTests)
	if err := a.scheduler.Start(ctx); err != nil {
		return err
	}

	if a.config.RunOnce {
		a.config.Log.Info("Tests completed, exiting (run-once mode)")

		if a.result != nil && a.result.Status == runner.RunStatusFail {
			a.config.Log.Warn("Run-once test run completed with failures, returning exit code 1")
			return NewTestFailureError(a.result.String())
		}

		// Only needed in run-once mode when all tests passed.
		go func() {
			a.shutdownCallback(nil)
		}()
	}
	return nil
}

// runTests runs all tests and processes the results
func (a *App) runTests() error {
	a.config.Log.Info("Running all tests...")

	r, err := runner.NewRunner(runner.Config{
		Options:     a.config.Options,
		Log:         a.config.Log,
		Plan:        a.plan,
		Parallel:    a.config.Parallel,
		Concurrency: a.config.Concurrency,
	})
	if err != nil {
		return NewRuntimeError(fmt.Errorf("failed to create test runner: %w", err))
	}
	for _, fn := range a.tests {
		if err := r.Load(fn); err != nil {
			return NewRuntimeError(fmt.Errorf("failed to load test: %w", err))
		}
	}

	result, err := r.Run(a.ctx)
	if err != nil {
		// This is a runtime error (not a test failure).
		a.config.Log.Error("Runtime error running tests", "error", err)
		return NewRuntimeError(err)
	}
	a.result = result

	if err := a.formatter.FormatResults(result); err != nil {
		a.config.Log.Error("Failed to format results", "error", err)
	}
	if path, err := a.summary.Complete(result); err != nil {
		a.config.Log.Error("Failed to write run summary", "error", err)
	} else {
		a.config.Log.Debug("Run summary written", "path", path)
	}
	fmt.Println(result.String())

	a.config.Log.Info("Test run completed", "run_id", result.RunID, "status", result.Status)
	return nil
}

// Stop stops the app.
func (a *App) Stop(ctx context.Context) error {
	a.config.Log.Info("Stopping unitrun")

	if !a.running.Load() {
		a.config.Log.Debug("Service already stopped, nothing to do")
		return nil
	}
	a.running.Store(false)

	if a.scheduler != nil {
		if err := a.scheduler.Stop(); err != nil {
			return err
		}
	}

	a.config.Log.Info("unitrun stopped successfully")
	return nil
}

// Stopped returns true if the app is stopped.
func (a *App) Stopped() bool {
	return !a.running.Load()
}

// Result returns the most recent run result.
func (a *App) Result() *runner.Result {
	return a.result
}

// Package unitrun wires the pieces of the framework into a runnable
// application: configuration from the command line, the run/report
// lifecycle and the periodic scheduler.
package unitrun

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/unitrun/unitrun/flags"
	"github.com/unitrun/unitrun/options"
)

// Config holds the application configuration
type Config struct {
	Options     *options.Options
	PlanFile    string        // Optional test plan restricting the run
	RunInterval time.Duration // Interval between test runs
	RunOnce     bool          // Indicates if the service should exit after one test run
	Parallel    bool          // Run test cases concurrently
	Concurrency int           // Number of concurrent test workers
	OutputDir   string        // Directory run summaries are written to
	Log         log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, logger log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	opts, err := optionsFromCLI(ctx)
	if err != nil {
		return nil, err
	}

	planFile := ctx.String(flags.Plan.Name)
	if planFile != "" {
		planFile, err = filepath.Abs(planFile)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for plan '%s': %w", ctx.String(flags.Plan.Name), err)
		}
	}

	outputDir, err := filepath.Abs(ctx.String(flags.OutputDir.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for output directory: %w", err)
	}

	runInterval := ctx.Duration(flags.RunInterval.Name)

	return &Config{
		Options:     opts,
		PlanFile:    planFile,
		RunInterval: runInterval,
		RunOnce:     runInterval == 0,
		Parallel:    ctx.Bool(flags.Parallel.Name),
		Concurrency: ctx.Int(flags.Concurrency.Name),
		OutputDir:   outputDir,
		Log:         logger,
	}, nil
}

// optionsFromCLI builds the run options snapshot from recognized flags.
// Invalid filter values, sleep times and response characters are
// configuration errors and abort startup.
func optionsFromCLI(ctx *cli.Context) (*options.Options, error) {
	opts := options.New()

	opts.Verbose = ctx.Bool(flags.Verbose.Name)
	opts.ShowValues = ctx.Bool(flags.ShowValues.Name)
	opts.ShowStepNumbers = ctx.Bool(flags.ShowStepNumbers.Name)
	opts.ShowProgress = ctx.Bool(flags.ShowProgress.Name)
	opts.StopOnError = ctx.Bool(flags.StopOnError.Name)
	opts.BatchMode = ctx.Bool(flags.BatchMode.Name)
	opts.Interactive = ctx.Bool(flags.Interactive.Name)
	opts.Beep = ctx.Bool(flags.Beeps.Name)
	opts.CasePause = ctx.Bool(flags.CasePause.Name)
	opts.Summarize = ctx.Bool(flags.Summarize.Name)
	opts.NeedSubtests = ctx.Bool(flags.RequireSubtests.Name)
	opts.ForceFailure = ctx.Bool(flags.ForceFailure.Name)
	opts.Simulated = ctx.Bool(flags.Simulated.Name)

	group, err := options.ParseFilter(ctx.String(flags.Group.Name), options.MaxGroupOrdinal)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", flags.Group.Name, err)
	}
	opts.SetGroupFilter(group)

	tcase, err := options.ParseFilter(ctx.String(flags.Case.Name), options.MaxCaseOrdinal)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", flags.Case.Name, err)
	}
	opts.SetCaseFilter(tcase)

	subtest, err := options.ParseFilter(ctx.String(flags.SubTest.Name), options.MaxSubtestOrdinal)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", flags.SubTest.Name, err)
	}
	opts.SetSubtestFilter(subtest)

	if err := opts.SetSleepTime(flags.SleepDuration(ctx.Int(flags.SleepTime.Name))); err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", flags.SleepTime.Name, err)
	}

	before, err := flags.ResponseChar(ctx.String(flags.ResponseBefore.Name))
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", flags.ResponseBefore.Name, err)
	}
	if err := opts.SetResponseBefore(before); err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", flags.ResponseBefore.Name, err)
	}

	after, err := flags.ResponseChar(ctx.String(flags.ResponseAfter.Name))
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", flags.ResponseAfter.Name, err)
	}
	if err := opts.SetResponseAfter(after); err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", flags.ResponseAfter.Name, err)
	}

	return opts, nil
}

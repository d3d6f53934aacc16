package flags

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "UNITRUN"

func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	Verbose = &cli.BoolFlag{
		Name:    "verbose",
		EnvVars: prefixEnvVars("VERBOSE"),
		Usage:   "Enable verbose progress output",
	}
	ShowValues = &cli.BoolFlag{
		Name:    "show-values",
		EnvVars: prefixEnvVars("SHOW_VALUES"),
		Usage:   "Log expected and actual values for every check",
	}
	ShowStepNumbers = &cli.BoolFlag{
		Name:    "show-step-numbers",
		EnvVars: prefixEnvVars("SHOW_STEP_NUMBERS"),
		Usage:   "Log each sub-test as it starts",
	}
	ShowProgress = &cli.BoolFlag{
		Name:    "show-progress",
		EnvVars: prefixEnvVars("SHOW_PROGRESS"),
		Usage:   "Log each test case as it starts",
	}
	StopOnError = &cli.BoolFlag{
		Name:    "stop-on-error",
		EnvVars: prefixEnvVars("STOP_ON_ERROR"),
		Usage:   "Stop the run at the first failing test case",
	}
	BatchMode = &cli.BoolFlag{
		Name:    "batch-mode",
		EnvVars: prefixEnvVars("BATCH_MODE"),
		Usage:   "Never prompt; answer prompts from the configured responses",
	}
	Interactive = &cli.BoolFlag{
		Name:    "interactive",
		EnvVars: prefixEnvVars("INTERACTIVE"),
		Usage:   "Prompt on the console before and after test cases",
	}
	Beeps = &cli.BoolFlag{
		Name:    "beeps",
		EnvVars: prefixEnvVars("BEEPS"),
		Usage:   "Sound the terminal bell on interactive prompts",
	}
	CasePause = &cli.BoolFlag{
		Name:    "case-pause",
		EnvVars: prefixEnvVars("CASE_PAUSE"),
		Usage:   "Pause for confirmation before each test case",
	}
	Summarize = &cli.BoolFlag{
		Name:    "summarize",
		EnvVars: prefixEnvVars("SUMMARIZE"),
		Usage:   "Skip sub-test bodies and only report case-level results",
	}
	RequireSubtests = &cli.BoolFlag{
		Name:    "require-sub-tests",
		EnvVars: prefixEnvVars("REQUIRE_SUB_TESTS"),
		Usage:   "Treat a test case that runs zero sub-tests as a failure",
	}
	ForceFailure = &cli.BoolFlag{
		Name:    "force-failure",
		EnvVars: prefixEnvVars("FORCE_FAILURE"),
		Usage:   "Ask the self-test cases to fail one sub-test deliberately",
	}
	Simulated = &cli.BoolFlag{
		Name:    "simulated",
		EnvVars: prefixEnvVars("SIMULATED"),
		Usage:   "Suppress real sleeps and pauses (simulated timing)",
	}
	Group = &cli.StringFlag{
		Name:    "group",
		EnvVars: prefixEnvVars("GROUP"),
		Usage:   "Run only the given group, by ordinal or by name (eg. '2' or 'strings')",
	}
	Case = &cli.StringFlag{
		Name:    "case",
		EnvVars: prefixEnvVars("CASE"),
		Usage:   "Run only the given case, by ordinal or by name",
	}
	SubTest = &cli.StringFlag{
		Name:    "sub-test",
		EnvVars: prefixEnvVars("SUB_TEST"),
		Usage:   "Run only the given sub-test, by ordinal or by name",
	}
	SleepTime = &cli.IntFlag{
		Name:    "sleep-time",
		EnvVars: prefixEnvVars("SLEEP_TIME"),
		Usage:   "Milliseconds to sleep between test cases",
	}
	ResponseBefore = &cli.StringFlag{
		Name:    "response-before",
		EnvVars: prefixEnvVars("RESPONSE_BEFORE"),
		Usage:   "Automated response for before-prompts: c, s, a or q",
	}
	ResponseAfter = &cli.StringFlag{
		Name:    "response-after",
		EnvVars: prefixEnvVars("RESPONSE_AFTER"),
		Usage:   "Automated response for after-prompts: p, f, a or q",
	}
	Plan = &cli.StringFlag{
		Name:    "plan",
		EnvVars: prefixEnvVars("PLAN"),
		Usage:   "Path to a test plan file (eg. 'plan.yaml')",
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: prefixEnvVars("RUN_INTERVAL"),
		Usage:   "Interval between test runs (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
	Parallel = &cli.BoolFlag{
		Name:    "parallel",
		EnvVars: prefixEnvVars("PARALLEL"),
		Usage:   "Run test cases concurrently",
	}
	Concurrency = &cli.IntFlag{
		Name:    "concurrency",
		EnvVars: prefixEnvVars("CONCURRENCY"),
		Usage:   "Number of concurrent test workers in parallel mode",
	}
	OutputDir = &cli.StringFlag{
		Name:    "output-dir",
		Value:   "logs",
		EnvVars: prefixEnvVars("OUTPUT_DIR"),
		Usage:   "Directory run summaries are written to",
	}
)

var requiredFlags = []cli.Flag{}

var optionalFlags = []cli.Flag{
	Verbose,
	ShowValues,
	ShowStepNumbers,
	ShowProgress,
	StopOnError,
	BatchMode,
	Interactive,
	Beeps,
	CasePause,
	Summarize,
	RequireSubtests,
	ForceFailure,
	Simulated,
	Group,
	Case,
	SubTest,
	SleepTime,
	ResponseBefore,
	ResponseAfter,
	Plan,
	RunInterval,
	Parallel,
	Concurrency,
	OutputDir,
}

var Flags []cli.Flag

func init() {
	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}

// ResponseChar extracts the single response character of a prompt-response
// flag value; an empty value yields 0, meaning "prompt interactively".
func ResponseChar(value string) (byte, error) {
	switch len(value) {
	case 0:
		return 0, nil
	case 1:
		return value[0], nil
	}
	return 0, fmt.Errorf("response must be a single character, got %q", value)
}

// SleepDuration converts the sleep-time flag's millisecond count.
func SleepDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

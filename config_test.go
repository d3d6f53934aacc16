package unitrun

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/unitrun/unitrun/flags"
	"github.com/unitrun/unitrun/options"
)

// parseConfig runs the full flag parser the way main does and returns the
// resulting config.
func parseConfig(t *testing.T, args ...string) (*Config, error) {
	t.Helper()

	app := cli.NewApp()
	app.Name = "unitrun"
	app.Flags = flags.Flags

	var (
		cfg  *Config
		cerr error
	)
	app.Action = func(ctx *cli.Context) error {
		cfg, cerr = NewConfig(ctx, quietLogger())
		return nil
	}

	require.NoError(t, app.Run(append([]string{"unitrun"}, args...)))
	return cfg, cerr
}

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := parseConfig(t)
	require.NoError(t, err)

	assert.True(t, cfg.RunOnce, "no interval means a single run")
	assert.Zero(t, cfg.RunInterval)
	assert.False(t, cfg.Parallel)
	assert.True(t, filepath.IsAbs(cfg.OutputDir), "output dir should be resolved to an absolute path")
	assert.False(t, cfg.Options.IsPartialRun())
}

func TestNewConfig_RunInterval(t *testing.T) {
	cfg, err := parseConfig(t, "--run-interval", "30s")
	require.NoError(t, err)

	assert.False(t, cfg.RunOnce)
	assert.Equal(t, 30*time.Second, cfg.RunInterval)
}

func TestNewConfig_Filters(t *testing.T) {
	cfg, err := parseConfig(t, "--group", "3", "--case", "unit_*", "--sub-test", "7")
	require.NoError(t, err)

	assert.True(t, cfg.Options.IsPartialRun())
	assert.True(t, cfg.Options.GroupFilter().Matches(3, "anything"))
	assert.False(t, cfg.Options.GroupFilter().Matches(4, "anything"))
	assert.True(t, cfg.Options.CaseFilter().Matches(99, "unit_basic"))
	assert.False(t, cfg.Options.CaseFilter().Matches(99, "integration"))
}

func TestNewConfig_InvalidFilter(t *testing.T) {
	_, err := parseConfig(t, "--group", "101")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--group")
}

func TestNewConfig_Responses(t *testing.T) {
	cfg, err := parseConfig(t, "--response-before", "s", "--response-after", "P")
	require.NoError(t, err)

	assert.Equal(t, byte(options.ResponseSkip), cfg.Options.ResponseBefore())
	assert.Equal(t, byte(options.ResponsePass), cfg.Options.ResponseAfter())
}

func TestNewConfig_InvalidResponse(t *testing.T) {
	_, err := parseConfig(t, "--response-before", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--response-before")

	_, err = parseConfig(t, "--response-after", "continue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--response-after")
}

func TestNewConfig_SleepTime(t *testing.T) {
	cfg, err := parseConfig(t, "--sleep-time", "250")
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.Options.SleepTime())

	_, err = parseConfig(t, "--sleep-time", "-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--sleep-time")
}

func TestNewConfig_BoolFlags(t *testing.T) {
	cfg, err := parseConfig(t, "--verbose", "--stop-on-error", "--batch-mode", "--force-failure")
	require.NoError(t, err)

	assert.True(t, cfg.Options.Verbose)
	assert.True(t, cfg.Options.StopOnError)
	assert.True(t, cfg.Options.BatchMode)
	assert.True(t, cfg.Options.ForceFailure)
	assert.False(t, cfg.Options.Interactive)
}

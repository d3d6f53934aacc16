package unitrun

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitrun/unitrun/options"
	"github.com/unitrun/unitrun/runner"
	"github.com/unitrun/unitrun/status"
)

func passingCase(group, tcase int) runner.TestFunc {
	return func(o *options.Options) *status.Status {
		st := status.New(status.Config{Options: o, Group: group, Case: tcase})
		if st.Ignore() {
			return st
		}
		if st.NextSubtest("") {
			st.Pass(true)
		}
		return st
	}
}

func failingCase(group, tcase int) runner.TestFunc {
	return func(o *options.Options) *status.Status {
		st := status.New(status.Config{Options: o, Group: group, Case: tcase})
		if st.Ignore() {
			return st
		}
		if st.NextSubtest("") {
			st.Pass(false)
		}
		return st
	}
}

func writePlanFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		Options:     options.New(),
		RunOnce:     true,
		RunInterval: 25 * time.Millisecond,
		OutputDir:   t.TempDir(),
		Log:         quietLogger(),
	}
}

func TestApp_New_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, nil, "dev", []runner.TestFunc{passingCase(1, 1)}, func(error) {})
	assert.Error(t, err, "nil config should be rejected")

	_, err = New(ctx, testConfig(t), "dev", nil, func(error) {})
	assert.Error(t, err, "empty test list should be rejected")
}

func TestApp_RunOnce_Pass(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	var shutdownCalled atomic.Bool
	app, err := New(ctx, cfg, "dev", []runner.TestFunc{passingCase(1, 1), passingCase(1, 2)}, func(error) {
		shutdownCalled.Store(true)
	})
	require.NoError(t, err)

	err = app.Start(ctx)
	require.NoError(t, err)

	result := app.Result()
	require.NotNil(t, result)
	assert.Equal(t, runner.RunStatusPass, result.Status)
	assert.Len(t, result.Cases, 2)

	// Shutdown is requested asynchronously after a passing run-once run.
	assert.Eventually(t, shutdownCalled.Load, time.Second, 10*time.Millisecond,
		"shutdown callback should be invoked after a passing run-once run")
}

func TestApp_RunOnce_Failure(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	app, err := New(ctx, cfg, "dev", []runner.TestFunc{passingCase(1, 1), failingCase(1, 2)}, func(error) {})
	require.NoError(t, err)

	err = app.Start(ctx)
	require.Error(t, err)
	assert.True(t, IsTestFailureError(err), "a failed run-once run maps to a test failure error")

	result := app.Result()
	require.NotNil(t, result)
	assert.Equal(t, runner.RunStatusFail, result.Status)
	require.NotNil(t, result.FirstFailed)
	assert.Equal(t, 2, result.FirstFailed.Test)
}

func TestApp_Periodic_RunsRepeatedly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := testConfig(t)
	cfg.RunOnce = false
	cfg.RunInterval = 10 * time.Millisecond

	var runs atomic.Int32
	counting := func(o *options.Options) *status.Status {
		runs.Add(1)
		st := status.New(status.Config{Options: o, Group: 1, Case: 1})
		if st.NextSubtest("") {
			st.Pass(true)
		}
		return st
	}

	app, err := New(ctx, cfg, "dev", []runner.TestFunc{counting}, func(error) {})
	require.NoError(t, err)

	require.NoError(t, app.Start(ctx))

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, 2*time.Second, 10*time.Millisecond,
		"tests should run repeatedly at the configured interval")

	require.NoError(t, app.Stop(ctx))
	assert.True(t, app.Stopped())
}

func TestApp_Stop_Idempotent(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	app, err := New(ctx, cfg, "dev", []runner.TestFunc{passingCase(1, 1)}, func(error) {})
	require.NoError(t, err)

	require.NoError(t, app.Start(ctx))
	require.NoError(t, app.Stop(ctx))
	assert.True(t, app.Stopped())
	require.NoError(t, app.Stop(ctx), "second stop should be a no-op")
}

func TestApp_PlanFileFiltersCases(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.PlanFile = writePlanFile(t, `groups:
  - ordinal: 1
    cases:
      - ordinal: 2
        skip: true
`)

	app, err := New(ctx, cfg, "dev", []runner.TestFunc{passingCase(1, 1), failingCase(1, 2)}, func(error) {})
	require.NoError(t, err)

	// Case 2 is skipped by the plan, so the failing test never runs its body.
	err = app.Start(ctx)
	require.NoError(t, err)

	result := app.Result()
	require.NotNil(t, result)
	assert.Equal(t, runner.RunStatusPass, result.Status)
	assert.Equal(t, status.DispositionDidNotTest, result.Cases[1].Disposition)
}

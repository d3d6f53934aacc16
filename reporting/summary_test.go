package reporting

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitrun/unitrun/runner"
	"github.com/unitrun/unitrun/status"
)

func sampleResult() *runner.Result {
	return &runner.Result{
		RunID:    "abc123",
		Status:   runner.RunStatusFail,
		Subtests: 5,
		Failures: 1,
		Duration: 1500 * time.Millisecond,
		FirstFailed: &runner.FirstFailed{
			Test: 2, Group: 1, Case: 2, Subtest: 3,
		},
		Cases: []runner.CaseResult{
			{
				Index: 0, Group: 1, Case: 1, GroupName: "strings", CaseDesc: "append",
				Disposition: status.DispositionContinue, Passed: true, Subtests: 2,
			},
			{
				Index: 1, Group: 1, Case: 2, GroupName: "strings", CaseDesc: "compare",
				Disposition: status.DispositionContinue, Subtests: 3, Errors: 1, FailedSubtest: 3,
			},
			{
				Index: 2, Group: 2, Case: 1, GroupName: "numbers", CaseDesc: "add",
				Disposition: status.DispositionDidNotTest,
			},
		},
	}
}

func TestFormat(t *testing.T) {
	out := Format(sampleResult())

	assert.Contains(t, out, "Test run abc123")
	assert.Contains(t, out, "Status: fail")
	assert.Contains(t, out, "Cases: 3  Sub-tests: 5  Failures: 1")
	assert.Contains(t, out, "First failure: test 2 (group 1, case 2, sub-test 3)")
	assert.Contains(t, out, "✓ pass append")
	assert.Contains(t, out, "✗ fail compare")
	assert.Contains(t, out, "- skip add")
}

func TestFormatShowsCaseErrors(t *testing.T) {
	result := sampleResult()
	result.Cases[1].Err = errors.New("no sub-tests were run")

	out := Format(result)
	assert.Contains(t, out, "no sub-tests were run")
}

func TestSummarySinkWritesFile(t *testing.T) {
	dir := t.TempDir()
	sink := NewSummarySink(dir)

	path, err := sink.Complete(sampleResult())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "testrun-abc123", "summary.log"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Test run abc123")
}

package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unitrun/unitrun"
	"github.com/unitrun/unitrun/exitcodes"
)

// TestExitCodeFor verifies the exit code contract:
// - 0 when the run succeeded
// - 1 when tests failed
// - 2 for runtime errors
func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "no error",
			err:      nil,
			expected: exitcodes.Success,
		},
		{
			name:     "test failure",
			err:      unitrun.NewTestFailureError("3 cases, 1 failures"),
			expected: exitcodes.TestFailure,
		},
		{
			name:     "runtime error",
			err:      unitrun.NewRuntimeError(errors.New("plan file missing")),
			expected: exitcodes.RuntimeErr,
		},
		{
			name:     "wrapped runtime error",
			err:      fmt.Errorf("startup: %w", unitrun.NewRuntimeError(errors.New("boom"))),
			expected: exitcodes.RuntimeErr,
		},
		{
			name:     "untyped error defaults to failure",
			err:      errors.New("something else"),
			expected: exitcodes.TestFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, exitCodeFor(tt.err))
		})
	}
}

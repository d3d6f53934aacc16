package unitrun

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuntimeError(t *testing.T) {
	inner := errors.New("plan file unreadable")
	err := NewRuntimeError(inner)

	assert.True(t, IsRuntimeError(err))
	assert.False(t, IsTestFailureError(err))
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "runtime error")
}

func TestRuntimeError_Wrapped(t *testing.T) {
	err := fmt.Errorf("startup failed: %w", NewRuntimeError(errors.New("boom")))

	assert.True(t, IsRuntimeError(err), "detection should see through wrapping")
	assert.False(t, IsTestFailureError(err))
}

func TestTestFailureError(t *testing.T) {
	err := NewTestFailureError("2 cases, 5 sub-tests, 1 failures")

	assert.True(t, IsTestFailureError(err))
	assert.False(t, IsRuntimeError(err))
	assert.Contains(t, err.Error(), "test failure")
}

func TestErrorPredicates_Nil(t *testing.T) {
	assert.False(t, IsRuntimeError(nil))
	assert.False(t, IsTestFailureError(nil))
}

package subreport

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
	assert.Equal(t, "runtime error: plan file unreadable", err.Error())
}

func TestRuntimeErrorWrapped(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewRuntimeError(errors.New("inner")))
	assert.True(t, IsRuntimeError(err))
}

func TestTestFailureError(t *testing.T) {
	err := NewTestFailureError("2 report(s) failed")

	assert.True(t, IsTestFailureError(err))
	assert.False(t, IsRuntimeError(err))
	assert.Equal(t, "test failure: 2 report(s) failed", err.Error())
}

func TestNilErrors(t *testing.T) {
	assert.False(t, IsRuntimeError(nil))
	assert.False(t, IsTestFailureError(nil))
}

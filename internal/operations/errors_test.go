package operations

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *OperationError
		want string
	}{
		{"with step", NewValidationError("load", "no input"), "[validation] load: no input"},
		{"without step", NewFatalError("bad order", nil), "[fatal] bad order"},
		{"with cause", NewExecutionError("parse", errors.New("eof")), "[execution] parse: step execution failed: eof"},
		{"nil", nil, "unknown operation error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrapError(t *testing.T) {
	cause := errors.New("disk full")

	wrapped := WrapError(cause, "export", "step execution failed")
	assert.Equal(t, ErrorTypeExecution, wrapped.Type)
	assert.Equal(t, "export", wrapped.Step)
	assert.ErrorIs(t, wrapped, cause)

	existing := NewValidationError("", "bad")
	again := WrapError(existing, "resolve", "")
	assert.Same(t, existing, again)
	assert.Equal(t, "resolve", again.Step)

	assert.Nil(t, WrapError(nil, "x", "y"))
}

func TestGetErrorType(t *testing.T) {
	assert.Equal(t, ErrorType(""), GetErrorType(nil))
	assert.Equal(t, ErrorTypeExecution, GetErrorType(errors.New("plain")))

	nested := fmt.Errorf("outer: %w", NewCancellationError("aggregate", nil))
	assert.Equal(t, ErrorTypeCancellation, GetErrorType(nested))
	assert.Equal(t, "aggregate", FailedStep(nested))
	assert.Empty(t, FailedStep(errors.New("plain")))
}

package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorType_Constants(t *testing.T) {
	tests := []struct {
		name     string
		errType  ErrorType
		expected string
	}{
		{name: "data load error type", errType: ErrTypeDataLoad, expected: "DATA_LOAD"},
		{name: "parsing error type", errType: ErrTypeParsing, expected: "PARSING"},
		{name: "storage error type", errType: ErrTypeStorage, expected: "STORAGE"},
		{name: "validation error type", errType: ErrTypeValidation, expected: "VALIDATION"},
		{name: "not found error type", errType: ErrTypeNotFound, expected: "NOT_FOUND"},
		{name: "config error type", errType: ErrTypeConfig, expected: "CONFIG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.errType))
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name: "error without cause",
			appError: &AppError{
				Type:    ErrTypeDataLoad,
				Message: "input file not found",
			},
			wantMessage: "[DATA_LOAD] input file not found",
		},
		{
			name: "error with cause",
			appError: &AppError{
				Type:    ErrTypeConfig,
				Message: "failed to read config",
				Cause:   fmt.Errorf("permission denied"),
			},
			wantMessage: "[CONFIG] failed to read config: permission denied",
		},
		{
			name: "error with empty message",
			appError: &AppError{
				Type: ErrTypeValidation,
			},
			wantMessage: "[VALIDATION] ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("original error")
	appErr := NewDataLoadError("cannot decode", cause)

	assert.Same(t, cause, appErr.Unwrap())
	assert.True(t, errors.Is(appErr, cause))
	assert.Nil(t, NewAppValidationError("bad", nil).Unwrap())
}

func TestAppError_WithContext(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		key      string
		value    interface{}
	}{
		{
			name:     "add string context",
			appError: &AppError{Type: ErrTypeDataLoad, Message: "load"},
			key:      "path",
			value:    "ratings.csv",
		},
		{
			name:     "add integer context",
			appError: &AppError{Type: ErrTypeParsing, Message: "parse"},
			key:      "row",
			value:    12,
		},
		{
			name: "add context to error with existing context",
			appError: &AppError{
				Type:    ErrTypeValidation,
				Message: "mapping",
				Context: map[string]interface{}{"field": "rating"},
			},
			key:   "column",
			value: "IVA_COMPANY_RATING",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.appError.WithContext(tt.key, tt.value)

			assert.Same(t, tt.appError, result)
			require.Contains(t, result.Context, tt.key)
			assert.Equal(t, tt.value, result.Context[tt.key])
		})
	}
}

func TestConstructors(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name     string
		err      *AppError
		wantType ErrorType
		wantMsg  string
	}{
		{name: "data load", err: NewDataLoadError("read failed", cause), wantType: ErrTypeDataLoad, wantMsg: "read failed"},
		{name: "parsing", err: NewParsingError("bad yaml", cause), wantType: ErrTypeParsing, wantMsg: "bad yaml"},
		{name: "storage", err: NewStorageError("write failed", cause), wantType: ErrTypeStorage, wantMsg: "write failed"},
		{name: "validation", err: NewAppValidationError("invalid", cause), wantType: ErrTypeValidation, wantMsg: "invalid"},
		{name: "not found", err: NewNotFoundError("rating scale"), wantType: ErrTypeNotFound, wantMsg: "rating scale not found"},
		{name: "config", err: NewConfigError("bad config", cause), wantType: ErrTypeConfig, wantMsg: "bad config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantMsg, tt.err.Message)
			assert.NotNil(t, tt.err.Context)
		})
	}
}

package errors

import (
	stderrors "errors"
)

// Sentinel causes shared across packages.
var (
	ErrEmptyInput     = stderrors.New("input has no header row")
	ErrUnknownField   = stderrors.New("unknown canonical field")
	ErrMissingColumn  = stderrors.New("declared column not present in input")
	ErrUnknownScale   = stderrors.New("rating scale not configured")
	ErrUnknownFormat  = stderrors.New("unsupported export format")
	ErrEncodingFailed = stderrors.New("input is neither valid UTF-8 nor GBK")
)

// TypeOf returns the AppError type anywhere in err's chain, or "" when
// err carries none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsType reports whether err wraps an AppError of type t.
func IsType(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}

// IsDataLoadError reports whether err is a fatal input error.
func IsDataLoadError(err error) bool {
	return IsType(err, ErrTypeDataLoad)
}

// IsConfigError reports whether err is a configuration error
func IsConfigError(err error) bool {
	return IsType(err, ErrTypeConfig)
}

// IsFatal reports whether the CLI must exit non-zero for err.
func IsFatal(err error) bool {
	return IsDataLoadError(err) || IsConfigError(err)
}

// ContextOf returns the context attached to the outermost AppError.
func ContextOf(err error) map[string]interface{} {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Context
	}
	return nil
}

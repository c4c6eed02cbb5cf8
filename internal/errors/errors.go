// Package errors provides unified error handling with structured error codes.
package errors

import "fmt"

// Code classifies an error for logging and retry decisions.
type Code int

const (
	CodeUnknown Code = iota
	CodeInternal
	CodeProbeTimeout
	CodeProbeUnavailable
	CodeConfigMissing
	CodeConfigInvalid
	CodePublishFailed
)

// String returns the code name.
func (c Code) String() string {
	switch c {
	case CodeInternal:
		return "INTERNAL"
	case CodeProbeTimeout:
		return "PROBE_TIMEOUT"
	case CodeProbeUnavailable:
		return "PROBE_UNAVAILABLE"
	case CodeConfigMissing:
		return "CONFIG_MISSING"
	case CodeConfigInvalid:
		return "CONFIG_INVALID"
	case CodePublishFailed:
		return "PUBLISH_FAILED"
	default:
		return "UNKNOWN"
	}
}

// AppError is the base error type with a structured code and optional cause.
type AppError struct {
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
	if e.Cause != nil {
		s += fmt.Sprintf(" caused by: %v", e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *AppError) Unwrap() error { return e.Cause }

// New creates a new AppError with the given code and message.
func New(code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// Newf creates a new AppError with formatted message.
func Newf(code Code, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError.
func Wrap(err error, code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Cause: err}
}

// Wrapf wraps an existing error with formatted message.
func Wrapf(err error, code Code, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// GetCode returns the error code, or CodeUnknown for foreign errors.
func GetCode(err error) Code {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return CodeUnknown
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}

// IsRetryable returns true if the error is potentially retryable.
// Probe misses and marker write failures are transient; configuration
// and programming errors are not.
func IsRetryable(err error) bool {
	switch GetCode(err) {
	case CodeProbeTimeout, CodeProbeUnavailable, CodePublishFailed:
		return true
	default:
		return false
	}
}

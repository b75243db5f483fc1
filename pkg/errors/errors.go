// Package errors provides structured error types for the sitestats application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the fetch CLI and the client core
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes map to the failure taxonomy of the HTTP client core:
//   - CLIENT_ERROR: the request itself is at fault (non-429 4xx); never retried
//   - RATE_LIMIT_EXHAUSTED: provider quota exceeded past the retry budget
//   - TRANSIENT_NETWORK: connectivity or server fault past the retry budget
//   - MALFORMED_RESPONSE: response failed structural validation; never retried
//   - CONFIGURATION_ERROR: missing credential or parameter, raised before any
//     network activity
//
// # Usage
//
//	err := errors.New(errors.ErrCodeConfiguration, "missing property id")
//	if errors.Is(err, errors.ErrCodeConfiguration) {
//	    // Handle configuration error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeTransientNetwork, origErr, "fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for the failure taxonomy.
const (
	// Request/caller faults, surfaced without retry.
	ErrCodeClient   Code = "CLIENT_ERROR"
	ErrCodeNotFound Code = "NOT_FOUND"

	// Retry budget exhausted.
	ErrCodeRateLimitExhausted Code = "RATE_LIMIT_EXHAUSTED"
	ErrCodeTransientNetwork   Code = "TRANSIENT_NETWORK"

	// Response shape faults, surfaced without retry.
	ErrCodeMalformedResponse Code = "MALFORMED_RESPONSE"

	// Pre-network faults.
	ErrCodeConfiguration Code = "CONFIGURATION_ERROR"

	// Unexpected internal errors.
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

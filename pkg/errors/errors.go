// Package errors provides structured error types for kintree.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP API and the stores
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
//   - INVALID_REQUEST: malformed input, self-referencing edges
//   - NOT_FOUND: unknown member, edge or relation code on direct lookup
//   - INCONSISTENT: a referenced relation code does not resolve
//   - CONFLICT: a uniqueness or referential constraint would be violated
//   - INTERNAL_ERROR: unexpected store or runtime failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidRequest, "cannot relate member %d to itself", id)
//	if errors.Is(err, errors.ErrCodeInvalidRequest) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInternal, origErr, "load member %d", id)
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	ErrCodeInvalidRequest Code = "INVALID_REQUEST"
	ErrCodeNotFound       Code = "NOT_FOUND"
	ErrCodeInconsistent   Code = "INCONSISTENT"
	ErrCodeConflict       Code = "CONFLICT"
	ErrCodeInternal       Code = "INTERNAL_ERROR"
	ErrCodeUnsupported    Code = "UNSUPPORTED"
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

// NotFound is shorthand for New(ErrCodeNotFound, "<what> %v not found").
func NotFound(what string, key any) *Error {
	return New(ErrCodeNotFound, "%s %v not found", what, key)
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

// HTTPStatus maps an error to the status code the API responds with.
// Errors without a code are treated as internal failures.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// Package converr provides structured error types for the tb2ud converter.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Conversion failures are fail-soft: a subtree that cannot be rewritten is
// logged with one of the conversion codes and left in source shape, and the
// run continues. The remaining codes cover input, storage, and internal
// failures, which do propagate.
//
// # Usage
//
//	err := converr.New(converr.ErrCodeInvalidFormat, "row %d: %d columns", line, n)
//	if converr.Is(err, converr.ErrCodeInvalidFormat) {
//	    // Handle malformed input
//	}
//
//	// Wrap existing errors
//	err := converr.Wrap(converr.ErrCodeNotFound, origErr, "corpus %s", id)
package converr

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Conversion failures, local to one subtree or one secondary edge.

	// ErrCodeAmbiguousPromotion marks a bridge, copula, or ellipsis subtree
	// with zero valid promotion candidates, or a bridge with more than one.
	ErrCodeAmbiguousPromotion Code = "AMBIGUOUS_PROMOTION"
	// ErrCodeMissingMembers marks a coordination or apposition whose head
	// has no child carrying the matching membership flag.
	ErrCodeMissingMembers Code = "MISSING_MEMBERS"
	// ErrCodeUnresolvedEdge marks a recorded secondary-edge head ordinal
	// that matches no live node; the edge is dropped.
	ErrCodeUnresolvedEdge Code = "UNRESOLVED_EDGE"
	// ErrCodeReusedOrdinal marks a fractional-ordinal collision. The
	// assignment loop always advances to an unused value, so this code
	// surfaces only if that invariant breaks.
	ErrCodeReusedOrdinal Code = "REUSED_ORDINAL"

	// Input validation errors
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidInput  Code = "INVALID_INPUT"

	// Resource errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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

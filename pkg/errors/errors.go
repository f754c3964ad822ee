// Package errors provides structured error types for taintview.
//
// Error codes let the CLI and the HTTP API report the same failure the same
// way: the CLI prints the message, the API returns the code as JSON.
//
// # Error Codes
//
//   - INVALID_*: malformed input (trace records, index lines, options)
//   - NOT_FOUND / UNRESOLVED: lookups that missed
//   - GRAPH_HAS_CYCLE: a layout precondition violation
//   - INTERNAL_*: unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnsupportedStrategy, "unknown strategy %q", name)
//	if errors.Is(err, errors.ErrCodeUnsupportedStrategy) {
//	    // show the list of strategies
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

const (
	// Input errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidRecord    Code = "INVALID_RECORD"
	ErrCodeInvalidIndexLine Code = "INVALID_INDEX_LINE"
	ErrCodeInvalidPolicy    Code = "INVALID_POLICY"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"
	ErrCodeInvalidNodeID    Code = "INVALID_NODE_ID"
	ErrCodeInvalidName      Code = "INVALID_NAME"

	// Lookup errors
	ErrCodeNotFound   Code = "NOT_FOUND"
	ErrCodeUnresolved Code = "UNRESOLVED"

	// Layout errors
	ErrCodeGraphHasCycle       Code = "GRAPH_HAS_CYCLE"
	ErrCodeUnsupportedStrategy Code = "UNSUPPORTED_STRATEGY"

	// Backend errors
	ErrCodeStorage Code = "STORAGE_ERROR"
	ErrCodeDecode  Code = "DECODE_ERROR"

	// ErrCodeUnavailable marks a feature that needs a collaborator that
	// was not configured, such as call expansion without a binary.
	ErrCodeUnavailable Code = "UNAVAILABLE"

	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

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
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the first *Error in err's chain has the given code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error.
// Returns the empty string if the chain holds no *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message without the code prefix for *Error values,
// and err.Error() otherwise.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

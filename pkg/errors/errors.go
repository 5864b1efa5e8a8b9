// Package errors defines the coded errors shared by the engine, the CLI and
// remote workers.
//
// A [Code] is a stable string that survives the JSON worker protocol, so a
// coordinator can tell an OVERFLOW raised on a remote worker from a transport
// failure. Codes group as follows:
//
//   - INVALID_*: rejected input (ranges, graphs, weights, config, formats)
//   - OVERFLOW: a neighbour sum does not fit in uint64
//   - WORKER_FAILURE: a partition did not complete; the cause says why
//   - NETWORK_ERROR, TIMEOUT: remote workers unreachable or too slow
//   - INTERNAL_ERROR: bugs, including recovered panics
//
// [Is] looks at the outermost coded error only, while [Has] searches the
// whole chain:
//
//	err := errors.Wrap(errors.ErrCodeWorkerFailure, cause, "partition %s", key)
//	errors.Is(err, errors.ErrCodeWorkerFailure) // true
//	errors.Has(err, errors.ErrCodeOverflow)     // true if cause carries OVERFLOW
package errors

import (
	"errors"
	"fmt"
)

// Code identifies a class of failure.
type Code string

// Error codes.
const (
	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidRange   Code = "INVALID_RANGE"
	ErrCodeInvalidGraph   Code = "INVALID_GRAPH"
	ErrCodeInvalidWeights Code = "INVALID_WEIGHTS"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"

	// Evaluation errors
	ErrCodeOverflow Code = "OVERFLOW"

	// Distribution errors
	ErrCodeWorkerFailure Code = "WORKER_FAILURE"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

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

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the cause.
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
// It checks the outermost *Error in the chain; use Has to search the whole chain.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// Has reports whether any *Error in err's chain carries the given code.
// A WORKER_FAILURE caused by an OVERFLOW satisfies both Has(err, ErrCodeWorkerFailure)
// and Has(err, ErrCodeOverflow).
func Has(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode returns the code of the outermost *Error in err's chain, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message of the outermost *Error without its code,
// or err.Error() for uncoded errors.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

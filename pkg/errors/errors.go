// Package errors provides structured error types for the space graph.
//
// The space graph distinguishes three kinds of failure:
//   - Programming errors (nil or foreign spaces, unbalanced usage counts):
//     these panic, they are caller bugs and not runtime conditions.
//   - Capability-absent conditions: returned as an [*Error] with a code such
//     as [ErrCodeUnsupported] or [ErrCodeRecenteringNotSupported]. Callers are
//     expected to treat these as routine and degrade gracefully.
//   - Tracking loss: never an error. It shows up only as cleared flags on the
//     returned relation.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnknownDevice, "no space bound to device %q", name)
//	if errors.Is(err, errors.ErrCodeRecenteringNotSupported) {
//	    // Try again next frame.
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidConfig, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Lookup errors
	ErrCodeUnknownDevice Code = "UNKNOWN_DEVICE"
	ErrCodeFileNotFound  Code = "FILE_NOT_FOUND"

	// Capability-absent errors
	ErrCodeUnsupported             Code = "UNSUPPORTED"
	ErrCodeRecenteringNotSupported Code = "RECENTERING_NOT_SUPPORTED"

	// Internal errors
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

// IsCapabilityAbsent reports whether err means "not available right now"
// rather than a fault: the caller should skip the operation and carry on.
func IsCapabilityAbsent(err error) bool {
	switch GetCode(err) {
	case ErrCodeUnsupported, ErrCodeRecenteringNotSupported:
		return true
	}
	return false
}

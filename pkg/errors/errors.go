// Package errors provides structured error types for the aurwrap application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the resolution engine
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - CONFIG_*: Configuration failures
//   - NETWORK_*: Network-related errors
//   - PARSE_*: Metadata parsing failures
//   - CYCLE_*: Dependency graph errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNetwork, "fetch %s: status %d", url, code)
//	if errors.Is(err, errors.ErrCodeNetwork) {
//	    // Handle network error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeParse, origErr, "branch %s", branch)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Configuration errors
	ErrCodeConfig Code = "CONFIG_ERROR"

	// Input validation errors
	ErrCodeInvalidPackage Code = "INVALID_PACKAGE"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	// Resource not found (non-fatal; callers drop the name silently)
	ErrCodeNotFound Code = "NOT_FOUND"

	// Metadata parsing errors
	ErrCodeParse        Code = "PARSE_ERROR"
	ErrCodeMissingField Code = "MISSING_FIELD"

	// Dependency graph errors
	ErrCodeCycle Code = "CYCLE_ERROR"

	// External process errors (pacman, makepkg, git, gpg)
	ErrCodeExec Code = "EXEC_ERROR"

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

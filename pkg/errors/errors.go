// Package errors provides structured error types for the ballast application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the resolver, sources, and CLI
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (malformed tags, manifests)
//   - MISSING_*/NO_*: Resource not found
//   - REPOSITORY_*: Version-control transport failures
//   - UNSATISFIABLE_*: Constraint solving failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidVersion, "not a semantic version: %s", tag)
//	if errors.Is(err, errors.ErrCodeInvalidVersion) {
//	    // Drop the candidate, keep scanning
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeRepository, origErr, "fetch %s", url)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidVersion  Code = "INVALID_VERSION"
	ErrCodeInvalidManifest Code = "INVALID_MANIFEST"
	ErrCodeInvalidProject  Code = "INVALID_PROJECT"

	// Resource not found errors
	ErrCodeMissingManifest Code = "MISSING_MANIFEST"
	ErrCodeNoManifestFound Code = "NO_MANIFEST_FOUND"

	// Version-control transport errors
	ErrCodeRepository Code = "REPOSITORY_ERROR"

	// Constraint solving errors
	ErrCodeUnsatisfiable Code = "UNSATISFIABLE_CONSTRAINT"

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

// UnsatisfiableError reports that no version of a project can satisfy the
// constraints transitively imposed on it. Project and Specifiers carry the
// context the CLI needs to render the conflict.
type UnsatisfiableError struct {
	Project    string   // display name of the conflicted project
	Specifiers []string // string forms of the constraints that collided
}

// Error implements the error interface.
func (e *UnsatisfiableError) Error() string {
	if len(e.Specifiers) == 0 {
		return fmt.Sprintf("no version of %s satisfies the declared constraints", e.Project)
	}
	return fmt.Sprintf("no version of %s satisfies %s", e.Project, strings.Join(e.Specifiers, " and "))
}

// Unsatisfiable reports whether err is an UnsatisfiableError.
func Unsatisfiable(err error) (*UnsatisfiableError, bool) {
	var e *UnsatisfiableError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

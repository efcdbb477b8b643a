// Package errors provides structured error types for kintree.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library, CLI and API
//   - Machine-readable error codes for programmatic handling
//   - Non-fatal warnings that are returned as data
//
// # Error Codes
//
// Codes are grouped by the component that raises them:
//   - Validation (graph store): INVALID_MEMBER, SELF_REFERENCE, UNKNOWN_*, DUPLICATE_*
//   - Import: UNSUPPORTED_FORMAT, EMPTY_DATASET, INVALID_FORMAT
//   - Layout: INVALID_LAYOUT
//   - Collaborators: NOT_FOUND, INVALID_INPUT, CONFLICT, INTERNAL_ERROR
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnknownMember, "member %q not found", id)
//	if errors.Is(err, errors.ErrCodeUnknownMember) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidFormat, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Validation errors (fatal to the single call, graph unchanged)
	ErrCodeInvalidMember         Code = "INVALID_MEMBER"
	ErrCodeInvalidRelationship   Code = "INVALID_RELATIONSHIP"
	ErrCodeSelfReference         Code = "SELF_REFERENCE"
	ErrCodeUnknownMember         Code = "UNKNOWN_MEMBER"
	ErrCodeUnknownRelationship   Code = "UNKNOWN_RELATIONSHIP"
	ErrCodeDuplicateMember       Code = "DUPLICATE_MEMBER"
	ErrCodeDuplicateRelationship Code = "DUPLICATE_RELATIONSHIP"

	// Import errors (fatal to the whole import call)
	ErrCodeUnsupportedFormat Code = "UNSUPPORTED_FORMAT"
	ErrCodeEmptyDataset      Code = "EMPTY_DATASET"
	ErrCodeInvalidFormat     Code = "INVALID_FORMAT"

	// Layout errors
	ErrCodeInvalidLayout Code = "INVALID_LAYOUT"

	// Collaborator errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeConflict     Code = "CONFLICT" // Stored object changed since it was read
	ErrCodeInternal     Code = "INTERNAL_ERROR"
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

// IsValidation reports whether err carries one of the graph store validation codes.
func IsValidation(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidMember, ErrCodeInvalidRelationship, ErrCodeSelfReference,
		ErrCodeUnknownMember, ErrCodeUnknownRelationship,
		ErrCodeDuplicateMember, ErrCodeDuplicateRelationship:
		return true
	}
	return false
}

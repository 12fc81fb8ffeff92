// Package errors provides structured error types for deppatcher.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the library packages
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes name the failure class from the patching taxonomy:
//   - MALFORMED_LEDGER: the backup location of a manifest has the wrong shape
//   - INVALID_*: input that cannot be used (manifest, rule, config, graph)
//   - DECISION_FAILED: the decision function returned an error
//   - UNSUPPORTED_SOURCE: a source that cannot be expressed in an override
//   - IO_ERROR, METADATA_FAILED: environment failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMalformedLedger, "%s: ledger is not a table", path)
//	if errors.Is(err, errors.ErrCodeMalformedLedger) {
//	    // Handle the malformed ledger
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeIO, origErr, "read %s", path)
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
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidManifest Code = "INVALID_MANIFEST"
	ErrCodeInvalidRule     Code = "INVALID_RULE"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"
	ErrCodeInvalidGraph    Code = "INVALID_GRAPH"

	// Patching errors
	ErrCodeMalformedLedger   Code = "MALFORMED_LEDGER"
	ErrCodeDecisionFailed    Code = "DECISION_FAILED"
	ErrCodeUnsupportedSource Code = "UNSUPPORTED_SOURCE"

	// Environment errors
	ErrCodeIO             Code = "IO_ERROR"
	ErrCodeMetadataFailed Code = "METADATA_FAILED"

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
	for err != nil {
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

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message (and cause) without the code prefix.
// Context added around an *Error with fmt.Errorf is kept. Other errors are
// returned as-is.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if outer := err.Error(); outer != e.Error() {
		if prefix, ok := strings.CutSuffix(outer, e.Error()); ok {
			return prefix + UserMessage(e)
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, UserMessage(e.Cause))
	}
	return e.Message
}

// Package errors provides the shared error taxonomy for lifecycle operations.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// ErrCodeNotFound covers both absent entities and entities the caller
	// does not own; the two are indistinguishable on purpose so existence
	// is never leaked to unauthorized callers.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeInvalidState marks an operation attempted against a project or
	// application whose current status forbids it.
	ErrCodeInvalidState ErrorCode = "INVALID_STATE"

	// ErrCodeDeadlinePassed is kept distinct from INVALID_STATE so callers
	// can render a deadline-specific message.
	ErrCodeDeadlinePassed ErrorCode = "DEADLINE_PASSED"

	// ErrCodeConflict marks a duplicate application.
	ErrCodeConflict ErrorCode = "CONFLICT"

	// ErrCodeValidationFailed marks a payload that failed schema validation.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// ErrCodeDependencyFailure marks a blob store, database or mail
	// transport failure.
	ErrCodeDependencyFailure ErrorCode = "DEPENDENCY_FAILURE"
)

// Error is a structured application error carried across the orchestration
// boundary. Internal stack detail stays in Details and is never rendered to
// end users.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewNotFound creates a non-retryable not-found error.
func NewNotFound(entity string) *Error {
	return &Error{
		Code:      ErrCodeNotFound,
		Message:   fmt.Sprintf("%s not found", entity),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidState creates a non-retryable invalid-state error.
func NewInvalidState(message string) *Error {
	return &Error{
		Code:      ErrCodeInvalidState,
		Message:   message,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDeadlinePassed creates a non-retryable deadline error.
func NewDeadlinePassed(projectID string) *Error {
	return &Error{
		Code:      ErrCodeDeadlinePassed,
		Message:   "application deadline has passed",
		Details:   fmt.Sprintf("projectId: %s", projectID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewConflict creates a non-retryable duplicate error.
func NewConflict(message, details string) *Error {
	return &Error{
		Code:      ErrCodeConflict,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailed creates a non-retryable validation error.
func NewValidationFailed(details string) *Error {
	return &Error{
		Code:      ErrCodeValidationFailed,
		Message:   "payload validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDependencyFailure creates a retryable dependency error.
func NewDependencyFailure(dependency string, err error) *Error {
	return &Error{
		Code:      ErrCodeDependencyFailure,
		Message:   fmt.Sprintf("dependency '%s' failed", dependency),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// CodeOf extracts the error code, or empty string for untyped errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func IsNotFound(err error) bool          { return CodeOf(err) == ErrCodeNotFound }
func IsInvalidState(err error) bool      { return CodeOf(err) == ErrCodeInvalidState }
func IsDeadlinePassed(err error) bool    { return CodeOf(err) == ErrCodeDeadlinePassed }
func IsConflict(err error) bool          { return CodeOf(err) == ErrCodeConflict }
func IsValidationFailed(err error) bool  { return CodeOf(err) == ErrCodeValidationFailed }
func IsDependencyFailure(err error) bool { return CodeOf(err) == ErrCodeDependencyFailure }

// Package errors defines the failure taxonomy of the catalog client core.
//
// Every failed user action yields an *Error whose Message is the human-readable
// notice shown to the user; the wrapped cause keeps the technical detail for logs.
//
//	if errors.Is(err, errors.ErrUnauthenticated) {
//	    // prompt for login
//	}
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
	New    = errors.New
)

// Code represents a machine-readable error code.
type Code string

const (
	CodeUnauthenticated       Code = "UNAUTHENTICATED"
	CodeInvalidRating         Code = "INVALID_RATING"
	CodeInvalidReview         Code = "INVALID_REVIEW"
	CodeMissingRelationID     Code = "MISSING_RELATION_ID"
	CodeRemoteOperationFailed Code = "REMOTE_OPERATION_FAILED"
	CodeOperationPending      Code = "OPERATION_PENDING"
	CodeNotFound              Code = "NOT_FOUND"
)

// Error is a domain error with a code, a user-facing message and an optional cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Notice is the message shown to the user, without the technical cause.
func (e *Error) Notice() string {
	return e.Message
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, cause: err}
}

// Sentinel errors for use with errors.Is().
var (
	ErrUnauthenticated       = &Error{Code: CodeUnauthenticated, Message: "you must be logged in"}
	ErrInvalidRating         = &Error{Code: CodeInvalidRating, Message: "rating must be a number between 1 and 5"}
	ErrInvalidReview         = &Error{Code: CodeInvalidReview, Message: "invalid review"}
	ErrMissingRelationID     = &Error{Code: CodeMissingRelationID, Message: "missing relation id"}
	ErrRemoteOperationFailed = &Error{Code: CodeRemoteOperationFailed, Message: "remote operation failed"}
	ErrOperationPending      = &Error{Code: CodeOperationPending, Message: "operation already in progress"}
	ErrNotFound              = &Error{Code: CodeNotFound, Message: "not found"}
)

// Unauthenticated creates an unauthenticated error with the given notice.
func Unauthenticated(msg string) *Error {
	return &Error{Code: CodeUnauthenticated, Message: msg}
}

// InvalidRating creates an invalid rating error.
func InvalidRating(msg string) *Error {
	return &Error{Code: CodeInvalidRating, Message: msg}
}

// InvalidReview creates a review validation error.
func InvalidReview(msg string) *Error {
	return &Error{Code: CodeInvalidReview, Message: msg}
}

// MissingRelationID creates a cache inconsistency error.
func MissingRelationID(msg string) *Error {
	return &Error{Code: CodeMissingRelationID, Message: msg}
}

// Remote wraps a network or backend failure with the notice for the failed action.
func Remote(err error, msg string) *Error {
	return &Error{Code: CodeRemoteOperationFailed, Message: msg, cause: err}
}

// Pending creates an error for an operation rejected while an identical one is in flight.
func Pending(msg string) *Error {
	return &Error{Code: CodeOperationPending, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Notice extracts the user-facing message from err. Errors outside the
// taxonomy fall back to their Error() text.
func Notice(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Notice()
	}
	return err.Error()
}

// Package errors holds the error taxonomy shared by the catalog client, the
// record store and the pipeline.
package errors

import (
	stdErrors "errors"
	"fmt"
)

// MalformedResponseError means the catalog answered but the payload broke the
// API contract: a required field was missing or had the wrong shape.
type MalformedResponseError struct {
	Endpoint string
	Reason   string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed %s response: %s", e.Endpoint, e.Reason)
}

// NewMalformedResponseError creates a MalformedResponseError
func NewMalformedResponseError(endpoint, format string, args ...any) *MalformedResponseError {
	return &MalformedResponseError{Endpoint: endpoint, Reason: fmt.Sprintf(format, args...)}
}

// IsMalformedResponse reports whether err is a MalformedResponseError (even when wrapped).
func IsMalformedResponse(err error) bool {
	var mErr *MalformedResponseError
	return stdErrors.As(err, &mErr)
}

// TransientError wraps a failure that may succeed when attempted again:
// connection errors, timeouts, 5xx responses.
type TransientError struct {
	Endpoint string
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Endpoint, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError creates a TransientError
func NewTransientError(endpoint string, err error) *TransientError {
	return &TransientError{Endpoint: endpoint, Err: err}
}

// IsTransient reports whether err is a TransientError or a RateLimitError.
func IsTransient(err error) bool {
	var tErr *TransientError
	return stdErrors.As(err, &tErr) || IsRateLimitError(err)
}

// ConstraintViolationError is a uniqueness violation on (title, author) after
// the existence check passed. It signals a store/cache disagreement.
type ConstraintViolationError struct {
	Title  string
	Author string
	Err    error
}

func (e *ConstraintViolationError) Error() string {
	return fmt.Sprintf("duplicate book %q by %q: %v", e.Title, e.Author, e.Err)
}

func (e *ConstraintViolationError) Unwrap() error {
	return e.Err
}

// IsConstraintViolation reports whether err is a ConstraintViolationError.
func IsConstraintViolation(err error) bool {
	var cErr *ConstraintViolationError
	return stdErrors.As(err, &cErr)
}

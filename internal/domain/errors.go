package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the chat id does not resolve. Never retried.
	ErrNotFound = errors.New("chat not found")

	// ErrAccessDenied means the caller does not own the chat. Never retried.
	ErrAccessDenied = errors.New("access denied")
)

// ModelErrorKind classifies a failed model call.
type ModelErrorKind string

const (
	// ModelErrAuth: credentials or quota rejected. Retrying cannot succeed.
	ModelErrAuth ModelErrorKind = "auth"

	// ModelErrTransient: network failure, 5xx or timeout. Retryable.
	ModelErrTransient ModelErrorKind = "transient"

	// ModelErrMalformedOutput: a strict-JSON reply failed to parse.
	// Retryable with the same input, since it is model nondeterminism,
	// not an input problem.
	ModelErrMalformedOutput ModelErrorKind = "malformed_output"
)

// ModelError is the classified outcome of a failed model call.
type ModelError struct {
	Kind ModelErrorKind
	Err  error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model error (%s): %v", e.Kind, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// NewModelError wraps err with a classification kind.
func NewModelError(kind ModelErrorKind, err error) *ModelError {
	return &ModelError{Kind: kind, Err: err}
}

// Retryable reports whether another attempt at the failed operation could
// succeed. Auth rejections and ownership/lookup failures are terminal.
func Retryable(err error) bool {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrAccessDenied) {
		return false
	}
	var me *ModelError
	if errors.As(err, &me) {
		return me.Kind != ModelErrAuth
	}
	return true
}

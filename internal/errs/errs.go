// Package errs defines the error kinds the API maps to HTTP responses.
// Repositories and handlers classify failures with the constructors here;
// the handler boundary matches them with errors.Is against the kind
// sentinels and never exposes the underlying cause to clients.
package errs

import "errors"

var (
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrExpired      = errors.New("expired")
	ErrInvalidState = errors.New("invalid state")
	ErrStorage      = errors.New("storage failure")
	ErrValidation   = errors.New("validation failure")
)

type kindError struct {
	kind  error
	cause error
	msg   string
}

func (e *kindError) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *kindError) Unwrap() error { return e.cause }

func (e *kindError) Is(target error) bool { return target == e.kind }

// Conflict reports a duplicate active resource, e.g. a second pending
// invite for the same business and email.
func Conflict(msg string) error {
	return &kindError{kind: ErrConflict, msg: msg}
}

func NotFound(msg string) error {
	return &kindError{kind: ErrNotFound, msg: msg}
}

func Expired(msg string) error {
	return &kindError{kind: ErrExpired, msg: msg}
}

func InvalidState(msg string) error {
	return &kindError{kind: ErrInvalidState, msg: msg}
}

// Storage wraps an underlying store failure, keeping the cause for
// server-side logs. Timeouts and transaction failures land here too.
func Storage(cause error, msg string) error {
	return &kindError{kind: ErrStorage, cause: cause, msg: msg}
}

func Validation(msg string) error {
	return &kindError{kind: ErrValidation, msg: msg}
}

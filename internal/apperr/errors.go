// Package apperr defines the error kinds the gateway can report to a
// client.  Every kind maps to exactly one HTTP status code; the top-level
// echo error handler turns an *Error into the JSON envelope.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind int

const (
	KindStore      Kind = iota // persistence failure, 500
	KindValidation             // malformed, missing or invalid input, 400
	KindAuth                   // not authenticated or wrong password, 401
	KindNotFound               // unknown id, 404
	KindMethod                 // unsupported verb for the resource, 405
	KindConflict               // unique constraint violation, 409
)

// Status returns the HTTP status code carrying the kind's meaning.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindMethod:
		return http.StatusMethodNotAllowed
	case KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// FieldError is a validation message bound to one input field.
type FieldError struct {
	Field   string
	Message string
}

// Error is the gateway error.  Message is safe to show to clients; Err is
// the underlying cause and is only ever logged.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status is a shortcut for e.Kind.Status().
func (e *Error) Status() int { return e.Kind.Status() }

// Validation reports bad input (400) with optional per-field messages.
func Validation(msg string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

// Auth reports a missing or rejected credential (401).
func Auth(msg string) *Error { return &Error{Kind: KindAuth, Message: msg} }

// NotFound reports a missing record (404).
func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

// Conflict reports a duplicate key (409).
func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

// Method reports a verb the endpoint does not serve (405).
func Method(msg string) *Error { return &Error{Kind: KindMethod, Message: msg} }

// Store wraps a persistence failure behind a generic message.
func Store(err error) *Error {
	return &Error{Kind: KindStore, Message: "database error occurred", Err: err}
}

// From extracts an *Error from err's chain.  Anything else is reported as a
// store failure so internals never leak to the client.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Store(err)
}

// Is reports whether err carries an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}

// Package apperr defines the error taxonomy shared by the permission resolver,
// the approval engine and the HTTP layer. Every failure surfaced to a caller
// carries a Kind and a stable Code so clients never parse free text.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the category of a failure.
type Kind string

// Error kinds.
const (
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindNotFound     Kind = "NOT_FOUND"
	KindValidation   Kind = "VALIDATION"
	KindConflict     Kind = "CONFLICT"
	KindInternal     Kind = "INTERNAL"
)

// Error is a categorized failure. Two Errors match with errors.Is when their codes are equal,
// so package level sentinels keep working after Wrap or With.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

// New returns a sentinel error.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors of the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return t.Code == e.Code
}

// With returns a copy of e with a more specific message, keeping kind and code.
func (e *Error) With(format string, args ...any) *Error {
	return &Error{
		Kind:    e.Kind,
		Code:    e.Code,
		Message: e.Message + ": " + fmt.Sprintf(format, args...),
		Err:     e.Err,
	}
}

// Wrap returns a copy of e carrying cause.
func (e *Error) Wrap(cause error) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: e.Message, Err: cause}
}

// Generic errors, one per kind.
var (
	ErrUnauthorized = New(KindUnauthorized, "UNAUTHORIZED", "authentication required")
	ErrForbidden    = New(KindForbidden, "FORBIDDEN", "forbidden")
	ErrNotFound     = New(KindNotFound, "NOT_FOUND", "not found")
	ErrValidation   = New(KindValidation, "VALIDATION_FAILED", "validation failed")
	ErrConflict     = New(KindConflict, "CONFLICT", "conflict")
	ErrInternal     = New(KindInternal, "INTERNAL", "internal error")
)

// Internal wraps an unexpected failure, typically from the persistence layer.
func Internal(cause error) error {
	if cause == nil {
		return nil
	}

	var e *Error
	if errors.As(cause, &e) {
		return cause
	}

	return ErrInternal.Wrap(cause)
}

// KindOf returns the kind of err, KindInternal for uncategorized errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindInternal
}

// CodeOf returns the stable code of err, "INTERNAL" for uncategorized errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrInternal.Code
}

// HTTPStatus maps a kind to its HTTP status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

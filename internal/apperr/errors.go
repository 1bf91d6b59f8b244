// Package apperr provides the typed failures returned by the domain services
// and their mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"net/http"
)

// Kind groups codes by the way a caller should react to them.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindInvalidState
	KindValidation
	KindUnauthorized
	KindForbidden
	KindUpstream
)

// HTTPStatus maps a kind to the status code used by the HTTP layer.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindInvalidState, KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidState:
		return "invalid_state"
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// Error is the domain error type. Two errors are equal under errors.Is when
// their codes match, so wrapped copies still compare against the sentinels.
type Error struct {
	Code    Code
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// New creates a domain error.
func New(code Code, kind Kind, message string) *Error {
	return &Error{Code: code, Kind: kind, Message: message}
}

// Wrap returns a copy of a sentinel carrying cause.
func Wrap(sentinel *Error, cause error) *Error {
	return &Error{
		Code:    sentinel.Code,
		Kind:    sentinel.Kind,
		Message: sentinel.Message,
		Cause:   cause,
	}
}

// WithMessage returns a copy of a sentinel with a more specific message.
func WithMessage(sentinel *Error, message string) *Error {
	return &Error{
		Code:    sentinel.Code,
		Kind:    sentinel.Kind,
		Message: message,
	}
}

// Internal wraps an unexpected failure (storage, encoding) as an internal error.
func Internal(message string, cause error) *Error {
	return &Error{Code: CodeInternal, Kind: KindInternal, Message: message, Cause: cause}
}

// From extracts the domain error from err. Errors that carry no domain
// error are reported as internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal("internal error", err)
}

// StatusOf returns the HTTP status for err.
func StatusOf(err error) int {
	return From(err).Kind.HTTPStatus()
}

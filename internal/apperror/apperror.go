// Package apperror defines the closed set of errors the API reports to clients.
package apperror

import (
	"errors"
	"net/http"
)

// Kind identifies one of the error categories exposed by the API.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindBadRequest
	KindConflict
	KindNotFound
)

// Error is an API-facing error. Build it with one of the constructors below.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode maps the error kind to an HTTP status.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindBadRequest:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text safe to show to a client. Internal causes are never exposed.
func (e *Error) PublicMessage() string {
	if e.Kind == KindInternal {
		return "Internal Server Error"
	}
	return e.Message
}

// Unauthorized covers missing, invalid or expired tokens and bad credentials.
func Unauthorized() *Error {
	return &Error{Kind: KindUnauthorized, Message: "Unauthorized"}
}

// BadRequest covers validation failures and business rule violations.
func BadRequest(message string) *Error {
	return &Error{Kind: KindBadRequest, Message: message}
}

// Conflict covers uniqueness violations.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// NotFound covers resources that are absent or not owned by the caller.
func NotFound() *Error {
	return &Error{Kind: KindNotFound, Message: "Resource Not Found"}
}

// Internal wraps a store or hashing failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "Internal Server Error", Err: err}
}

// From returns err as an *Error, treating anything unrecognised as internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

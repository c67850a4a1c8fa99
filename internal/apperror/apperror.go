package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error for HTTP mapping.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
	KindInternal
)

// FieldError describes a single invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the typed error raised by services and repositories. Handlers
// translate it into the response envelope; anything that is not an *Error
// is treated as internal.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// HTTPStatus maps the error kind to a status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Validation builds a field-level validation error (HTTP 422).
func Validation(message string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// BadRequest builds a validation error without field detail, mapped to 422
// like any other malformed input.
func BadRequest(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// NotFound builds a not-found error (HTTP 404).
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Conflict builds a conflict error (HTTP 409), used for scheduling
// double-bookings and unique-key violations.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Unauthorized builds an authentication error (HTTP 401).
func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// Forbidden builds a permission error (HTTP 403).
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// Internal wraps an unexpected failure (HTTP 500). The cause is kept for
// logging but only exposed in development mode.
func Internal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, cause: cause}
}

// From returns err as *Error, wrapping unknown errors as internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("unexpected error", err)
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

func IsNotFound(err error) bool   { return IsKind(err, KindNotFound) }
func IsConflict(err error) bool   { return IsKind(err, KindConflict) }
func IsValidation(err error) bool { return IsKind(err, KindValidation) }

// Package apperr defines the error kinds surfaced at the HTTP boundary.
//
// Services return *Error values; stores return plain sentinel errors that
// services translate. jsonutil.WriteError maps an *Error to a status code
// and a JSON body.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for status mapping.
type Kind string

const (
	NotFound           Kind = "NOT_FOUND"
	Conflict           Kind = "CONFLICT"
	Forbidden          Kind = "FORBIDDEN"
	InvalidCredentials Kind = "INVALID_CREDENTIALS"
	Unauthorized       Kind = "UNAUTHORIZED"
	Validation         Kind = "VALIDATION_ERROR"
	PayloadTooLarge    Kind = "PAYLOAD_TOO_LARGE"
	Expired            Kind = "EXPIRED"
	Invalid            Kind = "INVALID"
	TooManyRequests    Kind = "TOO_MANY_REQUESTS"
	Internal           Kind = "INTERNAL_ERROR"
)

// Error is a classified application error. Message is safe to show to
// clients; Cause is only exposed outside production.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Status returns the HTTP status code for the error's kind.
func (e *Error) Status() int { return Status(e.Kind) }

// Status maps a Kind to its HTTP status code.
func Status(k Kind) int {
	switch k {
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case Forbidden:
		return http.StatusForbidden
	case InvalidCredentials, Unauthorized:
		return http.StatusUnauthorized
	case Validation, Expired, Invalid:
		return http.StatusBadRequest
	case PayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case TooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// New returns an *Error of the given kind.
func New(k Kind, msg string) *Error {
	return &Error{Kind: k, Message: msg}
}

// Wrap returns an *Error of the given kind carrying cause.
func Wrap(k Kind, msg string, cause error) *Error {
	return &Error{Kind: k, Message: msg, Cause: cause}
}

func NewNotFound(msg string) *Error        { return New(NotFound, msg) }
func NewConflict(msg string) *Error        { return New(Conflict, msg) }
func NewForbidden(msg string) *Error       { return New(Forbidden, msg) }
func NewUnauthorized(msg string) *Error    { return New(Unauthorized, msg) }
func NewValidation(msg string) *Error      { return New(Validation, msg) }
func NewPayloadTooLarge(msg string) *Error { return New(PayloadTooLarge, msg) }

// NewInvalidCredentials returns the single credential-failure error used
// for both unknown accounts and wrong passwords.
func NewInvalidCredentials() *Error {
	return New(InvalidCredentials, "Invalid email or password")
}

// NewInternal wraps an unexpected failure.
func NewInternal(msg string, cause error) *Error {
	return Wrap(Internal, msg, cause)
}

// As extracts an *Error from err. Anything else is reported as Internal.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return NewInternal("internal server error", err)
}

// Is reports whether err is an *Error of kind k.
func Is(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// Package domainerrors defines the coded error taxonomy shared by services and
// transports. Services return *Error values; transports translate the Code into
// a status (see HTTPStatus) without inspecting messages.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies an error for transport translation.
type Code string

const (
	CodeBadRequest          Code = "bad_request"
	CodeValidation          Code = "validation_error"
	CodeInvalidInput        Code = "invalid_input"
	CodeUnauthorized        Code = "unauthorized"
	CodeForbidden           Code = "forbidden"
	CodeForbiddenSelfDelete Code = "forbidden_self_delete"
	CodeNotFound            Code = "not_found"
	CodeConflict            Code = "conflict"
	CodeInvalidState        Code = "invalid_state"
	CodeInvariantViolation  Code = "invariant_violation"
	CodeContention          Code = "contention"
	CodeRateLimited         Code = "rate_limited"
	CodeTimeout             Code = "timeout"
	CodeInternal            Code = "internal_error"
)

// Error is a domain error carrying a Code and a client-safe message.
type Error struct {
	Code    Code
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

// Is matches another *Error with the same code and message, so tests can use
// errors.Is against a freshly constructed value.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// New creates a domain error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// As extracts the outermost domain error from the chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether the outermost domain error in the chain has the code.
func HasCode(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// Is is shorthand for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// HTTPStatus maps a code onto the HTTP status returned to clients.
func HTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation, CodeInvalidInput, CodeInvariantViolation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden, CodeForbiddenSelfDelete:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInvalidState:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		// CodeContention is retry-safe for the caller but still a server-side failure.
		return http.StatusInternalServerError
	}
}

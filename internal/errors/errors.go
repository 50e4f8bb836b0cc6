// Package errors provides the domain error taxonomy shared by services, the
// REST API and the ajax action endpoint.
//
// Services return *Error values built with the constructors below. The REST
// layer turns Code into an HTTP status; the ajax endpoint collapses every
// failure into one generic answer and only records the Kind.
//
//	if g == nil {
//	    return errors.NotFoundf("game %d not found", id)
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Is re-exports errors.Is so callers need one import.
var Is = errors.Is

// Code is a machine-readable error code.
type Code string

const (
	CodeNotFound           Code = "NOT_FOUND"
	CodeAlreadyExists      Code = "ALREADY_EXISTS"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeValidation         Code = "VALIDATION"
	CodeConflict           Code = "CONFLICT"
	CodeInternal           Code = "INTERNAL"
	CodeAlreadyConfigured  Code = "ALREADY_CONFIGURED"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeTokenExpired       Code = "TOKEN_EXPIRED"
)

// HTTPStatus maps the code onto a response status.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeConflict, CodeAlreadyConfigured:
		return http.StatusConflict
	case CodeUnauthorized, CodeInvalidCredentials, CodeTokenExpired:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Kind is the failure class a client action reports. Several codes share a
// kind: a bad anti-forgery token is a validation failure, a missing admin
// role is an auth failure.
type Kind string

const (
	KindAuth       Kind = "auth"
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindStorage    Kind = "storage"
)

// Kind returns the failure class of c. Unknown codes are storage failures.
func (c Code) Kind() Kind {
	switch c {
	case CodeUnauthorized, CodeForbidden, CodeInvalidCredentials, CodeTokenExpired:
		return KindAuth
	case CodeValidation, CodeAlreadyExists, CodeConflict, CodeAlreadyConfigured:
		return KindValidation
	case CodeNotFound:
		return KindNotFound
	default:
		return KindStorage
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
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

// Is matches any *Error with the same Code, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a copy of the error carrying details.
func (e *Error) WithDetails(details any) *Error {
	c := *e
	c.Details = details
	return &c
}

// WithCause returns a copy of the error wrapping err.
func (e *Error) WithCause(err error) *Error {
	c := *e
	c.cause = err
	return &c
}

// Sentinels for errors.Is.
var (
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists      = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrUnauthorized       = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrForbidden          = &Error{Code: CodeForbidden, Message: "forbidden"}
	ErrValidation         = &Error{Code: CodeValidation, Message: "validation error"}
	ErrConflict           = &Error{Code: CodeConflict, Message: "conflict"}
	ErrInternal           = &Error{Code: CodeInternal, Message: "internal error"}
	ErrAlreadyConfigured  = &Error{Code: CodeAlreadyConfigured, Message: "already configured"}
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials, Message: "invalid credentials"}
	ErrTokenExpired       = &Error{Code: CodeTokenExpired, Message: "token expired"}
)

func newError(code Code, msg string) *Error { return &Error{Code: code, Message: msg} }

func NotFound(msg string) *Error          { return newError(CodeNotFound, msg) }
func AlreadyExists(msg string) *Error     { return newError(CodeAlreadyExists, msg) }
func Unauthorized(msg string) *Error      { return newError(CodeUnauthorized, msg) }
func Forbidden(msg string) *Error         { return newError(CodeForbidden, msg) }
func Validation(msg string) *Error        { return newError(CodeValidation, msg) }
func Conflict(msg string) *Error          { return newError(CodeConflict, msg) }
func AlreadyConfigured(msg string) *Error { return newError(CodeAlreadyConfigured, msg) }
func InvalidCredentials(msg string) *Error {
	return newError(CodeInvalidCredentials, msg)
}
func TokenExpired(msg string) *Error { return newError(CodeTokenExpired, msg) }

func NotFoundf(format string, args ...any) *Error {
	return newError(CodeNotFound, fmt.Sprintf(format, args...))
}

func Validationf(format string, args ...any) *Error {
	return newError(CodeValidation, fmt.Sprintf(format, args...))
}

func Conflictf(format string, args ...any) *Error {
	return newError(CodeConflict, fmt.Sprintf(format, args...))
}

// ValidationWithDetails carries per-field problems in Details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Storage wraps a persistence failure as an internal error.
func Storage(err error, msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg, cause: err}
}

// CodeOf returns the domain code carried by err, or CodeInternal when err is
// not a domain error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// KindOf returns the failure class of err.
func KindOf(err error) Kind {
	return CodeOf(err).Kind()
}

// Package apperr defines the error taxonomy surfaced at the HTTP boundary.
package apperr

import (
	"errors"
	"net/http"

	"github.com/nhadat/listing-auth/internal/auth"
)

// Code is a stable machine-readable error identifier.
type Code string

const (
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeInvalidToken       Code = "INVALID_TOKEN"
	CodeInvalidTokenType   Code = "INVALID_TOKEN_TYPE"
	CodeTokenExpired       Code = "TOKEN_EXPIRED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeEmailTaken         Code = "EMAIL_ALREADY_EXISTS"
	CodePhoneTaken         Code = "PHONE_ALREADY_EXISTS"
	CodeUserNotFound       Code = "USER_NOT_FOUND"
	CodePasswordMismatch   Code = "PASSWORD_MISMATCH"
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeBadRequest         Code = "BAD_REQUEST"
	CodeNotFound           Code = "NOT_FOUND"
	CodeMethodNotAllowed   Code = "METHOD_NOT_ALLOWED"
	CodeTooManyRequests    Code = "TOO_MANY_REQUESTS"
	CodeInternal           Code = "INTERNAL_SERVER_ERROR"
)

var statusByCode = map[Code]int{
	CodeUnauthorized:       http.StatusUnauthorized,
	CodeInvalidToken:       http.StatusUnauthorized,
	CodeInvalidTokenType:   http.StatusUnauthorized,
	CodeTokenExpired:       http.StatusUnauthorized,
	CodeInvalidCredentials: http.StatusUnauthorized,
	CodeForbidden:          http.StatusForbidden,
	CodeUserNotFound:       http.StatusNotFound,
	CodeNotFound:           http.StatusNotFound,
	CodeMethodNotAllowed:   http.StatusMethodNotAllowed,
	CodeEmailTaken:         http.StatusConflict,
	CodePhoneTaken:         http.StatusConflict,
	CodeValidation:         http.StatusUnprocessableEntity,
	CodePasswordMismatch:   http.StatusUnprocessableEntity,
	CodeBadRequest:         http.StatusBadRequest,
	CodeTooManyRequests:    http.StatusTooManyRequests,
	CodeInternal:           http.StatusInternalServerError,
}

// Status maps a code to its HTTP status. Unknown codes are 500.
func Status(code Code) int {
	if s, ok := statusByCode[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is an application error with a code, a client-safe message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Details []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Code) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status for the error code.
func (e *Error) Status() int { return Status(e.Code) }

// New returns an Error with code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap returns an Error that keeps err as its cause.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Validation returns a VALIDATION_ERROR carrying field details.
func Validation(details []FieldError) *Error {
	return &Error{Code: CodeValidation, Message: "Dữ liệu không hợp lệ", Details: details}
}

// Internal wraps err as a generic server error. The cause is logged, never returned to clients.
func Internal(err error) *Error {
	return Wrap(err, CodeInternal, "Internal server error")
}

// From converts any error into an *Error. Token codec failures map to their auth codes.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, auth.ErrTokenMissing):
		return Wrap(err, CodeUnauthorized, "No token provided")
	case errors.Is(err, auth.ErrExpiredToken):
		return Wrap(err, CodeTokenExpired, "Token expired")
	case errors.Is(err, auth.ErrInvalidTokenType):
		return Wrap(err, CodeInvalidTokenType, "Invalid token type")
	case errors.Is(err, auth.ErrMalformedToken):
		return Wrap(err, CodeInvalidToken, "Invalid token")
	}
	return Internal(err)
}

// HasCode reports whether err is an *Error with the given code.
func HasCode(err error, code Code) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == code
}

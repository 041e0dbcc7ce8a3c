package service

import (
	"errors"
	"net/http"
)

// Code is the stable machine-readable identifier of a session failure.
type Code string

const (
	CodeValidation       Code = "validation_error"
	CodeConflict         Code = "user_exists"
	CodeNotFound         Code = "user_not_found"
	CodeUnauthorized     Code = "invalid_password"
	CodeInvalidToken     Code = "invalid_token"
	CodeExpiredToken     Code = "token_expired"
	CodeRevoked          Code = "token_revoked"
	CodeWrongTokenKind   Code = "wrong_token_kind"
	CodeStoreUnavailable Code = "store_unavailable"
	CodeMissingToken     Code = "missing_token"
)

// HTTPStatus maps a code to the response status used by the handlers.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeConflict:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized, CodeInvalidToken, CodeExpiredToken, CodeRevoked,
		CodeWrongTokenKind, CodeMissingToken:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error is returned by every SessionManager operation.  Message is safe to
// show to the caller; Cause is for logs only.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches by code so callers can write errors.Is(err, ErrRevoked).
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func newError(code Code, msg string) *Error { return &Error{Code: code, Message: msg} }

func wrapError(code Code, msg string, cause error) *Error {
	return &Error{Code: code, Message: msg, Cause: cause}
}

// Sentinels for errors.Is.
var (
	ErrValidation       = newError(CodeValidation, "validation failed")
	ErrConflict         = newError(CodeConflict, "User already exists with this email")
	ErrNotFound         = newError(CodeNotFound, "User not found")
	ErrUnauthorized     = newError(CodeUnauthorized, "Incorrect password")
	ErrInvalidToken     = newError(CodeInvalidToken, "Invalid token")
	ErrExpiredToken     = newError(CodeExpiredToken, "Token has expired")
	ErrRevoked          = newError(CodeRevoked, "Token has been revoked")
	ErrWrongTokenKind   = newError(CodeWrongTokenKind, "Wrong token type")
	ErrStoreUnavailable = newError(CodeStoreUnavailable, "Service temporarily unavailable")
	ErrMissingToken     = newError(CodeMissingToken, "Authorization token required")
)

// AsError extracts the *Error from err, or wraps err as store_unavailable.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return wrapError(CodeStoreUnavailable, ErrStoreUnavailable.Message, err)
}

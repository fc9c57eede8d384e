package apperrors

import (
	"fmt"
	"net/http"
)

// ErrorCode is the machine-readable error identifier sent to clients.
type ErrorCode string

const (
	ErrValidation   ErrorCode = "validation_error"
	ErrNotFound     ErrorCode = "not_found"
	ErrConflict     ErrorCode = "conflict"
	ErrUnauthorized ErrorCode = "unauthorized"
	ErrForbidden    ErrorCode = "forbidden"
	ErrTooMany      ErrorCode = "too_many_requests"
	ErrInternal     ErrorCode = "internal_error"
)

// AppError is an error that knows how it should be rendered over HTTP.
type AppError struct {
	cause      error
	message    string
	code       ErrorCode
	httpStatus int
}

// New builds an AppError. cause may be nil for sentinel values.
func New(message string, status int, code ErrorCode, cause error) *AppError {
	return &AppError{cause: cause, message: message, code: code, httpStatus: status}
}

// Internal wraps cause as a 500 with a client-safe message.
func Internal(message string, cause error) *AppError {
	return New(message, http.StatusInternalServerError, ErrInternal, cause)
}

func (e *AppError) Error() string {
	if e.cause == nil {
		return e.message
	}
	return fmt.Sprintf("%s: %v", e.message, e.cause)
}

func (e *AppError) Unwrap() error { return e.cause }

// Message is safe to show to clients; the cause is not.
func (e *AppError) Message() string { return e.message }

func (e *AppError) StatusCode() int { return e.httpStatus }

func (e *AppError) Code() ErrorCode { return e.code }

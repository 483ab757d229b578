package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	// Details holds itemized validation messages.
	Details []string `json:"errors,omitempty"`
	// Field names the offending input field, when there is exactly one.
	Field string `json:"field,omitempty"`
	Err   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error code onto an HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrBadRequest, ErrValidation, ErrInvalidSession:
		return http.StatusBadRequest
	case ErrConflict:
		return http.StatusConflict
	case ErrPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrTooManyRequests:
		return http.StatusTooManyRequests
	case ErrTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrValidation
	ErrConflict
	ErrInvalidSession
	ErrInternal
	ErrPayloadTooLarge
	ErrTooManyRequests
	ErrTimeout
)

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

// NewValidation carries every failed rule so clients can show them all at once.
func NewValidation(details []string) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: "Validation failed",
		Details: details,
	}
}

func NewConflict(message, field string, err error) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Message: message,
		Field:   field,
		Err:     err,
	}
}

func NewInvalidSession(err error) *AppError {
	return &AppError{
		Code:    ErrInvalidSession,
		Message: "Invalid or expired registration session. Please start over.",
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// NewInternalWithMessage is NewInternal with an operation-specific message.
func NewInternalWithMessage(message string, err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: message,
		Err:     err,
	}
}

func NewPayloadTooLarge(message string) *AppError {
	return &AppError{
		Code:    ErrPayloadTooLarge,
		Message: message,
	}
}

func NewTooManyRequests() *AppError {
	return &AppError{
		Code:    ErrTooManyRequests,
		Message: "Too many requests, please try again later.",
	}
}

func NewTimeout(err error) *AppError {
	return &AppError{
		Code:    ErrTimeout,
		Message: "Request timeout",
		Err:     err,
	}
}

// As reports whether err is, or wraps, an *AppError.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

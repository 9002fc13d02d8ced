package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the SDK.
type ErrorCode string

// Dispatch error codes
const (
	ErrQueueClosed    ErrorCode = "QUEUE_CLOSED"
	ErrDeliveryFailed ErrorCode = "DELIVERY_FAILED"
)

// Resource cache error codes
const (
	ErrResourceNotFound ErrorCode = "RESOURCE_NOT_FOUND"
	ErrFetchUnavailable ErrorCode = "FETCH_UNAVAILABLE"
)

// Transport error codes
const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrUnauthorized   ErrorCode = "UNAUTHORIZED"
	ErrForbidden      ErrorCode = "FORBIDDEN"
	ErrRateLimited    ErrorCode = "RATE_LIMITED"
	ErrTimeout        ErrorCode = "TIMEOUT"
	ErrUpstreamError  ErrorCode = "UPSTREAM_ERROR"
	ErrInternalError  ErrorCode = "INTERNAL_ERROR"
)

// Error represents a structured error with code, message, and metadata.
// Retryable distinguishes transient failures (safe to retry with backoff)
// from permanent ones.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a structured error without a cause.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, Retryable: defaultRetryable(code)}
}

// WrapError creates a structured error wrapping an underlying cause.
func WrapError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Retryable: defaultRetryable(code), Cause: cause}
}

// WithHTTPStatus attaches the originating HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable overrides the default retryability of the code.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// defaultRetryable maps each code to its default transient/permanent class.
func defaultRetryable(code ErrorCode) bool {
	switch code {
	case ErrRateLimited, ErrTimeout, ErrUpstreamError, ErrFetchUnavailable:
		return true
	default:
		return false
	}
}

// IsRetryable reports whether err carries a retryable (transient) *Error.
// Unclassified errors are treated as non-retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// CodeOf extracts the ErrorCode from err, or empty if err is not an *Error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries an *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

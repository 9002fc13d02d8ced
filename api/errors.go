package api

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/luminar-ai/luminar-go/types"
)

// ClassifyStatus maps an HTTP status code to the SDK error taxonomy.
// 429 and 5xx are transient (retryable); other 4xx are permanent.
func ClassifyStatus(status int, msg string) *types.Error {
	if msg == "" {
		msg = http.StatusText(status)
	}

	var code types.ErrorCode
	retryable := false

	switch {
	case status == http.StatusUnauthorized:
		code = types.ErrUnauthorized
	case status == http.StatusForbidden:
		code = types.ErrForbidden
	case status == http.StatusNotFound:
		code = types.ErrResourceNotFound
	case status == http.StatusRequestTimeout:
		code = types.ErrTimeout
		retryable = true
	case status == http.StatusTooManyRequests:
		code = types.ErrRateLimited
		retryable = true
	case status >= 400 && status < 500:
		code = types.ErrInvalidRequest
	case status >= 500:
		code = types.ErrUpstreamError
		retryable = true
	default:
		code = types.ErrUpstreamError
		retryable = true
	}

	return types.NewError(code, msg).
		WithHTTPStatus(status).
		WithRetryable(retryable)
}

// classifyNetworkError maps transport-level failures. Timeouts and
// connection errors are transient; context cancellation is surfaced
// unwrapped so callers can detect it with errors.Is.
func classifyNetworkError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return types.WrapError(types.ErrTimeout, "request aborted", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return types.WrapError(types.ErrTimeout, "request timed out", err)
	}
	return types.WrapError(types.ErrUpstreamError, "network error", err)
}

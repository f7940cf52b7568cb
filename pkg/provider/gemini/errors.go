package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/rhuss/gemini-go/pkg/api"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 4096

// mapHTTPError converts an HTTP response with a non-2xx status code into
// an APIError. The Google error envelope
// {"error":{"code":...,"message":...,"status":...}} supplies the message and,
// when present, the status string used as Code.
func mapHTTPError(resp *http.Response) *api.APIError {
	message, status := extractError(resp.Body)
	return errorForStatus(resp.StatusCode, status, message)
}

func errorForStatus(statusCode int, status, message string) *api.APIError {
	code := status
	if code == "" {
		code = strconv.Itoa(statusCode)
	}

	typ, fallback := classifyStatus(statusCode)
	if message == "" {
		message = fallback
	}
	return api.NewTransportError(typ, code, message)
}

func classifyStatus(statusCode int) (api.ErrorType, string) {
	switch {
	case statusCode == http.StatusBadRequest:
		return api.ErrorTypeInvalidRequest, "invalid request"
	case statusCode == http.StatusUnauthorized:
		return api.ErrorTypeAuthentication, "authentication failed"
	case statusCode == http.StatusForbidden:
		return api.ErrorTypePermission, "permission denied"
	case statusCode == http.StatusNotFound:
		return api.ErrorTypeNotFound, "resource not found"
	case statusCode == http.StatusTooManyRequests:
		return api.ErrorTypeTooManyRequests, "rate limit exceeded"
	case statusCode == http.StatusServiceUnavailable:
		return api.ErrorTypeUnavailable, "service unavailable"
	case statusCode == http.StatusGatewayTimeout:
		return api.ErrorTypeTimeout, "deadline exceeded"
	case statusCode >= http.StatusInternalServerError:
		return api.ErrorTypeServerError, fmt.Sprintf("server error (HTTP %d)", statusCode)
	default:
		return api.ErrorTypeServerError, fmt.Sprintf("unexpected error (HTTP %d)", statusCode)
	}
}

// mapNetworkError converts a network-level error (connection refused, timeout,
// DNS resolution failure) into an APIError that wraps err.
func mapNetworkError(err error) *api.APIError {
	var apiErr *api.APIError
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		apiErr = api.NewTransportError(api.ErrorTypeTimeout, "", "request timed out")
	default:
		apiErr = api.NewTransportError(api.ErrorTypeUnavailable, "", "connection error")
	}
	apiErr.Err = err
	return apiErr
}

// extractError reads at most maxErrorBody bytes and returns the message and
// status of a Google error envelope, if present.
func extractError(body io.Reader) (message, status string) {
	if body == nil {
		return "", ""
	}

	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(data) == 0 || !gjson.ValidBytes(data) {
		return "", ""
	}

	r := gjson.GetManyBytes(data, "error.message", "error.status")
	return r[0].String(), r[1].String()
}

// streamError converts an error envelope received inside an SSE stream.
func streamError(payload string) *api.APIError {
	r := gjson.GetMany(payload, "error.code", "error.status", "error.message")
	return errorForStatus(int(r[0].Int()), r[1].String(), r[2].String())
}

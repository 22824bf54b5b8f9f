package executor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"
)

// FailureCategory classifies why a request attempt failed.
type FailureCategory int

const (
	// FailureNone marks a completed request, whatever its status code.
	FailureNone FailureCategory = iota
	// FailureTimeout covers deadline expiry anywhere in the request lifecycle.
	FailureTimeout
	// FailureConnection covers dial, DNS, TLS, and reset errors.
	FailureConnection
	// FailureHTTP covers error chains that carry an HTTP status code.
	FailureHTTP
	// FailureCanceled marks a request aborted by shutdown; it is never reported.
	FailureCanceled
	// FailureUnknown covers everything else.
	FailureUnknown
)

// Outcome is the result of a single request attempt.
type Outcome struct {
	StatusCode int
	Latency    time.Duration
	Category   FailureCategory
	Err        error
}

// Success reports whether the request completed with a response.
// Non-2xx responses still count as completed; the status code carries the detail.
func (o Outcome) Success() bool {
	return o.Category == FailureNone
}

// Canceled reports whether the request was aborted by caller cancellation.
func (o Outcome) Canceled() bool {
	return o.Category == FailureCanceled
}

// FailureLabel returns the error-distribution label for a failed outcome.
func (o Outcome) FailureLabel() string {
	switch o.Category {
	case FailureTimeout:
		return "Timeout"
	case FailureConnection:
		return "Connection Error"
	case FailureHTTP:
		return fmt.Sprintf("HTTP %d", o.StatusCode)
	case FailureUnknown:
		return "Unknown Error"
	}
	return ""
}

// HTTPError represents a response status carried through an error chain.
// The executor itself never produces one, but wrapping requesters may; the
// classifier surfaces the embedded status code.
type HTTPError struct {
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

// Classify converts a request error into a failed Outcome.
// Cancellation is checked first: the HTTP client wraps context.Canceled in a
// *url.Error, which would otherwise read as a connection failure.
func Classify(err error, latency time.Duration) Outcome {
	out := Outcome{Latency: latency, Err: err}

	var httpErr *HTTPError
	switch {
	case errors.Is(err, context.Canceled):
		out.Category = FailureCanceled
	case isTimeout(err):
		out.Category = FailureTimeout
	case errors.As(err, &httpErr):
		out.Category = FailureHTTP
		out.StatusCode = httpErr.StatusCode
	case isConnectionError(err):
		out.Category = FailureConnection
	default:
		out.Category = FailureUnknown
	}
	return out
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isConnectionError(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

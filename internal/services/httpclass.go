package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ClassifyTransportError tags an http.Client.Do failure with the right
// sentinel. Timeouts and connection failures are transient; a canceled
// context is not worth retrying.
func ClassifyTransportError(provider string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Wrap(ErrTransient, "extraction", provider, "request timeout", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(ErrTransient, "extraction", provider, "deadline exceeded", err)
	}
	if errors.Is(err, context.Canceled) {
		return Wrap(ErrPermanent, "extraction", provider, "request canceled", err)
	}
	return Wrap(ErrTransient, "extraction", provider, "http error", err)
}

// ClassifyStatus tags a non-2xx response. 408, 429, and 5xx are transient;
// everything else (auth failures, malformed requests) is permanent. A
// Retry-After header becomes a RetryAfterError hint.
func ClassifyStatus(provider string, status int, body []byte, retryAfterHeader string) error {
	snippet := SummarizeBody(body)
	switch {
	case status == http.StatusRequestTimeout,
		status == http.StatusTooManyRequests,
		status >= http.StatusInternalServerError:
		wrapped := Wrap(ErrTransient, "extraction", provider,
			fmt.Sprintf("http %d", status), errors.New(snippet))
		if delay, ok := ParseRetryAfter(retryAfterHeader); ok {
			return &RetryAfterError{Delay: delay, Err: wrapped}
		}
		return wrapped
	default:
		return Wrap(ErrPermanent, "extraction", provider,
			fmt.Sprintf("http %d", status), errors.New(snippet))
	}
}

// ParseRetryAfter interprets a Retry-After header in either seconds or HTTP
// date form.
func ParseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		if delay := time.Until(when); delay > 0 {
			return delay, true
		}
	}
	return 0, false
}

// SummarizeBody collapses a response body into one bounded line for error
// messages.
func SummarizeBody(body []byte) string {
	clean := strings.Join(strings.Fields(string(body)), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	if clean == "" {
		return "<empty>"
	}
	return clean
}

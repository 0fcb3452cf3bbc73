package services

import (
	"errors"
	"time"
)

// RetryAfterError carries a server-suggested retry delay alongside the
// underlying failure. Gateways prefer this delay over their own backoff.
type RetryAfterError struct {
	Delay time.Duration
	Err   error
}

func (e *RetryAfterError) Error() string {
	if e.Err == nil {
		return "retry after " + e.Delay.String()
	}
	return e.Err.Error()
}

func (e *RetryAfterError) Unwrap() error { return e.Err }

// RetryAfterHint extracts a server-suggested delay from err, when present.
func RetryAfterHint(err error) (time.Duration, bool) {
	var hint *RetryAfterError
	if errors.As(err, &hint) && hint.Delay > 0 {
		return hint.Delay, true
	}
	return 0, false
}

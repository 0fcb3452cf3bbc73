package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrImageProcessing marks unreadable or unsupported input images.
	// Fatal for the affected invoice; no provider call is attempted.
	ErrImageProcessing = errors.New("image processing error")
	// ErrTransient marks failures worth retrying on the same provider
	// (timeouts, rate limits, 5xx responses).
	ErrTransient = errors.New("transient provider error")
	// ErrPermanent marks failures where retrying the same provider cannot
	// help (auth failures, malformed requests).
	ErrPermanent = errors.New("permanent provider error")
	// ErrParse marks unparsable provider payloads; treated as transient.
	ErrParse = errors.New("response parse error")
	// ErrConfiguration marks invalid or missing configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrPipelineFatal marks an invoice whose provider chain is exhausted.
	ErrPipelineFatal = errors.New("pipeline fatal error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later routing. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsRetryable reports whether the gateway should retry the same provider.
// Parse failures count as retryable per the extraction contract.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrParse)
}

// IsPermanent reports whether the gateway should skip retries and fail over
// immediately.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent)
}

// IsFatal reports whether the failure ends the invoice without any provider
// call (or after both providers are exhausted).
func IsFatal(err error) bool {
	return errors.Is(err, ErrImageProcessing) || errors.Is(err, ErrPipelineFatal)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

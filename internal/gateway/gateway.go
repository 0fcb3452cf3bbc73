package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fatura/internal/imageprep"
	"fatura/internal/invoice"
	"fatura/internal/logging"
	"fatura/internal/services"
)

const (
	defaultBackoffBase = 1 * time.Second
	defaultBackoffMax  = 10 * time.Second
	defaultMaxRetries  = 2
)

// Provider is a single LLM backend capable of vision extraction. One Extract
// call is one attempt; the gateway owns retries and failover.
type Provider interface {
	Name() string
	Model() string
	Extract(ctx context.Context, images []imageprep.ProcessedImage, prompt string) (string, error)
}

// Config captures the retry and failover policy.
type Config struct {
	// MaxRetries is the number of primary retries after the first attempt.
	// The default of 2 yields three attempts.
	MaxRetries int
	// FallbackMaxRetries is the fallback provider's own retry budget.
	// Zero means a single attempt; negative selects the default.
	FallbackMaxRetries int
	// BackoffBase is the first retry delay; each retry doubles it.
	BackoffBase time.Duration
	// BackoffMax caps both computed backoff and server Retry-After hints.
	BackoffMax time.Duration
	// InvoiceDeadline bounds one Extract call across both providers.
	// Zero disables the deadline.
	InvoiceDeadline time.Duration
}

// Attempt records one provider call for diagnostics.
type Attempt struct {
	Provider invoice.ProviderRole `json:"provider"`
	Name     string               `json:"name"`
	Attempt  int                  `json:"attempt"`
	Error    string               `json:"error,omitempty"`
}

// Outcome is a successful extraction: validated-parseable JSON plus
// provenance metadata.
type Outcome struct {
	RawJSON      string
	Provider     invoice.ProviderRole
	ProviderName string
	Model        string
	LatencyMS    int64
	Attempts     []Attempt
}

// Gateway drives the primary provider with retries and fails over to the
// fallback at most once.
type Gateway struct {
	primary  Provider
	fallback Provider
	cfg      Config
	logger   *slog.Logger
	sleeper  func(time.Duration)
}

// Option customizes the gateway.
type Option func(*Gateway)

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(g *Gateway) {
		if sleeper != nil {
			g.sleeper = sleeper
		}
	}
}

// New constructs a Gateway. fallback may be nil, in which case primary
// exhaustion is terminal.
func New(primary, fallback Provider, cfg Config, logger *slog.Logger, opts ...Option) *Gateway {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.FallbackMaxRetries < 0 {
		cfg.FallbackMaxRetries = defaultMaxRetries
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = defaultBackoffBase
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = defaultBackoffMax
	}
	g := &Gateway{
		primary:  primary,
		fallback: fallback,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Extract runs the provider chain: primary with retries, then at most one
// hop to the fallback with its own retry budget. The returned Outcome
// carries syntactically valid JSON; semantic checks belong to the validator.
func (g *Gateway) Extract(ctx context.Context, images []imageprep.ProcessedImage, prompt string) (*Outcome, error) {
	if g.primary == nil {
		return nil, services.Wrap(services.ErrConfiguration, "extraction", "gateway", "no primary provider", nil)
	}
	if len(images) == 0 {
		return nil, services.Wrap(services.ErrPermanent, "extraction", "gateway", "no images to submit", nil)
	}

	if g.cfg.InvoiceDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.InvoiceDeadline)
		defer cancel()
	}

	start := time.Now()
	var attempts []Attempt

	raw, err := g.runProvider(ctx, invoice.RolePrimary, g.primary, images, prompt, g.cfg.MaxRetries, &attempts)
	if err == nil {
		return g.outcome(raw, invoice.RolePrimary, g.primary, start, attempts), nil
	}

	if g.fallback == nil {
		return nil, g.terminal(err, attempts)
	}

	g.logger.Warn("primary provider exhausted, failing over",
		logging.String(logging.FieldProvider, g.primary.Name()),
		logging.Error(err),
	)

	raw, fallbackErr := g.runProvider(ctx, invoice.RoleFallback, g.fallback, images, prompt, g.cfg.FallbackMaxRetries, &attempts)
	if fallbackErr == nil {
		return g.outcome(raw, invoice.RoleFallback, g.fallback, start, attempts), nil
	}

	return nil, g.terminal(errors.Join(err, fallbackErr), attempts)
}

func (g *Gateway) outcome(raw string, role invoice.ProviderRole, p Provider, start time.Time, attempts []Attempt) *Outcome {
	out := &Outcome{
		RawJSON:      raw,
		Provider:     role,
		ProviderName: p.Name(),
		Model:        p.Model(),
		LatencyMS:    time.Since(start).Milliseconds(),
		Attempts:     attempts,
	}
	g.logger.Info("extraction complete",
		logging.String(logging.FieldProvider, string(role)),
		logging.String("model", out.Model),
		logging.Int("attempts", len(attempts)+1),
		logging.Int64("latency_ms", out.LatencyMS),
	)
	return out
}

func (g *Gateway) terminal(err error, attempts []Attempt) error {
	summary := make([]string, 0, len(attempts))
	for _, a := range attempts {
		summary = append(summary, fmt.Sprintf("%s#%d: %s", a.Name, a.Attempt, a.Error))
	}
	detail := "all providers exhausted"
	if len(summary) > 0 {
		detail = fmt.Sprintf("all providers exhausted (%s)", strings.Join(summary, "; "))
	}
	return services.Wrap(services.ErrPipelineFatal, "extraction", "gateway", detail, err)
}

// runProvider drives one provider through its retry budget. Only retryable
// failures consume retries; a permanent error returns immediately so the
// caller can fail over.
func (g *Gateway) runProvider(ctx context.Context, role invoice.ProviderRole, p Provider, images []imageprep.ProcessedImage, prompt string, maxRetries int, attempts *[]Attempt) (string, error) {
	maxAttempts := maxRetries + 1
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		content, err := p.Extract(ctx, images, prompt)
		if err == nil {
			raw, parseErr := DecodeJSONPayload(content)
			if parseErr == nil {
				return raw, nil
			}
			err = services.Wrap(services.ErrParse, "extraction", p.Name(), "unparseable payload", parseErr)
		}

		lastErr = err
		*attempts = append(*attempts, Attempt{
			Provider: role,
			Name:     p.Name(),
			Attempt:  attempt,
			Error:    err.Error(),
		})

		if !services.IsRetryable(err) || attempt == maxAttempts || ctx.Err() != nil {
			return "", err
		}

		delay := g.backoffDelay(attempt)
		if hint, ok := services.RetryAfterHint(err); ok {
			delay = g.capDelay(hint)
		}
		g.logger.Debug("retrying provider",
			logging.String(logging.FieldProvider, p.Name()),
			logging.Int("attempt", attempt),
			logging.Duration("delay", delay),
			logging.Error(err),
		)
		if err := g.sleep(ctx, delay); err != nil {
			return "", services.Wrap(services.ErrTransient, "extraction", p.Name(), "retry interrupted", errors.Join(err, lastErr))
		}
	}

	return "", lastErr
}

// backoffDelay doubles the base per retry: attempt 1 -> base, attempt 2 ->
// base*2, attempt 3 -> base*4.
func (g *Gateway) backoffDelay(attempt int) time.Duration {
	delay := g.cfg.BackoffBase
	for i := 1; i < attempt; i++ {
		if delay > g.cfg.BackoffMax/2 {
			return g.cfg.BackoffMax
		}
		delay *= 2
	}
	return g.capDelay(delay)
}

func (g *Gateway) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if delay > g.cfg.BackoffMax {
		return g.cfg.BackoffMax
	}
	return delay
}

func (g *Gateway) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if g.sleeper != nil {
		g.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

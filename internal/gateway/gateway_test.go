package gateway

import (
	"context"
	"strings"
	"testing"
	"time"

	"fatura/internal/imageprep"
	"fatura/internal/invoice"
	"fatura/internal/services"
)

type stubProvider struct {
	name      string
	model     string
	responses []stubResponse
	calls     int
}

type stubResponse struct {
	content string
	err     error
}

func (p *stubProvider) Name() string  { return p.name }
func (p *stubProvider) Model() string { return p.model }

func (p *stubProvider) Extract(ctx context.Context, images []imageprep.ProcessedImage, prompt string) (string, error) {
	if p.calls >= len(p.responses) {
		return "", services.Wrap(services.ErrPermanent, "extraction", p.name, "no scripted response", nil)
	}
	resp := p.responses[p.calls]
	p.calls++
	return resp.content, resp.err
}

func transientErr(name string) error {
	return services.Wrap(services.ErrTransient, "extraction", name, "http 503", nil)
}

func permanentErr(name string) error {
	return services.Wrap(services.ErrPermanent, "extraction", name, "http 401", nil)
}

func testImages() []imageprep.ProcessedImage {
	return []imageprep.ProcessedImage{{Format: "png", Content: []byte("img")}}
}

func noSleep(time.Duration) {}

func newTestGateway(primary, fallback Provider) *Gateway {
	return New(primary, fallback, Config{MaxRetries: 2, FallbackMaxRetries: 2, BackoffBase: time.Second}, nil, WithSleeper(noSleep))
}

func TestExtractPrimarySucceeds(t *testing.T) {
	primary := &stubProvider{name: "gemini", model: "gemini-2.0-flash",
		responses: []stubResponse{{content: `{"invoice_id":"UE-2025-001234"}`}}}
	fallback := &stubProvider{name: "openrouter"}

	out, err := newTestGateway(primary, fallback).Extract(context.Background(), testImages(), "prompt")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if out.Provider != invoice.RolePrimary || out.ProviderName != "gemini" {
		t.Errorf("provider = %s/%s", out.Provider, out.ProviderName)
	}
	if fallback.calls != 0 {
		t.Error("fallback should not be called")
	}
}

func TestExtractRetriesTransientThenSucceeds(t *testing.T) {
	var delays []time.Duration
	primary := &stubProvider{name: "gemini", responses: []stubResponse{
		{err: transientErr("gemini")},
		{err: transientErr("gemini")},
		{content: `{"ok":true}`},
	}}
	g := New(primary, nil, Config{MaxRetries: 2, BackoffBase: time.Second}, nil,
		WithSleeper(func(d time.Duration) { delays = append(delays, d) }))

	out, err := g.Extract(context.Background(), testImages(), "prompt")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if primary.calls != 3 {
		t.Errorf("calls = %d, want 3", primary.calls)
	}
	if len(delays) != 2 || delays[0] != time.Second || delays[1] != 2*time.Second {
		t.Errorf("delays = %v, want [1s 2s]", delays)
	}
	if len(out.Attempts) != 2 {
		t.Errorf("attempt records = %d, want 2 failures", len(out.Attempts))
	}
}

func TestExtractFailsOverAfterExhaustion(t *testing.T) {
	primary := &stubProvider{name: "gemini", responses: []stubResponse{
		{err: transientErr("gemini")},
		{err: transientErr("gemini")},
		{err: transientErr("gemini")},
	}}
	fallback := &stubProvider{name: "openrouter", model: "anthropic/claude-3.5-sonnet",
		responses: []stubResponse{{content: `{"invoice_id":"DD-2025-000001"}`}}}

	out, err := newTestGateway(primary, fallback).Extract(context.Background(), testImages(), "prompt")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if out.Provider != invoice.RoleFallback {
		t.Errorf("provider = %s, want fallback", out.Provider)
	}
	if primary.calls != 3 || fallback.calls != 1 {
		t.Errorf("calls = %d/%d, want 3/1", primary.calls, fallback.calls)
	}
}

func TestExtractFallbackUsesOwnRetryBudget(t *testing.T) {
	primary := &stubProvider{name: "gemini", responses: []stubResponse{{err: permanentErr("gemini")}}}
	fallback := &stubProvider{name: "openrouter", responses: []stubResponse{
		{err: transientErr("openrouter")},
		{content: `{"ok":true}`},
	}}

	g := New(primary, fallback, Config{MaxRetries: 0, FallbackMaxRetries: 1, BackoffBase: time.Second}, nil, WithSleeper(noSleep))
	out, err := g.Extract(context.Background(), testImages(), "prompt")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if out.Provider != invoice.RoleFallback {
		t.Errorf("provider = %s, want fallback", out.Provider)
	}
	if fallback.calls != 2 {
		t.Errorf("fallback calls = %d, want 2", fallback.calls)
	}
}

func TestExtractZeroFallbackRetriesMeansOneAttempt(t *testing.T) {
	primary := &stubProvider{name: "gemini", responses: []stubResponse{{err: permanentErr("gemini")}}}
	fallback := &stubProvider{name: "openrouter", responses: []stubResponse{
		{err: transientErr("openrouter")},
		{content: `{"ok":true}`},
	}}

	g := New(primary, fallback, Config{MaxRetries: 0, FallbackMaxRetries: 0, BackoffBase: time.Second}, nil, WithSleeper(noSleep))
	if _, err := g.Extract(context.Background(), testImages(), "prompt"); err == nil {
		t.Fatal("expected terminal error")
	}
	if fallback.calls != 1 {
		t.Errorf("fallback calls = %d, want 1", fallback.calls)
	}
}

func TestExtractPermanentSkipsRetries(t *testing.T) {
	primary := &stubProvider{name: "gemini", responses: []stubResponse{{err: permanentErr("gemini")}}}
	fallback := &stubProvider{name: "openrouter",
		responses: []stubResponse{{content: `{"ok":true}`}}}

	out, err := newTestGateway(primary, fallback).Extract(context.Background(), testImages(), "prompt")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if primary.calls != 1 {
		t.Errorf("primary calls = %d, want 1 (no retries on permanent)", primary.calls)
	}
	if out.Provider != invoice.RoleFallback {
		t.Errorf("provider = %s", out.Provider)
	}
}

func TestExtractParseFailureIsRetried(t *testing.T) {
	primary := &stubProvider{name: "gemini", responses: []stubResponse{
		{content: "I could not find an invoice"},
		{content: "```json\n{\"invoice_id\":\"UE-2025-001234\"}\n```"},
	}}

	out, err := newTestGateway(primary, nil).Extract(context.Background(), testImages(), "prompt")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if primary.calls != 2 {
		t.Errorf("calls = %d, want 2", primary.calls)
	}
	if !strings.Contains(out.RawJSON, "UE-2025-001234") || strings.Contains(out.RawJSON, "```") {
		t.Errorf("raw json = %q", out.RawJSON)
	}
}

func TestExtractBothProvidersFailIsFatal(t *testing.T) {
	primary := &stubProvider{name: "gemini", responses: []stubResponse{
		{err: transientErr("gemini")},
		{err: transientErr("gemini")},
		{err: transientErr("gemini")},
	}}
	fallback := &stubProvider{name: "openrouter", responses: []stubResponse{
		{err: transientErr("openrouter")},
		{err: transientErr("openrouter")},
		{err: transientErr("openrouter")},
	}}

	_, err := newTestGateway(primary, fallback).Extract(context.Background(), testImages(), "prompt")
	if err == nil {
		t.Fatal("expected terminal error")
	}
	if !services.IsFatal(err) {
		t.Errorf("error should be fatal: %v", err)
	}
	for _, name := range []string{"gemini", "openrouter"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("terminal error missing %s history: %v", name, err)
		}
	}
}

func TestExtractHonorsRetryAfterHint(t *testing.T) {
	var delays []time.Duration
	hinted := &services.RetryAfterError{Delay: 4 * time.Second, Err: transientErr("gemini")}
	primary := &stubProvider{name: "gemini", responses: []stubResponse{
		{err: hinted},
		{content: `{"ok":true}`},
	}}
	g := New(primary, nil, Config{MaxRetries: 2, BackoffBase: time.Second, BackoffMax: 10 * time.Second}, nil,
		WithSleeper(func(d time.Duration) { delays = append(delays, d) }))

	if _, err := g.Extract(context.Background(), testImages(), "prompt"); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(delays) != 1 || delays[0] != 4*time.Second {
		t.Errorf("delays = %v, want [4s]", delays)
	}
}

func TestExtractNoFallbackIsTerminal(t *testing.T) {
	primary := &stubProvider{name: "gemini", responses: []stubResponse{{err: permanentErr("gemini")}}}

	_, err := newTestGateway(primary, nil).Extract(context.Background(), testImages(), "prompt")
	if err == nil {
		t.Fatal("expected error")
	}
	if !services.IsFatal(err) {
		t.Errorf("error should be fatal without fallback: %v", err)
	}
}

func TestDecodeJSONPayload(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"plain", `{"a":1}`, `{"a":1}`, true},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{"fenced no lang", "```\n{\"a\":1}\n```", `{"a":1}`, true},
		{"leading prose", "Here is the result: {\"a\":1}", `{"a":1}`, true},
		{"empty", "", "", false},
		{"prose only", "no json here", "", false},
		{"truncated", `{"a":`, "", false},
	}
	for _, tc := range cases {
		got, err := DecodeJSONPayload(tc.input)
		if tc.ok && err != nil {
			t.Errorf("%s: %v", tc.name, err)
			continue
		}
		if !tc.ok {
			if err == nil {
				t.Errorf("%s: expected error, got %q", tc.name, got)
			}
			continue
		}
		if got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

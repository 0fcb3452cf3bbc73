package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fatura/internal/imageprep"
	"fatura/internal/services"
)

func testImages() []imageprep.ProcessedImage {
	return []imageprep.ProcessedImage{
		{PageIndex: 0, Width: 10, Height: 10, Format: "png", Content: []byte("page-one")},
	}
}

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		APIKey:          "test-key",
		BaseURL:         baseURL,
		Model:           "gemini-2.0-flash",
		Temperature:     0.1,
		MaxOutputTokens: 4096,
	})
}

func TestExtractSuccess(t *testing.T) {
	var captured struct {
		path   string
		apiKey string
		body   map[string]any
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.apiKey = r.Header.Get("x-goog-api-key")
		if err := json.NewDecoder(r.Body).Decode(&captured.body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"invoice_id\":\"UE-2025-001234\"}"}]},"finishReason":"STOP"}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	content, err := client.Extract(context.Background(), testImages(), "extract this invoice")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(content, "UE-2025-001234") {
		t.Errorf("content = %q", content)
	}
	if !strings.Contains(captured.path, "gemini-2.0-flash:generateContent") {
		t.Errorf("path = %q", captured.path)
	}
	if captured.apiKey != "test-key" {
		t.Errorf("api key header = %q", captured.apiKey)
	}
	contents, _ := captured.body["contents"].([]any)
	if len(contents) != 1 {
		t.Fatalf("contents = %v", captured.body["contents"])
	}
	first, _ := contents[0].(map[string]any)
	parts, _ := first["parts"].([]any)
	if len(parts) != 2 {
		t.Fatalf("parts = %d, want prompt + one image", len(parts))
	}
}

func TestExtractTransientStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Extract(context.Background(), testImages(), "prompt")
	if err == nil {
		t.Fatal("expected error")
	}
	if !services.IsRetryable(err) {
		t.Errorf("503 should be retryable: %v", err)
	}
}

func TestExtractPermanentStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Extract(context.Background(), testImages(), "prompt")
	if err == nil {
		t.Fatal("expected error")
	}
	if !services.IsPermanent(err) {
		t.Errorf("401 should be permanent: %v", err)
	}
}

func TestExtractRetryAfterHint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Extract(context.Background(), testImages(), "prompt")
	if err == nil {
		t.Fatal("expected error")
	}
	delay, ok := services.RetryAfterHint(err)
	if !ok || delay != 7*time.Second {
		t.Errorf("retry hint = %v %v, want 7s", delay, ok)
	}
}

func TestExtractEmptyCandidatesIsParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Extract(context.Background(), testImages(), "prompt")
	if err == nil {
		t.Fatal("expected error")
	}
	if !services.IsRetryable(err) {
		t.Errorf("empty candidates should be retryable: %v", err)
	}
}

func TestExtractRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{})
	_, err := client.Extract(context.Background(), testImages(), "prompt")
	if err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestExtractRequiresImages(t *testing.T) {
	client := NewClient(Config{APIKey: "key"})
	_, err := client.Extract(context.Background(), nil, "prompt")
	if err == nil {
		t.Fatal("expected error without images")
	}
	if !services.IsPermanent(err) {
		t.Errorf("missing images should be permanent: %v", err)
	}
}

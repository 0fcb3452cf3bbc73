package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fatura/internal/imageprep"
	"fatura/internal/services"
)

const (
	defaultBaseURL     = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel       = "gemini-2.0-flash"
	defaultHTTPTimeout = 30 * time.Second
)

// Config captures the runtime settings required to talk to the Gemini API.
type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	TimeoutSeconds  int
	Temperature     float64
	MaxOutputTokens int
}

// Client wraps the Gemini generateContent API for vision extraction.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a Gemini client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:          strings.TrimSpace(cfg.APIKey),
			BaseURL:         strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:           strings.TrimSpace(cfg.Model),
			TimeoutSeconds:  cfg.TimeoutSeconds,
			Temperature:     cfg.Temperature,
			MaxOutputTokens: cfg.MaxOutputTokens,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.cfg.Model == "" {
		client.cfg.Model = defaultModel
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// Name identifies the provider in logs and results.
func (c *Client) Name() string { return "gemini" }

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.cfg.Model }

type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Extract submits the prompt and normalized pages and returns the raw model
// text. One call is one attempt; retry policy lives with the caller.
func (c *Client) Extract(ctx context.Context, images []imageprep.ProcessedImage, prompt string) (string, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return "", services.Wrap(services.ErrConfiguration, "extraction", "gemini", "api key required", nil)
	}
	if strings.TrimSpace(prompt) == "" {
		return "", services.Wrap(services.ErrPermanent, "extraction", "gemini", "prompt required", nil)
	}
	if len(images) == 0 {
		return "", services.Wrap(services.ErrPermanent, "extraction", "gemini", "at least one image required", nil)
	}

	parts := make([]part, 0, len(images)+1)
	parts = append(parts, part{Text: prompt})
	for _, img := range images {
		parts = append(parts, part{InlineData: &inlineData{
			MimeType: "image/" + img.Format,
			Data:     base64.StdEncoding.EncodeToString(img.Content),
		}})
	}

	payload := generateContentRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: &generationConfig{
			Temperature:      c.cfg.Temperature,
			MaxOutputTokens:  c.cfg.MaxOutputTokens,
			ResponseMimeType: "application/json",
		},
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.cfg.BaseURL, url.PathEscape(c.cfg.Model))
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", services.Wrap(services.ErrPermanent, "extraction", "gemini", "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", services.Wrap(services.ErrPermanent, "extraction", "gemini", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.ClassifyTransportError("gemini", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "extraction", "gemini", "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", services.ClassifyStatus("gemini", resp.StatusCode, body, resp.Header.Get("Retry-After"))
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", services.Wrap(services.ErrParse, "extraction", "gemini", "decode response", err)
	}
	if decoded.Error != nil {
		return "", services.Wrap(services.ErrPermanent, "extraction", "gemini",
			fmt.Sprintf("api error %s", decoded.Error.Status), errors.New(decoded.Error.Message))
	}

	for _, candidate := range decoded.Candidates {
		var builder strings.Builder
		for _, p := range candidate.Content.Parts {
			builder.WriteString(p.Text)
		}
		if text := strings.TrimSpace(builder.String()); text != "" {
			return text, nil
		}
	}
	return "", services.Wrap(services.ErrParse, "extraction", "gemini", "empty candidates", nil)
}

// HealthCheck verifies the API key and model are usable with a minimal
// text-only request.
func (c *Client) HealthCheck(ctx context.Context) error {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return services.Wrap(services.ErrConfiguration, "extraction", "gemini", "api key required", nil)
	}
	payload := generateContentRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: `Respond with {"ok":true}`}}}},
		GenerationConfig: &generationConfig{
			ResponseMimeType: "application/json",
		},
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.cfg.BaseURL, url.PathEscape(c.cfg.Model))
	encoded, err := json.Marshal(payload)
	if err != nil {
		return services.Wrap(services.ErrPermanent, "extraction", "gemini", "encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return services.Wrap(services.ErrPermanent, "extraction", "gemini", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.ClassifyTransportError("gemini", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return services.ClassifyStatus("gemini", resp.StatusCode, body, resp.Header.Get("Retry-After"))
	}
	return nil
}

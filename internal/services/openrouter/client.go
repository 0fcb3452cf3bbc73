package openrouter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"fatura/internal/imageprep"
	"fatura/internal/services"
)

const (
	defaultBaseURL     = "https://openrouter.ai/api/v1/chat/completions"
	defaultModel       = "anthropic/claude-3.5-sonnet"
	defaultHTTPTimeout = 30 * time.Second
)

// Config captures the runtime settings required to talk to OpenRouter.
type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	Referer         string
	Title           string
	TimeoutSeconds  int
	Temperature     float64
	MaxOutputTokens int
}

// Client wraps the OpenRouter chat completion API for vision extraction.
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

// NewClient constructs an OpenRouter client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:          strings.TrimSpace(cfg.APIKey),
			BaseURL:         strings.TrimSpace(cfg.BaseURL),
			Model:           strings.TrimSpace(cfg.Model),
			Referer:         strings.TrimSpace(cfg.Referer),
			Title:           strings.TrimSpace(cfg.Title),
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
func (c *Client) Name() string { return "openrouter" }

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.cfg.Model }

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		// Some providers return the streaming schema even when stream=false.
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Extract submits the prompt and normalized pages and returns the raw model
// text. One call is one attempt; retry policy lives with the caller.
func (c *Client) Extract(ctx context.Context, images []imageprep.ProcessedImage, prompt string) (string, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return "", services.Wrap(services.ErrConfiguration, "extraction", "openrouter", "api key required", nil)
	}
	if strings.TrimSpace(prompt) == "" {
		return "", services.Wrap(services.ErrPermanent, "extraction", "openrouter", "prompt required", nil)
	}
	if len(images) == 0 {
		return "", services.Wrap(services.ErrPermanent, "extraction", "openrouter", "at least one image required", nil)
	}

	parts := make([]contentPart, 0, len(images)+1)
	parts = append(parts, contentPart{Type: "text", Text: prompt})
	for _, img := range images {
		parts = append(parts, contentPart{
			Type: "image_url",
			ImageURL: &imageURL{
				URL: "data:image/" + img.Format + ";base64," + base64.StdEncoding.EncodeToString(img.Content),
			},
		})
	}

	payload := chatCompletionRequest{
		Model:          c.cfg.Model,
		Messages:       []chatMessage{{Role: "user", Content: parts}},
		Temperature:    c.cfg.Temperature,
		MaxTokens:      c.cfg.MaxOutputTokens,
		ResponseFormat: map[string]string{"type": "json_object"},
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", services.Wrap(services.ErrPermanent, "extraction", "openrouter", "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return "", services.Wrap(services.ErrPermanent, "extraction", "openrouter", "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
		req.Header.Set("Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.ClassifyTransportError("openrouter", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "extraction", "openrouter", "read response", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", services.ClassifyStatus("openrouter", resp.StatusCode, body, resp.Header.Get("Retry-After"))
	}

	var decoded chatCompletionResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", services.Wrap(services.ErrParse, "extraction", "openrouter", "decode response", err)
	}
	if decoded.Error != nil {
		return "", services.Wrap(services.ErrPermanent, "extraction", "openrouter", "api error", errors.New(decoded.Error.Message))
	}

	for _, choice := range decoded.Choices {
		for _, candidate := range []string{choice.Message.Content, choice.Delta.Content, choice.Text} {
			if text := strings.TrimSpace(candidate); text != "" {
				return text, nil
			}
		}
		if refusal := strings.TrimSpace(choice.Message.Refusal); refusal != "" {
			return "", services.Wrap(services.ErrPermanent, "extraction", "openrouter", "model refused", errors.New(refusal))
		}
	}
	return "", services.Wrap(services.ErrParse, "extraction", "openrouter", "empty choices", nil)
}

package pipeline

import (
	"log/slog"
	"time"

	"fatura/internal/config"
	"fatura/internal/gateway"
	"fatura/internal/services/gemini"
	"fatura/internal/services/openrouter"
)

// NewGateway builds the provider chain from configuration: Gemini primary,
// OpenRouter fallback when credentials are present.
func NewGateway(cfg *config.Config, logger *slog.Logger) *gateway.Gateway {
	primary := gemini.NewClient(gemini.Config{
		APIKey:          cfg.Gemini.APIKey,
		BaseURL:         cfg.Gemini.BaseURL,
		Model:           cfg.Gemini.Model,
		TimeoutSeconds:  cfg.Gemini.TimeoutSeconds,
		Temperature:     cfg.Extraction.Temperature,
		MaxOutputTokens: cfg.Extraction.MaxOutputTokens,
	})

	var fallback gateway.Provider
	if cfg.OpenRouter.APIKey != "" {
		fallback = openrouter.NewClient(openrouter.Config{
			APIKey:          cfg.OpenRouter.APIKey,
			BaseURL:         cfg.OpenRouter.BaseURL,
			Model:           cfg.OpenRouter.Model,
			Referer:         cfg.OpenRouter.Referer,
			Title:           cfg.OpenRouter.Title,
			TimeoutSeconds:  cfg.OpenRouter.TimeoutSeconds,
			Temperature:     cfg.Extraction.Temperature,
			MaxOutputTokens: cfg.Extraction.MaxOutputTokens,
		})
	}

	return gateway.New(primary, fallback, gateway.Config{
		MaxRetries:         cfg.Gemini.MaxRetries,
		FallbackMaxRetries: cfg.OpenRouter.MaxRetries,
		InvoiceDeadline:    time.Duration(cfg.Extraction.InvoiceDeadlineSeconds) * time.Second,
	}, logger)
}

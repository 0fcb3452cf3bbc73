package config

import (
	"fmt"
	"strings"

	"fatura/internal/invoice"
)

// Validate checks structural correctness of the configuration. Credential
// presence is checked later, only by the commands that call providers, so
// offline commands keep working without keys.
func (c *Config) Validate() error {
	var problems []string

	if c.Gemini.TimeoutSeconds <= 0 {
		problems = append(problems, "gemini.timeout_seconds must be positive")
	}
	if c.Gemini.MaxRetries < 0 {
		problems = append(problems, "gemini.max_retries cannot be negative")
	}
	if c.OpenRouter.TimeoutSeconds <= 0 {
		problems = append(problems, "openrouter.timeout_seconds must be positive")
	}
	if c.OpenRouter.MaxRetries < 0 {
		problems = append(problems, "openrouter.max_retries cannot be negative")
	}

	if _, ok := invoice.ParseVendorType(c.Extraction.DefaultVendor); !ok {
		problems = append(problems, fmt.Sprintf("extraction.default_vendor %q is not a known vendor", c.Extraction.DefaultVendor))
	}
	if c.Extraction.Temperature < 0 || c.Extraction.Temperature > 2 {
		problems = append(problems, "extraction.temperature must be between 0 and 2")
	}
	if c.Extraction.MaxOutputTokens <= 0 {
		problems = append(problems, "extraction.max_output_tokens must be positive")
	}
	if c.Extraction.LLMConfidenceDefault < 0 || c.Extraction.LLMConfidenceDefault > 1 {
		problems = append(problems, "extraction.llm_confidence_default must be between 0 and 1")
	}
	if c.Extraction.InvoiceDeadlineSeconds < 0 {
		problems = append(problems, "extraction.invoice_deadline_seconds cannot be negative")
	}
	if c.Extraction.MaxImageEdge <= 0 {
		problems = append(problems, "extraction.max_image_edge must be positive")
	}

	if c.Batch.Workers < 1 {
		problems = append(problems, "batch.workers must be at least 1")
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q must be console or json", c.Logging.Format))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level %q must be debug, info, warn, or error", c.Logging.Level))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// RequireGeminiKey reports an error when the primary provider has no
// credential configured.
func (c *Config) RequireGeminiKey() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("gemini.api_key is not set; configure it or export GEMINI_API_KEY")
	}
	return nil
}

// RequireOpenRouterKey reports an error when the fallback provider has no
// credential configured.
func (c *Config) RequireOpenRouterKey() error {
	if c.OpenRouter.APIKey == "" {
		return fmt.Errorf("openrouter.api_key is not set; configure it or export OPENROUTER_API_KEY")
	}
	return nil
}

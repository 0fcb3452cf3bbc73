package config

import (
	"os"
	"strings"
)

// normalize fills empty fields with defaults, expands filesystem paths, and
// applies credential environment fallbacks. Runs after decode, before
// validation.
func (c *Config) normalize() error {
	defaults := Default()

	c.Paths.OutputDir = fallback(c.Paths.OutputDir, defaults.Paths.OutputDir)
	c.Paths.ProcessedDir = fallback(c.Paths.ProcessedDir, defaults.Paths.ProcessedDir)
	c.Paths.ErrorsDir = fallback(c.Paths.ErrorsDir, defaults.Paths.ErrorsDir)
	c.Paths.LogDir = fallback(c.Paths.LogDir, defaults.Paths.LogDir)
	c.Paths.DataDir = fallback(c.Paths.DataDir, defaults.Paths.DataDir)
	c.Paths.TemplatesDir = strings.TrimSpace(c.Paths.TemplatesDir)

	for _, dir := range []*string{
		&c.Paths.OutputDir,
		&c.Paths.ProcessedDir,
		&c.Paths.ErrorsDir,
		&c.Paths.LogDir,
		&c.Paths.DataDir,
	} {
		expanded, err := expandPath(*dir)
		if err != nil {
			return err
		}
		*dir = expanded
	}
	if c.Paths.TemplatesDir != "" {
		expanded, err := expandPath(c.Paths.TemplatesDir)
		if err != nil {
			return err
		}
		c.Paths.TemplatesDir = expanded
	}

	c.Gemini.APIKey = strings.TrimSpace(c.Gemini.APIKey)
	if c.Gemini.APIKey == "" {
		if key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); key != "" {
			c.Gemini.APIKey = key
		} else if key := strings.TrimSpace(os.Getenv("GOOGLE_API_KEY")); key != "" {
			c.Gemini.APIKey = key
		}
	}
	c.Gemini.BaseURL = strings.TrimRight(fallback(c.Gemini.BaseURL, defaults.Gemini.BaseURL), "/")
	c.Gemini.Model = fallback(c.Gemini.Model, defaults.Gemini.Model)
	if c.Gemini.TimeoutSeconds == 0 {
		c.Gemini.TimeoutSeconds = defaults.Gemini.TimeoutSeconds
	}

	c.OpenRouter.APIKey = strings.TrimSpace(c.OpenRouter.APIKey)
	if c.OpenRouter.APIKey == "" {
		if key := strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY")); key != "" {
			c.OpenRouter.APIKey = key
		}
	}
	c.OpenRouter.BaseURL = fallback(c.OpenRouter.BaseURL, defaults.OpenRouter.BaseURL)
	c.OpenRouter.Model = fallback(c.OpenRouter.Model, defaults.OpenRouter.Model)
	c.OpenRouter.Referer = fallback(c.OpenRouter.Referer, defaults.OpenRouter.Referer)
	c.OpenRouter.Title = fallback(c.OpenRouter.Title, defaults.OpenRouter.Title)
	if c.OpenRouter.TimeoutSeconds == 0 {
		c.OpenRouter.TimeoutSeconds = defaults.OpenRouter.TimeoutSeconds
	}

	c.Extraction.DefaultVendor = strings.ToLower(fallback(c.Extraction.DefaultVendor, defaults.Extraction.DefaultVendor))
	if c.Extraction.MaxOutputTokens == 0 {
		c.Extraction.MaxOutputTokens = defaults.Extraction.MaxOutputTokens
	}
	if c.Extraction.LLMConfidenceDefault == 0 {
		c.Extraction.LLMConfidenceDefault = defaults.Extraction.LLMConfidenceDefault
	}
	if c.Extraction.MaxImageEdge == 0 {
		c.Extraction.MaxImageEdge = defaults.Extraction.MaxImageEdge
	}

	if c.Batch.Workers == 0 {
		c.Batch.Workers = defaults.Batch.Workers
	}

	c.Logging.Format = strings.ToLower(fallback(c.Logging.Format, defaults.Logging.Format))
	c.Logging.Level = strings.ToLower(fallback(c.Logging.Level, defaults.Logging.Level))

	return nil
}

func fallback(value, def string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return def
	}
	return trimmed
}

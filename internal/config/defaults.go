package config

const (
	defaultOutputDir    = "~/.local/share/fatura/output"
	defaultProcessedDir = "~/.local/share/fatura/processed"
	defaultErrorsDir    = "~/.local/share/fatura/errors"
	defaultLogDir       = "~/.local/share/fatura/logs"
	defaultDataDir      = "~/.local/share/fatura"

	defaultGeminiBaseURL        = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel          = "gemini-2.0-flash"
	defaultOpenRouterBaseURL    = "https://openrouter.ai/api/v1/chat/completions"
	defaultOpenRouterModel      = "anthropic/claude-3.5-sonnet"
	defaultOpenRouterReferer    = "https://github.com/fatura-tools/fatura"
	defaultOpenRouterTitle      = "Fatura Invoice Extractor"
	defaultProviderTimeoutSecs  = 30
	defaultProviderMaxRetries   = 2
	defaultVendor               = "generic"
	defaultTemperature          = 0.1
	defaultMaxOutputTokens      = 4096
	defaultLLMConfidenceDefault = 0.8
	defaultMaxImageEdge         = 4096
	defaultBatchWorkers         = 4
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:    defaultOutputDir,
			ProcessedDir: defaultProcessedDir,
			ErrorsDir:    defaultErrorsDir,
			LogDir:       defaultLogDir,
			DataDir:      defaultDataDir,
		},
		Gemini: Gemini{
			BaseURL:        defaultGeminiBaseURL,
			Model:          defaultGeminiModel,
			TimeoutSeconds: defaultProviderTimeoutSecs,
			MaxRetries:     defaultProviderMaxRetries,
		},
		OpenRouter: OpenRouter{
			BaseURL:        defaultOpenRouterBaseURL,
			Model:          defaultOpenRouterModel,
			Referer:        defaultOpenRouterReferer,
			Title:          defaultOpenRouterTitle,
			TimeoutSeconds: defaultProviderTimeoutSecs,
			MaxRetries:     defaultProviderMaxRetries,
		},
		Extraction: Extraction{
			DefaultVendor:        defaultVendor,
			Temperature:          defaultTemperature,
			MaxOutputTokens:      defaultMaxOutputTokens,
			LLMConfidenceDefault: defaultLLMConfidenceDefault,
			MaxImageEdge:         defaultMaxImageEdge,
		},
		Batch: Batch{
			Workers: defaultBatchWorkers,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fjacquet/databonsai/internal/logging"
)

// Supported provider names.
const (
	ProviderOpenAI    = openAIName
	ProviderAnthropic = anthropicName
	ProviderOllama    = ollamaName
	ProviderGemini    = geminiName
)

// Providers lists the accepted values of Config.Provider.
var Providers = []string{ProviderOpenAI, ProviderAnthropic, ProviderOllama, ProviderGemini}

// Config selects and configures a provider.
type Config struct {
	Provider          string
	Model             string
	APIKey            string
	BaseURL           string
	Temperature       float64
	MaxTokens         int
	Timeout           time.Duration
	RequestsPerMinute int
	Retry             RetryPolicy
}

// New builds the configured provider, wrapped with rate limiting and retries.
// The returned Client gives access to Close and Model; the Provider is what
// callers should use.
func New(ctx context.Context, cfg Config, logger logging.Logger) (Provider, *Client, error) {
	if logger == nil {
		logger = logging.GetLogger()
	}

	var (
		client *Client
		err    error
	)
	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		client, err = NewOpenAI(OpenAIConfig{
			APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL,
			Temperature: cfg.Temperature, Timeout: cfg.Timeout,
		}, logger)
	case ProviderAnthropic:
		client, err = NewAnthropic(AnthropicConfig{
			APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL,
			Temperature: cfg.Temperature, Timeout: cfg.Timeout,
		}, logger)
	case ProviderOllama:
		client = NewOllama(OllamaConfig{
			Model: cfg.Model, BaseURL: cfg.BaseURL,
			Temperature: cfg.Temperature, Timeout: cfg.Timeout,
		}, logger)
	case ProviderGemini:
		client, err = NewGemini(ctx, GeminiConfig{
			APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL,
			Temperature: cfg.Temperature,
		}, logger)
	default:
		return nil, nil, fmt.Errorf("unknown provider %q (expected one of %s)", cfg.Provider, strings.Join(Providers, ", "))
	}
	if err != nil {
		return nil, nil, err
	}
	if cfg.MaxTokens > 0 {
		client.maxTokens = cfg.MaxTokens
	}

	logger.Info("LLM provider ready",
		logging.Field{Key: logging.FieldProvider, Value: client.Name()},
		logging.Field{Key: logging.FieldModel, Value: client.Model()},
		logging.Field{Key: "requests_per_minute", Value: cfg.RequestsPerMinute},
		logging.Field{Key: "max_tries", Value: cfg.Retry.MaxTries})

	var p Provider = client
	p = WithRateLimit(p, cfg.RequestsPerMinute)
	p = WithRetry(p, cfg.Retry, logger)
	return p, client, nil
}

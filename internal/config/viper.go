// Package config provides Viper-based hierarchical configuration management
package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"fjacquet/databonsai/internal/apply"
	"fjacquet/databonsai/internal/llm"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Batch modes accepted by batch.mode.
const (
	ModeSingle = "single"
	ModeBatch  = "batch"
	ModeAuto   = "auto"
)

// Modes lists the accepted batch modes.
var Modes = []string{ModeSingle, ModeBatch, ModeAuto}

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
		// File receives the log stream instead of stderr when set.
		File string `mapstructure:"file" yaml:"file"`
	} `mapstructure:"log" yaml:"log"`

	CSV struct {
		Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	} `mapstructure:"csv" yaml:"csv"`

	LLM struct {
		Provider          string  `mapstructure:"provider" yaml:"provider"`
		Model             string  `mapstructure:"model" yaml:"model"`
		Temperature       float64 `mapstructure:"temperature" yaml:"temperature"`
		MaxTokens         int     `mapstructure:"max_tokens" yaml:"max_tokens"`
		BaseURL           string  `mapstructure:"base_url" yaml:"base_url"`
		TimeoutSeconds    int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		RequestsPerMinute int     `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
		APIKey            string  `mapstructure:"api_key" yaml:"-"` // Never serialize API key
	} `mapstructure:"llm" yaml:"llm"`

	// Keys holds the provider-specific API keys read from the environment.
	Keys struct {
		OpenAI    string `mapstructure:"openai" yaml:"-"`
		Anthropic string `mapstructure:"anthropic" yaml:"-"`
		Gemini    string `mapstructure:"gemini" yaml:"-"`
	} `mapstructure:"keys" yaml:"-"`

	Retry struct {
		Multiplier     float64 `mapstructure:"multiplier" yaml:"multiplier"`
		MinWaitSeconds float64 `mapstructure:"min_wait_seconds" yaml:"min_wait_seconds"`
		MaxWaitSeconds float64 `mapstructure:"max_wait_seconds" yaml:"max_wait_seconds"`
		MaxTries       int     `mapstructure:"max_tries" yaml:"max_tries"`
	} `mapstructure:"retry" yaml:"retry"`

	Batch struct {
		Mode              string  `mapstructure:"mode" yaml:"mode"`
		Size              int     `mapstructure:"size" yaml:"size"`
		MaxSize           int     `mapstructure:"max_size" yaml:"max_size"`
		MaxRetries        int     `mapstructure:"max_retries" yaml:"max_retries"`
		RampFactor        float64 `mapstructure:"ramp_factor" yaml:"ramp_factor"`
		RampFactorDecay   float64 `mapstructure:"ramp_factor_decay" yaml:"ramp_factor_decay"`
		ReduceFactor      float64 `mapstructure:"reduce_factor" yaml:"reduce_factor"`
		ReduceFactorDecay float64 `mapstructure:"reduce_factor_decay" yaml:"reduce_factor_decay"`
	} `mapstructure:"batch" yaml:"batch"`

	Progress struct {
		Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	} `mapstructure:"progress" yaml:"progress"`

	Pricing PricingConfig `mapstructure:"pricing" yaml:"pricing"`
}

// InitializeConfig loads the configuration from defaults, the optional
// config.yaml and BONSAI_* environment variables.
func InitializeConfig() (*Config, error) {
	return Load("")
}

// Load is InitializeConfig with an explicit config file. An empty configFile
// searches the standard locations.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.databonsai")
		v.AddConfigPath(".databonsai")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix("BONSAI")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional unless given explicitly)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	// 5. Provider keys come from their usual unprefixed variables
	for key, env := range map[string]string{
		"keys.openai":    "OPENAI_API_KEY",
		"keys.anthropic": "ANTHROPIC_API_KEY",
		"keys.gemini":    "GEMINI_API_KEY",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")

	// CSV defaults
	v.SetDefault("csv.delimiter", ",")

	// LLM defaults; an empty model selects the provider's own default
	v.SetDefault("llm.provider", llm.ProviderOpenAI)
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_tokens", llm.DefaultMaxTokens)
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout_seconds", int(llm.DefaultTimeout/time.Second))
	v.SetDefault("llm.requests_per_minute", 0)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("keys.openai", "")
	v.SetDefault("keys.anthropic", "")
	v.SetDefault("keys.gemini", "")

	// Retry defaults
	retry := llm.DefaultRetryPolicy()
	v.SetDefault("retry.multiplier", retry.Multiplier)
	v.SetDefault("retry.min_wait_seconds", retry.MinWait.Seconds())
	v.SetDefault("retry.max_wait_seconds", retry.MaxWait.Seconds())
	v.SetDefault("retry.max_tries", retry.MaxTries)

	// Batch defaults
	batch := apply.DefaultAutoBatchConfig()
	v.SetDefault("batch.mode", ModeAuto)
	v.SetDefault("batch.size", batch.BatchSize)
	v.SetDefault("batch.max_size", batch.MaxBatchSize)
	v.SetDefault("batch.max_retries", batch.MaxRetries)
	v.SetDefault("batch.ramp_factor", batch.RampFactor)
	v.SetDefault("batch.ramp_factor_decay", batch.RampFactorDecay)
	v.SetDefault("batch.reduce_factor", batch.ReduceFactor)
	v.SetDefault("batch.reduce_factor_decay", batch.ReduceFactorDecay)

	v.SetDefault("progress.enabled", true)

	v.SetDefault("pricing.input_per_million", "")
	v.SetDefault("pricing.output_per_million", "")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if len([]rune(config.CSV.Delimiter)) != 1 {
		return fmt.Errorf("CSV delimiter must be a single character, got: %s", config.CSV.Delimiter)
	}

	if !contains(llm.Providers, strings.ToLower(config.LLM.Provider)) {
		return fmt.Errorf("invalid llm.provider: %s (must be one of %s)", config.LLM.Provider, strings.Join(llm.Providers, ", "))
	}
	if math.IsNaN(config.LLM.Temperature) || config.LLM.Temperature < 0 || config.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2, got: %v", config.LLM.Temperature)
	}
	if config.LLM.MaxTokens < 1 {
		return fmt.Errorf("llm.max_tokens must be positive, got: %d", config.LLM.MaxTokens)
	}
	if config.LLM.TimeoutSeconds < 1 || config.LLM.TimeoutSeconds > 600 {
		return fmt.Errorf("llm.timeout_seconds must be between 1 and 600, got: %d", config.LLM.TimeoutSeconds)
	}
	if config.LLM.RequestsPerMinute < 0 || config.LLM.RequestsPerMinute > 10000 {
		return fmt.Errorf("llm.requests_per_minute must be between 0 and 10000, got: %d", config.LLM.RequestsPerMinute)
	}

	if config.Retry.Multiplier <= 0 {
		return fmt.Errorf("retry.multiplier must be positive, got: %v", config.Retry.Multiplier)
	}
	if config.Retry.MinWaitSeconds < 0 || config.Retry.MaxWaitSeconds < config.Retry.MinWaitSeconds {
		return fmt.Errorf("retry waits must satisfy 0 <= min_wait_seconds <= max_wait_seconds, got: %v, %v",
			config.Retry.MinWaitSeconds, config.Retry.MaxWaitSeconds)
	}
	if config.Retry.MaxTries < 1 {
		return fmt.Errorf("retry.max_tries must be at least 1, got: %d", config.Retry.MaxTries)
	}

	if !contains(Modes, config.Batch.Mode) {
		return fmt.Errorf("invalid batch.mode: %s (must be one of %s)", config.Batch.Mode, strings.Join(Modes, ", "))
	}
	if err := config.AutoBatch().Validate(); err != nil {
		return fmt.Errorf("batch: %w", err)
	}

	if _, err := config.Pricing.Parse(); err != nil {
		return fmt.Errorf("pricing: %w", err)
	}

	return nil
}

// Validate checks the configuration again, for callers that changed it after
// loading (command-line overrides).
func (c *Config) Validate() error {
	if err := validateConfig(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// DelimiterRune returns the CSV delimiter.
func (c *Config) DelimiterRune() rune {
	r := []rune(c.CSV.Delimiter)
	if len(r) == 0 {
		return ','
	}
	return r[0]
}

// APIKey returns llm.api_key when set, otherwise the key of the selected
// provider.
func (c *Config) APIKey() string {
	if c.LLM.APIKey != "" {
		return c.LLM.APIKey
	}
	switch strings.ToLower(c.LLM.Provider) {
	case llm.ProviderOpenAI:
		return c.Keys.OpenAI
	case llm.ProviderAnthropic:
		return c.Keys.Anthropic
	case llm.ProviderGemini:
		return c.Keys.Gemini
	}
	return ""
}

// LLMConfig converts the llm and retry sections for llm.New.
func (c *Config) LLMConfig() llm.Config {
	return llm.Config{
		Provider:          strings.ToLower(c.LLM.Provider),
		Model:             c.LLM.Model,
		APIKey:            c.APIKey(),
		BaseURL:           c.LLM.BaseURL,
		Temperature:       c.LLM.Temperature,
		MaxTokens:         c.LLM.MaxTokens,
		Timeout:           time.Duration(c.LLM.TimeoutSeconds) * time.Second,
		RequestsPerMinute: c.LLM.RequestsPerMinute,
		Retry: llm.RetryPolicy{
			Multiplier: c.Retry.Multiplier,
			MinWait:    seconds(c.Retry.MinWaitSeconds),
			MaxWait:    seconds(c.Retry.MaxWaitSeconds),
			MaxTries:   c.Retry.MaxTries,
		},
	}
}

// AutoBatch converts the batch section for the adaptive driver.
func (c *Config) AutoBatch() apply.AutoBatchConfig {
	return apply.AutoBatchConfig{
		BatchSize:         c.Batch.Size,
		MaxBatchSize:      c.Batch.MaxSize,
		MaxRetries:        c.Batch.MaxRetries,
		RampFactor:        c.Batch.RampFactor,
		RampFactorDecay:   c.Batch.RampFactorDecay,
		ReduceFactor:      c.Batch.ReduceFactor,
		ReduceFactorDecay: c.Batch.ReduceFactorDecay,
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// ConfigureLoggingFromConfig configures logging based on the Config struct
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

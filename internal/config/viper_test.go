package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"fjacquet/databonsai/internal/llm"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeConfig_Defaults(t *testing.T) {
	isolate(t)

	config, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, "text", config.Log.Format)
	assert.Equal(t, ",", config.CSV.Delimiter)
	assert.Equal(t, "openai", config.LLM.Provider)
	assert.Equal(t, "", config.LLM.Model)
	assert.Equal(t, 1000, config.LLM.MaxTokens)
	assert.Equal(t, 60, config.LLM.TimeoutSeconds)
	assert.Equal(t, 0, config.LLM.RequestsPerMinute)
	assert.Equal(t, 1.0, config.Retry.Multiplier)
	assert.Equal(t, 1.0, config.Retry.MinWaitSeconds)
	assert.Equal(t, 60.0, config.Retry.MaxWaitSeconds)
	assert.Equal(t, 10, config.Retry.MaxTries)
	assert.Equal(t, ModeAuto, config.Batch.Mode)
	assert.Equal(t, 5, config.Batch.Size)
	assert.Equal(t, 50, config.Batch.MaxSize)
	assert.Equal(t, 5, config.Batch.MaxRetries)
	assert.Equal(t, 1.5, config.Batch.RampFactor)
	assert.Equal(t, 0.8, config.Batch.RampFactorDecay)
	assert.Equal(t, 0.5, config.Batch.ReduceFactor)
	assert.Equal(t, 0.8, config.Batch.ReduceFactorDecay)
	assert.True(t, config.Progress.Enabled)
	assert.Equal(t, "", config.Pricing.InputPerMillion)
}

func TestInitializeConfig_EnvironmentVariables(t *testing.T) {
	isolate(t)

	testEnvVars := map[string]string{
		"BONSAI_LOG_LEVEL":                 "debug",
		"BONSAI_LOG_FORMAT":                "json",
		"BONSAI_CSV_DELIMITER":             ";",
		"BONSAI_LLM_PROVIDER":              "anthropic",
		"BONSAI_LLM_MODEL":                 "claude-3-haiku-20240307",
		"BONSAI_LLM_REQUESTS_PER_MINUTE":   "15",
		"BONSAI_BATCH_MODE":                "batch",
		"BONSAI_BATCH_SIZE":                "8",
		"BONSAI_PRICING_INPUT_PER_MILLION": "0.25",
		"ANTHROPIC_API_KEY":                "test-api-key",
	}
	for key, value := range testEnvVars {
		t.Setenv(key, value)
	}

	config, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, "json", config.Log.Format)
	assert.Equal(t, ';', config.DelimiterRune())
	assert.Equal(t, "anthropic", config.LLM.Provider)
	assert.Equal(t, "claude-3-haiku-20240307", config.LLM.Model)
	assert.Equal(t, 15, config.LLM.RequestsPerMinute)
	assert.Equal(t, ModeBatch, config.Batch.Mode)
	assert.Equal(t, 8, config.Batch.Size)
	assert.Equal(t, "0.25", config.Pricing.InputPerMillion)
	assert.Equal(t, "test-api-key", config.APIKey())
}

func TestInitializeConfig_ConfigFile(t *testing.T) {
	dir := isolate(t)

	configContent := `
log:
  level: "warn"
  format: "json"
csv:
  delimiter: "|"
llm:
  provider: ollama
  model: llama3
  base_url: http://gpu-box:11434
  temperature: 0.2
retry:
  max_tries: 3
batch:
  size: 10
  max_size: 100
progress:
  enabled: false
pricing:
  input_per_million: "0.15"
  output_per_million: "0.60"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(configContent), 0600))

	config, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "warn", config.Log.Level)
	assert.Equal(t, "json", config.Log.Format)
	assert.Equal(t, "|", config.CSV.Delimiter)
	assert.Equal(t, "ollama", config.LLM.Provider)
	assert.Equal(t, "llama3", config.LLM.Model)
	assert.Equal(t, "http://gpu-box:11434", config.LLM.BaseURL)
	assert.Equal(t, 0.2, config.LLM.Temperature)
	assert.Equal(t, 3, config.Retry.MaxTries)
	assert.Equal(t, 10, config.Batch.Size)
	assert.Equal(t, 100, config.Batch.MaxSize)
	assert.False(t, config.Progress.Enabled)
	assert.Equal(t, "0.60", config.Pricing.OutputPerMillion)
}

func TestInitializeConfig_HierarchicalPrecedence(t *testing.T) {
	dir := isolate(t)

	configContent := `
log:
  level: "warn"
csv:
  delimiter: "|"
llm:
  provider: gemini
  requests_per_minute: 20
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(configContent), 0600))

	t.Setenv("BONSAI_LOG_LEVEL", "error")
	t.Setenv("BONSAI_LLM_REQUESTS_PER_MINUTE", "25")
	t.Setenv("GEMINI_API_KEY", "env-api-key")

	config, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "error", config.Log.Level)
	assert.Equal(t, "|", config.CSV.Delimiter)
	assert.Equal(t, 25, config.LLM.RequestsPerMinute)
	assert.Equal(t, "env-api-key", config.APIKey())
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := isolate(t)
	file := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(file, []byte("log:\n  level: debug\n"), 0600))

	config, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, "debug", config.Log.Level)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidFileIsRejected(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("batch:\n  mode: turbo\n"), 0600))

	_, err := InitializeConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid batch.mode")
}

func TestValidateConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name         string
		modifyConfig func(*Config)
		expectError  string
	}{
		{"invalid log level", func(c *Config) { c.Log.Level = "invalid" }, "invalid log level"},
		{"invalid log format", func(c *Config) { c.Log.Format = "xml" }, "invalid log format"},
		{"invalid CSV delimiter", func(c *Config) { c.CSV.Delimiter = "abc" }, "CSV delimiter must be a single character"},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "watson" }, "invalid llm.provider"},
		{"temperature", func(c *Config) { c.LLM.Temperature = 3 }, "llm.temperature must be between 0 and 2"},
		{"max tokens", func(c *Config) { c.LLM.MaxTokens = 0 }, "llm.max_tokens must be positive"},
		{"timeout", func(c *Config) { c.LLM.TimeoutSeconds = 0 }, "llm.timeout_seconds must be between 1 and 600"},
		{"requests per minute", func(c *Config) { c.LLM.RequestsPerMinute = -1 }, "llm.requests_per_minute"},
		{"retry multiplier", func(c *Config) { c.Retry.Multiplier = 0 }, "retry.multiplier must be positive"},
		{"retry waits", func(c *Config) { c.Retry.MaxWaitSeconds = 0.5 }, "retry waits"},
		{"retry tries", func(c *Config) { c.Retry.MaxTries = 0 }, "retry.max_tries must be at least 1"},
		{"batch mode", func(c *Config) { c.Batch.Mode = "turbo" }, "invalid batch.mode"},
		{"batch size", func(c *Config) { c.Batch.Size = 0 }, "batch"},
		{"ramp factor", func(c *Config) { c.Batch.RampFactor = 0.5 }, "ramp_factor"},
		{"reduce factor", func(c *Config) { c.Batch.ReduceFactor = 1.5 }, "reduce_factor"},
		{"pricing", func(c *Config) { c.Pricing.InputPerMillion = "cheap" }, "pricing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig(t)
			tt.modifyConfig(config)

			err := validateConfig(config)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestConfig_LLMConfig(t *testing.T) {
	config := validConfig(t)
	config.LLM.Provider = "OpenAI"
	config.LLM.TimeoutSeconds = 30
	config.Retry.MinWaitSeconds = 0.5
	config.Keys.OpenAI = "sk-openai"
	config.Keys.Gemini = "gm-key"

	got := config.LLMConfig()

	assert.Equal(t, llm.ProviderOpenAI, got.Provider)
	assert.Equal(t, "sk-openai", got.APIKey)
	assert.Equal(t, 30*time.Second, got.Timeout)
	assert.Equal(t, 500*time.Millisecond, got.Retry.MinWait)
	assert.Equal(t, time.Minute, got.Retry.MaxWait)
	assert.Equal(t, 10, got.Retry.MaxTries)

	config.LLM.APIKey = "explicit"
	assert.Equal(t, "explicit", config.APIKey())

	config.LLM.APIKey = ""
	config.LLM.Provider = "ollama"
	assert.Equal(t, "", config.APIKey())
}

func TestConfig_AutoBatch(t *testing.T) {
	config := validConfig(t)

	got := config.AutoBatch()

	assert.NoError(t, got.Validate())
	assert.Equal(t, 5, got.BatchSize)
	assert.Equal(t, 50, got.MaxBatchSize)
	assert.Equal(t, 1.5, got.RampFactor)
}

func TestPricingConfig_Parse(t *testing.T) {
	p, err := PricingConfig{InputPerMillion: "0.5", OutputPerMillion: "1.5"}.Parse()
	require.NoError(t, err)
	assert.Equal(t, "0.5", p.InputPerMillion.String())
	assert.Equal(t, "1.5", p.OutputPerMillion.String())
}

func TestConfigureLoggingFromConfig(t *testing.T) {
	config := validConfig(t)
	config.Log.Level = "debug"
	config.Log.Format = "json"

	logger := ConfigureLoggingFromConfig(config)

	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	config.Log.Level = "nonsense"
	config.Log.Format = "text"
	logger = ConfigureLoggingFromConfig(config)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("BONSAI_TEST_VALUE", "x")
	assert.Equal(t, "x", GetEnv("BONSAI_TEST_VALUE", "fallback"))
	assert.Equal(t, "fallback", GetEnv("BONSAI_TEST_SURELY_UNSET", "fallback"))
}

// validConfig returns the default configuration.
func validConfig(t *testing.T) *Config {
	t.Helper()
	isolate(t)
	config, err := InitializeConfig()
	require.NoError(t, err)
	return config
}

// isolate runs the test from an empty directory with an empty HOME and no
// configuration variables set. Empty variables count as unset for viper.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	for _, env := range []string{
		"BONSAI_LOG_LEVEL", "BONSAI_LOG_FORMAT", "BONSAI_CSV_DELIMITER",
		"BONSAI_LLM_PROVIDER", "BONSAI_LLM_MODEL", "BONSAI_LLM_API_KEY",
		"BONSAI_LLM_REQUESTS_PER_MINUTE", "BONSAI_LLM_BASE_URL",
		"BONSAI_BATCH_MODE", "BONSAI_BATCH_SIZE",
		"BONSAI_PRICING_INPUT_PER_MILLION", "BONSAI_PRICING_OUTPUT_PER_MILLION",
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY",
	} {
		t.Setenv(env, "")
	}

	original, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(original) })
	return dir
}

package config

import (
	"os"
	"path/filepath"
	"sync"

	"fjacquet/databonsai/internal/llm"
	"fjacquet/databonsai/internal/logging"

	"github.com/joho/godotenv"
)

var once sync.Once

// PricingConfig holds token prices as decimal strings so that no precision is
// lost before they reach the cost computation.
type PricingConfig struct {
	InputPerMillion  string `mapstructure:"input_per_million" yaml:"input_per_million"`
	OutputPerMillion string `mapstructure:"output_per_million" yaml:"output_per_million"`
}

// LoadEnv loads environment variables from a .env file in the working
// directory or its parent, once per process. Missing files are not an error.
func LoadEnv(logger logging.Logger) {
	once.Do(func() {
		if logger == nil {
			logger = logging.GetLogger()
		}
		envFile := ".env"
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			envFile = filepath.Join("..", ".env")
			if _, err := os.Stat(envFile); os.IsNotExist(err) {
				logger.Debug("No .env file found, using environment variables")
				return
			}
		}

		if err := godotenv.Load(envFile); err != nil {
			logger.WithError(err).Warn("Error loading .env file")
			return
		}
		logger.Debug("Loaded environment variables", logging.Field{Key: logging.FieldFile, Value: envFile})
	})
}

// GetEnv retrieves an environment variable with a fallback value if not set
func GetEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	return value
}

// Parse converts the decimal price strings.
func (p PricingConfig) Parse() (llm.Pricing, error) {
	return llm.ParsePricing(p.InputPerMillion, p.OutputPerMillion)
}

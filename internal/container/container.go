// Package container provides dependency injection for the databonsai CLI.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"fjacquet/databonsai/internal/config"
	"fjacquet/databonsai/internal/llm"
	"fjacquet/databonsai/internal/logging"
	"fjacquet/databonsai/internal/models"
	"fjacquet/databonsai/internal/progress"
	"fjacquet/databonsai/internal/store"
)

// Container holds all application dependencies and provides methods to access them.
//
// The LLM provider is built on first use so that commands which never call a
// model run without credentials.
type Container struct {
	logger      logging.Logger
	config      *config.Config
	store       store.Repository
	pricing     llm.Pricing
	progressOut io.Writer
	logFile     *os.File

	mu       sync.Mutex
	provider llm.Provider
	client   *llm.Client
}

// Option overrides a dependency, mostly for tests.
type Option func(*Container)

// WithProvider uses p instead of building one from the configuration.
func WithProvider(p llm.Provider) Option {
	return func(c *Container) { c.provider = p }
}

// WithStore replaces the file store.
func WithStore(s store.Repository) Option {
	return func(c *Container) { c.store = s }
}

// WithLogger replaces the logger built from the log section.
func WithLogger(l logging.Logger) Option {
	return func(c *Container) { c.logger = l }
}

// WithProgressOutput sets where progress bars are drawn. Defaults to stderr.
func WithProgressOutput(w io.Writer) Option {
	return func(c *Container) { c.progressOut = w }
}

// NewContainer creates and wires all application dependencies.
func NewContainer(cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	pricing, err := cfg.Pricing.Parse()
	if err != nil {
		return nil, fmt.Errorf("invalid pricing: %w", err)
	}

	c := &Container{
		config:      cfg,
		pricing:     pricing,
		progressOut: os.Stderr,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)
	}
	if cfg.Log.File != "" {
		if err := c.redirectLogs(cfg.Log.File); err != nil {
			return nil, err
		}
	}
	if c.store == nil {
		c.store = store.New(c.logger)
	}

	c.logger.Debug("Container initialized",
		logging.Field{Key: logging.FieldProvider, Value: cfg.LLM.Provider},
		logging.Field{Key: "batch_mode", Value: cfg.Batch.Mode})
	return c, nil
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetStore returns the file store.
func (c *Container) GetStore() store.Repository {
	return c.store
}

// GetPricing returns the parsed token prices.
func (c *Container) GetPricing() llm.Pricing {
	return c.pricing
}

// GetProvider returns the configured provider, building it on the first call.
func (c *Container) GetProvider(ctx context.Context) (llm.Provider, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.provider != nil {
		return c.provider, nil
	}
	provider, client, err := llm.New(ctx, c.config.LLMConfig(), c.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}
	c.provider, c.client = provider, client
	return provider, nil
}

// Usage returns the tokens consumed so far, zero if no provider was built.
func (c *Container) Usage() llm.Usage {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.provider == nil {
		return llm.Usage{}
	}
	return c.provider.Usage()
}

type outputSetter interface {
	SetOutput(w io.Writer)
}

type debugLogger interface {
	IsDebug() bool
}

// redirectLogs appends the log stream to path, keeping stderr free for the
// progress bar. Loggers that cannot be redirected are left alone.
func (c *Container) redirectLogs(path string) error {
	setter, ok := c.logger.(outputSetter)
	if !ok {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), models.PermissionDirectory); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, models.PermissionOutputFile)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	setter.SetOutput(f)
	c.logFile = f
	return nil
}

// NewReporter returns a progress reporter honouring progress.enabled. Debug
// logs written to stderr would break a terminal bar, so that combination
// reports through log lines instead.
func (c *Container) NewReporter() progress.Reporter {
	if c.config.Progress.Enabled && c.logFile == nil {
		if d, ok := c.logger.(debugLogger); ok && d.IsDebug() {
			return progress.NewLogReporter(c.logger, 10)
		}
	}
	return progress.NewReporter(c.progressOut, c.config.Progress.Enabled, c.logger)
}

// Close releases the provider's resources.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	if c.client != nil {
		if cerr := c.client.Close(); cerr != nil {
			err = fmt.Errorf("failed to close LLM client: %w", cerr)
		}
	}
	c.logger.Debug("Container closed")
	if c.logFile != nil {
		if setter, ok := c.logger.(outputSetter); ok {
			setter.SetOutput(os.Stderr)
		}
		if cerr := c.logFile.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close log file: %w", cerr)
		}
		c.logFile = nil
	}
	return err
}

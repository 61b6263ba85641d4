// Package root contains the root command for the application
package root

import (
	"fmt"
	"sync"

	"fjacquet/databonsai/cmd/common"
	"fjacquet/databonsai/internal/config"
	"fjacquet/databonsai/internal/container"
	"fjacquet/databonsai/internal/logging"
	"fjacquet/databonsai/internal/models"
	"fjacquet/databonsai/internal/validation"

	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	ConfigFile   string
	Input        string
	Output       string
	Column       string
	OutputColumn string
	StartIdx     int
	Mode         string
	BatchSize    int
	MaxBatchSize int
	MaxRetries   int
	LogLevel     string
	Provider     string
	Model        string
}

var (
	// Log is the shared logger instance for commands
	Log logging.Logger = logging.GetLogger()

	// AppContainer holds the dependencies of the running command. It is set
	// by PersistentPreRunE and may be replaced by tests.
	AppContainer *container.Container

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "databonsai",
		Short: "Clean and categorize tabular data with large language models.",
		Long: `databonsai runs an LLM over one column of a CSV file, row by row or in
batches, and writes the results into another column. Runs that stop early
can be resumed with --start-idx.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if AppContainer == nil {
				return
			}
			if err := AppContainer.Close(); err != nil {
				Log.WithError(err).Warn("Failed to release resources")
			}
		},
	}

	// Common flags accessible to all commands
	SharedFlags = CommonFlags{}

	initOnce sync.Once
)

// Init initializes the root command and all flags. Later calls do nothing.
func Init() {
	initOnce.Do(registerFlags)
}

func registerFlags() {
	f := Cmd.PersistentFlags()
	f.StringVar(&SharedFlags.ConfigFile, "config", "", "Config file (default: config.yaml in $HOME/.databonsai, .databonsai or .)")
	f.StringVarP(&SharedFlags.Input, "input", "i", "", "Input CSV file")
	f.StringVarP(&SharedFlags.Output, "output", "o", "", "Output CSV file (default: <input>_<command>.csv)")
	f.StringVarP(&SharedFlags.Column, "column", "c", models.DefaultInputColumn, "Input column")
	f.StringVar(&SharedFlags.OutputColumn, "output-column", "", "Output column (default depends on the command)")
	f.IntVar(&SharedFlags.StartIdx, "start-idx", 0, "Row to start from, to resume an interrupted run")
	f.StringVar(&SharedFlags.Mode, "mode", "", "Driver: single, batch or auto (default from config)")
	f.IntVar(&SharedFlags.BatchSize, "batch-size", 0, "Batch size for batch mode, initial size for auto mode")
	f.IntVar(&SharedFlags.MaxBatchSize, "max-batch-size", 0, "Largest batch in auto mode")
	f.IntVar(&SharedFlags.MaxRetries, "max-retries", -1, "Consecutive failed batches tolerated in auto mode")
	f.StringVar(&SharedFlags.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	f.StringVar(&SharedFlags.Provider, "provider", "", "LLM provider (openai, anthropic, ollama, gemini)")
	f.StringVar(&SharedFlags.Model, "model", "", "Model name (default depends on the provider)")
}

func setup(cmd *cobra.Command, args []string) error {
	if AppContainer != nil {
		return nil
	}

	cfg, err := config.Load(SharedFlags.ConfigFile)
	if err != nil {
		return err
	}
	if err := ApplyFlags(cfg, SharedFlags); err != nil {
		return err
	}

	c, err := container.NewContainer(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	AppContainer = c
	Log = c.GetLogger()
	logging.SetDefaultLogger(Log)
	return nil
}

// ApplyFlags overrides cfg with the flags that were set and validates the
// result.
func ApplyFlags(cfg *config.Config, flags CommonFlags) error {
	if flags.LogLevel != "" {
		cfg.Log.Level = flags.LogLevel
	}
	if flags.Provider != "" {
		cfg.LLM.Provider = flags.Provider
	}
	if flags.Model != "" {
		cfg.LLM.Model = flags.Model
	}
	if flags.Mode != "" {
		cfg.Batch.Mode = flags.Mode
	}
	if flags.BatchSize > 0 {
		cfg.Batch.Size = flags.BatchSize
	}
	if flags.MaxBatchSize > 0 {
		cfg.Batch.MaxSize = flags.MaxBatchSize
	}
	if flags.MaxRetries >= 0 {
		cfg.Batch.MaxRetries = flags.MaxRetries
	}
	if cfg.Batch.Size > cfg.Batch.MaxSize && flags.MaxBatchSize == 0 {
		cfg.Batch.MaxSize = cfg.Batch.Size
	}
	return cfg.Validate()
}

// RunOptions builds the driver options of a command from the shared flags
// and the configuration.
func RunOptions(cfg *config.Config, operation, defaultOutputColumn string) (common.RunOptions, error) {
	if SharedFlags.Input == "" {
		return common.RunOptions{}, fmt.Errorf("--input is required")
	}
	if err := validation.IsInputFile(SharedFlags.Input); err != nil {
		return common.RunOptions{}, err
	}
	output := SharedFlags.Output
	if output == "" {
		output = common.DefaultOutputPath(SharedFlags.Input, operation)
	}
	if err := validation.IsOutputFile(output); err != nil {
		return common.RunOptions{}, err
	}
	if err := validation.IsDistinctOutput(SharedFlags.Input, output); err != nil {
		return common.RunOptions{}, err
	}
	outputColumn := SharedFlags.OutputColumn
	if outputColumn == "" {
		outputColumn = defaultOutputColumn
	}
	return common.RunOptions{
		Input:        SharedFlags.Input,
		Output:       output,
		Column:       SharedFlags.Column,
		OutputColumn: outputColumn,
		StartIdx:     SharedFlags.StartIdx,
		Mode:         cfg.Batch.Mode,
		BatchSize:    cfg.Batch.Size,
		AutoBatch:    cfg.AutoBatch(),
		Delimiter:    cfg.DelimiterRune(),
		Operation:    operation,
	}, nil
}

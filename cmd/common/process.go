// Package common contains shared functionality for command handlers
package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fjacquet/databonsai/internal/apply"
	"fjacquet/databonsai/internal/bonsaierror"
	"fjacquet/databonsai/internal/column"
	"fjacquet/databonsai/internal/config"
	"fjacquet/databonsai/internal/logging"
	"fjacquet/databonsai/internal/models"
	"fjacquet/databonsai/internal/progress"
	"fjacquet/databonsai/internal/table"

	"github.com/google/uuid"
)

// RunOptions describes one pass of a driver over a CSV column.
type RunOptions struct {
	Input        string
	Output       string
	Column       string
	OutputColumn string
	StartIdx     int
	Mode         string
	BatchSize    int
	AutoBatch    apply.AutoBatchConfig
	Delimiter    rune
	Operation    string
}

// Processor holds the functions a command plugs into the drivers. Single is
// used in single mode, Batch in batch and auto modes.
type Processor[O any] struct {
	Single apply.Func[string, O]
	Batch  apply.BatchFunc[string, O]
	Encode func(O) (string, error)
	Decode func(string) (O, error)
}

// TextProcessor builds a Processor whose results are stored as-is.
func TextProcessor(single apply.Func[string, string], batch apply.BatchFunc[string, string]) Processor[string] {
	return Processor[string]{Single: single, Batch: batch, Encode: identity, Decode: identity}
}

func identity(s string) (string, error) { return s, nil }

// Result reports how a run ended.
type Result struct {
	RunID  string
	Output string
	Stats  models.RunStats
	// Resumed is set when the run continued an existing output file.
	Resumed bool
}

// DefaultOutputPath derives the output file from the input file:
// data/reviews.csv becomes data/reviews_<operation>.csv.
func DefaultOutputPath(input, operation string) string {
	ext := filepath.Ext(input)
	if ext == "" {
		ext = ".csv"
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + "_" + operation + ext
}

// ProcessFile reads the input CSV, runs the driver selected by opts.Mode over
// opts.Column and writes the table, results included, to opts.Output. The
// output is written even when the run stops early, so that it can be resumed
// with StartIdx set to Result.Stats.ResumeIdx().
//
// When StartIdx is positive and the output file already exists, the run
// continues in that file so that earlier results are kept.
func ProcessFile[O any](ctx context.Context, opts RunOptions, p Processor[O], reporter progress.Reporter, logger logging.Logger) (Result, error) {
	if logger == nil {
		logger = logging.GetLogger()
	}
	if reporter == nil {
		reporter = progress.Nop{}
	}
	if opts.Output == "" {
		opts.Output = DefaultOutputPath(opts.Input, opts.Operation)
	}

	res := Result{RunID: uuid.NewString(), Output: opts.Output}
	logger = logger.WithFields(
		logging.Field{Key: logging.FieldRunID, Value: res.RunID},
		logging.Field{Key: logging.FieldOperation, Value: opts.Operation},
	)

	source := opts.Input
	if opts.StartIdx > 0 && fileExists(opts.Output) {
		source = opts.Output
		res.Resumed = true
		logger.Info("Resuming from existing output",
			logging.Field{Key: logging.FieldOutputFile, Value: opts.Output},
			logging.Field{Key: logging.FieldStartIdx, Value: opts.StartIdx})
	}

	t, err := table.ReadFile(source, opts.Delimiter, logger)
	if err != nil {
		return res, err
	}
	in, err := column.FromTable(t, opts.Column)
	if err != nil {
		return res, fmt.Errorf("input column: %w", err)
	}
	if opts.OutputColumn == "" || opts.OutputColumn == opts.Column {
		return res, fmt.Errorf("output column must be set and differ from the input column %q", opts.Column)
	}
	outCells, err := column.OutputFromTable(t, opts.OutputColumn, "")
	if err != nil {
		return res, fmt.Errorf("output column: %w", err)
	}
	out := column.NewEncoded(outCells, p.Encode, p.Decode)

	stats := models.NewRunStats()
	driverOpts := []apply.Option{
		apply.WithLogger(logger),
		apply.WithProgress(reporter),
		apply.WithDescription(opts.Operation),
		apply.WithStats(stats),
	}

	var runErr error
	switch opts.Mode {
	case config.ModeSingle:
		_, runErr = apply.ApplyToColumn(ctx, in, out, p.Single, opts.StartIdx, driverOpts...)
	case config.ModeBatch:
		_, runErr = apply.ApplyToColumnBatch(ctx, in, out, p.Batch, opts.BatchSize, opts.StartIdx, driverOpts...)
	case config.ModeAuto, "":
		_, runErr = apply.ApplyToColumnAutobatch(ctx, in, out, p.Batch, opts.AutoBatch, opts.StartIdx, driverOpts...)
	default:
		return res, fmt.Errorf("unknown mode %q (expected one of %s)", opts.Mode, strings.Join(config.Modes, ", "))
	}
	res.Stats = *stats

	// A rejected precondition leaves nothing new to save.
	if errors.Is(runErr, bonsaierror.ErrValue) {
		return res, runErr
	}

	if err := table.WriteFile(opts.Output, t, opts.Delimiter, logger); err != nil {
		return res, err
	}
	stats.LogSummary(logger, opts.Operation)
	return res, runErr
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

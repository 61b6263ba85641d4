// Package apply drives a function over a column of inputs and writes the
// results, index-aligned, into a pre-sized output column.
//
// Three drivers are provided:
//   - ApplyToColumn calls a one-item function per position.
//   - ApplyToColumnBatch calls a batch function on fixed-size chunks.
//   - ApplyToColumnAutobatch resizes chunks online, growing them after
//     successes and shrinking them and retrying after failures.
//
// Every driver returns success_idx, the last position whose result has been
// written. Passing success_idx+1 as the next start index resumes a run without
// redoing or skipping anything. Failures of the supplied function are logged
// and end the run; they are never returned as errors. Errors are returned only
// for invalid arguments (before anything is written) and for context
// cancellation between two attempts.
package apply

import (
	"context"
	"fmt"

	"fjacquet/databonsai/internal/bonsaierror"
	"fjacquet/databonsai/internal/column"
	"fjacquet/databonsai/internal/logging"
	"fjacquet/databonsai/internal/models"
	"fjacquet/databonsai/internal/progress"
)

// Func processes one item.
type Func[I, O any] func(ctx context.Context, item I) (O, error)

// BatchFunc processes a batch of items and must return exactly one result per
// item, in order.
type BatchFunc[I, O any] func(ctx context.Context, items []I) ([]O, error)

type options struct {
	logger      logging.Logger
	reporter    progress.Reporter
	description string
	stats       *models.RunStats
}

// Option configures a driver call.
type Option func(*options)

// WithLogger sets the logger for the run.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithProgress sets the progress reporter for the run.
func WithProgress(r progress.Reporter) Option {
	return func(o *options) {
		if r != nil {
			o.reporter = r
		}
	}
}

// WithDescription sets the label shown next to the progress indicator.
func WithDescription(desc string) Option {
	return func(o *options) {
		if desc != "" {
			o.description = desc
		}
	}
}

// WithStats collects counters for the run into stats.
func WithStats(stats *models.RunStats) Option {
	return func(o *options) {
		o.stats = stats
	}
}

func newOptions(driver string, opts []Option) *options {
	o := &options{
		logger:      logging.GetLogger(),
		reporter:    progress.Nop{},
		description: "Processing",
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.stats == nil {
		o.stats = models.NewRunStats()
	}
	o.logger = o.logger.WithField(logging.FieldDriver, driver)
	return o
}

func (o *options) begin(total, startIdx int) {
	o.stats.Total = total
	o.stats.StartIdx = startIdx
	o.stats.SuccessIdx = startIdx - 1
	o.reporter.Start(total, startIdx, o.description)
	o.logger.Debug("Starting run",
		logging.Field{Key: logging.FieldStartIdx, Value: startIdx},
		logging.Field{Key: logging.FieldCount, Value: total})
}

// end records the checkpoint and closes the progress indicator.
func (o *options) end(successIdx int) int {
	o.stats.SuccessIdx = successIdx
	o.reporter.Finish()
	o.logger.Info("Run finished",
		logging.Field{Key: logging.FieldSuccessIdx, Value: successIdx},
		logging.Field{Key: logging.FieldCount, Value: o.stats.Total},
		logging.Field{Key: "complete", Value: o.stats.Complete()})
	return successIdx
}

func (o *options) written(n int) {
	o.stats.Processed += n
	o.reporter.Add(n)
}

// cancelled ends a run interrupted through ctx.
func (o *options) cancelled(ctx context.Context, successIdx int) (int, error) {
	o.logger.WithError(ctx.Err()).Warn("Run cancelled",
		logging.Field{Key: logging.FieldSuccessIdx, Value: successIdx})
	return o.end(successIdx), fmt.Errorf("run stopped after index %d: %w", successIdx, ctx.Err())
}

// checkColumns validates the preconditions shared by every driver.
func checkColumns(inLen, outLen, startIdx int) error {
	if inLen == 0 {
		return &bonsaierror.PreconditionError{Param: "input_column", Value: inLen, Reason: "input column is empty"}
	}
	if startIdx < 0 || startIdx >= inLen {
		return &bonsaierror.PreconditionError{
			Param:  "start_idx",
			Value:  startIdx,
			Reason: fmt.Sprintf("must be in [0, %d)", inLen),
		}
	}
	if outLen < inLen {
		return &bonsaierror.PreconditionError{
			Param:  "output_column",
			Value:  outLen,
			Reason: fmt.Sprintf("output column has %d positions, input column has %d", outLen, inLen),
		}
	}
	return nil
}

// runBatch applies fn to [start, end) and writes the results. Either every
// position in the range is written or none is.
func runBatch[I, O any](ctx context.Context, in column.Column[I], out column.Column[O], fn BatchFunc[I, O], start, end int) error {
	items, err := in.Slice(start, end)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	results, err := fn(ctx, items)
	if err != nil {
		return err
	}
	if len(results) != len(items) {
		return fmt.Errorf("%w: batch function returned %d results for %d items",
			bonsaierror.ErrValue, len(results), len(items))
	}
	if err := out.Write(start, results); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

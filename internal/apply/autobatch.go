package apply

import (
	"context"

	"fjacquet/databonsai/internal/bonsaierror"
	"fjacquet/databonsai/internal/column"
	"fjacquet/databonsai/internal/logging"
)

// ApplyToColumnAutobatch processes in with batches whose size adapts to the
// outcome of each attempt, as described by Control. A failing range is retried
// at the same cursor with a smaller batch until cfg.MaxRetries consecutive
// retries have failed, at which point the run stops and returns the index
// before the cursor.
func ApplyToColumnAutobatch[I, O any](ctx context.Context, in column.Column[I], out column.Column[O], fn BatchFunc[I, O], cfg AutoBatchConfig, startIdx int, opts ...Option) (int, error) {
	if fn == nil {
		return startIdx - 1, &bonsaierror.PreconditionError{Param: "batch_func", Value: nil, Reason: "function is required"}
	}
	if err := cfg.Validate(); err != nil {
		return startIdx - 1, err
	}
	length := in.Len()
	if err := checkColumns(length, out.Len(), startIdx); err != nil {
		return startIdx - 1, err
	}

	o := newOptions("autobatch", opts)
	o.begin(length, startIdx)
	ctl := NewControl(cfg, startIdx)
	defer func() { o.stats.FinalBatchSize = ctl.BatchSize }()

	for ctl.Cursor < length {
		if ctx.Err() != nil {
			return o.cancelled(ctx, ctl.Cursor-1)
		}
		start, end := ctl.Next(length)

		o.stats.Attempts++
		err := runBatch(ctx, in, out, fn, start, end)
		if err == nil {
			o.written(end - start)
			ctl.Succeeded(end - start)
			o.logger.Debug("Batch succeeded",
				logging.Field{Key: logging.FieldBatchStart, Value: start},
				logging.Field{Key: logging.FieldBatchEnd, Value: end},
				logging.Field{Key: logging.FieldBatchSize, Value: ctl.BatchSize},
				logging.Field{Key: logging.FieldRampFactor, Value: ctl.RampFactor})
			continue
		}

		o.stats.Failures++
		if !ctl.Failed() {
			o.logger.WithError(err).Error("Retry limit reached, stopping",
				logging.Field{Key: logging.FieldBatchStart, Value: start},
				logging.Field{Key: logging.FieldRetry, Value: ctl.Retries},
				logging.Field{Key: logging.FieldSuccessIdx, Value: start - 1})
			return o.end(start - 1), nil
		}
		o.logger.WithError(err).Warn("Batch failed, retrying with a smaller batch",
			logging.Field{Key: logging.FieldBatchStart, Value: start},
			logging.Field{Key: logging.FieldBatchEnd, Value: end},
			logging.Field{Key: logging.FieldRetry, Value: ctl.Retries},
			logging.Field{Key: logging.FieldBatchSize, Value: ctl.BatchSize},
			logging.Field{Key: logging.FieldReduceFactor, Value: ctl.ReduceFactor})
	}

	return o.end(length - 1), nil
}

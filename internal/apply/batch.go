package apply

import (
	"context"

	"fjacquet/databonsai/internal/bonsaierror"
	"fjacquet/databonsai/internal/column"
	"fjacquet/databonsai/internal/logging"
)

// ApplyToColumnBatch calls fn on consecutive chunks of batchSize items (the
// last chunk may be shorter) and writes each chunk's results atomically. It
// stops at the first failing chunk, including one whose result count differs
// from its item count, and returns the index before that chunk.
func ApplyToColumnBatch[I, O any](ctx context.Context, in column.Column[I], out column.Column[O], fn BatchFunc[I, O], batchSize, startIdx int, opts ...Option) (int, error) {
	if fn == nil {
		return startIdx - 1, &bonsaierror.PreconditionError{Param: "batch_func", Value: nil, Reason: "function is required"}
	}
	if batchSize < 1 {
		return startIdx - 1, &bonsaierror.PreconditionError{Param: "batch_size", Value: batchSize, Reason: "must be at least 1"}
	}
	length := in.Len()
	if err := checkColumns(length, out.Len(), startIdx); err != nil {
		return startIdx - 1, err
	}

	o := newOptions("batch", opts)
	o.stats.FinalBatchSize = batchSize
	o.begin(length, startIdx)

	for i := startIdx; i < length; i += batchSize {
		if ctx.Err() != nil {
			return o.cancelled(ctx, i-1)
		}
		end := min(i+batchSize, length)

		o.stats.Attempts++
		if err := runBatch(ctx, in, out, fn, i, end); err != nil {
			o.stats.Failures++
			o.logger.WithError(err).Warn("Batch failed, stopping",
				logging.Field{Key: logging.FieldBatchStart, Value: i},
				logging.Field{Key: logging.FieldBatchEnd, Value: end},
				logging.Field{Key: logging.FieldSuccessIdx, Value: i - 1})
			return o.end(i - 1), nil
		}
		o.written(end - i)
	}

	return o.end(length - 1), nil
}

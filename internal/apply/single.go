package apply

import (
	"context"

	"fjacquet/databonsai/internal/bonsaierror"
	"fjacquet/databonsai/internal/column"
	"fjacquet/databonsai/internal/logging"
)

// ApplyToColumn calls fn on every item of in from startIdx onwards and writes
// each result to the same position of out before moving on. It stops at the
// first failing item and returns the index before it.
func ApplyToColumn[I, O any](ctx context.Context, in column.Column[I], out column.Column[O], fn Func[I, O], startIdx int, opts ...Option) (int, error) {
	if fn == nil {
		return startIdx - 1, &bonsaierror.PreconditionError{Param: "func", Value: nil, Reason: "function is required"}
	}
	length := in.Len()
	if err := checkColumns(length, out.Len(), startIdx); err != nil {
		return startIdx - 1, err
	}

	o := newOptions("single", opts)
	o.begin(length, startIdx)

	for i := startIdx; i < length; i++ {
		if ctx.Err() != nil {
			return o.cancelled(ctx, i-1)
		}

		o.stats.Attempts++
		err := runBatch(ctx, in, out, func(ctx context.Context, items []I) ([]O, error) {
			result, err := fn(ctx, items[0])
			if err != nil {
				return nil, err
			}
			return []O{result}, nil
		}, i, i+1)
		if err != nil {
			o.stats.Failures++
			o.logger.WithError(err).Warn("Item failed, stopping",
				logging.Field{Key: logging.FieldIndex, Value: i},
				logging.Field{Key: logging.FieldSuccessIdx, Value: i - 1})
			return o.end(i - 1), nil
		}
		o.written(1)
	}

	return o.end(length - 1), nil
}

package apply

import (
	"fmt"
	"math"

	"fjacquet/databonsai/internal/bonsaierror"
)

// roundingSlack absorbs float error when scaling a batch size, so that
// 10*1.1 rounds up to 11 rather than 12.
const roundingSlack = 1e-9

// AutoBatchConfig holds the tuning parameters of the adaptive batch driver.
type AutoBatchConfig struct {
	// BatchSize is the initial batch size.
	BatchSize int
	// MaxBatchSize caps the batch size.
	MaxBatchSize int
	// MaxRetries is the number of consecutive retries allowed at one cursor
	// position before the run stops.
	MaxRetries int
	// RampFactor multiplies the batch size after a success (>= 1, finite).
	RampFactor float64
	// RampFactorDecay pulls RampFactor toward 1 after each success ([0, 1)).
	RampFactorDecay float64
	// ReduceFactor multiplies the batch size after a failure ((0, 1]).
	ReduceFactor float64
	// ReduceFactorDecay pulls ReduceFactor toward 1 after each failure ([0, 1)).
	ReduceFactorDecay float64
}

// DefaultAutoBatchConfig returns the defaults used by the CLI.
func DefaultAutoBatchConfig() AutoBatchConfig {
	return AutoBatchConfig{
		BatchSize:         5,
		MaxBatchSize:      50,
		MaxRetries:        5,
		RampFactor:        1.5,
		RampFactorDecay:   0.8,
		ReduceFactor:      0.5,
		ReduceFactorDecay: 0.8,
	}
}

// Validate reports the first out-of-range parameter.
func (c AutoBatchConfig) Validate() error {
	switch {
	case c.BatchSize < 1:
		return &bonsaierror.PreconditionError{Param: "batch_size", Value: c.BatchSize, Reason: "must be at least 1"}
	case c.MaxBatchSize < 1:
		return &bonsaierror.PreconditionError{Param: "max_batch_size", Value: c.MaxBatchSize, Reason: "must be at least 1"}
	case c.BatchSize > c.MaxBatchSize:
		return &bonsaierror.PreconditionError{
			Param:  "batch_size",
			Value:  c.BatchSize,
			Reason: fmt.Sprintf("must not exceed max_batch_size (%d)", c.MaxBatchSize),
		}
	case c.MaxRetries < 0:
		return &bonsaierror.PreconditionError{Param: "max_retries", Value: c.MaxRetries, Reason: "must not be negative"}
	case math.IsNaN(c.RampFactor) || math.IsInf(c.RampFactor, 0) || c.RampFactor < 1:
		return &bonsaierror.PreconditionError{Param: "ramp_factor", Value: c.RampFactor, Reason: "must be a finite number of at least 1"}
	case !isDecay(c.RampFactorDecay):
		return &bonsaierror.PreconditionError{Param: "ramp_factor_decay", Value: c.RampFactorDecay, Reason: "must be in [0, 1)"}
	case math.IsNaN(c.ReduceFactor) || c.ReduceFactor <= 0 || c.ReduceFactor > 1:
		return &bonsaierror.PreconditionError{Param: "reduce_factor", Value: c.ReduceFactor, Reason: "must be in (0, 1]"}
	case !isDecay(c.ReduceFactorDecay):
		return &bonsaierror.PreconditionError{Param: "reduce_factor_decay", Value: c.ReduceFactorDecay, Reason: "must be in [0, 1)"}
	}
	return nil
}

// isDecay accepts [0, 1): a decay of 1 would keep a factor away from 1
// forever.
func isDecay(f float64) bool {
	return f >= 0 && f < 1
}

// scale returns round(size*factor) clamped to [1, limit]. Clamping happens
// in float so a huge product never overflows int.
func scale(size int, factor float64, round func(float64) float64, limit int) int {
	v := round(float64(size) * factor)
	switch {
	case math.IsNaN(v) || v < 1:
		return 1
	case v >= float64(limit):
		return limit
	}
	return int(v)
}

// Control is the mutable state of an adaptive run. It is updated once per
// attempt and performs no I/O.
type Control struct {
	cfg AutoBatchConfig

	// Cursor is the first position not yet written.
	Cursor int
	// BatchSize is the size of the next attempt, before clamping to the
	// remaining input.
	BatchSize int
	// RampFactor and ReduceFactor are the current, decayed factors.
	RampFactor   float64
	ReduceFactor float64
	// Retries counts consecutive failures at Cursor.
	Retries int
}

// NewControl returns the state for a run starting at startIdx. cfg must
// already be valid.
func NewControl(cfg AutoBatchConfig, startIdx int) *Control {
	return &Control{
		cfg:          cfg,
		Cursor:       startIdx,
		BatchSize:    cfg.BatchSize,
		RampFactor:   cfg.RampFactor,
		ReduceFactor: cfg.ReduceFactor,
	}
}

// Next returns the range of the next attempt for an input of length n.
func (c *Control) Next(n int) (start, end int) {
	if c.BatchSize >= n-c.Cursor {
		return c.Cursor, n
	}
	return c.Cursor, c.Cursor + c.BatchSize
}

// Succeeded advances the cursor past n written items and grows the batch.
func (c *Control) Succeeded(n int) {
	c.Cursor += n
	c.Retries = 0
	c.BatchSize = scale(c.BatchSize, c.RampFactor, func(v float64) float64 { return math.Ceil(v - roundingSlack) }, c.cfg.MaxBatchSize)
	c.RampFactor = 1 + (c.RampFactor-1)*c.cfg.RampFactorDecay
}

// Failed records a failed attempt at the cursor. It returns false once the
// retry ceiling is exceeded; otherwise it shrinks the batch and returns true.
func (c *Control) Failed() bool {
	c.Retries++
	if c.Retries > c.cfg.MaxRetries {
		return false
	}
	c.BatchSize = scale(c.BatchSize, c.ReduceFactor, func(v float64) float64 { return math.Floor(v + roundingSlack) }, c.cfg.MaxBatchSize)
	c.ReduceFactor = 1 + (c.ReduceFactor-1)*c.cfg.ReduceFactorDecay
	return true
}

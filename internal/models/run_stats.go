// Package models provides the data structures shared by the drivers, the LLM
// components and the CLI.
package models

import (
	"fjacquet/databonsai/internal/logging"
)

// RunStats tracks what one driver call did.
type RunStats struct {
	Total          int // Number of items in the input column
	StartIdx       int // Position the run started from
	SuccessIdx     int // Last position written, StartIdx-1 if none
	Processed      int // Items written during this run
	Attempts       int // Calls made to the processing function
	Failures       int // Calls that failed
	FinalBatchSize int // Batch size when the run ended (batch drivers only)
}

// NewRunStats creates an empty RunStats.
func NewRunStats() *RunStats {
	return &RunStats{SuccessIdx: -1}
}

// Complete reports whether every item of the input has been written.
func (rs RunStats) Complete() bool {
	return rs.Total > 0 && rs.SuccessIdx == rs.Total-1
}

// Remaining returns the number of items still to process.
func (rs RunStats) Remaining() int {
	return max(0, rs.Total-rs.SuccessIdx-1)
}

// ResumeIdx returns the start index that continues this run.
func (rs RunStats) ResumeIdx() int {
	return rs.SuccessIdx + 1
}

// GetFailureRate returns failed calls as a percentage of all calls.
func (rs RunStats) GetFailureRate() float64 {
	if rs.Attempts == 0 {
		return 0.0
	}
	return float64(rs.Failures) / float64(rs.Attempts) * 100.0
}

// LogSummary logs a summary of the run.
func (rs RunStats) LogSummary(logger logging.Logger, operation string) {
	if logger == nil {
		return
	}

	fields := []logging.Field{
		{Key: logging.FieldOperation, Value: operation},
		{Key: "total", Value: rs.Total},
		{Key: logging.FieldStartIdx, Value: rs.StartIdx},
		{Key: logging.FieldSuccessIdx, Value: rs.SuccessIdx},
		{Key: "processed", Value: rs.Processed},
		{Key: "attempts", Value: rs.Attempts},
		{Key: "failures", Value: rs.Failures},
		{Key: "failure_rate", Value: rs.GetFailureRate()},
	}
	if rs.FinalBatchSize > 0 {
		fields = append(fields, logging.Field{Key: logging.FieldBatchSize, Value: rs.FinalBatchSize})
	}

	if rs.Complete() {
		logger.Info("Run summary", fields...)
		return
	}
	logger.Warn("Run summary (incomplete)", fields...)
}

package progress

import (
	"fjacquet/databonsai/internal/logging"
)

// LogReporter emits an info line each time another step percent of the column
// completes. Used when output is not a terminal.
type LogReporter struct {
	logger      logging.Logger
	step        int
	total       int
	done        int
	nextPercent int
	description string
}

// NewLogReporter reports every step percent (1..100).
func NewLogReporter(logger logging.Logger, step int) *LogReporter {
	if logger == nil {
		logger = logging.GetLogger()
	}
	if step < 1 || step > 100 {
		step = 10
	}
	return &LogReporter{logger: logger, step: step}
}

func (r *LogReporter) Start(total, done int, description string) {
	r.total = total
	r.done = done
	r.description = description
	r.nextPercent = (r.percent()/r.step + 1) * r.step
}

func (r *LogReporter) Add(n int) {
	if r.total <= 0 || n <= 0 {
		return
	}
	r.done += n
	if r.done > r.total {
		r.done = r.total
	}
	if p := r.percent(); p >= r.nextPercent {
		r.logger.Info(r.description,
			logging.Field{Key: "done", Value: r.done},
			logging.Field{Key: "total", Value: r.total},
			logging.Field{Key: "percent", Value: p})
		r.nextPercent = (p/r.step + 1) * r.step
	}
}

func (r *LogReporter) Finish() {
	r.total = 0
}

// Done returns the number of completed items seen so far.
func (r *LogReporter) Done() int {
	return r.done
}

func (r *LogReporter) percent() int {
	if r.total <= 0 {
		return 0
	}
	return r.done * 100 / r.total
}

// Package progress renders how many items of a column a driver has completed.
// Reporters are observers only: nothing they do feeds back into a run.
package progress

import (
	"io"
	"os"

	"fjacquet/databonsai/internal/logging"

	"github.com/mattn/go-isatty"
)

// Reporter receives "items completed" deltas from a driver.
type Reporter interface {
	// Start begins a run over total items of which done are already complete.
	Start(total, done int, description string)
	// Add records n more completed items.
	Add(n int)
	// Finish ends the run. Further calls to Add are ignored.
	Finish()
}

// NewReporter picks a reporter for w: an interactive bar on a terminal, periodic
// log lines otherwise, and nothing at all when disabled.
func NewReporter(w io.Writer, enabled bool, logger logging.Logger) Reporter {
	if !enabled {
		return Nop{}
	}
	if w == nil {
		w = os.Stderr
	}
	if isTerminal(w) {
		return NewBar(w)
	}
	return NewLogReporter(logger, 10)
}

func isTerminal(w io.Writer) bool {
	if os.Getenv("CI") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Nop discards all progress.
type Nop struct{}

func (Nop) Start(int, int, string) {}
func (Nop) Add(int)                {}
func (Nop) Finish()                {}

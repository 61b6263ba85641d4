package progress

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Bar draws a single-line progress bar scaled to the column length.
type Bar struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

// NewBar returns a Bar drawing to w.
func NewBar(w io.Writer) *Bar {
	return &Bar{w: w}
}

func (b *Bar) Start(total, done int, description string) {
	b.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(b.w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetItsString("row"),
		progressbar.OptionShowIts(),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(b.w, "\n") }),
	)
	if done > 0 {
		_ = b.bar.Set(done)
	}
}

func (b *Bar) Add(n int) {
	if b.bar == nil || n <= 0 {
		return
	}
	_ = b.bar.Add(n)
}

func (b *Bar) Finish() {
	if b.bar == nil {
		return
	}
	if !b.bar.IsFinished() {
		// Partial runs keep the bar where it stopped
		_, _ = io.WriteString(b.w, "\n")
	}
	b.bar = nil
}

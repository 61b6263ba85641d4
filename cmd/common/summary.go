package common

import (
	"fmt"
	"io"

	"fjacquet/databonsai/internal/llm"

	"github.com/fatih/color"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	hintColor = color.New(color.FgCyan)
)

// PrintSummary writes a short human-readable report of a run: how far it got,
// how to resume it and what it cost.
func PrintSummary(w io.Writer, res Result, usage llm.Usage, pricing llm.Pricing) {
	s := res.Stats
	if s.Complete() {
		_, _ = okColor.Fprintf(w, "Processed all %d rows", s.Total)
	} else {
		_, _ = warnColor.Fprintf(w, "Stopped after row %d of %d (%d remaining)", s.SuccessIdx, s.Total, s.Remaining())
	}
	_, _ = fmt.Fprintf(w, " -> %s\n", res.Output)

	_, _ = fmt.Fprintf(w, "  written: %d, calls: %d, failed calls: %d (%.1f%%)\n",
		s.Processed, s.Attempts, s.Failures, s.GetFailureRate())
	if s.FinalBatchSize > 0 {
		_, _ = fmt.Fprintf(w, "  final batch size: %d\n", s.FinalBatchSize)
	}
	_, _ = fmt.Fprintf(w, "  requests: %d, tokens: %d in / %d out, estimated cost: %s\n",
		usage.Requests, usage.InputTokens, usage.OutputTokens, usage.Cost(pricing))

	if !s.Complete() && s.Total > 0 {
		_, _ = hintColor.Fprintf(w, "  resume with: --start-idx %d --output %s\n", s.ResumeIdx(), res.Output)
	}
}

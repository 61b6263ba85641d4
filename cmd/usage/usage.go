// Package usage handles the usage command
package usage

import (
	"fmt"
	"io"

	"fjacquet/databonsai/cmd/root"
	"fjacquet/databonsai/internal/container"
	"fjacquet/databonsai/internal/llm"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	inputTokens  int64
	outputTokens int64
)

// Cmd represents the usage command
var Cmd = &cobra.Command{
	Use:   "usage",
	Short: "Show the configured provider, batching and token pricing",
	Long: `Usage prints the provider, model, batching and pricing settings that a run
would use. With --input-tokens and --output-tokens it also estimates what
that many tokens would cost. No request is sent to the provider.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Print(cmd.OutOrStdout(), root.AppContainer, inputTokens, outputTokens)
	},
}

func init() {
	Cmd.Flags().Int64Var(&inputTokens, "input-tokens", 0, "Input tokens to price")
	Cmd.Flags().Int64Var(&outputTokens, "output-tokens", 0, "Output tokens to price")
}

// Print writes the effective settings of c.
func Print(w io.Writer, c *container.Container, in, out int64) error {
	if c == nil {
		return fmt.Errorf("application not initialized")
	}
	if in < 0 || out < 0 {
		return fmt.Errorf("token counts must not be negative")
	}
	cfg := c.GetConfig()
	pricing := c.GetPricing()
	heading := color.New(color.Bold)

	model := cfg.LLM.Model
	if model == "" {
		model = "(provider default)"
	}
	rpm := "unlimited"
	if cfg.LLM.RequestsPerMinute > 0 {
		rpm = fmt.Sprintf("%d", cfg.LLM.RequestsPerMinute)
	}
	keyState := "set"
	if cfg.APIKey() == "" {
		keyState = "not set"
	}

	_, _ = heading.Fprintln(w, "Provider")
	_, _ = fmt.Fprintf(w, "  name: %s\n  model: %s\n  api key: %s\n  requests per minute: %s\n  max tokens: %d\n",
		cfg.LLM.Provider, model, keyState, rpm, cfg.LLM.MaxTokens)
	_, _ = fmt.Fprintf(w, "  retries: %d tries, %.0fs to %.0fs wait\n",
		cfg.Retry.MaxTries, cfg.Retry.MinWaitSeconds, cfg.Retry.MaxWaitSeconds)

	_, _ = heading.Fprintln(w, "Batching")
	ab := cfg.AutoBatch()
	_, _ = fmt.Fprintf(w, "  mode: %s\n  batch size: %d (max %d)\n  max retries: %d\n  ramp: %g (decay %g), reduce: %g (decay %g)\n",
		cfg.Batch.Mode, ab.BatchSize, ab.MaxBatchSize, ab.MaxRetries,
		ab.RampFactor, ab.RampFactorDecay, ab.ReduceFactor, ab.ReduceFactorDecay)

	_, _ = heading.Fprintln(w, "Pricing (USD per million tokens)")
	_, _ = fmt.Fprintf(w, "  input: %s\n  output: %s\n", price(pricing.InputPerMillion), price(pricing.OutputPerMillion))
	if in > 0 || out > 0 {
		cost := llm.Usage{InputTokens: in, OutputTokens: out}.Cost(pricing)
		_, _ = fmt.Fprintf(w, "  estimate for %d in / %d out: %s\n", in, out, cost)
	}
	return nil
}

func price(d decimal.Decimal) string {
	if d.IsZero() {
		return "not set"
	}
	return d.String()
}

// Package transform handles the transform command
package transform

import (
	"context"
	"fmt"

	"fjacquet/databonsai/cmd/common"
	"fjacquet/databonsai/cmd/root"
	"fjacquet/databonsai/internal/container"
	"fjacquet/databonsai/internal/models"
	"fjacquet/databonsai/internal/transformer"

	"github.com/spf13/cobra"
)

var (
	prompt     string
	schemaFile string
)

// Cmd represents the transform command
var Cmd = &cobra.Command{
	Use:   "transform",
	Short: "Rewrite a text column following a prompt",
	Long: `Transform rewrites each row of the input column following --prompt. With
--schema, each row is instead decomposed into a JSON list of records whose
keys are the fields of the YAML schema file.`,
	RunE: transformFunc,
}

func init() {
	Cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "Transformation prompt")
	Cmd.Flags().StringVar(&schemaFile, "schema", "", "YAML schema file; switches to decomposition into records")
	_ = Cmd.MarkFlagRequired("prompt")
}

func transformFunc(cmd *cobra.Command, args []string) error {
	return Run(cmd.Context(), root.AppContainer, Options{Prompt: prompt, SchemaFile: schemaFile}, cmd)
}

// Options are the transform-specific flags.
type Options struct {
	Prompt     string
	SchemaFile string
}

// Run transforms the input file described by the shared flags.
func Run(ctx context.Context, c *container.Container, opts Options, cmd *cobra.Command) error {
	if c == nil {
		return fmt.Errorf("application not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	logger := c.GetLogger()
	cfg := c.GetConfig()

	var schema models.OutputSchema
	if opts.SchemaFile != "" {
		var err error
		if schema, err = c.GetStore().LoadSchema(opts.SchemaFile); err != nil {
			return err
		}
	}
	provider, err := c.GetProvider(ctx)
	if err != nil {
		return err
	}
	runOpts, err := root.RunOptions(cfg, "transform", models.OutputColumnTransform)
	if err != nil {
		return err
	}

	var res common.Result
	var runErr error
	if schema != nil {
		d, err := transformer.NewDecompose(provider, opts.Prompt, schema, logger, transformer.WithMaxTokens(cfg.LLM.MaxTokens))
		if err != nil {
			return err
		}
		res, runErr = common.ProcessFile(ctx, runOpts, common.Processor[[]models.Record]{
			Single: d.Transform,
			Batch:  d.TransformBatch,
			Encode: transformer.EncodeRecords,
			Decode: transformer.DecodeRecords,
		}, c.NewReporter(), logger)
	} else {
		tr, err := transformer.New(provider, opts.Prompt, logger, transformer.WithMaxTokens(cfg.LLM.MaxTokens))
		if err != nil {
			return err
		}
		res, runErr = common.ProcessFile(ctx, runOpts, common.TextProcessor(tr.Transform, tr.TransformBatch), c.NewReporter(), logger)
	}
	if res.Stats.Total > 0 {
		common.PrintSummary(cmd.OutOrStdout(), res, c.Usage(), c.GetPricing())
	}
	return runErr
}

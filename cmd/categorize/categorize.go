// Package categorize handles the categorize command
package categorize

import (
	"context"
	"fmt"

	"fjacquet/databonsai/cmd/common"
	"fjacquet/databonsai/cmd/root"
	"fjacquet/databonsai/internal/categorizer"
	"fjacquet/databonsai/internal/container"
	"fjacquet/databonsai/internal/logging"
	"fjacquet/databonsai/internal/models"

	"github.com/spf13/cobra"
)

var (
	categoriesFile string
	multi          bool
	mappingsFile   string
)

// Cmd represents the categorize command
var Cmd = &cobra.Command{
	Use:   "categorize",
	Short: "Categorize a text column into a fixed set of categories",
	Long: `Categorize assigns each row of the input column one category (or, with
--multi, one or more categories) from a YAML category file, using the
configured LLM provider. Known texts can be resolved from a mappings file,
which is updated with every new answer.`,
	RunE: categorizeFunc,
}

func init() {
	Cmd.Flags().StringVar(&categoriesFile, "categories", "", "YAML file of categories and their descriptions")
	Cmd.Flags().BoolVar(&multi, "multi", false, "Allow several categories per row")
	Cmd.Flags().StringVar(&mappingsFile, "mappings", "", "YAML file of known text to category mappings (single-label only)")
	_ = Cmd.MarkFlagRequired("categories")
}

func categorizeFunc(cmd *cobra.Command, args []string) error {
	return Run(cmd.Context(), root.AppContainer, Options{
		CategoriesFile: categoriesFile,
		Multi:          multi,
		MappingsFile:   mappingsFile,
	}, cmd)
}

// Options are the categorize-specific flags.
type Options struct {
	CategoriesFile string
	Multi          bool
	MappingsFile   string
}

// Run categorizes the input file described by the shared flags.
func Run(ctx context.Context, c *container.Container, opts Options, cmd *cobra.Command) error {
	if c == nil {
		return fmt.Errorf("application not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	logger := c.GetLogger()
	cfg := c.GetConfig()

	categories, err := c.GetStore().LoadCategories(opts.CategoriesFile)
	if err != nil {
		return err
	}
	provider, err := c.GetProvider(ctx)
	if err != nil {
		return err
	}
	runOpts, err := root.RunOptions(cfg, "categorize", models.OutputColumnCategory)
	if err != nil {
		return err
	}

	var res common.Result
	var runErr error
	if opts.Multi {
		if opts.MappingsFile != "" {
			logger.Warn("Mappings are ignored with --multi")
		}
		m, err := categorizer.NewMulti(provider, categories, logger, categorizer.WithMaxTokens(cfg.LLM.MaxTokens))
		if err != nil {
			return err
		}
		res, runErr = common.ProcessFile(ctx, runOpts, common.Processor[[]string]{
			Single: m.Categorize,
			Batch:  m.CategorizeBatch,
			Encode: categorizer.JoinLabels,
			Decode: categorizer.SplitLabels,
		}, c.NewReporter(), logger)
	} else {
		var mapping *categorizer.DirectMapping
		if opts.MappingsFile != "" {
			known, err := c.GetStore().LoadMappings(opts.MappingsFile)
			if err != nil {
				return err
			}
			mapping = categorizer.NewDirectMapping(known, logger)
		}
		cat, err := categorizer.New(provider, categories, logger,
			categorizer.WithMapping(mapping), categorizer.WithMaxTokens(cfg.LLM.MaxTokens))
		if err != nil {
			return err
		}
		res, runErr = common.ProcessFile(ctx, runOpts, common.TextProcessor(cat.Categorize, cat.CategorizeBatch), c.NewReporter(), logger)

		// Learnt mappings are kept even when the run stopped early.
		if mapping.Dirty() {
			if err := c.GetStore().SaveMappings(opts.MappingsFile, mapping.Snapshot()); err != nil {
				logger.WithError(err).Warn("Failed to save mappings")
			} else {
				logger.Info("Saved mappings",
					logging.Field{Key: logging.FieldFile, Value: opts.MappingsFile},
					logging.Field{Key: logging.FieldCount, Value: mapping.Len()})
			}
		}
	}
	if res.Stats.Total > 0 {
		common.PrintSummary(cmd.OutOrStdout(), res, c.Usage(), c.GetPricing())
	}
	return runErr
}

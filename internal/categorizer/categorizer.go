// Package categorizer assigns labels from a fixed category set to free text,
// using an LLM provider. A DirectMapping of already known texts can be placed
// in front of the provider so that repeated inputs never reach the model.
package categorizer

import (
	"context"
	"fmt"
	"strings"

	"fjacquet/databonsai/internal/bonsaierror"
	"fjacquet/databonsai/internal/llm"
	"fjacquet/databonsai/internal/logging"
	"fjacquet/databonsai/internal/models"
)

const componentName = "categorizer"

// Categorizer picks exactly one category per input.
type Categorizer struct {
	categories models.CategorySet
	provider   llm.Provider
	mapping    *DirectMapping
	maxTokens  int
	logger     logging.Logger
}

// Option configures a Categorizer or MultiCategorizer.
type Option func(*settings)

type settings struct {
	mapping   *DirectMapping
	maxTokens int
}

// WithMapping consults m before the provider and records every category the
// provider assigns.
func WithMapping(m *DirectMapping) Option {
	return func(s *settings) { s.mapping = m }
}

// WithMaxTokens caps the provider's answer length.
func WithMaxTokens(n int) Option {
	return func(s *settings) { s.maxTokens = n }
}

func validateCategories(categories models.CategorySet) error {
	if len(categories) < 2 {
		return &bonsaierror.PreconditionError{
			Param:  "categories",
			Value:  len(categories),
			Reason: "at least two categories are required",
		}
	}
	seen := make(map[string]bool, len(categories))
	for _, c := range categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return &bonsaierror.PreconditionError{Param: "categories", Value: c.Name, Reason: "category name must not be empty"}
		}
		if seen[name] {
			return &bonsaierror.PreconditionError{Param: "categories", Value: name, Reason: "duplicate category"}
		}
		seen[name] = true
	}
	return nil
}

func newSettings(opts []Option) settings {
	s := settings{maxTokens: llm.DefaultMaxTokens}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// New creates a Categorizer over categories.
func New(provider llm.Provider, categories models.CategorySet, logger logging.Logger, opts ...Option) (*Categorizer, error) {
	if provider == nil {
		return nil, &bonsaierror.PreconditionError{Param: "provider", Value: nil, Reason: "provider is required"}
	}
	if err := validateCategories(categories); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.GetLogger()
	}
	s := newSettings(opts)
	return &Categorizer{
		categories: categories,
		provider:   provider,
		mapping:    s.mapping,
		maxTokens:  s.maxTokens,
		logger:     logger.WithField(logging.FieldOperation, "categorize"),
	}, nil
}

// Categories returns the category set.
func (c *Categorizer) Categories() models.CategorySet {
	return c.categories
}

// Categorize returns the category of text.
func (c *Categorizer) Categorize(ctx context.Context, text string) (string, error) {
	if category, ok := c.mapping.Lookup(text); ok {
		c.logger.Debug("Category found in mapping", logging.Field{Key: logging.FieldCategory, Value: category})
		return category, nil
	}

	response, err := c.provider.Generate(ctx, singlePrompt(c.categories), text, llm.WithMaxTokens(c.maxTokens))
	if err != nil {
		return "", fmt.Errorf("categorize: %w", err)
	}

	category := strings.TrimSpace(response)
	if !c.categories.Contains(category) {
		return "", &bonsaierror.ValidationError{
			Component: componentName,
			Reason:    fmt.Sprintf("predicted category %q is not one of the provided categories", category),
			Output:    response,
		}
	}
	c.mapping.Update(text, category)
	return category, nil
}

// CategorizeBatch returns one category per text, in order. Texts known to the
// mapping are resolved locally; the rest are sent in a single request whose
// answer must hold one category per text, separated by "||".
func (c *Categorizer) CategorizeBatch(ctx context.Context, texts []string) ([]string, error) {
	if len(texts) == 0 {
		return nil, &bonsaierror.PreconditionError{Param: "texts", Value: 0, Reason: "at least one text is required"}
	}

	result := make([]string, len(texts))
	pending := c.resolveKnown(texts, result)
	if len(pending) == 0 {
		return result, nil
	}

	batch := make([]string, len(pending))
	for i, idx := range pending {
		batch[i] = texts[idx]
	}
	response, err := c.provider.GenerateBatch(ctx, batchPrompt(c.categories), batch, llm.WithMaxTokens(c.maxTokens))
	if err != nil {
		return nil, fmt.Errorf("categorize batch: %w", err)
	}

	predicted, err := splitBatch(response, len(batch))
	if err != nil {
		return nil, err
	}
	for _, category := range predicted {
		if !c.categories.Contains(category) {
			return nil, &bonsaierror.ValidationError{
				Component: componentName,
				Reason:    fmt.Sprintf("predicted category %q is not one of the provided categories", category),
				Output:    response,
			}
		}
	}

	for i, idx := range pending {
		result[idx] = predicted[i]
		c.mapping.Update(texts[idx], predicted[i])
	}
	c.logger.Debug("Batch categorized",
		logging.Field{Key: logging.FieldBatchSize, Value: len(texts)},
		logging.Field{Key: "from_mapping", Value: len(texts) - len(pending)})
	return result, nil
}

// resolveKnown fills result from the mapping and returns the indices still
// to be categorized.
func (c *Categorizer) resolveKnown(texts, result []string) []int {
	pending := make([]int, 0, len(texts))
	for i, text := range texts {
		if category, ok := c.mapping.Lookup(text); ok {
			result[i] = category
			continue
		}
		pending = append(pending, i)
	}
	return pending
}

// splitBatch splits a "||"-separated answer and checks it has want parts.
func splitBatch(response string, want int) ([]string, error) {
	parts := strings.Split(response, models.BatchSeparator)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) != want {
		return nil, &bonsaierror.ValidationError{
			Component: componentName,
			Reason:    fmt.Sprintf("number of predicted categories (%d) does not match the number of inputs (%d)", len(parts), want),
			Output:    response,
		}
	}
	return parts, nil
}

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

// MultiCategorizer assigns one or more categories per input.
type MultiCategorizer struct {
	categories models.CategorySet
	provider   llm.Provider
	maxTokens  int
	logger     logging.Logger
}

// NewMulti creates a MultiCategorizer over categories. Mappings are not used:
// a known single label says nothing about the full label set.
func NewMulti(provider llm.Provider, categories models.CategorySet, logger logging.Logger, opts ...Option) (*MultiCategorizer, error) {
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
	return &MultiCategorizer{
		categories: categories,
		provider:   provider,
		maxTokens:  s.maxTokens,
		logger:     logger.WithField(logging.FieldOperation, "multi_categorize"),
	}, nil
}

// Categorize returns the categories of text.
func (m *MultiCategorizer) Categorize(ctx context.Context, text string) ([]string, error) {
	response, err := m.provider.Generate(ctx, multiPrompt(m.categories), text, llm.WithMaxTokens(m.maxTokens))
	if err != nil {
		return nil, fmt.Errorf("categorize: %w", err)
	}
	return m.parseLabels(response, response)
}

// CategorizeBatch returns the categories of every text, in order. The answer
// must hold one comma-separated list per text, separated by "||".
func (m *MultiCategorizer) CategorizeBatch(ctx context.Context, texts []string) ([][]string, error) {
	if len(texts) == 0 {
		return nil, &bonsaierror.PreconditionError{Param: "texts", Value: 0, Reason: "at least one text is required"}
	}

	response, err := m.provider.GenerateBatch(ctx, multiBatchPrompt(m.categories), texts, llm.WithMaxTokens(m.maxTokens))
	if err != nil {
		return nil, fmt.Errorf("categorize batch: %w", err)
	}

	groups, err := splitBatch(response, len(texts))
	if err != nil {
		return nil, err
	}
	result := make([][]string, len(groups))
	for i, group := range groups {
		labels, err := m.parseLabels(group, response)
		if err != nil {
			return nil, err
		}
		result[i] = labels
	}
	m.logger.Debug("Batch categorized", logging.Field{Key: logging.FieldBatchSize, Value: len(texts)})
	return result, nil
}

// parseLabels splits a comma-separated list and checks every label belongs
// to the category set.
func (m *MultiCategorizer) parseLabels(list, response string) ([]string, error) {
	parts := strings.Split(list, models.CategorySeparator)
	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		label := strings.TrimSpace(p)
		if !m.categories.Contains(label) {
			return nil, &bonsaierror.ValidationError{
				Component: componentName,
				Reason:    fmt.Sprintf("predicted category %q is not one of the provided categories", label),
				Output:    response,
			}
		}
		labels = append(labels, label)
	}
	return labels, nil
}

// JoinLabels renders labels for a single table cell.
func JoinLabels(labels []string) (string, error) {
	return strings.Join(labels, models.CategorySeparator+" "), nil
}

// SplitLabels parses a cell written by JoinLabels.
func SplitLabels(cell string) ([]string, error) {
	if strings.TrimSpace(cell) == "" {
		return nil, nil
	}
	parts := strings.Split(cell, models.CategorySeparator)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, nil
}

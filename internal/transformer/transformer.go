// Package transformer rewrites free text with an LLM provider, either into new
// text or into structured records following an output schema.
package transformer

import (
	"context"
	"fmt"
	"strings"

	"fjacquet/databonsai/internal/bonsaierror"
	"fjacquet/databonsai/internal/llm"
	"fjacquet/databonsai/internal/logging"
	"fjacquet/databonsai/internal/models"
)

const componentName = "transformer"

// Transformer rewrites each input following a free-form prompt.
type Transformer struct {
	prompt    string
	provider  llm.Provider
	maxTokens int
	logger    logging.Logger
}

// Option configures a Transformer or DecomposeTransformer.
type Option func(*settings)

type settings struct {
	maxTokens int
}

// WithMaxTokens caps the provider's answer length.
func WithMaxTokens(n int) Option {
	return func(s *settings) { s.maxTokens = n }
}

func newSettings(opts []Option) settings {
	s := settings{maxTokens: llm.DefaultMaxTokens}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func checkArgs(provider llm.Provider, prompt string) error {
	if provider == nil {
		return &bonsaierror.PreconditionError{Param: "provider", Value: nil, Reason: "provider is required"}
	}
	if strings.TrimSpace(prompt) == "" {
		return &bonsaierror.PreconditionError{Param: "prompt", Value: prompt, Reason: "prompt cannot be empty"}
	}
	return nil
}

// New creates a Transformer applying prompt.
func New(provider llm.Provider, prompt string, logger logging.Logger, opts ...Option) (*Transformer, error) {
	if err := checkArgs(provider, prompt); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.GetLogger()
	}
	s := newSettings(opts)
	return &Transformer{
		prompt:    prompt,
		provider:  provider,
		maxTokens: s.maxTokens,
		logger:    logger.WithField(logging.FieldOperation, "transform"),
	}, nil
}

// Prompt returns the transformation prompt.
func (t *Transformer) Prompt() string {
	return t.prompt
}

// Transform returns the rewritten text.
func (t *Transformer) Transform(ctx context.Context, text string) (string, error) {
	response, err := t.provider.Generate(ctx, transformPrompt(t.prompt), text, llm.WithMaxTokens(t.maxTokens))
	if err != nil {
		return "", fmt.Errorf("transform: %w", err)
	}
	return strings.TrimSpace(response), nil
}

// TransformBatch rewrites every text in a single request. The answer must hold
// one result per text, separated by "||".
func (t *Transformer) TransformBatch(ctx context.Context, texts []string) ([]string, error) {
	if len(texts) == 0 {
		return nil, &bonsaierror.PreconditionError{Param: "texts", Value: 0, Reason: "at least one text is required"}
	}

	response, err := t.provider.GenerateBatch(ctx, transformBatchPrompt(t.prompt), texts, llm.WithMaxTokens(t.maxTokens))
	if err != nil {
		return nil, fmt.Errorf("transform batch: %w", err)
	}

	parts := strings.Split(response, models.BatchSeparator)
	if len(parts) != len(texts) {
		return nil, &bonsaierror.ValidationError{
			Component: componentName,
			Reason:    fmt.Sprintf("number of transformed items (%d) does not match the number of inputs (%d)", len(parts), len(texts)),
			Output:    response,
		}
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	t.logger.Debug("Batch transformed", logging.Field{Key: logging.FieldBatchSize, Value: len(texts)})
	return parts, nil
}

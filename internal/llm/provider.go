// Package llm talks to the language-model backends used by the categorizers
// and transformers. Every backend is exposed through the same Provider
// interface and can be wrapped with retry and rate-limit decorators.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fjacquet/databonsai/internal/bonsaierror"
	"fjacquet/databonsai/internal/logging"
)

// DefaultMaxTokens caps completions when the caller does not say otherwise.
const DefaultMaxTokens = 1000

// Provider generates completions from a system prompt and user content.
type Provider interface {
	// Name identifies the backend in logs and errors.
	Name() string
	// Generate completes a single user prompt.
	Generate(ctx context.Context, system, user string, opts ...CallOption) (string, error)
	// GenerateBatch completes several user prompts in one request. The prompts
	// are numbered and joined as rendered by JoinBatch.
	GenerateBatch(ctx context.Context, system string, users []string, opts ...CallOption) (string, error)
	// Usage returns the tokens consumed so far.
	Usage() Usage
}

// Request is one completion call as seen by a backend.
type Request struct {
	System    string
	User      string
	MaxTokens int
	JSON      bool
}

// Completion is a backend's answer to a Request.
type Completion struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// CallOption adjusts a single Generate or GenerateBatch call.
type CallOption func(*Request)

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) CallOption {
	return func(r *Request) {
		if n > 0 {
			r.MaxTokens = n
		}
	}
}

// WithJSON asks the backend for a JSON document, where supported.
func WithJSON() CallOption {
	return func(r *Request) { r.JSON = true }
}

// JoinBatch renders batch content as "Content 1: a, Content 2: b".
func JoinBatch(users []string) string {
	parts := make([]string, len(users))
	for i, u := range users {
		parts[i] = fmt.Sprintf("Content %d: %s", i+1, u)
	}
	return strings.Join(parts, ", ")
}

// backend performs one request against a concrete API.
type backend interface {
	complete(ctx context.Context, req Request) (Completion, error)
}

// Client is the Provider shared by every backend. It validates prompts,
// counts tokens and logs each call.
type Client struct {
	name      string
	model     string
	maxTokens int
	backend   backend
	usage     usageCounter
	logger    logging.Logger
	closer    func() error
}

func newClient(name, model string, b backend, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Client{
		name:      name,
		model:     model,
		maxTokens: DefaultMaxTokens,
		backend:   b,
		logger: logger.WithFields(
			logging.Field{Key: logging.FieldProvider, Value: name},
			logging.Field{Key: logging.FieldModel, Value: model}),
	}
}

// Name returns the backend name.
func (c *Client) Name() string {
	return c.name
}

// Model returns the model requests are sent to.
func (c *Client) Model() string {
	return c.model
}

// Usage returns the tokens consumed so far.
func (c *Client) Usage() Usage {
	return c.usage.snapshot()
}

// Close releases resources held by the backend.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

// Generate completes a single user prompt.
func (c *Client) Generate(ctx context.Context, system, user string, opts ...CallOption) (string, error) {
	if err := c.checkSystem(system); err != nil {
		return "", err
	}
	if user == "" {
		return "", &bonsaierror.PreconditionError{Param: "user_prompt", Value: user, Reason: "user prompt is required"}
	}
	return c.complete(ctx, c.request(system, user, opts))
}

// GenerateBatch completes several user prompts in one request.
func (c *Client) GenerateBatch(ctx context.Context, system string, users []string, opts ...CallOption) (string, error) {
	if err := c.checkSystem(system); err != nil {
		return "", err
	}
	if len(users) == 0 {
		return "", &bonsaierror.PreconditionError{Param: "user_prompts", Value: 0, Reason: "at least one user prompt is required"}
	}
	return c.complete(ctx, c.request(system, JoinBatch(users), opts))
}

func (c *Client) checkSystem(system string) error {
	if strings.TrimSpace(system) == "" {
		return &bonsaierror.PreconditionError{Param: "system_prompt", Value: system, Reason: "system prompt is required"}
	}
	return nil
}

func (c *Client) request(system, user string, opts []CallOption) Request {
	req := Request{System: system, User: user, MaxTokens: c.maxTokens}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}

func (c *Client) complete(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	out, err := c.backend.complete(ctx, req)
	if err != nil {
		c.logger.WithError(err).Debug("Completion failed",
			logging.Field{Key: logging.FieldDuration, Value: time.Since(start).Milliseconds()})
		return "", err
	}
	c.usage.add(out.InputTokens, out.OutputTokens)
	c.logger.Debug("Completion received",
		logging.Field{Key: "input_tokens", Value: out.InputTokens},
		logging.Field{Key: "output_tokens", Value: out.OutputTokens},
		logging.Field{Key: logging.FieldDuration, Value: time.Since(start).Milliseconds()})
	return out.Text, nil
}

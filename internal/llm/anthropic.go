package llm

import (
	"context"
	"net/http"
	"strings"
	"time"

	"fjacquet/databonsai/internal/bonsaierror"
	"fjacquet/databonsai/internal/logging"
)

const (
	anthropicName           = "anthropic"
	anthropicDefaultBaseURL = "https://api.anthropic.com"
	anthropicDefaultModel   = "claude-3-haiku-20240307"
	anthropicVersion        = "2023-06-01"
)

// AnthropicConfig configures the Anthropic Messages API backend.
type AnthropicConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	Timeout     time.Duration
	HTTPClient  *http.Client
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	System      string             `json:"system"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicBackend struct {
	hc          *http.Client
	url         string
	apiKey      string
	model       string
	temperature float64
}

// NewAnthropic creates a client for the Anthropic Messages API.
func NewAnthropic(cfg AnthropicConfig, logger logging.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, &bonsaierror.PreconditionError{Param: "api_key", Value: "", Reason: "Anthropic API key not provided"}
	}
	if cfg.Model == "" {
		cfg.Model = anthropicDefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = anthropicDefaultBaseURL
	}
	b := &anthropicBackend{
		hc:          newHTTPClient(cfg.HTTPClient, cfg.Timeout),
		url:         joinURL(cfg.BaseURL, "/v1/messages"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
	return newClient(anthropicName, cfg.Model, b, logger), nil
}

// complete ignores req.JSON: the Messages API has no JSON mode, the prompts
// ask for JSON explicitly.
func (b *anthropicBackend) complete(ctx context.Context, req Request) (Completion, error) {
	body := anthropicRequest{
		Model:       b.model,
		System:      req.System,
		Messages:    []anthropicMessage{{Role: "user", Content: req.User}},
		MaxTokens:   req.MaxTokens,
		Temperature: b.temperature,
	}

	var resp anthropicResponse
	headers := map[string]string{
		"x-api-key":         b.apiKey,
		"anthropic-version": anthropicVersion,
	}
	if err := postJSON(ctx, b.hc, anthropicName, b.url, headers, body, &resp); err != nil {
		return Completion{}, err
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return Completion{}, emptyResponse(anthropicName)
	}
	return Completion{
		Text:         text.String(),
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}

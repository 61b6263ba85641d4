package llm

import (
	"context"
	"net/http"
	"time"

	"fjacquet/databonsai/internal/logging"
)

const (
	ollamaName           = "ollama"
	ollamaDefaultBaseURL = "http://localhost:11434"
	ollamaDefaultModel   = "llama3"
)

// OllamaConfig configures a local Ollama backend. No API key is needed.
type OllamaConfig struct {
	Model       string
	BaseURL     string
	Temperature float64
	Timeout     time.Duration
	HTTPClient  *http.Client
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format,omitempty"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaChatResponse struct {
	Message         ollamaMessage `json:"message"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
}

type ollamaBackend struct {
	hc          *http.Client
	url         string
	model       string
	temperature float64
}

// NewOllama creates a client for Ollama's /api/chat endpoint.
func NewOllama(cfg OllamaConfig, logger logging.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = ollamaDefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = ollamaDefaultBaseURL
	}
	b := &ollamaBackend{
		hc:          newHTTPClient(cfg.HTTPClient, cfg.Timeout),
		url:         joinURL(cfg.BaseURL, "/api/chat"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
	return newClient(ollamaName, cfg.Model, b, logger)
}

func (b *ollamaBackend) complete(ctx context.Context, req Request) (Completion, error) {
	body := ollamaChatRequest{
		Model: b.model,
		Messages: []ollamaMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Options: ollamaOptions{Temperature: b.temperature, NumPredict: req.MaxTokens},
	}
	if req.JSON {
		body.Format = "json"
	}

	var resp ollamaChatResponse
	if err := postJSON(ctx, b.hc, ollamaName, b.url, nil, body, &resp); err != nil {
		return Completion{}, err
	}
	if resp.Message.Content == "" {
		return Completion{}, emptyResponse(ollamaName)
	}
	return Completion{
		Text:         resp.Message.Content,
		InputTokens:  resp.PromptEvalCount,
		OutputTokens: resp.EvalCount,
	}, nil
}

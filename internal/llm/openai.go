package llm

import (
	"context"
	"net/http"
	"time"

	"fjacquet/databonsai/internal/bonsaierror"
	"fjacquet/databonsai/internal/logging"
)

const (
	openAIName           = "openai"
	openAIDefaultBaseURL = "https://api.openai.com/v1"
	openAIDefaultModel   = "gpt-4-turbo"
)

// OpenAIConfig configures the OpenAI chat completions backend. BaseURL may
// point at any OpenAI-compatible service.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	Timeout     time.Duration
	HTTPClient  *http.Client
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIRequest struct {
	Model          string               `json:"model"`
	Messages       []openAIMessage      `json:"messages"`
	Temperature    float64              `json:"temperature"`
	MaxTokens      int                  `json:"max_tokens"`
	TopP           float64              `json:"top_p"`
	ResponseFormat openAIResponseFormat `json:"response_format"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type openAIBackend struct {
	hc          *http.Client
	url         string
	apiKey      string
	model       string
	temperature float64
}

// NewOpenAI creates a client for the OpenAI chat completions API.
func NewOpenAI(cfg OpenAIConfig, logger logging.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, &bonsaierror.PreconditionError{Param: "api_key", Value: "", Reason: "OpenAI API key not provided"}
	}
	if cfg.Model == "" {
		cfg.Model = openAIDefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = openAIDefaultBaseURL
	}
	b := &openAIBackend{
		hc:          newHTTPClient(cfg.HTTPClient, cfg.Timeout),
		url:         joinURL(cfg.BaseURL, "/chat/completions"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
	return newClient(openAIName, cfg.Model, b, logger), nil
}

func (b *openAIBackend) complete(ctx context.Context, req Request) (Completion, error) {
	format := "text"
	if req.JSON {
		format = "json_object"
	}
	body := openAIRequest{
		Model: b.model,
		Messages: []openAIMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature:    b.temperature,
		MaxTokens:      req.MaxTokens,
		TopP:           0.1,
		ResponseFormat: openAIResponseFormat{Type: format},
	}

	var resp openAIResponse
	headers := map[string]string{"Authorization": "Bearer " + b.apiKey}
	if err := postJSON(ctx, b.hc, openAIName, b.url, headers, body, &resp); err != nil {
		return Completion{}, err
	}
	if len(resp.Choices) == 0 {
		return Completion{}, emptyResponse(openAIName)
	}
	return Completion{
		Text:         resp.Choices[0].Message.Content,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

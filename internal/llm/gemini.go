package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fjacquet/databonsai/internal/bonsaierror"
	"fjacquet/databonsai/internal/logging"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	geminiName         = "gemini"
	geminiDefaultModel = "gemini-1.5-flash"
)

// GeminiConfig configures the Google Gemini backend.
type GeminiConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	// Options are appended to the client options, after the API key.
	Options []option.ClientOption
}

type geminiBackend struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGemini creates a client for the Gemini API.
func NewGemini(ctx context.Context, cfg GeminiConfig, logger logging.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, &bonsaierror.PreconditionError{Param: "api_key", Value: "", Reason: "Gemini API key not provided"}
	}
	if cfg.Model == "" {
		cfg.Model = geminiDefaultModel
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}
	opts = append(opts, cfg.Options...)

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	b := &geminiBackend{client: client, model: cfg.Model, temperature: float32(cfg.Temperature)}
	c := newClient(geminiName, cfg.Model, b, logger)
	c.closer = client.Close
	return c, nil
}

func (b *geminiBackend) complete(ctx context.Context, req Request) (Completion, error) {
	model := b.client.GenerativeModel(b.model)
	model.SystemInstruction = genai.NewUserContent(genai.Text(req.System))
	model.SetTemperature(b.temperature)
	model.SetMaxOutputTokens(int32(req.MaxTokens))
	if req.JSON {
		model.ResponseMIMEType = "application/json"
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.User))
	if err != nil {
		return Completion{}, geminiError(ctx, err)
	}
	return geminiCompletion(resp)
}

// geminiError classifies a genai failure. API errors carry an HTTP code
// through HTTPCode(); anything else is treated as transient.
func geminiError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%s: request: %w", geminiName, ctx.Err())
	}
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &bonsaierror.ProviderError{Provider: geminiName, Message: "response blocked", Err: err}
	}
	var coded interface{ HTTPCode() int }
	if errors.As(err, &coded) && coded.HTTPCode() > 0 {
		return &bonsaierror.ProviderError{
			Provider:   geminiName,
			StatusCode: coded.HTTPCode(),
			Retryable:  bonsaierror.RetryableStatus(coded.HTTPCode()),
			Err:        err,
		}
	}
	return &bonsaierror.ProviderError{Provider: geminiName, Retryable: true, Err: err}
}

func geminiCompletion(resp *genai.GenerateContentResponse) (Completion, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Completion{}, emptyResponse(geminiName)
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	if text.Len() == 0 {
		return Completion{}, emptyResponse(geminiName)
	}

	out := Completion{Text: text.String()}
	if resp.UsageMetadata != nil {
		out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}

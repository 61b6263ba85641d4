package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fjacquet/databonsai/internal/bonsaierror"
)

// DefaultTimeout bounds a single HTTP request to a provider.
const DefaultTimeout = 60 * time.Second

const maxErrorBody = 4 << 10

func newHTTPClient(hc *http.Client, timeout time.Duration) *http.Client {
	if hc != nil {
		return hc
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// postJSON sends in as a JSON body and decodes a 2xx answer into out. Failures
// are reported as *bonsaierror.ProviderError, except cancellation of ctx which
// is returned as is.
func postJSON(ctx context.Context, hc *http.Client, provider, url string, headers map[string]string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", provider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s: request: %w", provider, ctx.Err())
		}
		return &bonsaierror.ProviderError{Provider: provider, Message: "request failed", Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &bonsaierror.ProviderError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(raw, resp.StatusCode),
			Retryable:  bonsaierror.RetryableStatus(resp.StatusCode),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &bonsaierror.ProviderError{Provider: provider, Message: "decode response", Retryable: true, Err: err}
	}
	return nil
}

// errorMessage extracts a message from the error bodies used by the
// supported APIs: {"error": {"message": "..."}} and {"error": "..."}.
func errorMessage(raw []byte, status int) string {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) == nil && len(envelope.Error) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(envelope.Error, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
		var flat string
		if json.Unmarshal(envelope.Error, &flat) == nil && flat != "" {
			return flat
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" && len(text) <= 200 {
		return text
	}
	return http.StatusText(status)
}

func emptyResponse(provider string) error {
	return &bonsaierror.ProviderError{Provider: provider, Message: "empty response content", Retryable: true}
}

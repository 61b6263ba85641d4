package llm

import (
	"context"
	"errors"
	"testing"

	"fjacquet/databonsai/internal/bonsaierror"
	"fjacquet/databonsai/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	requests []Request
	reply    Completion
	err      error
}

func (f *fakeBackend) complete(_ context.Context, req Request) (Completion, error) {
	f.requests = append(f.requests, req)
	return f.reply, f.err
}

func TestJoinBatch(t *testing.T) {
	assert.Equal(t, "Content 1: a, Content 2: b", JoinBatch([]string{"a", "b"}))
	assert.Equal(t, "Content 1: only", JoinBatch([]string{"only"}))
	assert.Equal(t, "", JoinBatch(nil))
}

func TestClient_Generate(t *testing.T) {
	backend := &fakeBackend{reply: Completion{Text: "Positive", InputTokens: 12, OutputTokens: 1}}
	logger := logging.NewMockLogger()
	c := newClient("fake", "fake-1", backend, logger)

	out, err := c.Generate(context.Background(), "Classify.", "I love it", WithMaxTokens(50))

	require.NoError(t, err)
	assert.Equal(t, "Positive", out)
	require.Len(t, backend.requests, 1)
	assert.Equal(t, Request{System: "Classify.", User: "I love it", MaxTokens: 50}, backend.requests[0])
	assert.Equal(t, Usage{Requests: 1, InputTokens: 12, OutputTokens: 1}, c.Usage())
	assert.True(t, logger.HasEntry("DEBUG", "Completion received"))
}

func TestClient_GenerateBatch(t *testing.T) {
	backend := &fakeBackend{reply: Completion{Text: "A||B"}}
	c := newClient("fake", "fake-1", backend, logging.NewMockLogger())

	out, err := c.GenerateBatch(context.Background(), "Classify.", []string{"x", "y"}, WithJSON())

	require.NoError(t, err)
	assert.Equal(t, "A||B", out)
	assert.Equal(t, "Content 1: x, Content 2: y", backend.requests[0].User)
	assert.Equal(t, DefaultMaxTokens, backend.requests[0].MaxTokens)
	assert.True(t, backend.requests[0].JSON)
}

func TestClient_RejectsEmptyPrompts(t *testing.T) {
	backend := &fakeBackend{}
	c := newClient("fake", "fake-1", backend, logging.NewMockLogger())
	ctx := context.Background()

	tests := []struct {
		name  string
		call  func() error
		param string
	}{
		{"empty system", func() error { _, err := c.Generate(ctx, " ", "x"); return err }, "system_prompt"},
		{"empty user", func() error { _, err := c.Generate(ctx, "s", ""); return err }, "user_prompt"},
		{"empty batch system", func() error { _, err := c.GenerateBatch(ctx, "", []string{"x"}); return err }, "system_prompt"},
		{"empty batch", func() error { _, err := c.GenerateBatch(ctx, "s", nil); return err }, "user_prompts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			var pe *bonsaierror.PreconditionError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.param, pe.Param)
			assert.False(t, bonsaierror.IsRetryable(err))
		})
	}
	assert.Empty(t, backend.requests)
}

func TestClient_BackendErrorNotCounted(t *testing.T) {
	backend := &fakeBackend{err: errors.New("boom")}
	c := newClient("fake", "fake-1", backend, logging.NewMockLogger())

	_, err := c.Generate(context.Background(), "s", "u")

	assert.EqualError(t, err, "boom")
	assert.Equal(t, Usage{}, c.Usage())
}

func TestMockProvider(t *testing.T) {
	m := NewMockProvider(func(call MockCall) (string, error) {
		if call.Batch != nil {
			return "batch", nil
		}
		return "single", nil
	})

	out, err := m.Generate(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, "single", out)

	out, err = m.GenerateBatch(context.Background(), "s", []string{"a"}, WithJSON())
	require.NoError(t, err)
	assert.Equal(t, "batch", out)

	calls := m.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "u", calls[0].User)
	assert.Equal(t, []string{"a"}, calls[1].Batch)
	assert.True(t, calls[1].JSON)
	assert.Equal(t, int64(2), m.Usage().Requests)
}

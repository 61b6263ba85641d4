package transformer

import (
	"context"
	"errors"
	"testing"

	"fjacquet/databonsai/internal/bonsaierror"
	"fjacquet/databonsai/internal/llm"
	"fjacquet/databonsai/internal/logging"
	"fjacquet/databonsai/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reply(text string) func(llm.MockCall) (string, error) {
	return func(llm.MockCall) (string, error) { return text, nil }
}

func TestNew_Validation(t *testing.T) {
	_, err := New(llm.NewMockProvider(nil), "  ", logging.NewMockLogger())
	assert.True(t, errors.Is(err, bonsaierror.ErrValue))

	_, err = New(nil, "Fix typos", logging.NewMockLogger())
	assert.True(t, errors.Is(err, bonsaierror.ErrValue))
}

func TestTransformer_Transform(t *testing.T) {
	provider := llm.NewMockProvider(reply("\n Hello world \n"))
	tr, err := New(provider, "Fix the spelling", logging.NewMockLogger())
	require.NoError(t, err)

	got, err := tr.Transform(context.Background(), "helo wrld")

	require.NoError(t, err)
	assert.Equal(t, "Hello world", got)
	calls := provider.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "helo wrld", calls[0].User)
	assert.Contains(t, calls[0].System, "Prompt: Fix the spelling")
	assert.False(t, calls[0].JSON)
}

func TestTransformer_TransformBatch(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     []string
		wantErr  bool
	}{
		{"valid", "Hello || World", []string{"Hello", "World"}, false},
		{"too few", "Hello World", nil, true},
		{"too many", "a||b||c", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := New(llm.NewMockProvider(reply(tt.response)), "Capitalize", nil)
			require.NoError(t, err)

			got, err := tr.TransformBatch(context.Background(), []string{"hello", "world"})

			if tt.wantErr {
				assert.True(t, errors.Is(err, bonsaierror.ErrValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransformer_ProviderError(t *testing.T) {
	cause := &bonsaierror.ProviderError{Provider: "mock", StatusCode: 429, Retryable: true}
	tr, err := New(llm.NewMockProvider(func(llm.MockCall) (string, error) { return "", cause }), "x", nil)
	require.NoError(t, err)

	_, err = tr.Transform(context.Background(), "a")
	assert.ErrorIs(t, err, cause)
	_, err = tr.TransformBatch(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, cause)
	_, err = tr.TransformBatch(context.Background(), nil)
	assert.True(t, errors.Is(err, bonsaierror.ErrValue))
}

var contactSchema = models.OutputSchema{
	{Name: "name", Description: "full name of the person"},
	{Name: "email", Description: "email address"},
}

func TestNewDecompose_Validation(t *testing.T) {
	provider := llm.NewMockProvider(nil)

	tests := []struct {
		name   string
		prompt string
		schema models.OutputSchema
	}{
		{"empty schema", "Extract contacts", nil},
		{"duplicate key", "Extract contacts", models.OutputSchema{{Name: "a"}, {Name: "a"}}},
		{"blank key", "Extract contacts", models.OutputSchema{{Name: " "}}},
		{"empty prompt", "", contactSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDecompose(provider, tt.prompt, tt.schema, nil)
			assert.True(t, errors.Is(err, bonsaierror.ErrValue))
		})
	}
}

func TestDecomposeTransformer_Transform(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     []models.Record
		wantErr  bool
	}{
		{
			name:     "valid",
			response: `[{"name": "Ada", "email": "ada@example.com"}, {"name": "Bob", "email": "bob@example.com"}]`,
			want: []models.Record{
				{"name": "Ada", "email": "ada@example.com"},
				{"name": "Bob", "email": "bob@example.com"},
			},
		},
		{
			name:     "fenced",
			response: "```json\n[{\"name\": \"Ada\", \"email\": \"a@x.io\"}]\n```",
			want:     []models.Record{{"name": "Ada", "email": "a@x.io"}},
		},
		{name: "empty list", response: `[]`, want: []models.Record{}},
		{name: "not json", response: `Sure! Here are the contacts`, wantErr: true},
		{name: "object not list", response: `{"name": "Ada", "email": "a"}`, wantErr: true},
		{name: "missing key", response: `[{"name": "Ada"}]`, wantErr: true},
		{name: "extra key", response: `[{"name": "Ada", "email": "a", "phone": "1"}]`, wantErr: true},
		{name: "wrong key", response: `[{"name": "Ada", "mail": "a"}]`, wantErr: true},
		{name: "null item", response: `[null]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := llm.NewMockProvider(reply(tt.response))
			d, err := NewDecompose(provider, "Extract every contact", contactSchema, logging.NewMockLogger())
			require.NoError(t, err)

			got, err := d.Transform(context.Background(), "Ada <ada@example.com>, Bob <bob@example.com>")

			if tt.wantErr {
				assert.True(t, errors.Is(err, bonsaierror.ErrValidation), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			call := provider.Calls()[0]
			assert.True(t, call.JSON)
			assert.Contains(t, call.System, `{"name": "full name of the person", "email": "email address"}`)
		})
	}
}

func TestDecomposeTransformer_TransformBatch(t *testing.T) {
	provider := llm.NewMockProvider(reply(`[[{"name": "Ada", "email": "a@x.io"}], []]`))
	d, err := NewDecompose(provider, "Extract every contact", contactSchema, nil)
	require.NoError(t, err)

	got, err := d.TransformBatch(context.Background(), []string{"Ada a@x.io", "nobody"})

	require.NoError(t, err)
	assert.Equal(t, [][]models.Record{{{"name": "Ada", "email": "a@x.io"}}, {}}, got)
	assert.Equal(t, []string{"Ada a@x.io", "nobody"}, provider.Calls()[0].Batch)

	_, err = d.TransformBatch(context.Background(), []string{"a", "b", "c"})
	assert.True(t, errors.Is(err, bonsaierror.ErrValidation))
}

func TestDecomposeTransformer_TransformBatchRejectsBadRecords(t *testing.T) {
	d, err := NewDecompose(llm.NewMockProvider(reply(`[[{"name": "Ada"}], []]`)), "x", contactSchema, nil)
	require.NoError(t, err)

	_, err = d.TransformBatch(context.Background(), []string{"a", "b"})
	assert.True(t, errors.Is(err, bonsaierror.ErrValidation))
}

func TestRecords_Cell(t *testing.T) {
	cell, err := EncodeRecords([]models.Record{{"email": "a@x.io", "name": "Ada"}})
	require.NoError(t, err)
	assert.Equal(t, `[{"email":"a@x.io","name":"Ada"}]`, cell)

	records, err := DecodeRecords(cell)
	require.NoError(t, err)
	assert.Equal(t, []models.Record{{"email": "a@x.io", "name": "Ada"}}, records)

	cell, err = EncodeRecords(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", cell)

	records, err = DecodeRecords("")
	require.NoError(t, err)
	assert.Nil(t, records)

	_, err = DecodeRecords("{broken")
	assert.Error(t, err)
}

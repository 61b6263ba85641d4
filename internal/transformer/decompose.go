package transformer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"fjacquet/databonsai/internal/bonsaierror"
	"fjacquet/databonsai/internal/llm"
	"fjacquet/databonsai/internal/logging"
	"fjacquet/databonsai/internal/models"
)

// DecomposeTransformer splits each input into a list of records whose keys
// are exactly the keys of an output schema.
type DecomposeTransformer struct {
	prompt    string
	schema    models.OutputSchema
	provider  llm.Provider
	maxTokens int
	logger    logging.Logger
}

// NewDecompose creates a DecomposeTransformer.
func NewDecompose(provider llm.Provider, prompt string, schema models.OutputSchema, logger logging.Logger, opts ...Option) (*DecomposeTransformer, error) {
	if err := checkArgs(provider, prompt); err != nil {
		return nil, err
	}
	if len(schema) == 0 {
		return nil, &bonsaierror.PreconditionError{Param: "output_schema", Value: 0, Reason: "schema cannot be empty"}
	}
	seen := make(map[string]bool, len(schema))
	for _, f := range schema {
		name := strings.TrimSpace(f.Name)
		if name == "" || seen[name] {
			return nil, &bonsaierror.PreconditionError{Param: "output_schema", Value: f.Name, Reason: "schema keys must be unique and non-empty"}
		}
		seen[name] = true
	}
	if logger == nil {
		logger = logging.GetLogger()
	}
	s := newSettings(opts)
	return &DecomposeTransformer{
		prompt:    prompt,
		schema:    schema,
		provider:  provider,
		maxTokens: s.maxTokens,
		logger:    logger.WithField(logging.FieldOperation, "decompose"),
	}, nil
}

// Schema returns the output schema.
func (d *DecomposeTransformer) Schema() models.OutputSchema {
	return d.schema
}

// Transform returns the records decomposed from text.
func (d *DecomposeTransformer) Transform(ctx context.Context, text string) ([]models.Record, error) {
	response, err := d.provider.Generate(ctx, decomposePrompt(d.prompt, d.schema), text,
		llm.WithMaxTokens(d.maxTokens), llm.WithJSON())
	if err != nil {
		return nil, fmt.Errorf("decompose: %w", err)
	}

	var records []models.Record
	if err := json.Unmarshal([]byte(stripFence(response)), &records); err != nil {
		return nil, &bonsaierror.ValidationError{
			Component: componentName,
			Reason:    fmt.Sprintf("transformed data must be a JSON list of objects: %v", err),
			Output:    response,
		}
	}
	if err := d.checkKeys(records, response); err != nil {
		return nil, err
	}
	return records, nil
}

// TransformBatch decomposes every text in a single request. The answer must be
// a JSON list holding one list of records per text.
func (d *DecomposeTransformer) TransformBatch(ctx context.Context, texts []string) ([][]models.Record, error) {
	if len(texts) == 0 {
		return nil, &bonsaierror.PreconditionError{Param: "texts", Value: 0, Reason: "at least one text is required"}
	}

	response, err := d.provider.GenerateBatch(ctx, decomposeBatchPrompt(d.prompt, d.schema), texts,
		llm.WithMaxTokens(d.maxTokens), llm.WithJSON())
	if err != nil {
		return nil, fmt.Errorf("decompose batch: %w", err)
	}

	var groups [][]models.Record
	if err := json.Unmarshal([]byte(stripFence(response)), &groups); err != nil {
		return nil, &bonsaierror.ValidationError{
			Component: componentName,
			Reason:    fmt.Sprintf("transformed data must be a JSON list of lists of objects: %v", err),
			Output:    response,
		}
	}
	if len(groups) != len(texts) {
		return nil, &bonsaierror.ValidationError{
			Component: componentName,
			Reason:    fmt.Sprintf("number of transformed items (%d) does not match the number of inputs (%d)", len(groups), len(texts)),
			Output:    response,
		}
	}
	for _, records := range groups {
		if err := d.checkKeys(records, response); err != nil {
			return nil, err
		}
	}
	d.logger.Debug("Batch decomposed", logging.Field{Key: logging.FieldBatchSize, Value: len(texts)})
	return groups, nil
}

// checkKeys verifies that every record carries exactly the schema keys.
func (d *DecomposeTransformer) checkKeys(records []models.Record, response string) error {
	for i, r := range records {
		if r == nil {
			return &bonsaierror.ValidationError{
				Component: componentName,
				Reason:    fmt.Sprintf("item %d is not a JSON object", i),
				Output:    response,
			}
		}
		if len(r) != len(d.schema) {
			return keyMismatch(i, response)
		}
		for _, key := range d.schema.Keys() {
			if _, ok := r[key]; !ok {
				return keyMismatch(i, response)
			}
		}
	}
	return nil
}

func keyMismatch(i int, response string) error {
	return &bonsaierror.ValidationError{
		Component: componentName,
		Reason:    fmt.Sprintf("the keys of item %d do not match the schema", i),
		Output:    response,
	}
}

// stripFence removes a markdown code fence some models wrap JSON in.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

// EncodeRecords renders records as a JSON cell.
func EncodeRecords(records []models.Record) (string, error) {
	if records == nil {
		records = []models.Record{}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("failed to encode records: %w", err)
	}
	return string(b), nil
}

// DecodeRecords parses a cell written by EncodeRecords. A blank cell holds no
// records.
func DecodeRecords(cell string) ([]models.Record, error) {
	if strings.TrimSpace(cell) == "" {
		return nil, nil
	}
	var records []models.Record
	if err := json.Unmarshal([]byte(cell), &records); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	return records, nil
}

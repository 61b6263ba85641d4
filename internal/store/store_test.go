package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fjacquet/databonsai/internal/logging"
	"fjacquet/databonsai/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func TestFindFile(t *testing.T) {
	dir := t.TempDir()
	testFile := filepath.Join(dir, "test.yaml")
	writeFile(t, testFile, "a: b")
	s := New(logging.NewMockLogger())

	file, err := s.FindFile(testFile)
	assert.NoError(t, err)
	assert.Equal(t, testFile, file)

	_, err = s.FindFile(filepath.Join(dir, "nonexistent.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = s.FindFile("surely-not-here-" + filepath.Base(dir) + ".yaml")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadCategories(t *testing.T) {
	want := models.CategorySet{
		{Name: "Weather", Description: "Insights and remarks about weather conditions."},
		{Name: "Sports", Description: "Observations and comments on sports events."},
		{Name: "Politics", Description: "Political events, decisions, and opinions."},
	}

	tests := []struct {
		name    string
		content string
	}{
		{
			name: "ordered mapping",
			content: `Weather: Insights and remarks about weather conditions.
Sports: Observations and comments on sports events.
Politics: Political events, decisions, and opinions.
`,
		},
		{
			name: "wrapped list",
			content: `categories:
  - name: Weather
    description: Insights and remarks about weather conditions.
  - name: Sports
    description: Observations and comments on sports events.
  - name: Politics
    description: "Political events, decisions, and opinions."
`,
		},
		{
			name: "bare list",
			content: `- name: Weather
  description: Insights and remarks about weather conditions.
- name: Sports
  description: Observations and comments on sports events.
- name: Politics
  description: Political events, decisions, and opinions.
`,
		},
		{
			name: "wrapped mapping with detail",
			content: `categories:
  Weather:
    description: Insights and remarks about weather conditions.
  Sports: Observations and comments on sports events.
  Politics:
    description: Political events, decisions, and opinions.
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "categories.yaml")
			writeFile(t, path, tt.content)

			got, err := New(logging.NewMockLogger()).LoadCategories(path)

			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestLoadCategories_Errors(t *testing.T) {
	dir := t.TempDir()
	s := New(logging.NewMockLogger())

	_, err := s.LoadCategories(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "categories file not found")

	_, err = s.LoadCategories("")
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	writeFile(t, empty, "")
	_, err = s.LoadCategories(empty)
	assert.ErrorContains(t, err, "is empty")

	scalar := filepath.Join(dir, "scalar.yaml")
	writeFile(t, scalar, "just a string")
	_, err = s.LoadCategories(scalar)
	assert.ErrorContains(t, err, "expected a list or a mapping")

	nested := filepath.Join(dir, "nested.yaml")
	writeFile(t, nested, "Weather:\n  - a\n  - b\n")
	_, err = s.LoadCategories(nested)
	assert.ErrorContains(t, err, `value of "Weather" must be a description`)

	broken := filepath.Join(dir, "broken.yaml")
	writeFile(t, broken, "a: [b")
	_, err = s.LoadCategories(broken)
	assert.ErrorContains(t, err, "error parsing categories file")
}

func TestLoadSchema(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "schema.yaml")
	writeFile(t, plain, "name: full name\nemail: email address\nphone: phone number\n")
	wrapped := filepath.Join(dir, "wrapped.yaml")
	writeFile(t, wrapped, "schema:\n  name: full name\n  email: email address\n  phone: phone number\n")
	want := models.OutputSchema{
		{Name: "name", Description: "full name"},
		{Name: "email", Description: "email address"},
		{Name: "phone", Description: "phone number"},
	}
	s := New(nil)

	got, err := s.LoadSchema(plain)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, []string{"name", "email", "phone"}, got.Keys())

	got, err = s.LoadSchema(wrapped)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestMappings_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "mappings.yaml")
	s := New(logging.NewMockLogger())

	err := s.SaveMappings(path, map[string]string{"coop": "Groceries", "uber": "Transport"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]string
	require.NoError(t, yaml.Unmarshal(data, &raw))
	assert.Equal(t, "Groceries", raw["coop"])

	got, err := s.LoadMappings(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"coop": "Groceries", "uber": "Transport"}, got)
}

func TestLoadMappings_MissingIsEmpty(t *testing.T) {
	logger := logging.NewMockLogger()
	s := New(logger)

	got, err := s.LoadMappings(filepath.Join(t.TempDir(), "missing.yaml"))

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.True(t, logger.HasEntry("WARN", "Mappings file not found, starting empty"))
}

func TestLoadMappings_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mappings.yaml")
	writeFile(t, path, "- not\n- a map\n")

	_, err := New(nil).LoadMappings(path)
	assert.ErrorContains(t, err, "error parsing mappings file")
}

func TestSaveMappings_EmptyPath(t *testing.T) {
	assert.Error(t, New(nil).SaveMappings(" ", nil))
}

func TestMockStore(t *testing.T) {
	m := NewMockStore()
	m.Categories["c.yaml"] = models.CategorySet{{Name: "A"}, {Name: "B"}}

	got, err := m.LoadCategories("c.yaml")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	require.NoError(t, m.SaveMappings("m.yaml", map[string]string{"x": "A"}))
	mappings, err := m.LoadMappings("m.yaml")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"x": "A"}, mappings)

	m.LoadSchemaError = errors.New("boom")
	_, err = m.LoadSchema("s.yaml")
	assert.EqualError(t, err, "boom")
}

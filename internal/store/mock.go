package store

import (
	"fjacquet/databonsai/internal/models"
)

// MockStore is an in-memory Repository for testing.
type MockStore struct {
	Categories map[string]models.CategorySet
	Schemas    map[string]models.OutputSchema
	Mappings   map[string]map[string]string

	// Error flags for testing error conditions
	LoadCategoriesError error
	LoadSchemaError     error
	LoadMappingsError   error
	SaveMappingsError   error
}

// NewMockStore creates an empty MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		Categories: map[string]models.CategorySet{},
		Schemas:    map[string]models.OutputSchema{},
		Mappings:   map[string]map[string]string{},
	}
}

// LoadCategories returns the categories registered under path.
func (m *MockStore) LoadCategories(path string) (models.CategorySet, error) {
	if m.LoadCategoriesError != nil {
		return nil, m.LoadCategoriesError
	}
	return m.Categories[path], nil
}

// LoadSchema returns the schema registered under path.
func (m *MockStore) LoadSchema(path string) (models.OutputSchema, error) {
	if m.LoadSchemaError != nil {
		return nil, m.LoadSchemaError
	}
	return m.Schemas[path], nil
}

// LoadMappings returns a copy of the mappings registered under path.
func (m *MockStore) LoadMappings(path string) (map[string]string, error) {
	if m.LoadMappingsError != nil {
		return nil, m.LoadMappingsError
	}
	return copyMappings(m.Mappings[path]), nil
}

// SaveMappings stores a copy of mappings under path.
func (m *MockStore) SaveMappings(path string, mappings map[string]string) error {
	if m.SaveMappingsError != nil {
		return m.SaveMappingsError
	}
	m.Mappings[path] = copyMappings(mappings)
	return nil
}

func copyMappings(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

var (
	_ Repository = (*Store)(nil)
	_ Repository = (*MockStore)(nil)
)

// Package store loads and saves the YAML files the CLI works with: category
// sets, decomposition schemas and text-to-category mappings.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fjacquet/databonsai/internal/logging"
	"fjacquet/databonsai/internal/models"

	"gopkg.in/yaml.v3"
)

// Repository is the set of file operations used by the commands.
type Repository interface {
	LoadCategories(path string) (models.CategorySet, error)
	LoadSchema(path string) (models.OutputSchema, error)
	LoadMappings(path string) (map[string]string, error)
	SaveMappings(path string, mappings map[string]string) error
}

// Store reads and writes YAML files on disk.
type Store struct {
	logger logging.Logger
}

// New creates a Store.
func New(logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Store{logger: logger}
}

// FindFile looks for filename in the working directory, then ./config, then
// $HOME/.databonsai. Absolute paths are only checked for existence.
func (s *Store) FindFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err != nil {
			return "", err
		}
		return filename, nil
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
	}
	if home, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(home, ".databonsai", filename))
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}
	return "", fmt.Errorf("%s: %w", filename, os.ErrNotExist)
}

func (s *Store) readDocument(path, kind string) (string, *yaml.Node, error) {
	if strings.TrimSpace(path) == "" {
		return "", nil, fmt.Errorf("%s file path is required", kind)
	}
	resolved, err := s.FindFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("%s file not found: %w", kind, err)
	}
	data, err := os.ReadFile(resolved) // #nosec G304 -- path chosen by the user
	if err != nil {
		return "", nil, fmt.Errorf("error reading %s file: %w", kind, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", nil, fmt.Errorf("error parsing %s file %s: %w", kind, resolved, err)
	}
	if len(doc.Content) == 0 {
		return "", nil, fmt.Errorf("%s file %s is empty", kind, resolved)
	}
	return resolved, doc.Content[0], nil
}

// unwrap returns the value under key when root is a mapping holding only that
// key and a collection.
func unwrap(root *yaml.Node, key string) *yaml.Node {
	if root.Kind != yaml.MappingNode || len(root.Content) != 2 || root.Content[0].Value != key {
		return root
	}
	if v := root.Content[1]; v.Kind == yaml.SequenceNode || v.Kind == yaml.MappingNode {
		return v
	}
	return root
}

// namedEntry is the list form shared by categories and schema fields.
type namedEntry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// decodeEntries reads either a list of {name, description} or an ordered
// mapping of name to description. A mapping value may itself be a mapping
// with a description key.
func decodeEntries(node *yaml.Node) ([]namedEntry, error) {
	switch node.Kind {
	case yaml.SequenceNode:
		var entries []namedEntry
		if err := node.Decode(&entries); err != nil {
			return nil, err
		}
		return entries, nil
	case yaml.MappingNode:
		entries := make([]namedEntry, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			entry := namedEntry{Name: key.Value}
			switch value.Kind {
			case yaml.ScalarNode:
				entry.Description = value.Value
			case yaml.MappingNode:
				var detail struct {
					Description string `yaml:"description"`
				}
				if err := value.Decode(&detail); err != nil {
					return nil, err
				}
				entry.Description = detail.Description
			default:
				return nil, fmt.Errorf("line %d: value of %q must be a description", value.Line, key.Value)
			}
			entries = append(entries, entry)
		}
		return entries, nil
	default:
		return nil, fmt.Errorf("line %d: expected a list or a mapping", node.Line)
	}
}

// LoadCategories reads a category set, keeping the file order.
func (s *Store) LoadCategories(path string) (models.CategorySet, error) {
	resolved, root, err := s.readDocument(path, "categories")
	if err != nil {
		return nil, err
	}
	entries, err := decodeEntries(unwrap(root, "categories"))
	if err != nil {
		return nil, fmt.Errorf("error parsing categories file %s: %w", resolved, err)
	}

	categories := make(models.CategorySet, 0, len(entries))
	for _, e := range entries {
		categories = append(categories, models.Category{
			Name:        strings.TrimSpace(e.Name),
			Description: strings.TrimSpace(e.Description),
		})
	}
	s.logger.Debug("Loaded categories",
		logging.Field{Key: logging.FieldFile, Value: resolved},
		logging.Field{Key: logging.FieldCount, Value: len(categories)})
	return categories, nil
}

// LoadSchema reads a decomposition schema, keeping the file order.
func (s *Store) LoadSchema(path string) (models.OutputSchema, error) {
	resolved, root, err := s.readDocument(path, "schema")
	if err != nil {
		return nil, err
	}
	entries, err := decodeEntries(unwrap(root, "schema"))
	if err != nil {
		return nil, fmt.Errorf("error parsing schema file %s: %w", resolved, err)
	}

	schema := make(models.OutputSchema, 0, len(entries))
	for _, e := range entries {
		schema = append(schema, models.SchemaField{
			Name:        strings.TrimSpace(e.Name),
			Description: strings.TrimSpace(e.Description),
		})
	}
	s.logger.Debug("Loaded schema",
		logging.Field{Key: logging.FieldFile, Value: resolved},
		logging.Field{Key: logging.FieldCount, Value: len(schema)})
	return schema, nil
}

// LoadMappings reads a text-to-category mapping file. A missing file yields
// an empty mapping.
func (s *Store) LoadMappings(path string) (map[string]string, error) {
	resolved, err := s.FindFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Mappings file not found, starting empty", logging.Field{Key: logging.FieldFile, Value: path})
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("error resolving mappings file: %w", err)
	}

	data, err := os.ReadFile(resolved) // #nosec G304 -- path chosen by the user
	if err != nil {
		return nil, fmt.Errorf("error reading mappings file: %w", err)
	}
	mappings := map[string]string{}
	if err := yaml.Unmarshal(data, &mappings); err != nil {
		return nil, fmt.Errorf("error parsing mappings file %s: %w", resolved, err)
	}
	s.logger.Debug("Loaded mappings",
		logging.Field{Key: logging.FieldFile, Value: resolved},
		logging.Field{Key: logging.FieldCount, Value: len(mappings)})
	return mappings, nil
}

// SaveMappings writes mappings to path, creating parent directories.
func (s *Store) SaveMappings(path string, mappings map[string]string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("mappings file path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, models.PermissionDirectory); err != nil {
			return fmt.Errorf("error creating directory: %w", err)
		}
	}

	data, err := yaml.Marshal(mappings)
	if err != nil {
		return fmt.Errorf("error marshaling mappings: %w", err)
	}
	if err := os.WriteFile(path, data, models.PermissionOutputFile); err != nil {
		return fmt.Errorf("error writing mappings: %w", err)
	}
	s.logger.Debug("Saved mappings",
		logging.Field{Key: logging.FieldFile, Value: path},
		logging.Field{Key: logging.FieldCount, Value: len(mappings)})
	return nil
}

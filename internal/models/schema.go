package models

import (
	"encoding/json"
	"strings"
)

// SchemaField is one key of a decomposition record.
type SchemaField struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// OutputSchema lists the keys every decomposed record must carry.
type OutputSchema []SchemaField

// Keys returns the field names in order.
func (s OutputSchema) Keys() []string {
	keys := make([]string, len(s))
	for i, f := range s {
		keys[i] = f.Name
	}
	return keys
}

// JSON renders the schema as a JSON object mapping each key to its
// description, keys in schema order.
func (s OutputSchema) JSON() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, f := range s {
		if i > 0 {
			b.WriteString(", ")
		}
		k, _ := json.Marshal(f.Name)
		v, _ := json.Marshal(f.Description)
		b.Write(k)
		b.WriteString(": ")
		b.Write(v)
	}
	b.WriteByte('}')
	return b.String()
}

// Record is one decomposed item.
type Record map[string]any

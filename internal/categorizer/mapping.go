package categorizer

import (
	"strings"
	"sync"

	"fjacquet/databonsai/internal/logging"
)

// normalizeKey folds case and surrounding whitespace so that lookups match
// texts that differ only in those.
func normalizeKey(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

// DirectMapping maps known input texts to categories. Lookups are case
// insensitive. A nil *DirectMapping is valid and never matches.
type DirectMapping struct {
	mu       sync.RWMutex
	mappings map[string]string
	dirty    bool
	logger   logging.Logger
}

// NewDirectMapping creates a mapping seeded with initial.
func NewDirectMapping(initial map[string]string, logger logging.Logger) *DirectMapping {
	if logger == nil {
		logger = logging.GetLogger()
	}
	m := &DirectMapping{
		mappings: make(map[string]string, len(initial)),
		logger:   logger,
	}
	for text, category := range initial {
		if key := normalizeKey(text); key != "" {
			m.mappings[key] = category
		}
	}
	logger.WithField(logging.FieldCount, len(m.mappings)).Debug("Loaded category mappings")
	return m
}

// Lookup returns the category recorded for text.
func (m *DirectMapping) Lookup(text string) (string, bool) {
	if m == nil {
		return "", false
	}
	key := normalizeKey(text)
	if key == "" {
		return "", false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	category, ok := m.mappings[key]
	return category, ok
}

// Update records category for text.
func (m *DirectMapping) Update(text, category string) {
	if m == nil {
		return
	}
	key := normalizeKey(text)
	if key == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mappings[key] == category {
		return
	}
	m.mappings[key] = category
	m.dirty = true
}

// Len returns the number of recorded texts.
func (m *DirectMapping) Len() int {
	if m == nil {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.mappings)
}

// Dirty reports whether Update changed the mapping since creation or the
// last Snapshot.
func (m *DirectMapping) Dirty() bool {
	if m == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dirty
}

// Snapshot returns a copy of the mapping and clears the dirty flag.
func (m *DirectMapping) Snapshot() map[string]string {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.mappings))
	for k, v := range m.mappings {
		out[k] = v
	}
	m.dirty = false
	return out
}

package models

import "strings"

// Category is one label a categorizer may assign.
type Category struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// CategorySet is an ordered list of categories.
type CategorySet []Category

// Names returns the category names in order.
func (cs CategorySet) Names() []string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Name
	}
	return names
}

// Contains reports whether name is one of the categories.
func (cs CategorySet) Contains(name string) bool {
	for _, c := range cs {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Describe renders the set as "name: description" lines for prompts.
func (cs CategorySet) Describe() string {
	var b strings.Builder
	for i, c := range cs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(c.Name)
		if c.Description != "" {
			b.WriteString(": ")
			b.WriteString(c.Description)
		}
	}
	return b.String()
}

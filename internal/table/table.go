// Package table holds row-oriented tabular data read from and written to CSV.
// Rows keep their file order; every cell is addressed by row position and
// column position.
package table

import (
	"fmt"
	"strings"
)

// Table is a header plus rows of string cells. Rows shorter than the header
// are padded when the table is loaded, so every row has len(Header) cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// New creates an empty table with the given column names.
func New(header ...string) *Table {
	h := make([]string, len(header))
	copy(h, header)
	return &Table{Header: h}
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, error) {
	for i, h := range t.Header {
		if h == name {
			return i, nil
		}
	}
	// Tolerate stray whitespace around header names in hand-edited files
	for i, h := range t.Header {
		if strings.TrimSpace(h) == strings.TrimSpace(name) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("column %q not found (available: %s)", name, strings.Join(t.Header, ", "))
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, err := t.ColumnIndex(name)
	return err == nil
}

// EnsureColumn returns the position of the named column, appending it with
// every row initialised to fill when it does not exist yet.
func (t *Table) EnsureColumn(name, fill string) int {
	if idx, err := t.ColumnIndex(name); err == nil {
		return idx
	}
	t.Header = append(t.Header, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], fill)
	}
	return len(t.Header) - 1
}

// AppendRow adds a row, padding or truncating it to the header width. Read
// rejects wide records before they get here.
func (t *Table) AppendRow(cells ...string) {
	t.Rows = append(t.Rows, t.normalize(cells))
}

// Cell returns the value at (row, col).
func (t *Table) Cell(row, col int) string {
	return t.Rows[row][col]
}

// SetCell overwrites the value at (row, col).
func (t *Table) SetCell(row, col int, value string) {
	t.Rows[row][col] = value
}

// ColumnValues returns a copy of the named column.
func (t *Table) ColumnValues(name string) ([]string, error) {
	idx, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[idx]
	}
	return values, nil
}

func (t *Table) normalize(cells []string) []string {
	row := make([]string, len(t.Header))
	copy(row, cells)
	return row
}

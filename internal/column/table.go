package column

import (
	"fmt"

	"fjacquet/databonsai/internal/table"
)

// TableColumn is a Column over one named column of a table. Rows are addressed
// by their position in the table, never by any label they carry.
type TableColumn struct {
	t   *table.Table
	idx int
}

// FromTable returns the named column of t.
func FromTable(t *table.Table, name string) (*TableColumn, error) {
	if t == nil {
		return nil, fmt.Errorf("table is nil")
	}
	idx, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	return &TableColumn{t: t, idx: idx}, nil
}

// OutputFromTable returns the named column of t, creating it with every row set
// to fill when it is missing. This pre-sizes the output before a driver runs.
func OutputFromTable(t *table.Table, name, fill string) (*TableColumn, error) {
	if t == nil {
		return nil, fmt.Errorf("table is nil")
	}
	return &TableColumn{t: t, idx: t.EnsureColumn(name, fill)}, nil
}

func (c *TableColumn) Len() int {
	return c.t.NumRows()
}

func (c *TableColumn) Slice(start, end int) ([]string, error) {
	if err := checkRange("slice", start, end, c.Len()); err != nil {
		return nil, err
	}
	out := make([]string, 0, end-start)
	for row := start; row < end; row++ {
		out = append(out, c.t.Cell(row, c.idx))
	}
	return out, nil
}

func (c *TableColumn) Write(start int, values []string) error {
	if err := checkRange("write", start, start+len(values), c.Len()); err != nil {
		return err
	}
	for i, v := range values {
		c.t.SetCell(start+i, c.idx, v)
	}
	return nil
}

// Package column provides positional read/write access to a column of values,
// whether the values live in a plain slice or in a named column of a table.
//
// A driver borrows write access to the output column for the duration of one
// call: it only ever overwrites existing positions and never inserts, removes
// or reorders cells. Callers must not mutate the output column while a driver
// runs on it.
package column

import (
	"fjacquet/databonsai/internal/bonsaierror"
)

// Column is an ordered, index-addressable sequence of length Len().
type Column[T any] interface {
	// Len returns the number of addressable positions.
	Len() int
	// Slice returns a copy of the values in [start, end).
	Slice(start, end int) ([]T, error)
	// Write overwrites positions [start, start+len(values)).
	Write(start int, values []T) error
}

// Get returns the value at position i.
func Get[T any](c Column[T], i int) (T, error) {
	values, err := c.Slice(i, i+1)
	if err != nil {
		var zero T
		return zero, err
	}
	return values[0], nil
}

// Set overwrites the value at position i.
func Set[T any](c Column[T], i int, v T) error {
	return c.Write(i, []T{v})
}

func checkRange(op string, start, end, length int) error {
	if start < 0 || end < start || end > length {
		return &bonsaierror.IndexError{Op: op, Start: start, End: end, Length: length}
	}
	return nil
}

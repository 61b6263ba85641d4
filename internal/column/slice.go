package column

// SliceColumn is a Column over a caller-owned slice. Writes go straight into
// the backing array, so the caller sees results without copying them back.
type SliceColumn[T any] struct {
	values []T
}

// FromSlice wraps values without copying them.
func FromSlice[T any](values []T) *SliceColumn[T] {
	return &SliceColumn[T]{values: values}
}

// Make allocates a column of n positions, each initialised to fill.
func Make[T any](n int, fill T) *SliceColumn[T] {
	values := make([]T, n)
	for i := range values {
		values[i] = fill
	}
	return &SliceColumn[T]{values: values}
}

func (c *SliceColumn[T]) Len() int {
	return len(c.values)
}

func (c *SliceColumn[T]) Slice(start, end int) ([]T, error) {
	if err := checkRange("slice", start, end, len(c.values)); err != nil {
		return nil, err
	}
	out := make([]T, end-start)
	copy(out, c.values[start:end])
	return out, nil
}

func (c *SliceColumn[T]) Write(start int, values []T) error {
	if err := checkRange("write", start, start+len(values), len(c.values)); err != nil {
		return err
	}
	copy(c.values[start:], values)
	return nil
}

// Values exposes the backing slice.
func (c *SliceColumn[T]) Values() []T {
	return c.values
}

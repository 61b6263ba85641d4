package column

// Encoded presents a string column as a Column[T]. Values are encoded on write
// and decoded on read, which lets a driver produce structured results
// (category lists, decomposed records) straight into a table cell.
type Encoded[T any] struct {
	inner  Column[string]
	encode func(T) (string, error)
	decode func(string) (T, error)
}

// NewEncoded wraps inner with the given codec. decode may be nil for
// write-only use, in which case Slice returns zero values.
func NewEncoded[T any](inner Column[string], encode func(T) (string, error), decode func(string) (T, error)) *Encoded[T] {
	return &Encoded[T]{inner: inner, encode: encode, decode: decode}
}

func (c *Encoded[T]) Len() int {
	return c.inner.Len()
}

func (c *Encoded[T]) Slice(start, end int) ([]T, error) {
	raw, err := c.inner.Slice(start, end)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(raw))
	if c.decode == nil {
		return out, nil
	}
	for i, s := range raw {
		v, err := c.decode(s)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Write encodes every value before touching the inner column, so an encoding
// failure leaves all positions unmodified.
func (c *Encoded[T]) Write(start int, values []T) error {
	encoded := make([]string, len(values))
	for i, v := range values {
		s, err := c.encode(v)
		if err != nil {
			return err
		}
		encoded[i] = s
	}
	return c.inner.Write(start, encoded)
}

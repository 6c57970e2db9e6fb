package reactive

// Field is a typed view of one key of a Record.
type Field[T any] struct {
	rec *Record
	key string
}

// NewField returns a typed view of rec[key].
func NewField[T any](rec *Record, key string) Field[T] {
	return Field[T]{rec: rec, key: key}
}

// Key returns the record key.
func (f Field[T]) Key() string {
	return f.key
}

// Get returns the value, or the zero T when the key is missing or holds
// another type.
func (f Field[T]) Get() T {
	v, _ := f.rec.Get(f.key).(T)
	return v
}

// Peek is Get without subscribing.
func (f Field[T]) Peek() T {
	v, _ := f.rec.Peek(f.key).(T)
	return v
}

// Set stores v.
func (f Field[T]) Set(v T) {
	f.rec.Set(f.key, v)
}

// Update replaces the value with fn(current).
func (f Field[T]) Update(fn func(T) T) {
	f.Set(fn(f.Peek()))
}

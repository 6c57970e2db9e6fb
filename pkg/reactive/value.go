package reactive

// Value is a typed single reactive cell.
type Value[T any] struct {
	sig   *Signal
	value T
	equal func(T, T) bool
}

// NewValue creates a Value holding initial.
func NewValue[T any](rt *Runtime, initial T) *Value[T] {
	return &Value[T]{sig: rt.NewSignal(), value: initial}
}

// Get returns the value and subscribes the current observer.
func (v *Value[T]) Get() T {
	v.sig.Track()
	return v.value
}

// Peek returns the value without subscribing.
func (v *Value[T]) Peek() T {
	return v.value
}

// Set stores value and notifies subscribers if it differs from the current
// value.
func (v *Value[T]) Set(value T) {
	if v.equals(v.value, value) {
		return
	}
	v.value = value
	v.sig.Notify()
}

// Update replaces the value with fn(current).
func (v *Value[T]) Update(fn func(T) T) {
	v.Set(fn(v.value))
}

// WithEquals sets a custom equality function and returns v.
func (v *Value[T]) WithEquals(fn func(T, T) bool) *Value[T] {
	v.equal = fn
	return v
}

// Signal returns the underlying change signal.
func (v *Value[T]) Signal() *Signal {
	return v.sig
}

func (v *Value[T]) equals(a, b T) bool {
	if v.equal != nil {
		return v.equal(a, b)
	}
	return equalOf(a, b)
}

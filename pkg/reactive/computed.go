package reactive

// Computed is a lazily evaluated, cached derivation. It recomputes on the
// first read after any dependency notifies, and notifies its own readers
// when it is invalidated.
type Computed[T any] struct {
	sig *Signal
	obs *Observer
	fn  func() T

	value     T
	valid     bool
	computing bool
}

// NewComputed creates a Computed over fn. fn does not run until the first
// Get or Peek.
func NewComputed[T any](rt *Runtime, fn func() T) *Computed[T] {
	c := &Computed[T]{sig: rt.NewSignal(), fn: fn}
	c.obs = rt.newEagerObserver(c.invalidate)
	return c
}

// Get returns the value and subscribes the current observer.
func (c *Computed[T]) Get() T {
	c.sig.Track()
	return c.Peek()
}

// Peek returns the value without subscribing. It still recomputes when the
// cached value is stale.
func (c *Computed[T]) Peek() T {
	if !c.valid && !c.computing {
		c.recompute()
	}
	return c.value
}

// Valid reports whether the cached value is current.
func (c *Computed[T]) Valid() bool {
	return c.valid
}

// Dispose detaches the computed from its dependencies. The last value
// stays readable.
func (c *Computed[T]) Dispose() {
	c.obs.Dispose()
}

func (c *Computed[T]) recompute() {
	c.computing = true
	defer func() { c.computing = false }()

	stop := c.obs.Observe()
	defer stop()
	c.value = c.fn()
	c.valid = true
}

func (c *Computed[T]) invalidate() {
	if !c.valid {
		return
	}
	c.valid = false
	c.sig.Notify()
}

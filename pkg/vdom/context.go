package vdom

import "fmt"

// Context is a typed key for values provided by an ancestor component.
type Context[T any] struct {
	name string
}

// NewContext creates a context key. The name is used in errors.
func NewContext[T any](name string) *Context[T] {
	return &Context[T]{name: name}
}

// Name returns the context name.
func (c *Context[T]) Name() string { return c.name }

// Provide makes value visible to the instance's descendants.
func Provide[T any](s *Setup, ctx *Context[T], value T) {
	s.check("Provide")
	if s.inst.contexts == nil {
		s.inst.contexts = make(map[any]any)
	}
	s.inst.contexts[ctx] = value
}

// Inject returns the value provided by the nearest ancestor instance. It
// may be called during setup or render.
func Inject[T any](s *Setup, ctx *Context[T]) (T, error) {
	var zero T
	if ph := s.inst.phase; ph != phaseSetup && ph != phaseRender {
		panic(scopeError("Inject"))
	}
	for p := s.inst.parent; p != nil; p = p.parent {
		if v, ok := p.contexts[ctx]; ok {
			return v.(T), nil
		}
	}
	return zero, fmt.Errorf("%w: %s", ErrNoContext, ctx.name)
}

// MustInject is like Inject but panics when no ancestor provides ctx.
func MustInject[T any](s *Setup, ctx *Context[T]) T {
	v, err := Inject(s, ctx)
	if err != nil {
		panic(err)
	}
	return v
}

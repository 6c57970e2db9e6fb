// Package errors provides structured, coded errors for the rask runtime.
//
// Every error raised by the runtime for a programming mistake or a
// recoverable runtime failure carries a stable code (e.g. "R001") that maps
// to a registered template:
//   - a short message describing the error
//   - a longer explanation
//   - an optional suggestion
//
// # Error Categories
//
//   - scope: a reactive or lifecycle primitive used outside its execution context
//   - render: a component setup or render function failed
//   - lifecycle: cleanup or effect disposal failures
//   - structure: invalid tree operations (patching a detached node, ...)
//   - config: invalid configuration
//
// # Usage
//
//	err := errors.New("R001").
//	    WithDetail("OnMount called from a render function").
//	    WithSuggestion("Register lifecycle hooks from the setup function")
//
//	fmt.Println(err.Format())
//
// Errors compare by code, so a freshly built error matches a sentinel with
// the same code:
//
//	var ErrScope = errors.New("R001")
//	stdErrors.Is(errors.New("R001").Wrap(cause), ErrScope) // true
package errors

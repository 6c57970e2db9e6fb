package vdom

import (
	"fmt"

	rerrors "github.com/vango-dev/rask/internal/errors"
)

// Sentinel errors. Compare with errors.Is; matching is by code.
var (
	// ErrScope is raised when a hook is called outside component setup.
	ErrScope = rerrors.New("R001")

	// ErrStateInRender is raised when state is created during render.
	ErrStateInRender = rerrors.New("R002")

	// ErrNoContext is returned by Inject when no ancestor provides the
	// context.
	ErrNoContext = rerrors.New("R003")

	// ErrRender wraps a panic raised by setup or render.
	ErrRender = rerrors.New("R004")

	// ErrDetached is returned when patching a node that is not mounted.
	ErrDetached = rerrors.New("R007")

	// ErrIncompatible is returned when patching a node with a node of
	// another kind, tag or component.
	ErrIncompatible = rerrors.New("R008")

	// ErrUnmounted is returned by operations on an unmounted Root.
	ErrUnmounted = rerrors.New("R009")
)

func scopeError(hook string) *rerrors.Error {
	return rerrors.New("R001").WithDetailf("%s called outside component setup", hook)
}

func isScopeViolation(r any) bool {
	e, ok := r.(*rerrors.Error)
	return ok && (e.Code == "R001" || e.Code == "R002")
}

// renderError converts a recovered panic into an ErrRender error.
func renderError(component string, r any) error {
	var cause error
	switch v := r.(type) {
	case *rerrors.Error:
		if v.Code == "R004" {
			return v
		}
		cause = v
	case error:
		cause = v
	default:
		cause = fmt.Errorf("panic: %v", v)
	}
	return rerrors.New("R004").WithDetailf("component %s", component).Wrap(cause)
}

func detachedError(detail string) error {
	return rerrors.New("R007").WithDetail(detail)
}

func incompatibleError(detail string) error {
	return rerrors.New("R008").WithDetail(detail)
}

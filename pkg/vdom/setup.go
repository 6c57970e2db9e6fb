package vdom

import (
	"github.com/vango-dev/rask/pkg/reactive"

	rerrors "github.com/vango-dev/rask/internal/errors"
)

// Setup is passed to a component's SetupFunc. Hooks registered on it are
// bound to the instance being set up. State, Effect and the lifecycle hooks
// may only be called while setup runs.
type Setup struct {
	inst *Instance
}

func (s *Setup) check(hook string) {
	switch s.inst.phase {
	case phaseSetup:
		return
	case phaseRender:
		if hook == "State" {
			panic(rerrors.New("R002").WithDetailf("component %s", s.inst.Name()))
		}
	}
	panic(scopeError(hook))
}

// Runtime returns the reactive runtime of the instance's root.
func (s *Setup) Runtime() *reactive.Runtime { return s.inst.root.rt }

// Instance returns the instance being set up.
func (s *Setup) Instance() *Instance { return s.inst }

// Props returns the reactive prop record. Reads inside render subscribe.
func (s *Setup) Props() *reactive.Record { return s.inst.props }

// State creates a reactive record owned by the instance.
func (s *Setup) State(init map[string]any) *reactive.Record {
	s.check("State")
	return s.inst.root.rt.NewRecord(init)
}

// Effect starts an effect that is disposed when the instance unmounts.
func (s *Setup) Effect(fn func() reactive.Cleanup) *reactive.Effect {
	s.check("Effect")
	e := s.inst.root.rt.NewEffect(fn)
	s.inst.effects = append(s.inst.effects, e)
	return e
}

// OnMount registers fn to run after the instance's handles are in the live
// tree.
func (s *Setup) OnMount(fn func()) {
	s.check("OnMount")
	s.inst.mounts = append(s.inst.mounts, fn)
}

// OnCleanup registers fn to run when the instance unmounts. Cleanups run
// in reverse registration order.
func (s *Setup) OnCleanup(fn func()) {
	s.check("OnCleanup")
	s.inst.cleanups = append(s.inst.cleanups, fn)
}

// OnError makes the instance an error boundary for its descendants.
func (s *Setup) OnError(fn func(error)) {
	s.check("OnError")
	s.inst.onError = append(s.inst.onError, fn)
}

// Error returns the last error captured by this boundary. Reading it in
// render subscribes, so the boundary re-renders when an error arrives.
func (s *Setup) Error() error { return s.inst.captured.Get() }

// ResetError clears the captured error. The boundary re-renders and mounts
// its children again.
func (s *Setup) ResetError() { s.inst.captured.Set(nil) }

package reactive

import (
	"runtime/debug"

	rerrors "github.com/vango-dev/rask/internal/errors"
)

// Cleanup is returned by an effect body and runs before the next run and
// when the effect is disposed.
type Cleanup func()

// Effect is a side effect that re-runs on the next scheduler turn after
// any signal it read changes.
type Effect struct {
	rt      *Runtime
	obs     *Observer
	fn      func() Cleanup
	cleanup Cleanup

	disposed bool
}

// NewEffect creates an Effect and runs it immediately. A panic raised by
// the first run propagates to the caller.
func (rt *Runtime) NewEffect(fn func() Cleanup) *Effect {
	e := &Effect{rt: rt, fn: fn}
	e.obs = rt.NewObserver(e.run)
	e.run()
	return e
}

// Stop stops re-running the effect. Its last cleanup stays pending until
// Dispose.
func (e *Effect) Stop() {
	e.obs.Dispose()
}

// Dispose stops the effect and runs its last cleanup.
func (e *Effect) Dispose() {
	if e.disposed {
		return
	}
	e.disposed = true
	e.obs.Dispose()
	e.runCleanup()
}

// Disposed reports whether Dispose has been called.
func (e *Effect) Disposed() bool {
	return e.disposed
}

// Observer returns the effect's underlying observer.
func (e *Effect) Observer() *Observer {
	return e.obs
}

func (e *Effect) run() {
	e.runCleanup()
	stop := e.obs.Observe()
	defer stop()
	e.cleanup = e.fn()
}

// runCleanup runs the pending cleanup. A cleanup panic is logged and
// swallowed.
func (e *Effect) runCleanup() {
	fn := e.cleanup
	e.cleanup = nil
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			err := rerrors.FromPanic(r, "R005")
			e.rt.logger.Error("reactive: effect cleanup failed",
				"effect", e.obs.ID(),
				"error", err,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}

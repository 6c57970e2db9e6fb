package reactive

import (
	"log/slog"

	"github.com/vango-dev/rask/pkg/scheduler"
)

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the runtime logger.
func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

// Runtime owns the tracking stack and id space for one reactive graph.
type Runtime struct {
	sched  *scheduler.Scheduler
	logger *slog.Logger

	// stack holds the open tracking windows. A nil entry marks an
	// untracked region.
	stack []*Observer

	nextID uint64
}

// NewRuntime creates a Runtime that delivers notifications through sched.
func NewRuntime(sched *scheduler.Scheduler, opts ...Option) *Runtime {
	if sched == nil {
		panic("reactive: NewRuntime requires a scheduler")
	}
	rt := &Runtime{
		sched:  sched,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Scheduler returns the scheduler notifications are delivered through.
func (rt *Runtime) Scheduler() *scheduler.Scheduler {
	return rt.sched
}

// Logger returns the runtime logger.
func (rt *Runtime) Logger() *slog.Logger {
	return rt.logger
}

// Current returns the observer whose tracking window is open, or nil.
func (rt *Runtime) Current() *Observer {
	if len(rt.stack) == 0 {
		return nil
	}
	return rt.stack[len(rt.stack)-1]
}

// Depth returns the number of open tracking windows.
func (rt *Runtime) Depth() int {
	return len(rt.stack)
}

// Untracked runs fn with tracking suspended. Reads inside fn do not
// subscribe the enclosing observer.
func (rt *Runtime) Untracked(fn func()) {
	depth := len(rt.stack)
	rt.stack = append(rt.stack, nil)
	defer rt.popTo(depth)
	fn()
}

// Batch runs fn as a synchronous batch: notifications caused by writes in
// fn are applied once, before Batch returns. See scheduler.RunBatched.
func (rt *Runtime) Batch(fn func() error) error {
	return rt.sched.RunBatched(fn)
}

func (rt *Runtime) id() uint64 {
	rt.nextID++
	return rt.nextID
}

func (rt *Runtime) push(o *Observer) int {
	rt.stack = append(rt.stack, o)
	return len(rt.stack) - 1
}

// popTo truncates the stack to depth. Windows opened above depth that were
// never closed are discarded with it.
func (rt *Runtime) popTo(depth int) {
	if depth < 0 || depth > len(rt.stack) {
		return
	}
	for i := depth; i < len(rt.stack); i++ {
		rt.stack[i] = nil
	}
	rt.stack = rt.stack[:depth]
}

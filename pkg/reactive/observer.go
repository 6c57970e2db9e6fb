package reactive

// Observer is a callback plus a dependency-tracking window. It implements
// scheduler.Task; the scheduler calls Run when a dependency notifies.
type Observer struct {
	rt      *Runtime
	id      uint64
	fn      func()
	sources []*Signal

	queued   bool
	disposed bool

	// eager observers run inside Notify instead of being scheduled.
	eager bool
}

// NewObserver creates an Observer whose callback is fn. The callback does
// not run until a dependency notifies; it typically calls Observe to
// re-track its dependencies.
func (rt *Runtime) NewObserver(fn func()) *Observer {
	return &Observer{rt: rt, id: rt.id(), fn: fn}
}

func (rt *Runtime) newEagerObserver(fn func()) *Observer {
	o := rt.NewObserver(fn)
	o.eager = true
	return o
}

// ID returns the observer id, unique within its runtime.
func (o *Observer) ID() uint64 {
	return o.id
}

// Disposed reports whether the observer has been disposed.
func (o *Observer) Disposed() bool {
	return o.disposed
}

// Sources returns the number of signals the observer is subscribed to.
func (o *Observer) Sources() int {
	return len(o.sources)
}

// Observe drops every existing subscription and opens a tracking window.
// Signals tracked until stop is called subscribe the observer. Calling stop
// restores the enclosing window; it is safe to call more than once.
// On a disposed observer Observe does nothing.
func (o *Observer) Observe() (stop func()) {
	if o.disposed {
		return func() {}
	}
	o.clearSources()
	depth := o.rt.push(o)
	stopped := false
	return func() {
		if stopped {
			return
		}
		stopped = true
		o.rt.popTo(depth)
	}
}

// Run invokes the callback. It implements scheduler.Task.
func (o *Observer) Run() {
	o.queued = false
	if o.disposed || o.fn == nil {
		return
	}
	o.fn()
}

// Dispose unsubscribes the observer everywhere. A disposed observer never
// runs and never subscribes again.
func (o *Observer) Dispose() {
	if o.disposed {
		return
	}
	o.disposed = true
	o.clearSources()
}

func (o *Observer) clearSources() {
	for _, src := range o.sources {
		src.drop(o)
	}
	clear(o.sources)
	o.sources = o.sources[:0]
}

// deliver schedules the observer. held defers it to the next pass.
func (o *Observer) deliver(held bool) {
	if o.disposed {
		return
	}
	if o.eager {
		o.fn()
		return
	}
	if o.queued {
		return
	}
	o.queued = true
	if held {
		o.rt.sched.QueueNext(o)
		return
	}
	o.rt.sched.Queue(o)
}

package vdom

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vango-dev/rask/pkg/dom"
	"github.com/vango-dev/rask/pkg/reactive"
	"github.com/vango-dev/rask/pkg/reconcile"
	"github.com/vango-dev/rask/pkg/scheduler"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/vango-dev/rask/pkg/vdom"

// Root is a mounted tree bound to a live container. It owns the commit
// queues of its tree: resyncs, unmount callbacks and mount hooks run in
// that order when the outermost reconcile on the root ends, or at the end
// of the scheduler pass when the reconcile ran inside one.
type Root struct {
	nodeBase

	container *dom.Node
	doc       *dom.Document
	rt        *reactive.Runtime
	logger    *slog.Logger
	recorder  Recorder
	tracer    trace.Tracer
	onError   func(error)

	child    Node
	depth    int
	resync   []Node
	unmountQ []func()
	mountQ   []func()
	queued   bool
	brackets map[string][]func()
	disposed bool
}

// RenderOption configures Render.
type RenderOption func(*Root)

// WithRuntime sets the reactive runtime. By default a Loop-hosted runtime
// is created for the root; drive it with Tick.
func WithRuntime(rt *reactive.Runtime) RenderOption {
	return func(r *Root) { r.rt = rt }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RenderOption {
	return func(r *Root) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec Recorder) RenderOption {
	return func(r *Root) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// WithTracer sets the tracer used for mount and render spans.
func WithTracer(t trace.Tracer) RenderOption {
	return func(r *Root) {
		if t != nil {
			r.tracer = t
		}
	}
}

// WithErrorHandler sets the handler for errors no boundary captured:
// failed re-renders and event handler panics.
func WithErrorHandler(fn func(error)) RenderOption {
	return func(r *Root) { r.onError = fn }
}

// Render mounts node into container and returns the root. If mounting
// fails and no boundary captures the error, everything mounted so far is
// released and the error is returned.
func Render(node Node, container *dom.Node, opts ...RenderOption) (*Root, error) {
	if container == nil {
		return nil, detachedError("render requires a container")
	}
	if isNilNode(node) {
		node = Fragment()
	}
	r := &Root{
		container: container,
		doc:       container.Document(),
		logger:    slog.Default(),
		recorder:  nopRecorder{},
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.doc == nil {
		r.doc = dom.NewDocument()
	}
	if r.rt == nil {
		loop := scheduler.NewLoop(scheduler.WithLoopLogger(r.logger))
		sched := scheduler.New(loop,
			scheduler.WithLogger(r.logger),
			scheduler.WithTracer(r.tracer),
			scheduler.WithErrorHandler(r.reportError))
		r.rt = reactive.NewRuntime(sched, reactive.WithLogger(r.logger))
	}
	r.root = r
	r.mounted = true

	if container.FirstChild != nil {
		r.logger.Warn("vdom: rendering into a non-empty container",
			"container", container.Tag,
			"children", container.ChildCount())
	}

	_, span := r.tracer.Start(context.Background(), "vdom.mount")
	defer span.End()

	r.beginReconcile()
	hs, err := node.Mount(r)
	if err != nil {
		node.Unmount()
		r.endReconcile()
		r.release()
		span.RecordError(err)
		span.SetStatus(codes.Error, "mount failed")
		return nil, err
	}
	for _, h := range hs {
		container.AppendChild(h)
	}
	r.child = node
	r.endReconcile()
	return r, nil
}

// Kind returns KindRoot.
func (r *Root) Kind() Kind { return KindRoot }

// Children returns the mounted tree, if any.
func (r *Root) Children() []Node {
	if r.child == nil {
		return nil
	}
	return []Node{r.child}
}

// Handles returns the live nodes of the mounted tree.
func (r *Root) Handles() []*dom.Node {
	if r.child == nil {
		return nil
	}
	return r.child.Handles()
}

// Mount fails: a root is never a child.
func (r *Root) Mount(Node) ([]*dom.Node, error) {
	return nil, incompatibleError("a root cannot be mounted under another node")
}

// Patch is Rerender.
func (r *Root) Patch(next Node) error { return r.Rerender(next) }

// Child returns the mounted tree.
func (r *Root) Child() Node { return r.child }

// Container returns the live container.
func (r *Root) Container() *dom.Node { return r.container }

// Runtime returns the reactive runtime.
func (r *Root) Runtime() *reactive.Runtime { return r.rt }

// Logger returns the root's logger.
func (r *Root) Logger() *slog.Logger { return r.logger }

// Rerender patches the mounted tree to match node, replacing it when the
// two are not compatible.
func (r *Root) Rerender(node Node) error {
	if r.disposed {
		return ErrUnmounted
	}
	if isNilNode(node) {
		node = Fragment()
	}
	old := r.child
	if old == node {
		return nil
	}

	r.beginReconcile()
	defer r.endReconcile()

	if old != nil && Compatible(old, node) {
		return old.Patch(node)
	}
	hs, err := node.Mount(r)
	if err != nil {
		node.Unmount()
		return err
	}
	var anchor *dom.Node
	var oldHandles []*dom.Node
	if old != nil {
		oldHandles = old.Handles()
		if len(oldHandles) > 0 {
			anchor = oldHandles[0]
		}
		old.Unmount()
	}
	for _, h := range hs {
		r.container.InsertBefore(h, anchor)
	}
	for _, h := range oldHandles {
		r.container.RemoveChild(h)
	}
	r.child = node
	return nil
}

// Unmount releases the tree: cleanups run, listeners are removed and the
// root's handles leave the container. Later calls are no-ops.
func (r *Root) Unmount() {
	if r.disposed {
		return
	}
	r.beginReconcile()
	if r.child != nil {
		hs := r.child.Handles()
		r.child.Unmount()
		for _, h := range hs {
			r.container.RemoveChild(h)
		}
		r.child = nil
	}
	r.resync = nil
	r.endReconcile()
	r.release()
}

// Disposed reports whether the root was unmounted.
func (r *Root) Disposed() bool { return r.disposed }

// Tick runs one turn of the root's host and returns the number of host
// callbacks run. Hosts without a Drain method are flushed directly.
func (r *Root) Tick() int {
	s := r.rt.Scheduler()
	if d, ok := s.Host().(interface{ Drain() int }); ok {
		return d.Drain()
	}
	s.Flush()
	return 0
}

func (r *Root) release() {
	for _, rms := range r.brackets {
		for _, rm := range rms {
			rm()
		}
	}
	r.brackets = nil
	r.mounted = false
	r.disposed = true
}

func (r *Root) beginReconcile() { r.depth++ }

// endReconcile commits queued work when the outermost reconcile ends.
// Inside a scheduler pass the commit waits for the pass to end, so every
// cleanup of the pass runs before any of its mount hooks.
func (r *Root) endReconcile() {
	r.depth--
	if r.depth > 0 {
		return
	}
	s := r.rt.Scheduler()
	if !s.InPass() {
		r.commit()
		return
	}
	if !r.queued {
		r.queued = true
		s.AfterPass(r.commitPass)
	}
}

func (r *Root) commitPass() {
	r.queued = false
	r.commit()
}

func (r *Root) commit() {
	// Commit callbacks may start new reconciles; they commit themselves.
	r.depth++
	defer func() { r.depth-- }()

	for len(r.resync) > 0 || len(r.unmountQ) > 0 || len(r.mountQ) > 0 {
		owners := r.resync
		r.resync = nil
		for _, o := range owners {
			r.resyncOwner(o)
		}

		unmounts := r.unmountQ
		r.unmountQ = nil
		for _, fn := range unmounts {
			fn()
		}

		mounts := r.mountQ
		r.mountQ = nil
		for _, fn := range mounts {
			fn()
		}
	}
}

func (r *Root) requestResync(owner Node) {
	if owner == nil {
		return
	}
	for _, o := range r.resync {
		if o == owner {
			return
		}
	}
	r.resync = append(r.resync, owner)
}

func (r *Root) resyncOwner(owner Node) {
	var st reconcile.Stats
	switch o := owner.(type) {
	case *Element:
		if !o.mounted {
			return
		}
		st = reconcile.Resync(o.el, handlesOf(o.children))
	case *Root:
		if o.disposed {
			return
		}
		st = reconcile.Resync(o.container, o.Handles())
	default:
		return
	}
	r.recorder.Resync(st)
	r.logger.Debug("vdom: resynced container",
		"owner", describe(owner),
		"kept", st.Kept,
		"inserted", st.Inserted,
		"moved", st.Moved,
		"trimmed", st.Trimmed)
}

func (r *Root) queueUnmount(fn func()) {
	r.unmountQ = append(r.unmountQ, fn)
	if r.depth == 0 {
		r.beginReconcile()
		r.endReconcile()
	}
}

func (r *Root) queueMount(fn func()) {
	r.mountQ = append(r.mountQ, fn)
	if r.depth == 0 {
		r.beginReconcile()
		r.endReconcile()
	}
}

// watchEvent brackets dispatches of typ on the container so writes made by
// handlers flush once, synchronously, after the dispatch.
func (r *Root) watchEvent(typ string) {
	if r.disposed {
		return
	}
	if _, ok := r.brackets[typ]; ok {
		return
	}
	if r.brackets == nil {
		r.brackets = make(map[string][]func())
	}
	s := r.rt.Scheduler()
	begin := r.container.AddEventListener(typ, func(*dom.Event) {
		s.BeginInteraction()
	}, true)
	end := r.container.AddEventListener(typ, func(*dom.Event) {
		if err := s.EndInteraction(); err != nil {
			r.reportError(err)
		}
	}, false)
	r.brackets[typ] = []func(){begin, end}
}

// handlerFailed routes a panic raised by an event handler on e.
func (r *Root) handlerFailed(e *Element, typ string, rec any) {
	err := renderError(fmt.Sprintf("<%s> on%s handler", e.tag, typ), rec)
	if routeFrom(owningInstance(e), err) {
		return
	}
	r.reportError(err)
}

func (r *Root) reportError(err error) {
	r.logger.Error("vdom: unhandled error", "error", err)
	if r.onError != nil {
		r.onError(err)
	}
}

package vdom

import (
	"context"
	"maps"
	"runtime/debug"
	"time"

	rerrors "github.com/vango-dev/rask/internal/errors"
	"github.com/vango-dev/rask/pkg/reactive"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type phase uint8

const (
	phaseNew phase = iota
	phaseSetup
	phaseRender
	phaseIdle
	phaseFailed
	phaseDisposed
)

// Instance is the live state of one mounted component: its prop record,
// render observer, hooks and provided contexts. It is created on mount,
// survives patches and is disposed on unmount.
type Instance struct {
	node   *ComponentNode
	root   *Root
	parent *Instance

	props  *reactive.Record
	render RenderFunc
	obs    *reactive.Observer

	effects  []*reactive.Effect
	mounts   []func()
	cleanups []func()
	contexts map[any]any
	onError  []func(error)
	captured *reactive.Value[error]

	phase     phase
	committed bool
	renders   int
}

func newInstance(c *ComponentNode) *Instance {
	r := c.root
	inst := &Instance{
		node:   c,
		root:   r,
		parent: owningInstance(c.parent),
		props:  r.rt.NewRecord(maps.Clone(c.props)),
	}
	inst.captured = reactive.NewValue[error](r.rt, nil)
	inst.obs = r.rt.NewObserver(inst.update)
	return inst
}

// Name returns the component name.
func (inst *Instance) Name() string { return inst.node.def.name }

// Parent returns the nearest ancestor instance, or nil.
func (inst *Instance) Parent() *Instance { return inst.parent }

// Props returns the reactive prop record.
func (inst *Instance) Props() *reactive.Record { return inst.props }

// Renders returns how many times the instance has rendered.
func (inst *Instance) Renders() int { return inst.renders }

// Error returns the error captured by this instance's OnError handlers.
func (inst *Instance) Error() error { return inst.captured.Peek() }

// Disposed reports whether the instance was unmounted.
func (inst *Instance) Disposed() bool { return inst.phase == phaseDisposed }

// mount runs setup and the first render and mounts the result. A failure
// handled by an error boundary leaves the instance rendering nothing.
func (inst *Instance) mount() ([]Node, error) {
	render, err := inst.runSetup()
	if err == nil {
		inst.render = render
		var nodes []Node
		nodes, err = inst.renderTracked()
		if err == nil {
			return inst.mountChildren(nodes)
		}
	}
	if inst.fail(err) {
		return nil, nil
	}
	return nil, err
}

func (inst *Instance) mountChildren(nodes []Node) ([]Node, error) {
	for i, n := range nodes {
		if _, err := n.Mount(inst.node); err != nil {
			return nodes[:i], err
		}
	}
	inst.root.queueMount(inst.commit)
	inst.root.recorder.InstanceMounted(inst.Name())
	return nodes, nil
}

func (inst *Instance) runSetup() (render RenderFunc, err error) {
	s := &Setup{inst: inst}
	inst.phase = phaseSetup
	defer func() {
		if inst.phase == phaseSetup {
			inst.phase = phaseIdle
		}
		if r := recover(); r != nil {
			if isScopeViolation(r) {
				panic(r)
			}
			err = renderError(inst.Name(), r)
		}
	}()

	inst.root.rt.Untracked(func() {
		render = inst.node.def.setup(s)
	})
	if render == nil {
		return nil, rerrors.New("R004").WithDetailf("component %s: setup returned a nil render function", inst.Name())
	}
	return render, nil
}

// renderTracked runs the render function inside the instance observer's
// tracking window.
func (inst *Instance) renderTracked() (nodes []Node, err error) {
	r := inst.root
	_, span := r.tracer.Start(context.Background(), "vdom.render",
		trace.WithAttributes(attribute.String("rask.component", inst.Name())))
	start := time.Now()

	inst.phase = phaseRender
	stop := inst.obs.Observe()
	defer func() {
		stop()
		if inst.phase == phaseRender {
			inst.phase = phaseIdle
		}
		if rec := recover(); rec != nil {
			if isScopeViolation(rec) {
				span.End()
				panic(rec)
			}
			err = renderError(inst.Name(), rec)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "render failed")
		}
		span.End()
	}()

	out := inst.render()
	inst.renders++
	r.recorder.Render(inst.Name(), time.Since(start))
	return flatten(out), nil
}

// update is the observer callback: re-render, then reconcile children.
func (inst *Instance) update() {
	if inst.phase != phaseIdle || !inst.node.mounted {
		return
	}
	r := inst.root
	r.beginReconcile()
	defer r.endReconcile()

	nodes, err := inst.renderTracked()
	if err != nil {
		if !inst.fail(err) {
			panic(err)
		}
		nodes = nil
	}

	children, err := reconcileChildren(inst.node, inst.node.children, nodes)
	inst.node.children = children
	if err != nil {
		panic(err)
	}
}

// fail routes err to the nearest boundary. When handled, the instance stops
// re-rendering.
func (inst *Instance) fail(err error) bool {
	handled := routeFrom(inst.parent, err)
	inst.root.recorder.RenderError(inst.Name(), handled)
	if !handled {
		return false
	}
	inst.root.logger.Debug("vdom: render error captured by boundary",
		"component", inst.Name(),
		"error", err)
	inst.phase = phaseFailed
	inst.obs.Dispose()
	for _, e := range inst.effects {
		e.Stop()
	}
	return true
}

// routeFrom delivers err to the first instance from p upward that has
// error handlers.
func routeFrom(p *Instance, err error) bool {
	for ; p != nil; p = p.parent {
		if len(p.onError) == 0 || p.phase == phaseDisposed || p.phase == phaseFailed {
			continue
		}
		for _, h := range p.onError {
			p.safeCall("error handler", func() { h(err) })
		}
		p.captured.Set(err)
		return true
	}
	return false
}

func (inst *Instance) setProps(next Props) {
	for _, k := range inst.props.PeekKeys() {
		if _, ok := next[k]; !ok {
			inst.props.Delete(k)
		}
	}
	for k, v := range next {
		inst.props.Set(k, v)
	}
}

// commit runs mount hooks. The root calls it after the live tree is
// updated.
func (inst *Instance) commit() {
	if inst.phase == phaseDisposed || inst.phase == phaseFailed {
		return
	}
	inst.committed = true
	mounts := inst.mounts
	inst.mounts = nil
	for _, fn := range mounts {
		inst.safeCall("mount hook", fn)
	}
}

// dispose stops the instance and queues its effects and cleanups on the
// root's unmount queue. An instance whose first render failed never
// mounted, so its cleanups do not run.
func (inst *Instance) dispose() {
	if inst.phase == phaseDisposed {
		return
	}
	neverMounted := inst.phase == phaseFailed && !inst.committed
	inst.phase = phaseDisposed
	inst.obs.Dispose()

	if neverMounted {
		for _, e := range inst.effects {
			e.Stop()
		}
		return
	}
	inst.root.recorder.InstanceUnmounted(inst.Name())

	effects, cleanups := inst.effects, inst.cleanups
	inst.effects, inst.cleanups = nil, nil
	inst.root.queueUnmount(func() {
		for i := len(effects) - 1; i >= 0; i-- {
			effects[i].Dispose()
		}
		for i := len(cleanups) - 1; i >= 0; i-- {
			inst.safeCall("cleanup", cleanups[i])
		}
	})
}

// safeCall runs fn and logs a panic instead of propagating it.
func (inst *Instance) safeCall(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			code := "R004"
			if what == "cleanup" {
				code = "R005"
				inst.root.recorder.CleanupFailed()
			}
			err := rerrors.FromPanic(r, code)
			inst.root.logger.Error("vdom: "+what+" failed",
				"component", inst.Name(),
				"error", err,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}

// owningInstance returns the instance of the nearest component node at or
// above n.
func owningInstance(n Node) *Instance {
	for p := n; p != nil; p = p.Parent() {
		if c, ok := p.(*ComponentNode); ok && c.inst != nil {
			return c.inst
		}
	}
	return nil
}

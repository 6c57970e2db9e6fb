package dom

// Phase is the event propagation phase.
type Phase uint8

const (
	PhaseNone Phase = iota
	PhaseCapture
	PhaseTarget
	PhaseBubble
)

// Event is dispatched through the tree with DispatchEvent.
type Event struct {
	Type  string
	Value string
	Data  map[string]any

	Target        *Node
	CurrentTarget *Node
	Phase         Phase

	stopped   bool
	prevented bool
}

// NewEvent creates an event of the given type.
func NewEvent(typ string) *Event {
	return &Event{Type: typ}
}

// StopPropagation prevents the event from reaching further nodes. Listeners
// on the current node still run.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// PreventDefault marks the event's default action as canceled.
func (e *Event) PreventDefault() {
	e.prevented = true
}

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool {
	return e.prevented
}

// Stopped reports whether StopPropagation was called.
func (e *Event) Stopped() bool {
	return e.stopped
}

type listener struct {
	fn      func(*Event)
	capture bool
	removed bool
}

// AddEventListener registers fn for events of type typ. Capture listeners
// run while the event travels down to the target. The returned function
// removes the listener.
func (n *Node) AddEventListener(typ string, fn func(*Event), capture bool) (remove func()) {
	if n.listeners == nil {
		n.listeners = make(map[string][]*listener)
	}
	l := &listener{fn: fn, capture: capture}
	n.listeners[typ] = append(n.listeners[typ], l)
	return func() {
		if l.removed {
			return
		}
		l.removed = true
		list := n.listeners[typ]
		for i, x := range list {
			if x == l {
				n.listeners[typ] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
		if len(n.listeners[typ]) == 0 {
			delete(n.listeners, typ)
		}
	}
}

// ListenerCount returns the number of listeners registered for typ.
func (n *Node) ListenerCount(typ string) int {
	return len(n.listeners[typ])
}

// DispatchEvent delivers e to n: capture listeners from the outermost
// ancestor down, then n's own listeners, then bubble listeners back up.
// It returns false if a listener called PreventDefault.
func (n *Node) DispatchEvent(e *Event) bool {
	e.Target = n
	var path []*Node
	for p := n.Parent; p != nil; p = p.Parent {
		path = append(path, p)
	}

	e.Phase = PhaseCapture
	for i := len(path) - 1; i >= 0 && !e.stopped; i-- {
		path[i].invoke(e, func(l *listener) bool { return l.capture })
	}

	if !e.stopped {
		e.Phase = PhaseTarget
		n.invoke(e, func(*listener) bool { return true })
	}

	e.Phase = PhaseBubble
	for i := 0; i < len(path) && !e.stopped; i++ {
		path[i].invoke(e, func(l *listener) bool { return !l.capture })
	}

	e.Phase = PhaseNone
	e.CurrentTarget = nil
	return !e.prevented
}

func (n *Node) invoke(e *Event, want func(*listener) bool) {
	list := n.listeners[e.Type]
	if len(list) == 0 {
		return
	}
	snapshot := make([]*listener, len(list))
	copy(snapshot, list)
	e.CurrentTarget = n
	for _, l := range snapshot {
		if l.removed || !want(l) {
			continue
		}
		l.fn(e)
	}
}

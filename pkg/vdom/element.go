package vdom

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/vango-dev/rask/pkg/dom"
	"github.com/vango-dev/rask/pkg/reactive"
)

// Flags are capability bits computed when an element is built.
type Flags uint8

const (
	HasEvents Flags = 1 << iota
	HasAttrs
	HasChildren
	HasRef
)

// Has reports whether all bits of x are set.
func (f Flags) Has(x Flags) bool {
	return f&x == x
}

// Props holds element attributes or component props.
type Props map[string]any

// Element is an element node.
type Element struct {
	nodeBase

	tag      string
	props    Props
	handlers map[string]any
	children []Node
	ref      *Ref
	flags    Flags

	el       *dom.Node
	removers map[string]func()
}

// El creates an element with an arbitrary tag. Arguments can be: nil,
// Attr, []Attr, EventHandler, *Ref, Node, []Node or string.
func El(tag string, args ...any) *Element {
	return createElement(tag, args)
}

func createElement(tag string, args []any) *Element {
	e := &Element{tag: tag}
	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			// Ignore nil (allows conditional arguments)
			continue
		case Attr:
			e.setProp(v)
		case []Attr:
			for _, a := range v {
				e.setProp(a)
			}
		case EventHandler:
			e.setHandler(v)
		case []EventHandler:
			for _, h := range v {
				e.setHandler(h)
			}
		case *Ref:
			e.ref = v
		default:
			e.children = appendChild(e.children, v)
		}
	}

	if len(e.handlers) > 0 {
		e.flags |= HasEvents
	}
	if len(e.props) > 0 {
		e.flags |= HasAttrs
	}
	if len(e.children) > 0 {
		e.flags |= HasChildren
	}
	if e.ref != nil {
		e.flags |= HasRef
	}
	return e
}

func (e *Element) setProp(a Attr) {
	if a.Key == "" {
		return
	}
	if a.Key == "key" {
		e.key = normalizeKey(a.Value)
		return
	}
	if e.props == nil {
		e.props = make(Props)
	}
	e.props[a.Key] = a.Value
}

func (e *Element) setHandler(h EventHandler) {
	if h.Event == "" || h.Handler == nil {
		return
	}
	if e.handlers == nil {
		e.handlers = make(map[string]any)
	}
	e.handlers[h.Event] = h.Handler
}

// Kind returns KindElement.
func (e *Element) Kind() Kind { return KindElement }

// Tag returns the element tag.
func (e *Element) Tag() string { return e.tag }

// Flags returns the capability flags.
func (e *Element) Flags() Flags { return e.flags }

// Prop returns the value of an attribute prop.
func (e *Element) Prop(key string) any { return e.props[key] }

// Children returns the child nodes.
func (e *Element) Children() []Node { return e.children }

// DOM returns the live element, or nil before mount.
func (e *Element) DOM() *dom.Node { return e.el }

// Handles returns the live element.
func (e *Element) Handles() []*dom.Node {
	if e.el == nil {
		return nil
	}
	return []*dom.Node{e.el}
}

// Mount creates the live element, sets its attributes and listeners and
// mounts the children into it.
func (e *Element) Mount(parent Node) ([]*dom.Node, error) {
	if err := e.attach(parent); err != nil {
		return nil, err
	}
	e.el = e.root.doc.CreateElement(e.tag)
	e.mounted = true

	syncAttrs(e.el, nil, e.props)
	for _, typ := range slices.Sorted(maps.Keys(e.handlers)) {
		e.listen(typ)
	}
	for _, c := range e.children {
		hs, err := c.Mount(e)
		if err != nil {
			return nil, err
		}
		for _, h := range hs {
			e.el.AppendChild(h)
		}
	}
	if e.ref != nil {
		e.ref.set(e.el)
	}
	return e.Handles(), nil
}

// Patch updates the element in place to match next.
func (e *Element) Patch(next Node) error {
	n, ok := next.(*Element)
	if !ok || n.tag != e.tag {
		return incompatibleError(fmt.Sprintf("cannot patch <%s> with %s", e.tag, describe(next)))
	}
	if !e.mounted {
		return detachedError("patch of unmounted <" + e.tag + ">")
	}

	syncAttrs(e.el, e.props, n.props)
	e.props = n.props

	prevHandlers := e.handlers
	e.handlers = n.handlers
	for typ := range prevHandlers {
		if _, keep := n.handlers[typ]; !keep {
			if rm := e.removers[typ]; rm != nil {
				rm()
				delete(e.removers, typ)
			}
		}
	}
	for _, typ := range slices.Sorted(maps.Keys(n.handlers)) {
		if _, had := prevHandlers[typ]; !had {
			e.listen(typ)
		}
	}

	if n.ref != e.ref {
		if e.ref != nil {
			e.ref.set(nil)
		}
		if n.ref != nil {
			n.ref.set(e.el)
		}
		e.ref = n.ref
	}
	e.flags = n.flags

	children, err := reconcileChildren(e, e.children, n.children)
	e.children = children
	return err
}

// Unmount unmounts the children and queues listener and ref release on the
// root.
func (e *Element) Unmount() {
	if !e.mounted {
		return
	}
	e.mounted = false
	for _, c := range e.children {
		c.Unmount()
	}

	removers := e.removers
	e.removers = nil
	ref, el := e.ref, e.el
	e.root.queueUnmount(func() {
		for _, rm := range removers {
			rm()
		}
		if ref != nil && ref.node == el {
			ref.set(nil)
		}
	})
}

func (e *Element) listen(typ string) {
	if e.removers == nil {
		e.removers = make(map[string]func())
	}
	e.removers[typ] = e.el.AddEventListener(typ, e.handle, false)
	e.root.watchEvent(typ)
}

// handle invokes the current handler for ev. Handler panics are routed to
// the nearest error boundary of the owning component.
func (e *Element) handle(ev *dom.Event) {
	h, ok := e.handlers[ev.Type]
	if !ok {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.root.handlerFailed(e, ev.Type, r)
		}
	}()
	switch fn := h.(type) {
	case func():
		fn()
	case func(*dom.Event):
		fn(ev)
	case func(string):
		fn(ev.Value)
	default:
		e.root.logger.Warn("vdom: unsupported event handler type",
			"event", ev.Type,
			"type", fmt.Sprintf("%T", h))
	}
}

// booleanAttrs are attributes whose presence means true.
var booleanAttrs = map[string]bool{
	"allowfullscreen": true,
	"async":           true,
	"autofocus":       true,
	"checked":         true,
	"defer":           true,
	"disabled":        true,
	"hidden":          true,
	"multiple":        true,
	"novalidate":      true,
	"open":            true,
	"readonly":        true,
	"required":        true,
	"selected":        true,
}

// attrString converts a prop value to its attribute text. ok is false when
// the attribute should be absent.
func attrString(key string, v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case bool:
		if booleanAttrs[key] {
			return "", val
		}
		return strconv.FormatBool(val), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case fmt.Stringer:
		return val.String(), true
	default:
		return fmt.Sprintf("%v", v), true
	}
}

// syncAttrs applies the attribute difference between prev and next to el.
func syncAttrs(el *dom.Node, prev, next Props) {
	for _, key := range slices.Sorted(maps.Keys(prev)) {
		if _, ok := next[key]; !ok {
			el.RemoveAttr(key)
		}
	}
	for _, key := range slices.Sorted(maps.Keys(next)) {
		val := next[key]
		if old, ok := prev[key]; ok && reactive.Equal(old, val) {
			continue
		}
		if s, ok := attrString(key, val); ok {
			el.SetAttr(key, s)
		} else {
			el.RemoveAttr(key)
		}
	}
}

func normalizeKey(v any) any {
	switch k := v.(type) {
	case nil:
		return nil
	case string:
		return k
	default:
		return fmt.Sprintf("%v", k)
	}
}

func describe(n Node) string {
	switch v := n.(type) {
	case nil:
		return "nil"
	case *Element:
		return "<" + v.tag + ">"
	case *ComponentNode:
		return "component " + v.def.name
	default:
		return n.Kind().String()
	}
}

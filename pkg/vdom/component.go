package vdom

import (
	"maps"

	"github.com/vango-dev/rask/pkg/dom"
	"github.com/vango-dev/rask/pkg/reactive"
)

// SetupFunc runs once per mounted instance and returns its render
// function.
type SetupFunc func(s *Setup) RenderFunc

// RenderFunc produces the instance's children. An unkeyed fragment is
// flattened into the child list.
type RenderFunc func() Node

// Component is a component definition. Nodes created from the same
// definition are patched in place; different definitions are replaced.
type Component struct {
	name      string
	setup     SetupFunc
	stateless bool
}

// Define creates a stateful component definition.
func Define(name string, setup SetupFunc) *Component {
	return &Component{name: name, setup: setup}
}

// Stateless creates a component that only renders its props.
func Stateless(name string, render func(props *reactive.Record) Node) *Component {
	return &Component{
		name: name,
		setup: func(s *Setup) RenderFunc {
			props := s.Props()
			return func() Node { return render(props) }
		},
		stateless: true,
	}
}

// Name returns the component name.
func (c *Component) Name() string { return c.name }

// IsStateless reports whether the component was created with Stateless.
func (c *Component) IsStateless() bool { return c.stateless }

// New creates a component node. A "key" prop becomes the node's
// reconciliation key and is not passed to the component.
func (c *Component) New(props Props) *ComponentNode {
	n := &ComponentNode{def: c}
	if k, ok := props["key"]; ok {
		n.key = normalizeKey(k)
		props = maps.Clone(props)
		delete(props, "key")
	}
	n.props = props
	return n
}

// ComponentNode is a node rendered by a component instance.
type ComponentNode struct {
	nodeBase

	def      *Component
	props    Props
	children []Node
	inst     *Instance
}

// Kind returns KindComponent.
func (c *ComponentNode) Kind() Kind { return KindComponent }

// Definition returns the component definition.
func (c *ComponentNode) Definition() *Component { return c.def }

// Instance returns the live instance, or nil before mount.
func (c *ComponentNode) Instance() *Instance { return c.inst }

// Children returns the rendered children.
func (c *ComponentNode) Children() []Node { return c.children }

// Handles returns the handles of the rendered children.
func (c *ComponentNode) Handles() []*dom.Node { return handlesOf(c.children) }

// Mount builds a new instance, runs setup and the first render, and mounts
// the rendered children.
func (c *ComponentNode) Mount(parent Node) ([]*dom.Node, error) {
	if err := c.attach(parent); err != nil {
		return nil, err
	}
	c.mounted = true
	c.inst = newInstance(c)

	children, err := c.inst.mount()
	c.children = children
	if err != nil {
		return nil, err
	}
	return handlesOf(children), nil
}

// Patch copies next's props into the instance's prop record. The instance
// re-renders through its own observer if any prop it read changed.
func (c *ComponentNode) Patch(next Node) error {
	n, ok := next.(*ComponentNode)
	if !ok || n.def != c.def {
		return incompatibleError("cannot patch component " + c.def.name + " with " + describe(next))
	}
	if !c.mounted {
		return detachedError("patch of unmounted component " + c.def.name)
	}
	c.props = n.props
	c.inst.setProps(n.props)
	return nil
}

// Unmount unmounts the rendered children and disposes the instance.
func (c *ComponentNode) Unmount() {
	if !c.mounted {
		return
	}
	c.mounted = false
	for _, ch := range c.children {
		ch.Unmount()
	}
	if c.inst != nil {
		c.inst.dispose()
	}
}

// flatten turns a render result into a child list.
func flatten(n Node) []Node {
	if isNilNode(n) {
		return nil
	}
	if f, ok := n.(*FragmentNode); ok && f.key == nil && !f.mounted {
		return f.children
	}
	return []Node{n}
}

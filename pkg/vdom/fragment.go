package vdom

import "github.com/vango-dev/rask/pkg/dom"

// FragmentNode groups children without a wrapper element. Its children are
// placed directly in the nearest element or root container.
type FragmentNode struct {
	nodeBase
	children []Node
}

// Fragment groups children without a wrapper. Children can be Node,
// []Node or string.
func Fragment(children ...any) *FragmentNode {
	f := &FragmentNode{}
	for _, c := range children {
		f.children = appendChild(f.children, c)
	}
	return f
}

// Keyed is a Fragment with a reconciliation key.
func Keyed(key any, children ...any) *FragmentNode {
	f := Fragment(children...)
	f.key = normalizeKey(key)
	return f
}

// Kind returns KindFragment.
func (f *FragmentNode) Kind() Kind { return KindFragment }

// Children returns the child nodes.
func (f *FragmentNode) Children() []Node { return f.children }

// Handles returns the handles of all children in order.
func (f *FragmentNode) Handles() []*dom.Node { return handlesOf(f.children) }

// Mount mounts the children and returns their handles.
func (f *FragmentNode) Mount(parent Node) ([]*dom.Node, error) {
	if err := f.attach(parent); err != nil {
		return nil, err
	}
	f.mounted = true
	var hs []*dom.Node
	for _, c := range f.children {
		h, err := c.Mount(f)
		if err != nil {
			return nil, err
		}
		hs = append(hs, h...)
	}
	return hs, nil
}

// Patch reconciles the children against next's children.
func (f *FragmentNode) Patch(next Node) error {
	n, ok := next.(*FragmentNode)
	if !ok {
		return incompatibleError("cannot patch fragment with " + describe(next))
	}
	if !f.mounted {
		return detachedError("patch of unmounted fragment")
	}
	children, err := reconcileChildren(f, f.children, n.children)
	f.children = children
	return err
}

// Unmount unmounts the children.
func (f *FragmentNode) Unmount() {
	if !f.mounted {
		return
	}
	f.mounted = false
	for _, c := range f.children {
		c.Unmount()
	}
}

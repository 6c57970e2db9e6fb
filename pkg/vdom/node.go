package vdom

import (
	"github.com/vango-dev/rask/pkg/dom"
)

// Kind is the node type discriminator.
type Kind uint8

const (
	KindElement Kind = iota
	KindText
	KindFragment
	KindComponent
	KindRoot
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindFragment:
		return "Fragment"
	case KindComponent:
		return "Component"
	case KindRoot:
		return "Root"
	default:
		return "Unknown"
	}
}

// Node is implemented by Element, TextNode, FragmentNode, ComponentNode
// and Root. The set is closed.
//
// A node starts as a description. Mount turns it into a mounted node that
// owns live handles; Patch updates a mounted node in place to match a
// compatible description; Unmount releases it.
type Node interface {
	Kind() Kind
	// Key returns the reconciliation key, or nil.
	Key() any
	// Handles returns the live nodes this node occupies in its container,
	// in order.
	Handles() []*dom.Node
	Parent() Node
	Children() []Node
	Mounted() bool

	Mount(parent Node) ([]*dom.Node, error)
	Patch(next Node) error
	Unmount()

	base() *nodeBase
}

type nodeBase struct {
	key     any
	parent  Node
	root    *Root
	mounted bool
}

// Key returns the reconciliation key, or nil.
func (b *nodeBase) Key() any { return b.key }

// Parent returns the parent node, or nil before mount.
func (b *nodeBase) Parent() Node { return b.parent }

// Mounted reports whether the node is mounted.
func (b *nodeBase) Mounted() bool { return b.mounted }

func (b *nodeBase) base() *nodeBase { return b }

// attach links b under parent and its root.
func (b *nodeBase) attach(parent Node) error {
	if b.mounted {
		return incompatibleError("node is already mounted")
	}
	if parent == nil || parent.base().root == nil {
		return detachedError("mount requires a mounted parent")
	}
	b.parent = parent
	b.root = parent.base().root
	return nil
}

// WithKey sets the reconciliation key of an unmounted node and returns it.
func WithKey[N Node](n N, key any) N {
	if b := n.base(); !b.mounted {
		b.key = normalizeKey(key)
	}
	return n
}

// Compatible reports whether a can be patched to match b: same kind, and
// the same tag for elements or the same definition for components.
func Compatible(a, b Node) bool {
	if a == nil || b == nil || a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case *Element:
		return x.tag == b.(*Element).tag
	case *ComponentNode:
		return x.def == b.(*ComponentNode).def
	case *Root:
		return false
	}
	return true
}

func isNilNode(n Node) bool {
	switch v := n.(type) {
	case nil:
		return true
	case *Element:
		return v == nil
	case *TextNode:
		return v == nil
	case *FragmentNode:
		return v == nil
	case *ComponentNode:
		return v == nil
	case *Root:
		return v == nil
	}
	return false
}

// appendChild normalizes a child argument: nodes, node slices and strings.
func appendChild(list []Node, arg any) []Node {
	switch v := arg.(type) {
	case nil:
		return list
	case Node:
		if isNilNode(v) {
			return list
		}
		return append(list, v)
	case []Node:
		for _, c := range v {
			list = appendChild(list, c)
		}
		return list
	case []*Element:
		for _, c := range v {
			list = appendChild(list, c)
		}
		return list
	case string:
		return append(list, Text(v))
	}
	return list
}

// handlesOf flattens the handles of nodes.
func handlesOf(nodes []Node) []*dom.Node {
	var out []*dom.Node
	for _, n := range nodes {
		out = append(out, n.Handles()...)
	}
	return out
}

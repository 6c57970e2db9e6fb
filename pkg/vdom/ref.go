package vdom

import "github.com/vango-dev/rask/pkg/dom"

// Ref holds the live node of the element it is attached to. It is set when
// the element mounts and cleared when it unmounts.
type Ref struct {
	node *dom.Node
}

// NewRef creates an empty ref.
func NewRef() *Ref { return &Ref{} }

// Current returns the live node, or nil.
func (r *Ref) Current() *dom.Node { return r.node }

func (r *Ref) set(n *dom.Node) { r.node = n }

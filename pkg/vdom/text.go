package vdom

import (
	"fmt"

	"github.com/vango-dev/rask/pkg/dom"
)

// TextNode is a text node.
type TextNode struct {
	nodeBase
	text string
	node *dom.Node
}

// Text creates a text node.
func Text(content string) *TextNode {
	return &TextNode{text: content}
}

// Textf creates a formatted text node.
func Textf(format string, args ...any) *TextNode {
	return Text(fmt.Sprintf(format, args...))
}

// Kind returns KindText.
func (t *TextNode) Kind() Kind { return KindText }

// Content returns the text.
func (t *TextNode) Content() string { return t.text }

// Children returns nil.
func (t *TextNode) Children() []Node { return nil }

// Handles returns the live text node.
func (t *TextNode) Handles() []*dom.Node {
	if t.node == nil {
		return nil
	}
	return []*dom.Node{t.node}
}

// Mount creates the live text node.
func (t *TextNode) Mount(parent Node) ([]*dom.Node, error) {
	if err := t.attach(parent); err != nil {
		return nil, err
	}
	t.node = t.root.doc.CreateText(t.text)
	t.mounted = true
	return t.Handles(), nil
}

// Patch replaces the text.
func (t *TextNode) Patch(next Node) error {
	n, ok := next.(*TextNode)
	if !ok {
		return incompatibleError("cannot patch text with " + describe(next))
	}
	if !t.mounted {
		return detachedError("patch of unmounted text")
	}
	t.text = n.text
	t.node.SetText(n.text)
	return nil
}

// Unmount marks the node unmounted. Text holds no other resources.
func (t *TextNode) Unmount() {
	t.mounted = false
}

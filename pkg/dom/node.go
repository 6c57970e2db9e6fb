package dom

import "strings"

// NodeType identifies the kind of a Node.
type NodeType uint8

const (
	ElementNode NodeType = iota + 1
	TextNode
)

// String returns the node type name.
func (t NodeType) String() string {
	switch t {
	case ElementNode:
		return "Element"
	case TextNode:
		return "Text"
	default:
		return "Unknown"
	}
}

// Attribute is a single element attribute.
type Attribute struct {
	Key string
	Val string
}

// Node is a node of the live tree.
type Node struct {
	Type NodeType
	Tag  string
	Data string

	Parent      *Node
	FirstChild  *Node
	LastChild   *Node
	PrevSibling *Node
	NextSibling *Node

	attrs     []Attribute
	listeners map[string][]*listener
	doc       *Document
}

// Document returns the document that created n.
func (n *Node) Document() *Document {
	return n.doc
}

// AppendChild adds c as the last child of n, detaching it from its current
// parent first.
func (n *Node) AppendChild(c *Node) {
	n.InsertBefore(c, nil)
}

// InsertBefore inserts c before ref. A nil ref appends. c is detached from
// its current position first, so InsertBefore also moves nodes.
func (n *Node) InsertBefore(c, ref *Node) {
	if c == nil || c == ref {
		return
	}
	if ref != nil && ref.Parent != n {
		panic("dom: InsertBefore reference is not a child of this node")
	}
	for p := n; p != nil; p = p.Parent {
		if p == c {
			panic("dom: InsertBefore would create a cycle")
		}
	}
	if c.Parent == n && c.NextSibling == ref {
		return
	}
	if c.Parent != nil {
		c.Parent.unlink(c)
	}

	c.Parent = n
	c.NextSibling = ref
	if ref == nil {
		c.PrevSibling = n.LastChild
		if n.LastChild != nil {
			n.LastChild.NextSibling = c
		} else {
			n.FirstChild = c
		}
		n.LastChild = c
	} else {
		c.PrevSibling = ref.PrevSibling
		if ref.PrevSibling != nil {
			ref.PrevSibling.NextSibling = c
		} else {
			n.FirstChild = c
		}
		ref.PrevSibling = c
	}
	n.mutated()
}

// RemoveChild detaches c from n. It does nothing if c is not a child of n.
func (n *Node) RemoveChild(c *Node) {
	if c == nil || c.Parent != n {
		return
	}
	n.unlink(c)
	n.mutated()
}

// ReplaceChild puts next in old's position and detaches old.
func (n *Node) ReplaceChild(next, old *Node) {
	if old == nil || old.Parent != n || next == old {
		return
	}
	n.InsertBefore(next, old)
	n.RemoveChild(old)
}

// Remove detaches n from its parent.
func (n *Node) Remove() {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

func (n *Node) unlink(c *Node) {
	if c.PrevSibling != nil {
		c.PrevSibling.NextSibling = c.NextSibling
	} else {
		n.FirstChild = c.NextSibling
	}
	if c.NextSibling != nil {
		c.NextSibling.PrevSibling = c.PrevSibling
	} else {
		n.LastChild = c.PrevSibling
	}
	c.Parent = nil
	c.PrevSibling = nil
	c.NextSibling = nil
}

// Children returns the child nodes in order.
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// ChildCount returns the number of children.
func (n *Node) ChildCount() int {
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count++
	}
	return count
}

// Contains reports whether c is n or a descendant of n.
func (n *Node) Contains(c *Node) bool {
	for ; c != nil; c = c.Parent {
		if c == n {
			return true
		}
	}
	return false
}

// SetAttr sets an attribute, keeping insertion order for new keys.
func (n *Node) SetAttr(key, val string) {
	for i := range n.attrs {
		if n.attrs[i].Key == key {
			if n.attrs[i].Val == val {
				return
			}
			n.attrs[i].Val = val
			n.mutated()
			return
		}
	}
	n.attrs = append(n.attrs, Attribute{Key: key, Val: val})
	n.mutated()
}

// RemoveAttr deletes an attribute.
func (n *Node) RemoveAttr(key string) {
	for i := range n.attrs {
		if n.attrs[i].Key == key {
			n.attrs = append(n.attrs[:i], n.attrs[i+1:]...)
			n.mutated()
			return
		}
	}
}

// Attr returns the value of an attribute.
func (n *Node) Attr(key string) (string, bool) {
	for _, a := range n.attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Attrs returns a copy of the attributes in order.
func (n *Node) Attrs() []Attribute {
	out := make([]Attribute, len(n.attrs))
	copy(out, n.attrs)
	return out
}

// SetText replaces the data of a text node.
func (n *Node) SetText(s string) {
	if n.Data == s {
		return
	}
	n.Data = s
	n.mutated()
}

// TextContent returns the concatenated text of n and its descendants.
func (n *Node) TextContent() string {
	if n.Type == TextNode {
		return n.Data
	}
	var sb strings.Builder
	n.writeText(&sb)
	return sb.String()
}

func (n *Node) writeText(sb *strings.Builder) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == TextNode {
			sb.WriteString(c.Data)
			continue
		}
		c.writeText(sb)
	}
}

func (n *Node) mutated() {
	if n.doc != nil {
		n.doc.mutations++
	}
}

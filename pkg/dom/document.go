package dom

// Document creates nodes and counts mutations made to them.
type Document struct {
	body      *Node
	mutations uint64
}

// NewDocument creates a Document with an empty body element.
func NewDocument() *Document {
	d := &Document{}
	d.body = d.CreateElement("body")
	return d
}

// Body returns the body element.
func (d *Document) Body() *Node {
	return d.body
}

// CreateElement returns a new detached element.
func (d *Document) CreateElement(tag string) *Node {
	return &Node{Type: ElementNode, Tag: tag, doc: d}
}

// CreateText returns a new detached text node.
func (d *Document) CreateText(data string) *Node {
	return &Node{Type: TextNode, Data: data, doc: d}
}

// Mutations returns the number of changes applied to nodes of d.
func (d *Document) Mutations() uint64 {
	return d.mutations
}

// Find returns the first element under root, in document order, for which
// match returns true.
func Find(root *Node, match func(*Node) bool) *Node {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != ElementNode {
			continue
		}
		if match(c) {
			return c
		}
		if found := Find(c, match); found != nil {
			return found
		}
	}
	return nil
}

// ByID matches elements whose id attribute equals id.
func ByID(id string) func(*Node) bool {
	return func(n *Node) bool {
		v, ok := n.Attr("id")
		return ok && v == id
	}
}

// ByTag matches elements with the given tag.
func ByTag(tag string) func(*Node) bool {
	return func(n *Node) bool { return n.Tag == tag }
}

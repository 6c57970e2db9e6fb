package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/vango-dev/rask/pkg/dom"
)

// RendererConfig configures the HTML renderer.
type RendererConfig struct {
	// Pretty indents block elements, one per line.
	Pretty bool

	// Indent is the string used for each level in pretty mode.
	// Defaults to two spaces.
	Indent string
}

// Renderer writes live dom nodes as HTML.
type Renderer struct {
	config RendererConfig
}

// NewRenderer creates a Renderer.
func NewRenderer(config RendererConfig) *Renderer {
	if config.Indent == "" {
		config.Indent = "  "
	}
	return &Renderer{config: config}
}

// RenderToString renders n and its subtree.
func (r *Renderer) RenderToString(n *dom.Node) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderToWriter(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToWriter streams n and its subtree to w.
func (r *Renderer) RenderToWriter(w io.Writer, n *dom.Node) error {
	return r.renderNode(w, n, 0)
}

// RenderChildren renders the children of n without n itself.
func (r *Renderer) RenderChildren(w io.Writer, n *dom.Node) error {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := r.renderNode(w, c, 0); err != nil {
			return err
		}
	}
	return nil
}

// InnerHTML renders the children of n.
func (r *Renderer) InnerHTML(n *dom.Node) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderChildren(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *Renderer) renderNode(w io.Writer, n *dom.Node, depth int) error {
	if n == nil {
		return nil
	}
	switch n.Type {
	case dom.ElementNode:
		return r.renderElement(w, n, depth)
	case dom.TextNode:
		_, err := io.WriteString(w, escapeHTML(n.Data))
		return err
	default:
		return fmt.Errorf("render: unknown node type %s", n.Type)
	}
}

func (r *Renderer) renderElement(w io.Writer, n *dom.Node, depth int) error {
	tag := n.Tag
	if r.config.Pretty && depth > 0 {
		r.writeIndent(w, depth)
	}
	if _, err := io.WriteString(w, "<"+tag); err != nil {
		return err
	}
	if err := r.renderAttributes(w, n); err != nil {
		return err
	}
	if _, err := io.WriteString(w, ">"); err != nil {
		return err
	}

	if isVoidElement(tag) {
		if r.config.Pretty {
			io.WriteString(w, "\n")
		}
		return nil
	}

	block := n.FirstChild != nil && !isInlineElement(tag) && hasElementChild(n)
	if r.config.Pretty && block {
		io.WriteString(w, "\n")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := r.renderNode(w, c, depth+1); err != nil {
			return err
		}
	}
	if r.config.Pretty && block {
		r.writeIndent(w, depth)
	}

	if _, err := io.WriteString(w, "</"+tag+">"); err != nil {
		return err
	}
	if r.config.Pretty {
		io.WriteString(w, "\n")
	}
	return nil
}

func (r *Renderer) renderAttributes(w io.Writer, n *dom.Node) error {
	for _, a := range n.Attrs() {
		if a.Val == "" && isBooleanAttr(a.Key) {
			if _, err := io.WriteString(w, " "+a.Key); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, ` %s="%s"`, a.Key, escapeAttr(a.Val)); err != nil {
			return err
		}
	}
	return nil
}

func hasElementChild(n *dom.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == dom.ElementNode {
			return true
		}
	}
	return false
}

func (r *Renderer) writeIndent(w io.Writer, depth int) {
	io.WriteString(w, strings.Repeat(r.config.Indent, depth))
}

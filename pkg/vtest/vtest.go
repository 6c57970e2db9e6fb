package vtest

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/vango-dev/rask/pkg/dom"
	"github.com/vango-dev/rask/pkg/render"
	"github.com/vango-dev/rask/pkg/vdom"
)

// Harness is a tree mounted into a fresh document for a test.
type Harness struct {
	t    testing.TB
	root *vdom.Root
	body *dom.Node

	// Errors collects errors no boundary captured.
	Errors []error
}

// Mount renders node into a new document body. The root is unmounted when
// the test ends. Logging is discarded unless a WithLogger option is given.
func Mount(t testing.TB, node vdom.Node, opts ...vdom.RenderOption) *Harness {
	t.Helper()
	doc := dom.NewDocument()
	h := &Harness{t: t, body: doc.Body()}
	opts = append([]vdom.RenderOption{
		vdom.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		vdom.WithErrorHandler(func(err error) { h.Errors = append(h.Errors, err) }),
	}, opts...)
	root, err := vdom.Render(node, doc.Body(), opts...)
	if err != nil {
		t.Fatalf("vtest: Render() error = %v", err)
	}
	h.root = root
	t.Cleanup(root.Unmount)
	return h
}

// Root returns the mounted root.
func (h *Harness) Root() *vdom.Root { return h.root }

// Body returns the container the tree is mounted in.
func (h *Harness) Body() *dom.Node { return h.body }

// Tick runs one turn of the root's host.
func (h *Harness) Tick() *Harness {
	h.root.Tick()
	return h
}

// Find returns the element with the given id, or nil.
func (h *Harness) Find(id string) *dom.Node {
	return dom.Find(h.body, dom.ByID(id))
}

// ByID returns the element with the given id and fails the test if there
// is none.
func (h *Harness) ByID(id string) *dom.Node {
	h.t.Helper()
	n := h.Find(id)
	if n == nil {
		h.t.Fatalf("vtest: no element with id %q in:\n%s", id, truncate(h.HTML(), 500))
	}
	return n
}

// Text returns the text content of the element with the given id.
func (h *Harness) Text(id string) string {
	h.t.Helper()
	return h.ByID(id).TextContent()
}

// Dispatch sends an event of type typ carrying value to the element with
// the given id.
func (h *Harness) Dispatch(id, typ, value string) *Harness {
	h.t.Helper()
	ev := dom.NewEvent(typ)
	ev.Value = value
	h.ByID(id).DispatchEvent(ev)
	return h
}

// Click dispatches a click event.
func (h *Harness) Click(id string) *Harness {
	h.t.Helper()
	return h.Dispatch(id, "click", "")
}

// Input dispatches an input event carrying value.
func (h *Harness) Input(id, value string) *Harness {
	h.t.Helper()
	return h.Dispatch(id, "input", value)
}

// HTML renders the children of the container.
func (h *Harness) HTML() string {
	html, err := render.NewRenderer(render.RendererConfig{}).InnerHTML(h.body)
	if err != nil {
		return ""
	}
	return html
}

// ExpectContains asserts that the rendered tree contains expected.
//
// Example:
//
//	vtest.ExpectContains(t, h, "Welcome")
func ExpectContains(t testing.TB, h *Harness, expected string) {
	t.Helper()
	html := h.HTML()
	if !strings.Contains(html, expected) {
		t.Errorf("expected rendered output to contain %q, got:\n%s", expected, truncate(html, 500))
	}
}

// ExpectNotContains asserts that the rendered tree does not contain
// unexpected.
func ExpectNotContains(t testing.TB, h *Harness, unexpected string) {
	t.Helper()
	html := h.HTML()
	if strings.Contains(html, unexpected) {
		t.Errorf("expected rendered output to NOT contain %q, got:\n%s", unexpected, truncate(html, 500))
	}
}

// ExpectElement asserts that the tree contains an element with tag.
func ExpectElement(t testing.TB, h *Harness, tag string) {
	t.Helper()
	if dom.Find(h.body, dom.ByTag(tag)) == nil {
		t.Errorf("expected a <%s> element, got:\n%s", tag, truncate(h.HTML(), 500))
	}
}

// ExpectAttribute asserts that the element with the given id has attr set
// to value.
//
// Example:
//
//	vtest.ExpectAttribute(t, h, "item-2", "class", "done")
func ExpectAttribute(t testing.TB, h *Harness, id, attr, value string) {
	t.Helper()
	n := h.Find(id)
	if n == nil {
		t.Errorf("expected element %q, got:\n%s", id, truncate(h.HTML(), 500))
		return
	}
	got, ok := n.Attr(attr)
	if !ok || got != value {
		t.Errorf("element %q: %s = %q (set %v), want %q", id, attr, got, ok, value)
	}
}

// ExpectNoErrors asserts that no error escaped every boundary.
func ExpectNoErrors(t testing.TB, h *Harness) {
	t.Helper()
	for _, err := range h.Errors {
		t.Errorf("unhandled error: %v", err)
	}
}

// truncate truncates a string to max length with ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

package reconcile

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vango-dev/rask/pkg/dom"
)

type item struct {
	key    any
	kind   string
	label  string
	handle *dom.Node

	patched   int
	unmounted bool
	empty     bool
}

func (i *item) Key() any { return i.key }

func (i *item) Handles() []*dom.Node {
	if i.handle == nil {
		return nil
	}
	return []*dom.Node{i.handle}
}

func keyed(key string) *item { return &item{key: key, kind: "t", label: key} }

type harness struct {
	doc       *dom.Document
	container *dom.Node
	mountErr  error
}

func newHarness() *harness {
	doc := dom.NewDocument()
	return &harness{doc: doc, container: doc.Body()}
}

func (h *harness) actions() Actions[*item] {
	return Actions[*item]{
		Compatible: func(old, next *item) bool { return old.kind == next.kind },
		Mount: func(n *item) ([]*dom.Node, error) {
			if h.mountErr != nil {
				return nil, h.mountErr
			}
			if n.empty {
				return nil, nil
			}
			n.handle = h.doc.CreateText(n.label)
			return n.Handles(), nil
		},
		Patch: func(old, next *item) error {
			old.patched++
			old.label = next.label
			if old.handle != nil {
				old.handle.SetText(next.label)
			}
			return nil
		},
		Unmount: func(n *item) { n.unmounted = true },
	}
}

func (h *harness) mountAll(t *testing.T, items ...*item) []*item {
	t.Helper()
	act := h.actions()
	for _, it := range items {
		handles, err := act.Mount(it)
		if err != nil {
			t.Fatal(err)
		}
		for _, n := range handles {
			h.container.AppendChild(n)
		}
	}
	return items
}

func (h *harness) text() string {
	var parts []string
	for c := h.container.FirstChild; c != nil; c = c.NextSibling {
		parts = append(parts, c.Data)
	}
	return strings.Join(parts, ",")
}

func TestDiffReorderKeepsNodes(t *testing.T) {
	h := newHarness()
	prev := h.mountAll(t, keyed("a"), keyed("b"), keyed("c"))

	res, err := Diff(prev, []*item{keyed("c"), keyed("a"), keyed("b")}, h.actions())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Structural || res.Reason != ReasonReorder {
		t.Errorf("Structural = %v Reason = %v, want true reorder", res.Structural, res.Reason)
	}
	if res.Ops != nil {
		t.Errorf("Ops = %v, want nil for a structural result", res.Ops)
	}
	if res.Unmounted != 0 || res.Mounted != 0 {
		t.Errorf("Unmounted = %d Mounted = %d, want 0 0", res.Unmounted, res.Mounted)
	}
	want := []*item{prev[2], prev[0], prev[1]}
	for i := range want {
		if res.Children[i] != want[i] {
			t.Errorf("Children[%d] is not the previous node for key %v", i, want[i].key)
		}
	}

	Resync(h.container, Handles(res.Children))
	if got := h.text(); got != "c,a,b" {
		t.Errorf("container = %q, want %q", got, "c,a,b")
	}
}

func TestDiffRemoveMiddle(t *testing.T) {
	h := newHarness()
	prev := h.mountAll(t, keyed("a"), keyed("b"), keyed("c"))

	res, err := Diff(prev, []*item{keyed("a"), keyed("c")}, h.actions())
	if err != nil {
		t.Fatal(err)
	}
	if res.Structural {
		t.Fatalf("Structural = true (%v), want targeted ops", res.Reason)
	}
	if !prev[1].unmounted || prev[0].unmounted || prev[2].unmounted {
		t.Error("want exactly b unmounted")
	}
	if res.Unmounted != 1 {
		t.Errorf("Unmounted = %d, want 1", res.Unmounted)
	}
	if res.Children[0] != prev[0] || res.Children[1] != prev[2] {
		t.Error("a and c were not reused")
	}
	if len(res.Ops) != 1 || res.Ops[0].Kind != OpRemove || res.Ops[0].Index != 1 {
		t.Errorf("Ops = %+v, want one remove at 1", res.Ops)
	}

	Apply(h.container, res.Ops, nil)
	if got := h.text(); got != "a,c" {
		t.Errorf("container = %q, want %q", got, "a,c")
	}
}

func TestDiffDisjointKeys(t *testing.T) {
	h := newHarness()
	prev := h.mountAll(t, keyed("a"), keyed("b"))

	res, err := Diff(prev, []*item{keyed("x"), keyed("y")}, h.actions())
	if err != nil {
		t.Fatal(err)
	}
	if res.Unmounted != 2 || res.Mounted != 2 {
		t.Errorf("Unmounted = %d Mounted = %d, want 2 2", res.Unmounted, res.Mounted)
	}
	if !prev[0].unmounted || !prev[1].unmounted {
		t.Error("old nodes not unmounted")
	}

	kinds := make([]string, len(res.Ops))
	for i, op := range res.Ops {
		kinds[i] = op.Kind.String()
	}
	if diff := cmp.Diff([]string{"add", "add", "remove", "remove"}, kinds); diff != "" {
		t.Errorf("op kinds mismatch (-want +got):\n%s", diff)
	}

	Apply(h.container, res.Ops, nil)
	if got := h.text(); got != "x,y" {
		t.Errorf("container = %q, want %q", got, "x,y")
	}
}

func TestDiffTrailingInsertIsTargeted(t *testing.T) {
	h := newHarness()
	prev := h.mountAll(t, keyed("a"), keyed("b"))

	res, err := Diff(prev, []*item{keyed("a"), keyed("b"), keyed("c")}, h.actions())
	if err != nil {
		t.Fatal(err)
	}
	if res.Structural {
		t.Fatalf("trailing insertion reported structural (%v)", res.Reason)
	}
	Apply(h.container, res.Ops, nil)
	if got := h.text(); got != "a,b,c" {
		t.Errorf("container = %q, want %q", got, "a,b,c")
	}
}

func TestDiffMidListInsertIsStructural(t *testing.T) {
	h := newHarness()
	prev := h.mountAll(t, keyed("a"), keyed("b"))

	res, err := Diff(prev, []*item{keyed("x"), keyed("a"), keyed("b")}, h.actions())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Structural || res.Reason != ReasonInsert {
		t.Fatalf("Structural = %v Reason = %v, want true insert", res.Structural, res.Reason)
	}
	Resync(h.container, Handles(res.Children))
	if got := h.text(); got != "x,a,b" {
		t.Errorf("container = %q, want %q", got, "x,a,b")
	}
}

func TestDiffReplaceInPlace(t *testing.T) {
	h := newHarness()
	prev := h.mountAll(t, keyed("a"), keyed("b"), keyed("c"))

	other := &item{key: "b", kind: "other", label: "B"}
	res, err := Diff(prev, []*item{keyed("a"), other, keyed("c")}, h.actions())
	if err != nil {
		t.Fatal(err)
	}
	if res.Structural {
		t.Fatalf("replace reported structural (%v)", res.Reason)
	}
	if res.Replaced != 1 || !prev[1].unmounted || res.Children[1] != other {
		t.Errorf("Replaced = %d, want b replaced by the new node", res.Replaced)
	}
	Apply(h.container, res.Ops, nil)
	if got := h.text(); got != "a,B,c" {
		t.Errorf("container = %q, want %q", got, "a,B,c")
	}
}

// A replaced entry counts as a placed entry when detecting reorders: a
// replace op anchors the new range at the old one, which would leave A
// in front of b.
func TestDiffReorderWithReplaceIsStructural(t *testing.T) {
	h := newHarness()
	prev := h.mountAll(t, keyed("a"), keyed("b"))

	res, err := Diff(prev, []*item{keyed("b"), {key: "a", kind: "other", label: "A"}}, h.actions())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Structural || res.Reason != ReasonReorder {
		t.Fatalf("Structural = %v Reason = %v, want true reorder", res.Structural, res.Reason)
	}
	if res.Replaced != 1 || !prev[0].unmounted || res.Children[0] != prev[1] {
		t.Errorf("Replaced = %d, want a replaced and b reused", res.Replaced)
	}
	Resync(h.container, Handles(res.Children))
	if got := h.text(); got != "b,A" {
		t.Errorf("container = %q, want %q", got, "b,A")
	}
}

func TestDiffAnchorlessReplace(t *testing.T) {
	h := newHarness()
	empty := &item{key: "a", kind: "t", empty: true}
	prev := h.mountAll(t, empty, keyed("b"))

	res, err := Diff(prev, []*item{{key: "a", kind: "other", label: "A"}, keyed("b")}, h.actions())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Structural || res.Reason != ReasonAnchorless {
		t.Fatalf("Structural = %v Reason = %v, want true anchorless", res.Structural, res.Reason)
	}
	Resync(h.container, Handles(res.Children))
	if got := h.text(); got != "A,b" {
		t.Errorf("container = %q, want %q", got, "A,b")
	}
}

func TestDiffPositionalKeys(t *testing.T) {
	h := newHarness()
	prev := h.mountAll(t, &item{kind: "t", label: "p"}, &item{kind: "t", label: "q"})

	res, err := Diff(prev, []*item{{kind: "t", label: "r"}}, h.actions())
	if err != nil {
		t.Fatal(err)
	}
	if prev[0].patched != 1 || res.Children[0] != prev[0] {
		t.Error("unkeyed child at index 0 was not patched in place")
	}
	if !prev[1].unmounted {
		t.Error("trailing unkeyed child not unmounted")
	}
	Apply(h.container, res.Ops, nil)
	if got := h.text(); got != "r" {
		t.Errorf("container = %q, want %q", got, "r")
	}
}

func TestDiffExplicitKeyNeverMatchesIndex(t *testing.T) {
	h := newHarness()
	prev := h.mountAll(t, &item{key: 0, kind: "t", label: "zero"})

	res, err := Diff(prev, []*item{{kind: "t", label: "unkeyed"}}, h.actions())
	if err != nil {
		t.Fatal(err)
	}
	if res.Mounted != 1 || !prev[0].unmounted {
		t.Errorf("Mounted = %d unmounted = %v, want the int key kept apart from index 0", res.Mounted, prev[0].unmounted)
	}
}

func TestDiffDuplicatePreviousKeys(t *testing.T) {
	h := newHarness()
	first := keyed("a")
	second := &item{key: "a", kind: "t", label: "a2"}
	prev := h.mountAll(t, first, second)

	res, err := Diff(prev, []*item{keyed("a")}, h.actions())
	if err != nil {
		t.Fatal(err)
	}
	if res.Children[0] != first || first.unmounted {
		t.Error("first duplicate was not the one matched")
	}
	if !second.unmounted {
		t.Error("later duplicate not unmounted")
	}
	Apply(h.container, res.Ops, nil)
	if got := h.text(); got != "a" {
		t.Errorf("container = %q, want %q", got, "a")
	}
}

func TestDiffIdentityReuseSkipsPatch(t *testing.T) {
	h := newHarness()
	prev := h.mountAll(t, keyed("a"), keyed("b"))

	res, err := Diff(prev, []*item{prev[0], keyed("b")}, h.actions())
	if err != nil {
		t.Fatal(err)
	}
	if prev[0].patched != 0 {
		t.Error("identical node was patched")
	}
	if res.Reused != 1 || res.Patched != 1 {
		t.Errorf("Reused = %d Patched = %d, want 1 1", res.Reused, res.Patched)
	}
	if res.Changed() {
		t.Errorf("Changed() = true for an in-place update")
	}
}

func TestDiffMountError(t *testing.T) {
	h := newHarness()
	h.mountErr = errors.New("mount failed")

	_, err := Diff(nil, []*item{keyed("a")}, h.actions())
	if !errors.Is(err, h.mountErr) {
		t.Errorf("Diff() error = %v, want %v", err, h.mountErr)
	}
}

func TestResyncStats(t *testing.T) {
	doc := dom.NewDocument()
	c := doc.Body()
	a, b, x, stale := doc.CreateText("a"), doc.CreateText("b"), doc.CreateText("x"), doc.CreateText("stale")
	c.AppendChild(a)
	c.AppendChild(stale)
	c.AppendChild(b)

	st := Resync(c, []*dom.Node{b, x, a})

	want := Stats{Kept: 1, Inserted: 1, Moved: 1, Trimmed: 1}
	if diff := cmp.Diff(want, st); diff != "" {
		t.Errorf("Stats mismatch (-want +got):\n%s", diff)
	}
	got := make([]*dom.Node, 0, 3)
	for n := c.FirstChild; n != nil; n = n.NextSibling {
		got = append(got, n)
	}
	if len(got) != 3 || got[0] != b || got[1] != x || got[2] != a {
		t.Error("container order does not match expected handles")
	}
}

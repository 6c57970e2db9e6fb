package dom

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func tags(n *Node) []string {
	var out []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == TextNode {
			out = append(out, "#"+c.Data)
			continue
		}
		out = append(out, c.Tag)
	}
	return out
}

func TestInsertAndMove(t *testing.T) {
	doc := NewDocument()
	body := doc.Body()
	a := doc.CreateElement("a")
	b := doc.CreateElement("b")
	c := doc.CreateElement("c")

	body.AppendChild(a)
	body.AppendChild(c)
	body.InsertBefore(b, c)
	if diff := cmp.Diff([]string{"a", "b", "c"}, tags(body)); diff != "" {
		t.Fatalf("children mismatch (-want +got):\n%s", diff)
	}

	// Moving an attached node detaches it first.
	body.InsertBefore(c, a)
	if diff := cmp.Diff([]string{"c", "a", "b"}, tags(body)); diff != "" {
		t.Errorf("after move (-want +got):\n%s", diff)
	}
	if body.FirstChild != c || body.LastChild != b || a.PrevSibling != c {
		t.Error("sibling links inconsistent after move")
	}

	before := doc.Mutations()
	body.InsertBefore(a, b) // already in place
	if doc.Mutations() != before {
		t.Error("no-op insert counted as a mutation")
	}
}

func TestRemoveAndReplace(t *testing.T) {
	doc := NewDocument()
	body := doc.Body()
	a := doc.CreateElement("a")
	b := doc.CreateElement("b")
	x := doc.CreateText("x")
	body.AppendChild(a)
	body.AppendChild(b)

	body.ReplaceChild(x, a)
	if diff := cmp.Diff([]string{"#x", "b"}, tags(body)); diff != "" {
		t.Errorf("after replace (-want +got):\n%s", diff)
	}
	if a.Parent != nil {
		t.Error("replaced node still has a parent")
	}

	b.Remove()
	body.RemoveChild(a) // not a child: ignored
	if body.ChildCount() != 1 || body.LastChild != x {
		t.Errorf("ChildCount() = %d, want 1", body.ChildCount())
	}
}

func TestInsertCyclePanics(t *testing.T) {
	doc := NewDocument()
	outer := doc.CreateElement("div")
	inner := doc.CreateElement("span")
	outer.AppendChild(inner)

	defer func() {
		if recover() == nil {
			t.Error("inserting an ancestor did not panic")
		}
	}()
	inner.AppendChild(outer)
}

func TestAttributes(t *testing.T) {
	doc := NewDocument()
	n := doc.CreateElement("input")
	n.SetAttr("type", "text")
	n.SetAttr("value", "a")
	n.SetAttr("type", "email")
	n.RemoveAttr("value")
	n.RemoveAttr("missing")

	want := []Attribute{{Key: "type", Val: "email"}}
	if diff := cmp.Diff(want, n.Attrs()); diff != "" {
		t.Errorf("Attrs mismatch (-want +got):\n%s", diff)
	}
	if _, ok := n.Attr("value"); ok {
		t.Error("removed attribute still present")
	}
	if got := doc.Mutations(); got != 4 {
		t.Errorf("Mutations() = %d, want 4", got)
	}
}

func TestTextContent(t *testing.T) {
	doc := NewDocument()
	p := doc.CreateElement("p")
	p.AppendChild(doc.CreateText("hello "))
	em := doc.CreateElement("em")
	em.AppendChild(doc.CreateText("world"))
	p.AppendChild(em)

	if got := p.TextContent(); got != "hello world" {
		t.Errorf("TextContent() = %q, want %q", got, "hello world")
	}
	if Find(p, ByTag("em")) != em {
		t.Error("Find(ByTag(em)) did not return the em element")
	}
}

func TestDispatchPhases(t *testing.T) {
	doc := NewDocument()
	body := doc.Body()
	div := doc.CreateElement("div")
	btn := doc.CreateElement("button")
	body.AppendChild(div)
	div.AppendChild(btn)

	var order []string
	body.AddEventListener("click", func(*Event) { order = append(order, "body-capture") }, true)
	body.AddEventListener("click", func(*Event) { order = append(order, "body-bubble") }, false)
	div.AddEventListener("click", func(*Event) { order = append(order, "div-bubble") }, false)
	btn.AddEventListener("click", func(e *Event) {
		order = append(order, "target")
		e.PreventDefault()
	}, false)

	if btn.DispatchEvent(NewEvent("click")) {
		t.Error("DispatchEvent() = true, want false after PreventDefault")
	}
	want := []string{"body-capture", "target", "div-bubble", "body-bubble"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("dispatch order mismatch (-want +got):\n%s", diff)
	}
}

func TestStopPropagationAndRemove(t *testing.T) {
	doc := NewDocument()
	body := doc.Body()
	btn := doc.CreateElement("button")
	body.AppendChild(btn)

	bubbled := false
	body.AddEventListener("click", func(*Event) { bubbled = true }, false)
	calls := 0
	var remove func()
	remove = btn.AddEventListener("click", func(e *Event) {
		calls++
		e.StopPropagation()
		remove()
	}, false)

	btn.DispatchEvent(NewEvent("click"))
	btn.DispatchEvent(NewEvent("click"))

	if calls != 1 {
		t.Errorf("calls = %d, want 1 (listener removed itself)", calls)
	}
	if btn.ListenerCount("click") != 0 {
		t.Errorf("ListenerCount = %d, want 0", btn.ListenerCount("click"))
	}
	if !bubbled {
		t.Error("second dispatch did not bubble once the stopping listener was removed")
	}
}

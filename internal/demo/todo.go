package demo

import (
	"slices"
	"strconv"
	"strings"

	"github.com/vango-dev/rask/pkg/reactive"
	"github.com/vango-dev/rask/pkg/vdom"
)

// Item is one todo entry.
type Item struct {
	ID    int
	Title string
	Done  bool
}

// Todo is a keyed list. Items keep their live nodes across reorders.
var Todo = vdom.Define("Todo", func(s *vdom.Setup) vdom.RenderFunc {
	state := s.State(map[string]any{
		"items": []Item{
			{ID: 1, Title: "Write the scheduler"},
			{ID: 2, Title: "Write the reconciler"},
			{ID: 3, Title: "Ship it"},
		},
		"draft": "",
		"next":  4,
	})
	items := reactive.NewField[[]Item](state, "items")
	draft := reactive.NewField[string](state, "draft")
	next := reactive.NewField[int](state, "next")

	add := func() {
		title := strings.TrimSpace(draft.Peek())
		if title == "" {
			return
		}
		id := next.Peek()
		next.Set(id + 1)
		draft.Set("")
		items.Update(func(list []Item) []Item {
			return append(slices.Clone(list), Item{ID: id, Title: title})
		})
	}
	toggle := func(id int) func() {
		return func() {
			items.Update(func(list []Item) []Item {
				out := slices.Clone(list)
				for i := range out {
					if out[i].ID == id {
						out[i].Done = !out[i].Done
					}
				}
				return out
			})
		}
	}
	remove := func(id int) func() {
		return func() {
			items.Update(func(list []Item) []Item {
				return slices.DeleteFunc(slices.Clone(list), func(it Item) bool { return it.ID == id })
			})
		}
	}
	reverse := func() {
		items.Update(func(list []Item) []Item {
			out := slices.Clone(list)
			slices.Reverse(out)
			return out
		})
	}

	return func() vdom.Node {
		list := items.Get()
		open := 0
		for _, it := range list {
			if !it.Done {
				open++
			}
		}
		return vdom.Section(vdom.Class("todo"),
			vdom.H1("Todo"),
			vdom.Form(vdom.ID("add-form"), vdom.OnSubmit(add),
				vdom.Input(vdom.ID("draft"), vdom.Type("text"), vdom.Placeholder("What next?"),
					vdom.Value(draft.Get()), vdom.OnInput(func(v string) { draft.Set(v) })),
				vdom.Button(vdom.ID("add"), vdom.Type("submit"), vdom.OnClick(add), "Add"),
			),
			vdom.Ul(vdom.ID("items"),
				vdom.Range(list, func(it Item, _ int) vdom.Node {
					id := strconv.Itoa(it.ID)
					return vdom.Li(vdom.Key(it.ID), vdom.ID("item-"+id), vdom.ClassIf(it.Done, "done"),
						vdom.Input(vdom.ID("toggle-"+id), vdom.Type("checkbox"), vdom.Checked(it.Done), vdom.OnChange(toggle(it.ID))),
						vdom.Span(it.Title),
						vdom.Button(vdom.ID("remove-"+id), vdom.AriaLabel("Remove"), vdom.OnClick(remove(it.ID)), "x"),
					)
				}),
			),
			vdom.P(vdom.ID("summary"), vdom.Textf("%d of %d open", open, len(list))),
			vdom.If(len(list) > 1, vdom.Button(vdom.ID("reverse"), vdom.OnClick(reverse), "Reverse")),
		)
	}
})

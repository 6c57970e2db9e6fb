package demo

import (
	"github.com/vango-dev/rask/pkg/reactive"
	"github.com/vango-dev/rask/pkg/vdom"
)

// Counter renders a count with increment, decrement and reset buttons. The
// "start" prop sets the initial and reset value.
var Counter = vdom.Define("Counter", func(s *vdom.Setup) vdom.RenderFunc {
	start, _ := s.Props().Peek("start").(int)
	state := s.State(map[string]any{"count": start})
	count := reactive.NewField[int](state, "count")
	doubled := reactive.NewComputed(s.Runtime(), func() int { return count.Get() * 2 })
	s.OnCleanup(doubled.Dispose)

	inc := func() { count.Update(func(n int) int { return n + 1 }) }
	dec := func() { count.Update(func(n int) int { return n - 1 }) }
	reset := func() { count.Set(start) }

	return func() vdom.Node {
		n := count.Get()
		return vdom.Div(vdom.Class("counter"),
			vdom.H1("Counter"),
			vdom.P(vdom.ID("count"), vdom.AriaLive("polite"), vdom.Textf("%d", n)),
			vdom.P(vdom.ID("doubled"), vdom.Small(vdom.Textf("doubled: %d", doubled.Get()))),
			vdom.Div(vdom.Class("actions"),
				vdom.Button(vdom.ID("dec"), vdom.OnClick(dec), "-"),
				vdom.Button(vdom.ID("inc"), vdom.OnClick(inc), "+"),
				vdom.Button(vdom.ID("reset"), vdom.Disabled(n == start), vdom.OnClick(reset), "Reset"),
			),
		)
	}
})

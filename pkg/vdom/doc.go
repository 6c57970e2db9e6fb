// Package vdom is the node model and component runtime of rask.
//
// A render produces a tree of node descriptions: Element, TextNode,
// FragmentNode and ComponentNode values built with the factory functions
// in this package. Render mounts such a tree into a live dom container and
// returns a Root. From then on the tree updates itself: each component
// instance owns a reactive Observer, and when state read during its last
// render changes, the instance re-renders, diffs the new children against
// the old ones with package reconcile, and patches the live tree in place.
//
// # Element API
//
// Elements are created using variadic factory functions:
//
//	Div(Class("card"), ID("main"),
//	    H1("Title"),
//	    P(Textf("%d items", n)),
//	    Button(OnClick(add), "Add"),
//	)
//
// # Components
//
// A component is defined once with Define. Its setup function runs once per
// mount, registers state and lifecycle hooks on the Setup, and returns the
// render function:
//
//	var Counter = vdom.Define("Counter", func(s *vdom.Setup) vdom.RenderFunc {
//	    count := reactive.NewField[int](s.State(map[string]any{"count": 0}), "count")
//	    return func() vdom.Node {
//	        return vdom.Button(
//	            vdom.OnClick(func() { count.Update(func(n int) int { return n + 1 }) }),
//	            vdom.Textf("%d", count.Get()),
//	        )
//	    }
//	})
//
// Hooks are only valid during setup; calling them anywhere else panics with
// ErrScope.
//
// # Errors
//
// A panic raised by setup or render is routed to the nearest ancestor
// instance that registered OnError. The failing subtree renders nothing and
// the boundary's Error() becomes non-nil. Without a boundary the error is
// returned from Render, Rerender or the patch that caused it.
package vdom

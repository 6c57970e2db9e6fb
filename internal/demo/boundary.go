package demo

import (
	"errors"

	"github.com/vango-dev/rask/pkg/reactive"
	"github.com/vango-dev/rask/pkg/vdom"
)

// ErrExploded is raised by Fuse when it is lit.
var ErrExploded = errors.New("demo: fuse exploded")

// Fuse renders normally until its "lit" prop is true, then panics.
var Fuse = vdom.Stateless("Fuse", func(props *reactive.Record) vdom.Node {
	if lit, _ := props.Get("lit").(bool); lit {
		panic(ErrExploded)
	}
	return vdom.P(vdom.ID("fuse"), "All quiet.")
})

// Boundary captures errors from its Fuse child and renders a fallback with
// a reset button.
var Boundary = vdom.Define("Boundary", func(s *vdom.Setup) vdom.RenderFunc {
	lit := reactive.NewField[bool](s.State(map[string]any{"lit": false}), "lit")
	s.OnError(func(err error) {
		s.Runtime().Logger().Info("demo: boundary captured error", "error", err)
	})

	light := func() { lit.Set(true) }
	reset := func() {
		lit.Set(false)
		s.ResetError()
	}

	return func() vdom.Node {
		if err := s.Error(); err != nil {
			return vdom.Div(vdom.Class("boundary", "failed"), vdom.Role("alert"),
				vdom.P(vdom.ID("error"), vdom.Textf("Something broke: %v", err)),
				vdom.Button(vdom.ID("reset"), vdom.OnClick(reset), "Reset"),
			)
		}
		return vdom.Div(vdom.Class("boundary"),
			Fuse.New(vdom.Props{"lit": lit.Get()}),
			vdom.Button(vdom.ID("light"), vdom.OnClick(light), "Light the fuse"),
		)
	}
})

package vdom

import (
	"slices"

	"github.com/vango-dev/rask/pkg/dom"
	"github.com/vango-dev/rask/pkg/reconcile"
)

var childActions = reconcile.Actions[Node]{
	Compatible: Compatible,
	Patch:      func(old, next Node) error { return old.Patch(next) },
	Unmount:    func(n Node) { n.Unmount() },
}

// reconcileChildren diffs prev against next under owner and brings the live
// container up to date. Structural results are resynced when the
// outermost reconcile ends.
func reconcileChildren(owner Node, prev, next []Node) ([]Node, error) {
	r := owner.base().root
	r.beginReconcile()
	defer r.endReconcile()

	actions := childActions
	actions.Mount = func(n Node) ([]*dom.Node, error) { return n.Mount(owner) }

	res, err := reconcile.Diff(prev, next, actions)
	if err != nil {
		for _, p := range prev {
			if p.Mounted() && !slices.Contains(res.Children, p) {
				p.Unmount()
			}
		}
		r.requestResync(containerOwner(owner))
		return res.Children, err
	}
	if !res.Changed() {
		return res.Children, nil
	}

	r.recorder.Reconcile(res.Reason.String(), len(res.Ops))
	if res.Structural {
		r.logger.Debug("vdom: structural change, resync scheduled",
			"owner", describe(owner),
			"reason", res.Reason.String())
		r.requestResync(containerOwner(owner))
		return res.Children, nil
	}
	if len(res.Ops) > 0 {
		container, end := placement(owner)
		if container != nil {
			reconcile.Apply(container, res.Ops, end)
		}
	}
	return res.Children, nil
}

// containerOwner returns the nearest node at or above n that owns a live
// container: an Element or the Root.
func containerOwner(n Node) Node {
	for p := n; p != nil; p = p.Parent() {
		switch p.(type) {
		case *Element, *Root:
			return p
		}
	}
	return nil
}

func containerOf(n Node) *dom.Node {
	switch o := n.(type) {
	case *Element:
		return o.el
	case *Root:
		return o.container
	}
	return nil
}

// placement returns the live container of owner's children and the node
// they must stay in front of. Fragments and components share their
// container with later siblings.
func placement(owner Node) (container, end *dom.Node) {
	c := containerOwner(owner)
	container = containerOf(c)
	if c == owner {
		return container, nil
	}
	return container, nextAnchor(owner, container)
}

// nextAnchor finds the first live handle after n in container, walking up
// through fragments and components.
func nextAnchor(n Node, container *dom.Node) *dom.Node {
	for cur := n; cur != nil; cur = cur.Parent() {
		p := cur.Parent()
		if p == nil {
			return nil
		}
		siblings := p.Children()
		i := slices.Index(siblings, cur)
		if i >= 0 {
			for _, s := range siblings[i+1:] {
				for _, h := range s.Handles() {
					if h.Parent == container {
						return h
					}
				}
			}
		}
		switch p.(type) {
		case *Element, *Root:
			return nil
		}
	}
	return nil
}

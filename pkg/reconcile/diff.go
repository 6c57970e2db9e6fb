package reconcile

import (
	"fmt"

	"github.com/vango-dev/rask/pkg/dom"
)

// Node is a child the reconciler can match and place.
type Node interface {
	// Key returns the explicit key, or nil. Keys must be comparable.
	Key() any
	// Handles returns the live nodes the child currently occupies.
	Handles() []*dom.Node
}

// Actions are the lifecycle callbacks Diff drives.
type Actions[N Node] struct {
	// Compatible reports whether old can be patched to match next.
	Compatible func(old, next N) bool
	// Mount mounts a fresh node and returns its live handles.
	Mount func(n N) ([]*dom.Node, error)
	// Patch updates old in place to match next.
	Patch func(old, next N) error
	// Unmount releases a node that left the list.
	Unmount func(n N)
}

// OpKind identifies a targeted operation.
type OpKind uint8

const (
	OpAdd OpKind = iota + 1
	OpReplace
	OpRemove
)

// String returns the operation name.
func (k OpKind) String() string {
	switch k {
	case OpAdd:
		return "add"
	case OpReplace:
		return "replace"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Op is a targeted change to a container.
type Op struct {
	Kind OpKind
	// Index is the position in the new list (add, replace) or in the
	// previous list (remove).
	Index int
	// Handles are the handles to insert.
	Handles []*dom.Node
	// Old are the handles to remove.
	Old []*dom.Node
}

// Reason explains why a result is structural.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonReorder
	ReasonInsert
	ReasonAnchorless
)

// String returns the reason name.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonReorder:
		return "reorder"
	case ReasonInsert:
		return "insert"
	case ReasonAnchorless:
		return "anchorless"
	default:
		return fmt.Sprintf("Reason(%d)", uint8(r))
	}
}

// Result is the outcome of a Diff.
type Result[N Node] struct {
	// Children is the authoritative new child list. Reused entries are the
	// previous node objects.
	Children []N

	// Ops lists targeted operations. It is nil when Structural is set.
	Ops []Op

	// Structural reports that the container order must be rebuilt with
	// Resync instead of applying Ops.
	Structural bool
	Reason     Reason

	Mounted   int
	Patched   int
	Reused    int
	Replaced  int
	Unmounted int
}

// Changed reports whether the diff produced any operation or requires a
// resync.
func (r Result[N]) Changed() bool {
	return r.Structural || len(r.Ops) > 0
}

// indexKey is the effective key of an unkeyed child. It never collides
// with an explicit key.
type indexKey struct{ i int }

type slot[N Node] struct {
	node  N
	index int
}

func effectiveKey[N Node](n N, i int) any {
	if k := n.Key(); k != nil {
		return k
	}
	return indexKey{i}
}

// Diff reconciles prev against next. New nodes in next are unmounted
// descriptions; prev nodes are mounted. On error the lists are left in a
// partially reconciled state and the caller should treat the container as
// needing a rebuild.
func Diff[N Node](prev, next []N, act Actions[N]) (Result[N], error) {
	var res Result[N]

	byKey := make(map[any]slot[N], len(prev))
	var duplicates []slot[N]
	for i, n := range prev {
		k := effectiveKey(n, i)
		if _, dup := byKey[k]; dup {
			duplicates = append(duplicates, slot[N]{node: n, index: i})
			continue
		}
		byKey[k] = slot[N]{node: n, index: i}
	}

	res.Children = make([]N, 0, len(next))
	var (
		ops        []Op
		lastOrig   = -1 // original index of the last reused or replaced entry
		lastPos    = -1 // new position of the last reused or replaced entry
		inserted   []int
		reorder    bool
		anchorless bool
	)

	for pos, n := range next {
		k := effectiveKey(n, pos)
		match, ok := byKey[k]
		if !ok {
			handles, err := act.Mount(n)
			if err != nil {
				return res, err
			}
			res.Children = append(res.Children, n)
			res.Mounted++
			inserted = append(inserted, pos)
			ops = append(ops, Op{Kind: OpAdd, Index: pos, Handles: handles})
			continue
		}
		delete(byKey, k)

		if match.index < lastOrig {
			reorder = true
		}
		lastOrig = match.index
		lastPos = pos

		old := match.node
		switch {
		case any(old) == any(n):
			res.Children = append(res.Children, old)
			res.Reused++
		case act.Compatible(old, n):
			if err := act.Patch(old, n); err != nil {
				return res, err
			}
			res.Children = append(res.Children, old)
			res.Patched++
		default:
			oldHandles := old.Handles()
			handles, err := act.Mount(n)
			if err != nil {
				return res, err
			}
			act.Unmount(old)
			res.Children = append(res.Children, n)
			res.Replaced++
			res.Unmounted++
			if len(oldHandles) == 0 {
				anchorless = true
			}
			ops = append(ops, Op{Kind: OpReplace, Index: pos, Handles: handles, Old: oldHandles})
		}
	}

	// Leftovers, in previous order, followed by duplicate keys.
	leftovers := make([]slot[N], 0, len(byKey)+len(duplicates))
	for i, n := range prev {
		if s, ok := byKey[effectiveKey(n, i)]; ok && s.index == i {
			leftovers = append(leftovers, s)
		}
	}
	leftovers = append(leftovers, duplicates...)
	for _, s := range leftovers {
		old := s.node.Handles()
		act.Unmount(s.node)
		res.Unmounted++
		if len(old) > 0 {
			ops = append(ops, Op{Kind: OpRemove, Index: s.index, Old: old})
		}
	}

	switch {
	case reorder:
		res.Reason = ReasonReorder
	case len(inserted) > 0 && inserted[0] < lastPos:
		res.Reason = ReasonInsert
	case anchorless:
		res.Reason = ReasonAnchorless
	}
	if res.Reason != ReasonNone {
		res.Structural = true
		return res, nil
	}
	res.Ops = ops
	return res, nil
}

// Handles flattens the live handles of children in order.
func Handles[N Node](children []N) []*dom.Node {
	var out []*dom.Node
	for _, c := range children {
		out = append(out, c.Handles()...)
	}
	return out
}

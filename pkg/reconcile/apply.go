package reconcile

import "github.com/vango-dev/rask/pkg/dom"

// Apply performs targeted operations against container. Added ranges are
// inserted before end; a nil end appends.
func Apply(container *dom.Node, ops []Op, end *dom.Node) {
	for _, op := range ops {
		switch op.Kind {
		case OpAdd:
			for _, h := range op.Handles {
				container.InsertBefore(h, end)
			}
		case OpReplace:
			// An old range that is not placed yet belongs to a pending
			// resync, which also fixes the order.
			if len(op.Old) > 0 && op.Old[0].Parent == container {
				ref := op.Old[0]
				for _, h := range op.Handles {
					container.InsertBefore(h, ref)
				}
			} else {
				for _, h := range op.Handles {
					container.InsertBefore(h, end)
				}
			}
			removeAll(container, op.Old)
		case OpRemove:
			removeAll(container, op.Old)
		}
	}
}

func removeAll(container *dom.Node, handles []*dom.Node) {
	for _, h := range handles {
		container.RemoveChild(h)
	}
}

// Stats describes the work done by Resync.
type Stats struct {
	Kept     int
	Inserted int
	Moved    int
	Trimmed  int
}

// Resync makes container's children exactly expected, in order. It walks
// the live children in lockstep with expected, inserting any out-of-place
// handle before the current pointer, then trims trailing live nodes that
// nothing claimed.
func Resync(container *dom.Node, expected []*dom.Node) Stats {
	var st Stats
	ptr := container.FirstChild
	for _, h := range expected {
		if h == ptr {
			ptr = ptr.NextSibling
			st.Kept++
			continue
		}
		if h.Parent == container {
			st.Moved++
		} else {
			st.Inserted++
		}
		container.InsertBefore(h, ptr)
	}
	for ptr != nil {
		next := ptr.NextSibling
		container.RemoveChild(ptr)
		st.Trimmed++
		ptr = next
	}
	return st
}

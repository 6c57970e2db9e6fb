// Package reconcile diffs keyed child lists and applies the result to a
// live dom container.
//
// Diff walks the new children in order, matching each against the previous
// children by effective key (the explicit key, or the position when the
// node has none). Matches are reused, patched in place or replaced; the
// rest are mounted fresh, and unmatched previous children are unmounted.
//
// The walk then classifies the change. Same-order updates, removals and
// appends produce a short list of targeted operations (Op) for Apply.
// A reorder, an insertion before a reused entry, or a replacement whose
// old node had no live handles to anchor on is reported as Structural;
// the caller then rebuilds the container order with Resync, which is
// always correct but touches more of the tree.
package reconcile

package reactive

import "slices"

// List is an ordered reactive collection. Any mutation notifies every
// reader of the list.
type List struct {
	rt     *Runtime
	sig    *Signal
	items  []any
	commit func([]any)

	records map[int]*Record
}

// NewList creates a List over items. The list takes ownership of items.
func (rt *Runtime) NewList(items []any) *List {
	return &List{rt: rt, sig: rt.NewSignal(), items: items}
}

// Len returns the number of items.
func (l *List) Len() int {
	l.sig.Track()
	return len(l.items)
}

// At returns item i, or nil when i is out of range.
func (l *List) At(i int) any {
	l.sig.Track()
	if i < 0 || i >= len(l.items) {
		return nil
	}
	return l.items[i]
}

// Items returns a copy of the items.
func (l *List) Items() []any {
	l.sig.Track()
	return slices.Clone(l.items)
}

// Record returns the wrapper for the map stored at index i, or nil when the
// item is not a map[string]any.
func (l *List) Record(i int) *Record {
	l.sig.Track()
	if i < 0 || i >= len(l.items) {
		return nil
	}
	m, ok := l.items[i].(map[string]any)
	if !ok || m == nil {
		return nil
	}
	if c := l.records[i]; c != nil && sameMap(c.data, m) {
		return c
	}
	c := l.rt.NewRecord(m)
	if l.records == nil {
		l.records = make(map[int]*Record)
	}
	l.records[i] = c
	return c
}

// Append adds values to the end of the list.
func (l *List) Append(values ...any) {
	if len(values) == 0 {
		return
	}
	l.store(append(l.items, values...))
}

// Insert inserts values at index i. i is clamped to [0, Len].
func (l *List) Insert(i int, values ...any) {
	if len(values) == 0 {
		return
	}
	i = max(0, min(i, len(l.items)))
	l.store(slices.Insert(l.items, i, values...))
}

// Set replaces item i when the new value differs. Out of range indexes are
// ignored.
func (l *List) Set(i int, value any) {
	if i < 0 || i >= len(l.items) || Equal(l.items[i], value) {
		return
	}
	l.items[i] = value
	l.store(l.items)
}

// RemoveAt removes item i. Out of range indexes are ignored.
func (l *List) RemoveAt(i int) {
	if i < 0 || i >= len(l.items) {
		return
	}
	l.store(slices.Delete(l.items, i, i+1))
}

// Replace swaps the whole item slice.
func (l *List) Replace(items []any) {
	l.store(items)
}

// Signal returns the list's change signal.
func (l *List) Signal() *Signal {
	return l.sig
}

func (l *List) store(items []any) {
	l.items = items
	clear(l.records)
	if l.commit != nil {
		l.commit(items)
	}
	l.sig.Notify()
}

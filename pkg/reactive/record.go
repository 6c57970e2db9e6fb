package reactive

import (
	"maps"
	"reflect"
	"slices"
)

// Record is a keyed reactive state bag. Each key has its own signal, so an
// observer that reads one key is not woken by writes to another. Nested
// maps and slices are exposed through Record and List wrappers that write
// through to the same storage.
type Record struct {
	rt      *Runtime
	data    map[string]any
	signals map[string]*Signal
	keys    *Signal

	records map[string]*Record
	lists   map[string]*List
}

// NewRecord creates a Record over init. The record takes ownership of init;
// nil starts an empty record.
func (rt *Runtime) NewRecord(init map[string]any) *Record {
	if init == nil {
		init = make(map[string]any)
	}
	return &Record{
		rt:      rt,
		data:    init,
		signals: make(map[string]*Signal),
		keys:    rt.NewSignal(),
	}
}

// Runtime returns the runtime the record belongs to.
func (r *Record) Runtime() *Runtime {
	return r.rt
}

// Get returns the value stored at key and subscribes the current observer
// to that key.
func (r *Record) Get(key string) any {
	r.track(key)
	return r.data[key]
}

// Peek returns the value stored at key without subscribing.
func (r *Record) Peek(key string) any {
	return r.data[key]
}

// Has reports whether key is present, subscribing to that key.
func (r *Record) Has(key string) bool {
	r.track(key)
	_, ok := r.data[key]
	return ok
}

// Set stores value at key. Subscribers of key are notified only when the
// value changes; adding a key also notifies readers of the key set.
func (r *Record) Set(key string, value any) {
	old, existed := r.data[key]
	if existed && Equal(old, value) {
		return
	}
	r.data[key] = value
	if sig := r.signals[key]; sig != nil {
		sig.Notify()
	}
	if !existed {
		r.keys.Notify()
	}
}

// Update replaces the value at key with fn(current).
func (r *Record) Update(key string, fn func(any) any) {
	r.Set(key, fn(r.data[key]))
}

// Delete removes key.
func (r *Record) Delete(key string) {
	if _, ok := r.data[key]; !ok {
		return
	}
	delete(r.data, key)
	delete(r.records, key)
	delete(r.lists, key)
	if sig := r.signals[key]; sig != nil {
		sig.Notify()
	}
	r.keys.Notify()
}

// Keys returns the sorted key set and subscribes to key additions and
// removals.
func (r *Record) Keys() []string {
	r.keys.Track()
	return slices.Sorted(maps.Keys(r.data))
}

// PeekKeys returns the sorted key set without subscribing.
func (r *Record) PeekKeys() []string {
	return slices.Sorted(maps.Keys(r.data))
}

// Len returns the number of keys, subscribing to the key set.
func (r *Record) Len() int {
	r.keys.Track()
	return len(r.data)
}

// Snapshot returns a shallow copy of the record and subscribes to every
// key and to the key set.
func (r *Record) Snapshot() map[string]any {
	r.keys.Track()
	for key := range r.data {
		r.track(key)
	}
	return maps.Clone(r.data)
}

// Record returns the wrapper for the nested map stored at key, or nil when
// key does not hold a map[string]any. The wrapper is cached for as long as
// key holds the same map.
func (r *Record) Record(key string) *Record {
	r.track(key)
	m, ok := r.data[key].(map[string]any)
	if !ok {
		return nil
	}
	if m == nil {
		m = make(map[string]any)
		r.data[key] = m
	}
	if c := r.records[key]; c != nil && sameMap(c.data, m) {
		return c
	}
	c := r.rt.NewRecord(m)
	if r.records == nil {
		r.records = make(map[string]*Record)
	}
	r.records[key] = c
	return c
}

// List returns the wrapper for the nested slice stored at key, or nil when
// key does not hold a []any. List mutations write the new slice back to
// key without notifying key's readers; the list has its own signal.
func (r *Record) List(key string) *List {
	r.track(key)
	items, ok := r.data[key].([]any)
	if !ok {
		return nil
	}
	if l := r.lists[key]; l != nil && sameSlice(l.items, items) {
		return l
	}
	l := r.rt.NewList(items)
	l.commit = func(next []any) { r.data[key] = next }
	if r.lists == nil {
		r.lists = make(map[string]*List)
	}
	r.lists[key] = l
	return l
}

func (r *Record) track(key string) {
	if r.rt.Current() == nil {
		return
	}
	sig := r.signals[key]
	if sig == nil {
		sig = r.rt.NewSignal()
		r.signals[key] = sig
	}
	sig.Track()
}

func sameMap(a, b map[string]any) bool {
	return reflect.ValueOf(a).UnsafePointer() == reflect.ValueOf(b).UnsafePointer()
}

func sameSlice(a, b []any) bool {
	return len(a) == len(b) && reflect.ValueOf(a).UnsafePointer() == reflect.ValueOf(b).UnsafePointer()
}

package reactive

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEffectRunsAndCleansUp(t *testing.T) {
	rt, loop := newTestRuntime(t)
	count := NewValue(rt, 0)

	var seen []int
	cleanups := 0
	e := rt.NewEffect(func() Cleanup {
		seen = append(seen, count.Get())
		return func() { cleanups++ }
	})

	count.Set(1)
	if len(seen) != 1 {
		t.Fatal("effect re-ran synchronously on write")
	}
	loop.Drain()
	count.Set(2)
	loop.Drain()

	if diff := cmp.Diff([]int{0, 1, 2}, seen); diff != "" {
		t.Errorf("effect values mismatch (-want +got):\n%s", diff)
	}
	if cleanups != 2 {
		t.Errorf("cleanups = %d before dispose, want 2", cleanups)
	}

	e.Dispose()
	if cleanups != 3 {
		t.Errorf("cleanups = %d after dispose, want 3", cleanups)
	}
	count.Set(3)
	loop.Drain()
	if len(seen) != 3 {
		t.Error("effect ran after dispose")
	}
}

func TestEffectCleanupPanicIsolated(t *testing.T) {
	rt, loop := newTestRuntime(t)
	v := NewValue(rt, 0)
	runs := 0
	e := rt.NewEffect(func() Cleanup {
		v.Get()
		runs++
		return func() { panic("cleanup failed") }
	})

	v.Set(1)
	loop.Drain()
	if runs != 2 {
		t.Errorf("runs = %d, want 2", runs)
	}
	e.Dispose()
	if !e.Disposed() {
		t.Error("Disposed() = false")
	}
}

func TestComputedLazyAndCached(t *testing.T) {
	rt, loop := newTestRuntime(t)
	a := NewValue(rt, 2)
	computes := 0
	double := NewComputed(rt, func() int {
		computes++
		return a.Get() * 2
	})

	if computes != 0 {
		t.Fatal("computed ran before first read")
	}
	if got := double.Get(); got != 4 {
		t.Errorf("Get() = %d, want 4", got)
	}
	double.Get()
	if computes != 1 {
		t.Errorf("computes = %d, want 1 (cached)", computes)
	}

	a.Set(5)
	if double.Valid() {
		t.Error("Valid() = true after dependency changed")
	}
	if computes != 1 {
		t.Error("computed recomputed eagerly")
	}
	if got := double.Peek(); got != 10 {
		t.Errorf("Peek() = %d, want 10", got)
	}
	if computes != 2 {
		t.Errorf("computes = %d, want 2", computes)
	}
	loop.Drain()
}

func TestComputedNotifiesReaders(t *testing.T) {
	rt, loop := newTestRuntime(t)
	a := NewValue(rt, 1)
	plus := NewComputed(rt, func() int { return a.Get() + 1 })

	var seen []int
	rt.NewEffect(func() Cleanup {
		seen = append(seen, plus.Get())
		return nil
	})
	a.Set(10)
	loop.Drain()

	if diff := cmp.Diff([]int{2, 11}, seen); diff != "" {
		t.Errorf("seen mismatch (-want +got):\n%s", diff)
	}
}

func TestValueSetNotifiesOnlyOnChange(t *testing.T) {
	rt, loop := newTestRuntime(t)
	v := NewValue(rt, "a")
	_, runs := tracked(rt, func() { v.Get() })

	v.Set("a")
	loop.Drain()
	if *runs != 0 {
		t.Error("equal Set notified")
	}
	v.Update(func(s string) string { return s + "b" })
	loop.Drain()
	if *runs != 1 || v.Peek() != "ab" {
		t.Errorf("runs = %d value = %q, want 1 %q", *runs, v.Peek(), "ab")
	}

	always := NewValue(rt, 1).WithEquals(func(int, int) bool { return false })
	_, alwaysRuns := tracked(rt, func() { always.Get() })
	always.Set(1)
	loop.Drain()
	if *alwaysRuns != 1 {
		t.Errorf("custom equality runs = %d, want 1", *alwaysRuns)
	}
}

func TestRecordPerKeySubscriptions(t *testing.T) {
	rt, loop := newTestRuntime(t)
	r := rt.NewRecord(map[string]any{"a": 1, "b": 1})
	_, runs := tracked(rt, func() { r.Get("a") })

	r.Set("b", 2)
	loop.Drain()
	if *runs != 0 {
		t.Error("write to b woke a reader of a")
	}
	r.Set("a", 1)
	loop.Drain()
	if *runs != 0 {
		t.Error("unchanged write notified")
	}
	r.Set("a", 2)
	loop.Drain()
	if *runs != 1 {
		t.Errorf("runs = %d, want 1", *runs)
	}
}

func TestRecordStoresFreshClosures(t *testing.T) {
	rt, loop := newTestRuntime(t)
	pick := func(id int) func() int { return func() int { return id } }
	r := rt.NewRecord(map[string]any{"pick": pick(1)})
	_, runs := tracked(rt, func() { r.Get("pick") })

	r.Set("pick", pick(2))
	loop.Drain()
	if *runs != 1 {
		t.Errorf("runs = %d, want 1", *runs)
	}
	if got := r.Peek("pick").(func() int)(); got != 2 {
		t.Errorf("stored closure returns %d, want 2", got)
	}
}

func TestRecordKeysAndDelete(t *testing.T) {
	rt, loop := newTestRuntime(t)
	r := rt.NewRecord(nil)
	var keys []string
	rt.NewEffect(func() Cleanup {
		keys = r.Keys()
		return nil
	})

	r.Set("b", 1)
	r.Set("a", 1)
	loop.Drain()
	if diff := cmp.Diff([]string{"a", "b"}, keys); diff != "" {
		t.Errorf("Keys mismatch (-want +got):\n%s", diff)
	}

	r.Delete("a")
	loop.Drain()
	if diff := cmp.Diff([]string{"b"}, keys); diff != "" {
		t.Errorf("Keys after delete mismatch (-want +got):\n%s", diff)
	}
	if r.Has("a") {
		t.Error("Has(a) = true after delete")
	}
	if diff := cmp.Diff(map[string]any{"b": 1}, r.Snapshot()); diff != "" {
		t.Errorf("Snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordNestedWrapperIdentity(t *testing.T) {
	rt, _ := newTestRuntime(t)
	r := rt.NewRecord(map[string]any{
		"user":  map[string]any{"name": "ada"},
		"items": []any{1, 2},
		"n":     1,
	})

	u1 := r.Record("user")
	u2 := r.Record("user")
	if u1 == nil || u1 != u2 {
		t.Fatal("nested Record wrapper not cached")
	}
	u1.Set("name", "grace")
	if got := r.Peek("user").(map[string]any)["name"]; got != "grace" {
		t.Errorf("write through nested record: name = %v, want grace", got)
	}

	r.Set("user", map[string]any{"name": "linus"})
	if u3 := r.Record("user"); u3 == u1 {
		t.Error("wrapper reused after the key was replaced")
	}

	l1 := r.List("items")
	l1.Append(3)
	if l2 := r.List("items"); l2 != l1 {
		t.Error("List wrapper not cached across its own mutation")
	}
	if diff := cmp.Diff([]any{1, 2, 3}, r.Peek("items")); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}

	if r.Record("n") != nil || r.List("n") != nil {
		t.Error("wrappers built for a scalar value")
	}
}

func TestListMutations(t *testing.T) {
	rt, loop := newTestRuntime(t)
	l := rt.NewList([]any{"a", "b", "c"})
	_, runs := tracked(rt, func() { l.Len() })

	l.Insert(1, "x")
	l.RemoveAt(3)
	l.Set(0, "A")
	l.Set(0, "A")
	l.RemoveAt(10)
	loop.Drain()

	if diff := cmp.Diff([]any{"A", "x", "b"}, l.Items()); diff != "" {
		t.Errorf("Items mismatch (-want +got):\n%s", diff)
	}
	if *runs != 1 {
		t.Errorf("runs = %d, want 1", *runs)
	}

	l.Replace([]any{map[string]any{"done": false}})
	rec := l.Record(0)
	if rec == nil || rec != l.Record(0) {
		t.Fatal("List.Record wrapper not cached")
	}
	rec.Set("done", true)
	if got := l.At(0).(map[string]any)["done"]; got != true {
		t.Errorf("done = %v, want true", got)
	}
	if l.At(5) != nil {
		t.Error("At out of range returned a value")
	}
}

func TestField(t *testing.T) {
	rt, _ := newTestRuntime(t)
	r := rt.NewRecord(map[string]any{"count": 1, "name": 7})
	count := NewField[int](r, "count")
	name := NewField[string](r, "name")

	count.Update(func(n int) int { return n + 1 })
	if count.Get() != 2 {
		t.Errorf("count = %d, want 2", count.Get())
	}
	if name.Get() != "" {
		t.Errorf("mistyped field = %q, want zero value", name.Get())
	}
	if count.Key() != "count" {
		t.Errorf("Key() = %q", count.Key())
	}
}

func TestEqual(t *testing.T) {
	fn := func() {}
	var nilFn func()
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"ints", 1, 1, true},
		{"different types", 1, int64(1), false},
		{"nil nil", nil, nil, true},
		{"nil value", nil, 1, false},
		{"slices", []any{1, 2}, []any{1, 2}, true},
		{"maps", map[string]any{"a": 1}, map[string]any{"a": 2}, false},
		{"strings", "a", "b", false},
		{"same func", fn, fn, false},
		{"nil funcs", nilFn, nilFn, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestEffectStopKeepsCleanup(t *testing.T) {
	rt, loop := newTestRuntime(t)
	v := NewValue(rt, 0)
	runs, cleanups := 0, 0
	e := rt.NewEffect(func() Cleanup {
		v.Get()
		runs++
		return func() { cleanups++ }
	})

	e.Stop()
	v.Set(1)
	loop.Drain()
	if runs != 1 || cleanups != 0 {
		t.Errorf("runs/cleanups = %d/%d after Stop, want 1/0", runs, cleanups)
	}
	if e.Disposed() {
		t.Error("Disposed() = true after Stop")
	}

	e.Dispose()
	e.Dispose()
	if cleanups != 1 {
		t.Errorf("cleanups = %d after Dispose, want 1", cleanups)
	}
}

package scheduler

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	rerrors "github.com/vango-dev/rask/internal/errors"
)

type fakeRecorder struct {
	passes map[string]int
	tasks  map[string]int
	failed map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{
		passes: map[string]int{},
		tasks:  map[string]int{},
		failed: map[string]int{},
	}
}

func (r *fakeRecorder) FlushPass(kind string, tasks int, _ time.Duration) {
	r.passes[kind]++
	r.tasks[kind] += tasks
}

func (r *fakeRecorder) TaskFailed(kind string) { r.failed[kind]++ }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestScheduler(opts ...Option) (*Scheduler, *Loop) {
	loop := NewLoop()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	return New(loop, opts...), loop
}

func TestQueueDefersUntilDrain(t *testing.T) {
	s, loop := newTestScheduler()

	var ran []string
	s.Queue(TaskFunc(func() { ran = append(ran, "a") }))
	s.Queue(TaskFunc(func() { ran = append(ran, "b") }))

	if len(ran) != 0 {
		t.Fatalf("tasks ran synchronously: %v", ran)
	}
	if got := s.Pending(); got != 2 {
		t.Errorf("Pending() = %d, want 2", got)
	}

	// Two Queue calls in one turn arm a single flush.
	if n := loop.Drain(); n != 1 {
		t.Errorf("Drain() ran %d callbacks, want 1", n)
	}
	if len(ran) != 2 || ran[0] != "a" || ran[1] != "b" {
		t.Errorf("ran = %v, want [a b]", ran)
	}
	if s.Pending() != 0 {
		t.Errorf("Pending() = %d after flush, want 0", s.Pending())
	}
}

func TestFlushRunsTasksQueuedDuringFlush(t *testing.T) {
	s, loop := newTestScheduler()

	var ran []int
	s.Queue(TaskFunc(func() {
		ran = append(ran, 1)
		s.Queue(TaskFunc(func() { ran = append(ran, 2) }))
	}))
	loop.Drain()

	if len(ran) != 2 {
		t.Fatalf("ran = %v, want [1 2]", ran)
	}
	if s.Pass() != 1 {
		t.Errorf("Pass() = %d, want 1 (same pass)", s.Pass())
	}
}

func TestFlushIsolatesPanics(t *testing.T) {
	rec := newFakeRecorder()
	var reported []error
	s, loop := newTestScheduler(
		WithRecorder(rec),
		WithErrorHandler(func(err error) { reported = append(reported, err) }),
	)

	ranAfter := false
	s.Queue(TaskFunc(func() { panic("boom") }))
	s.Queue(TaskFunc(func() { ranAfter = true }))
	loop.Drain()

	if !ranAfter {
		t.Error("task after a panicking task did not run")
	}
	if len(reported) != 1 {
		t.Fatalf("reported %d errors, want 1", len(reported))
	}
	if !errors.Is(reported[0], ErrTaskFailed) {
		t.Errorf("reported error = %v, want code R006", reported[0])
	}
	if rec.failed[KindDeferred] != 1 {
		t.Errorf("TaskFailed(deferred) = %d, want 1", rec.failed[KindDeferred])
	}
}

func TestFlushKeepsCodedPanic(t *testing.T) {
	var reported error
	s, loop := newTestScheduler(WithErrorHandler(func(err error) { reported = err }))

	s.Queue(TaskFunc(func() { panic(rerrors.New("R004")) }))
	loop.Drain()

	var re *rerrors.Error
	if !errors.As(reported, &re) || re.Code != "R004" {
		t.Errorf("reported = %v, want R004", reported)
	}
}

func TestRunBatchedFlushesSynchronously(t *testing.T) {
	s, loop := newTestScheduler()

	ran := 0
	err := s.RunBatched(func() error {
		s.Queue(TaskFunc(func() { ran++ }))
		s.Queue(TaskFunc(func() { ran++ }))
		if ran != 0 {
			t.Error("task ran inside batch")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunBatched() error = %v", err)
	}
	if ran != 2 {
		t.Errorf("ran = %d after batch, want 2", ran)
	}
	if n := loop.Drain(); n != 0 {
		t.Errorf("batch armed %d deferred callbacks, want 0", n)
	}
}

func TestRunBatchedNested(t *testing.T) {
	s, _ := newTestScheduler()

	ran := 0
	_ = s.RunBatched(func() error {
		_ = s.RunBatched(func() error {
			s.Queue(TaskFunc(func() { ran++ }))
			return nil
		})
		if ran != 0 {
			t.Error("inner batch flushed before outer batch returned")
		}
		return nil
	})
	if ran != 1 {
		t.Errorf("ran = %d, want 1", ran)
	}
}

func TestRunBatchedErrorDefersTasks(t *testing.T) {
	s, loop := newTestScheduler()

	want := errors.New("nope")
	ran := 0
	err := s.RunBatched(func() error {
		s.Queue(TaskFunc(func() { ran++ }))
		return want
	})
	if err != want {
		t.Fatalf("RunBatched() error = %v, want %v", err, want)
	}
	if ran != 0 {
		t.Fatalf("task ran despite batch error")
	}
	loop.Drain()
	if ran != 1 {
		t.Errorf("ran = %d after next turn, want 1", ran)
	}
}

func TestRunBatchedPanicRestoresDepth(t *testing.T) {
	s, loop := newTestScheduler()

	ran := 0
	func() {
		defer func() { _ = recover() }()
		_ = s.RunBatched(func() error {
			s.Queue(TaskFunc(func() { ran++ }))
			panic("inside batch")
		})
	}()

	if s.Batching() {
		t.Fatal("Batching() = true after panic")
	}
	loop.Drain()
	if ran != 1 {
		t.Errorf("ran = %d after next turn, want 1", ran)
	}
}

func TestRunBatchedTaskFailureAborts(t *testing.T) {
	s, loop := newTestScheduler()

	ranAfter := false
	err := s.RunBatched(func() error {
		s.Queue(TaskFunc(func() { panic("bad render") }))
		s.Queue(TaskFunc(func() { ranAfter = true }))
		return nil
	})
	if err == nil {
		t.Fatal("RunBatched() error = nil, want task failure")
	}
	if ranAfter {
		t.Fatal("flush continued after failure")
	}
	loop.Drain()
	if !ranAfter {
		t.Error("remaining task did not run on the next turn")
	}
}

func TestInteractionFlushesOnEnd(t *testing.T) {
	s, _ := newTestScheduler()

	ran := 0
	s.BeginInteraction()
	s.Queue(TaskFunc(func() { ran++ }))
	s.BeginInteraction()
	s.Queue(TaskFunc(func() { ran++ }))
	if err := s.EndInteraction(); err != nil {
		t.Fatal(err)
	}
	if ran != 0 {
		t.Fatal("inner EndInteraction flushed")
	}
	if err := s.EndInteraction(); err != nil {
		t.Fatal(err)
	}
	if ran != 2 {
		t.Errorf("ran = %d, want 2", ran)
	}
}

func TestInteractionFallbackCloses(t *testing.T) {
	s, loop := newTestScheduler()

	ran := 0
	s.BeginInteraction()
	s.Queue(TaskFunc(func() { ran++ }))
	loop.Drain()

	if s.Interacting() {
		t.Error("Interacting() = true after fallback")
	}
	if ran != 1 {
		t.Errorf("ran = %d, want 1", ran)
	}
	// A stray EndInteraction after the fallback is harmless.
	if err := s.EndInteraction(); err != nil {
		t.Errorf("EndInteraction() = %v", err)
	}
}

func TestQueueNextRunsInFollowingPass(t *testing.T) {
	s, loop := newTestScheduler()

	var passes []uint64
	s.Queue(TaskFunc(func() {
		s.QueueNext(TaskFunc(func() { passes = append(passes, s.Pass()) }))
		passes = append(passes, s.Pass())
	}))
	loop.Drain()

	if len(passes) != 2 {
		t.Fatalf("passes = %v, want two entries", passes)
	}
	if passes[1] != passes[0]+1 {
		t.Errorf("held task ran in pass %d, want %d", passes[1], passes[0]+1)
	}
}

func TestQueueNextOutsidePass(t *testing.T) {
	s, loop := newTestScheduler()

	ran := false
	s.QueueNext(TaskFunc(func() { ran = true }))
	loop.Drain()
	if !ran {
		t.Error("QueueNext outside a pass did not run")
	}
}

func TestRecorderCountsPasses(t *testing.T) {
	rec := newFakeRecorder()
	s, loop := newTestScheduler(WithRecorder(rec))

	s.Queue(TaskFunc(func() {}))
	loop.Drain()
	_ = s.RunBatched(func() error {
		s.Queue(TaskFunc(func() {}))
		s.Queue(TaskFunc(func() {}))
		return nil
	})

	if rec.passes[KindDeferred] != 1 || rec.tasks[KindDeferred] != 1 {
		t.Errorf("deferred passes/tasks = %d/%d, want 1/1", rec.passes[KindDeferred], rec.tasks[KindDeferred])
	}
	if rec.passes[KindSync] != 1 || rec.tasks[KindSync] != 2 {
		t.Errorf("sync passes/tasks = %d/%d, want 1/2", rec.passes[KindSync], rec.tasks[KindSync])
	}
}

func TestQueueNilIgnored(t *testing.T) {
	s, loop := newTestScheduler()
	s.Queue(nil)
	if s.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", s.Pending())
	}
	if n := loop.Drain(); n != 0 {
		t.Errorf("Drain() = %d, want 0", n)
	}
}

func TestAfterPassRunsAfterQueuedTasks(t *testing.T) {
	s, loop := newTestScheduler()

	var log []string
	s.Queue(TaskFunc(func() {
		log = append(log, "a")
		s.AfterPass(func() { log = append(log, "end a") })
	}))
	s.Queue(TaskFunc(func() {
		log = append(log, "b")
		s.AfterPass(func() {
			log = append(log, "end b")
			// Work queued at the end of a pass joins that pass.
			s.Queue(TaskFunc(func() { log = append(log, "c") }))
		})
	}))
	pass := s.Pass()
	loop.Drain()

	want := []string{"a", "b", "end a", "end b", "c"}
	if diff := cmp.Diff(want, log); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if got := s.Pass(); got != pass+1 {
		t.Errorf("Pass() = %d, want %d", got, pass+1)
	}
}

func TestAfterPassInSyncFlush(t *testing.T) {
	s, _ := newTestScheduler()

	var log []string
	err := s.RunBatched(func() error {
		s.Queue(TaskFunc(func() {
			log = append(log, "task")
			s.AfterPass(func() { log = append(log, "end") })
		}))
		return nil
	})
	if err != nil {
		t.Fatalf("RunBatched() error = %v", err)
	}
	if diff := cmp.Diff([]string{"task", "end"}, log); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestAfterPassRunsWhenSyncTaskFails(t *testing.T) {
	s, _ := newTestScheduler()

	ended := false
	err := s.RunBatched(func() error {
		s.Queue(TaskFunc(func() { s.AfterPass(func() { ended = true }) }))
		s.Queue(TaskFunc(func() { panic("boom") }))
		return nil
	})
	if err == nil {
		t.Fatal("RunBatched() error = nil, want task failure")
	}
	if !ended {
		t.Error("pass-end callback did not run after the failure")
	}
}

func TestAfterPassOutsidePass(t *testing.T) {
	s, _ := newTestScheduler()

	ran := false
	s.AfterPass(func() { ran = true })
	if !ran {
		t.Error("AfterPass outside a pass did not run immediately")
	}
}

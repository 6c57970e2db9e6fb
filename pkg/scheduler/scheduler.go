package scheduler

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	rerrors "github.com/vango-dev/rask/internal/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Flush kinds reported to the Recorder and on trace spans.
const (
	KindDeferred = "deferred"
	KindSync     = "sync"
)

// Task is a unit of scheduled work, usually an observer re-run.
type Task interface {
	Run()
}

// TaskFunc adapts a function to the Task interface.
type TaskFunc func()

// Run calls f.
func (f TaskFunc) Run() { f() }

// Host runs a callback after the current synchronous work completes and
// before the next external event is processed.
type Host interface {
	Defer(fn func())
}

// Recorder receives flush statistics. pkg/metrics implements it.
type Recorder interface {
	FlushPass(kind string, tasks int, elapsed time.Duration)
	TaskFailed(kind string)
}

type nopRecorder struct{}

func (nopRecorder) FlushPass(string, int, time.Duration) {}
func (nopRecorder) TaskFailed(string)                    {}

// ErrTaskFailed is the code carried by errors built from a task panic that
// was not already a coded error.
var ErrTaskFailed = rerrors.New("R006")

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger used for task failures and diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecorder sets the flush statistics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Scheduler) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithTracer sets the tracer used for flush spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Scheduler) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithErrorHandler sets the callback that receives isolated task failures
// from deferred flushes.
func WithErrorHandler(fn func(error)) Option {
	return func(s *Scheduler) {
		s.onError = fn
	}
}

// Scheduler owns the deferred and synchronous queues of one runtime.
// It is not safe for concurrent use; all calls happen on the host's thread.
type Scheduler struct {
	host     Host
	logger   *slog.Logger
	recorder Recorder
	tracer   trace.Tracer
	onError  func(error)

	// deferred is drained on the next host turn.
	deferred []Task

	// next holds tasks held back until the current pass ends.
	next []Task

	// sync is drained when the outermost batch or interaction closes.
	sync []Task

	// passEnd runs once the outermost pass has drained its tasks.
	passEnd []func()

	armed            bool
	flushingDeferred bool
	flushingSync     bool
	batchDepth       int
	interactionDepth int

	pass      uint64
	passDepth int
}

// New creates a Scheduler that arms deferred flushes on host.
func New(host Host, opts ...Option) *Scheduler {
	s := &Scheduler{
		host:     host,
		logger:   slog.Default(),
		recorder: nopRecorder{},
		tracer:   otel.Tracer("github.com/vango-dev/rask/pkg/scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Host returns the host the scheduler arms deferred flushes on.
func (s *Scheduler) Host() Host {
	return s.host
}

// Queue schedules t. Inside a batch, an interaction or a synchronous flush
// the task joins the synchronous queue; otherwise it joins the deferred
// queue and arms a deferred flush.
func (s *Scheduler) Queue(t Task) {
	if t == nil {
		return
	}
	if s.flushingSync || s.batchDepth > 0 || s.interactionDepth > 0 {
		s.sync = append(s.sync, t)
		return
	}
	s.deferred = append(s.deferred, t)
	s.arm()
}

// QueueNext schedules t for the pass after the current one. Outside a pass
// it behaves like Queue.
func (s *Scheduler) QueueNext(t Task) {
	if t == nil {
		return
	}
	if s.passDepth == 0 {
		s.Queue(t)
		return
	}
	s.next = append(s.next, t)
}

// AfterPass registers fn to run once the current pass has run its queued
// tasks, before the pass ends. Tasks queued by fn join the same pass.
// Outside a pass fn runs immediately.
func (s *Scheduler) AfterPass(fn func()) {
	if fn == nil {
		return
	}
	if s.passDepth == 0 {
		fn()
		return
	}
	s.passEnd = append(s.passEnd, fn)
}

// Pass returns the number of the current (or most recent) flush pass.
func (s *Scheduler) Pass() uint64 {
	return s.pass
}

// InPass reports whether a flush pass is running.
func (s *Scheduler) InPass() bool {
	return s.passDepth > 0
}

// Batching reports whether a synchronous batch is open.
func (s *Scheduler) Batching() bool {
	return s.batchDepth > 0
}

// Interacting reports whether an interaction bracket is open.
func (s *Scheduler) Interacting() bool {
	return s.interactionDepth > 0
}

// Pending returns the number of queued tasks across all queues.
func (s *Scheduler) Pending() int {
	return len(s.deferred) + len(s.sync) + len(s.next)
}

// arm schedules a deferred flush once per turn.
func (s *Scheduler) arm() {
	if s.armed || s.flushingDeferred || s.host == nil {
		return
	}
	s.armed = true
	s.host.Defer(s.Flush)
}

// RunBatched runs fn with flushing suppressed. When the outermost batch
// returns without error the synchronous queue is flushed before RunBatched
// returns. If fn fails, nothing is flushed and the pending tasks move to
// the next deferred pass; the error is returned unchanged. A task failure
// during the flush aborts the rest of the flush and is returned.
func (s *Scheduler) RunBatched(fn func() error) error {
	s.batchDepth++
	completed := false
	defer func() {
		if completed {
			return
		}
		// fn panicked: restore depth, keep the tasks for a later pass.
		s.batchDepth--
		if s.batchDepth == 0 && len(s.sync) > 0 {
			s.arm()
		}
	}()

	err := fn()
	completed = true
	s.batchDepth--

	if s.batchDepth > 0 {
		return err
	}
	if err != nil {
		if len(s.sync) > 0 {
			s.arm()
		}
		return err
	}
	return s.flushSync()
}

// BeginInteraction opens an interaction bracket. Writes made until the
// matching EndInteraction are flushed together. A deferred fallback is
// armed in case the closing half never runs.
func (s *Scheduler) BeginInteraction() {
	s.interactionDepth++
	if s.interactionDepth == 1 {
		s.arm()
	}
}

// EndInteraction closes an interaction bracket and flushes the synchronous
// queue when the outermost bracket closes.
func (s *Scheduler) EndInteraction() error {
	if s.interactionDepth == 0 {
		return nil
	}
	s.interactionDepth--
	if s.interactionDepth > 0 {
		return nil
	}
	return s.flushSync()
}

// Flush runs the deferred queue. Hosts call it; it is also safe to call
// directly to force a pass.
func (s *Scheduler) Flush() {
	s.armed = false
	if s.batchDepth > 0 || s.flushingDeferred || s.flushingSync {
		return
	}
	if s.interactionDepth > 0 {
		s.logger.Debug("scheduler: closing interaction left open", "depth", s.interactionDepth)
		s.interactionDepth = 0
	}
	if len(s.sync) > 0 {
		// Leftovers from failed batches and closed interactions run first.
		s.deferred = append(s.sync, s.deferred...)
		s.sync = nil
	}
	if len(s.deferred) == 0 {
		return
	}

	start := time.Now()
	_, span := s.tracer.Start(context.Background(), "scheduler.flush",
		trace.WithAttributes(attribute.String("rask.flush.kind", KindDeferred)))

	s.flushingDeferred = true
	s.beginPass()

	ran, failed := 0, 0
	run := func(t Task) error { return s.runIsolated(KindDeferred, t) }
	for {
		for i := 0; i < len(s.deferred); i++ {
			t := s.deferred[i]
			s.deferred[i] = nil
			ran++
			if err := run(t); err != nil {
				failed++
				span.RecordError(err)
			}
		}
		s.deferred = nil
		for _, err := range s.runPassEnd(run) {
			failed++
			span.RecordError(err)
		}
		if len(s.deferred) == 0 {
			break
		}
	}

	s.flushingDeferred = false
	s.endPass()

	span.SetAttributes(
		attribute.Int("rask.flush.tasks", ran),
		attribute.Int("rask.flush.failed", failed),
		attribute.Int64("rask.flush.pass", int64(s.pass)),
	)
	if failed > 0 {
		span.SetStatus(codes.Error, "task failed")
	}
	span.End()
	s.recorder.FlushPass(KindDeferred, ran, time.Since(start))

	if len(s.sync) > 0 || len(s.deferred) > 0 {
		s.arm()
	}
}

// flushSync drains the synchronous queue in enqueue order. The first task
// failure stops the flush; the remaining tasks stay queued and a deferred
// pass is armed for them.
func (s *Scheduler) flushSync() error {
	if s.batchDepth > 0 || s.interactionDepth > 0 || s.flushingSync {
		return nil
	}
	if len(s.sync) == 0 {
		return nil
	}

	start := time.Now()
	_, span := s.tracer.Start(context.Background(), "scheduler.flush",
		trace.WithAttributes(attribute.String("rask.flush.kind", KindSync)))
	defer span.End()

	s.flushingSync = true
	s.beginPass()

	var err error
	ran := 0
	for err == nil {
		for len(s.sync) > 0 {
			t := s.sync[0]
			s.sync[0] = nil
			s.sync = s.sync[1:]
			ran++
			if err = s.runCaught(t); err != nil {
				break
			}
		}
		if err != nil {
			// Commit the work the pass already did; the failure is reported
			// to the caller.
			s.runPassEnd(func(t Task) error { return s.runIsolated(KindSync, t) })
			break
		}
		if errs := s.runPassEnd(s.runCaught); len(errs) > 0 {
			err = errs[0]
		}
		if len(s.sync) == 0 {
			break
		}
	}

	s.flushingSync = false
	s.endPass()

	span.SetAttributes(
		attribute.Int("rask.flush.tasks", ran),
		attribute.Int64("rask.flush.pass", int64(s.pass)),
	)
	s.recorder.FlushPass(KindSync, ran, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "task failed")
		s.recorder.TaskFailed(KindSync)
		if len(s.sync) > 0 {
			s.arm()
		}
		return err
	}
	return nil
}

func (s *Scheduler) beginPass() {
	if s.passDepth == 0 {
		s.pass++
	}
	s.passDepth++
}

// runPassEnd runs the AfterPass callbacks of the outermost pass with run
// and returns their failures. Callbacks registered meanwhile run too.
func (s *Scheduler) runPassEnd(run func(Task) error) []error {
	if s.passDepth > 1 {
		return nil
	}
	var errs []error
	for len(s.passEnd) > 0 {
		fns := s.passEnd
		s.passEnd = nil
		for _, fn := range fns {
			if err := run(TaskFunc(fn)); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errs
}

func (s *Scheduler) endPass() {
	s.passDepth--
	if s.passDepth > 0 || len(s.next) == 0 {
		return
	}
	s.deferred = append(s.deferred, s.next...)
	s.next = nil
	s.arm()
}

// runIsolated runs t and converts a panic into a logged, reported error.
func (s *Scheduler) runIsolated(kind string, t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = rerrors.FromPanic(r, ErrTaskFailed.Code)
			s.logger.Error("scheduler: task failed",
				"kind", kind,
				"error", err,
				"stack", string(debug.Stack()))
			s.recorder.TaskFailed(kind)
			if s.onError != nil {
				s.onError(err)
			}
		}
	}()
	t.Run()
	return nil
}

// runCaught runs t and converts a panic into an error for the caller.
func (s *Scheduler) runCaught(t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = rerrors.FromPanic(r, ErrTaskFailed.Code)
		}
	}()
	t.Run()
	return nil
}

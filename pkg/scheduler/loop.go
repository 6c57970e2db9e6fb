package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
)

// ErrLoopClosed is returned when posting to a closed Loop.
var ErrLoopClosed = errors.New("scheduler: loop closed")

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithLoopLogger sets the logger for panics raised by posted tasks.
func WithLoopLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithQueueSize sets the capacity of the posted task channel.
func WithQueueSize(n int) LoopOption {
	return func(l *Loop) {
		if n > 0 {
			l.size = n
		}
	}
}

// Loop is a single-goroutine Host. Posted tasks play the role of external
// events; deferred callbacks are drained after every task.
type Loop struct {
	mu    sync.Mutex
	micro []func()

	size      int
	tasks     chan func()
	done      chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

// NewLoop creates a Loop. Call Run on a dedicated goroutine, or call Drain
// directly when driving the loop by hand.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		size:   256,
		done:   make(chan struct{}),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.tasks = make(chan func(), l.size)
	return l
}

// Defer queues fn to run after the current task. It implements Host.
func (l *Loop) Defer(fn func()) {
	l.mu.Lock()
	l.micro = append(l.micro, fn)
	l.mu.Unlock()
}

// Drain runs deferred callbacks until none remain, including callbacks
// deferred while draining. It returns the number of callbacks run.
func (l *Loop) Drain() int {
	n := 0
	for {
		l.mu.Lock()
		batch := l.micro
		l.micro = nil
		l.mu.Unlock()

		if len(batch) == 0 {
			return n
		}
		for _, fn := range batch {
			l.safeRun(fn)
			n++
		}
	}
}

// Post queues fn to run on the loop goroutine. It is safe to call from any
// goroutine.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.done:
		return ErrLoopClosed
	default:
	}
	select {
	case l.tasks <- fn:
		return nil
	case <-l.done:
		return ErrLoopClosed
	}
}

// Do posts fn and waits until it and the deferred work it caused have run.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	err := l.Post(func() {
		defer close(finished)
		fn()
		l.Drain()
	})
	if err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopClosed
	}
}

// Run processes posted tasks until ctx is canceled or the loop is closed.
func (l *Loop) Run(ctx context.Context) error {
	l.Drain()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.tasks:
			l.safeRun(fn)
			l.Drain()
		}
	}
}

// Close stops the loop. Pending posted tasks are discarded.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		close(l.done)
	})
}

// Done returns a channel closed when the loop is closed.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) safeRun(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("scheduler: loop task panicked",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}

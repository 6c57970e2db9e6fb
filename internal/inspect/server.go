// Package inspect serves a mounted rask tree over HTTP.
//
// The page at / is the server-rendered tree. A small script opens /ws,
// forwards DOM events to the server and swaps in the new markup after
// every commit. The tree is only touched from the Loop goroutine; HTTP
// handlers reach it through Server.do.
package inspect

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/rask/pkg/dom"
	"github.com/vango-dev/rask/pkg/metrics"
	"github.com/vango-dev/rask/pkg/reactive"
	"github.com/vango-dev/rask/pkg/render"
	"github.com/vango-dev/rask/pkg/scheduler"
	"github.com/vango-dev/rask/pkg/snapshot"
	"github.com/vango-dev/rask/pkg/vdom"
)

const tracerName = "github.com/vango-dev/rask/internal/inspect"

// Options configures a Server.
type Options struct {
	// Title is the page title. Defaults to "rask".
	Title string

	// Pretty enables indented HTML output.
	Pretty bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Collector, if set, records runtime metrics and is served at /metrics.
	Collector *metrics.Collector

	// Store, if set, enables the snapshot endpoints.
	Store snapshot.Store

	// Tracer defaults to the global otel tracer.
	Tracer trace.Tracer

	// ShutdownTimeout bounds graceful HTTP shutdown. Defaults to 5s.
	ShutdownTimeout time.Duration
}

// Server owns a mounted tree and the HTTP surface around it.
type Server struct {
	opts     Options
	logger   *slog.Logger
	tracer   trace.Tracer
	renderer *render.Renderer

	loop      *scheduler.Loop
	doc       *dom.Document
	root      *vdom.Root
	published uint64

	upgrader websocket.Upgrader
	mu       sync.Mutex
	clients  map[*client]struct{}

	started   atomic.Bool
	stopped   chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

// New mounts app and returns a server for it. The tree is not live until
// Start or ListenAndServe runs the loop.
func New(app func() vdom.Node, opts Options) (*Server, error) {
	if opts.Title == "" {
		opts.Title = "rask"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}

	s := &Server{
		opts:     opts,
		logger:   opts.Logger,
		tracer:   opts.Tracer,
		renderer: render.NewRenderer(render.RendererConfig{Pretty: opts.Pretty}),
		loop:     scheduler.NewLoop(scheduler.WithLoopLogger(opts.Logger)),
		doc:      dom.NewDocument(),
		clients:  make(map[*client]struct{}),
		stopped:  make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}

	schedOpts := []scheduler.Option{
		scheduler.WithLogger(s.logger),
		scheduler.WithTracer(s.tracer),
		scheduler.WithErrorHandler(s.reportError),
	}
	renderOpts := []vdom.RenderOption{
		vdom.WithLogger(s.logger),
		vdom.WithTracer(s.tracer),
		vdom.WithErrorHandler(s.reportError),
	}
	if opts.Collector != nil {
		schedOpts = append(schedOpts, scheduler.WithRecorder(opts.Collector))
		renderOpts = append(renderOpts, vdom.WithRecorder(opts.Collector))
	}
	sched := scheduler.New(s.loop, schedOpts...)
	rt := reactive.NewRuntime(sched, reactive.WithLogger(s.logger))
	renderOpts = append(renderOpts, vdom.WithRuntime(rt))

	root, err := vdom.Render(app(), s.doc.Body(), renderOpts...)
	if err != nil {
		return nil, err
	}
	s.root = root
	s.loop.Drain()
	s.published = s.doc.Mutations()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.traceRequests)
	r.Use(s.logRequests)

	r.Get("/", s.handlePage)
	r.Get("/healthz", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)
	if s.opts.Collector != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Collector.Handler())
	}
	if s.opts.Store != nil {
		r.Post("/snapshots", s.handleTakeSnapshot)
		r.Get("/snapshots/{name}", s.handleGetSnapshot)
	}
	return r
}

// Start runs the loop in the background until ctx is canceled or Close is
// called. The tree is unmounted on the loop goroutine when it stops.
// Calling Start more than once has no effect.
func (s *Server) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.started.Store(true)
		go func() {
			defer close(s.stopped)
			if err := s.loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error("inspect: loop stopped", "error", err)
			}
			s.loop.Close()
			s.root.Unmount()
			s.loop.Drain()
		}()
	})
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.Start(ctx)

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()
	s.logger.Info("inspect: listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		s.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close stops the loop, unmounts the tree and disconnects all clients.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		s.loop.Close()
		if s.started.Load() {
			<-s.stopped
		} else {
			s.root.Unmount()
			s.loop.Drain()
		}

		s.mu.Lock()
		clients := s.clients
		s.clients = make(map[*client]struct{})
		s.mu.Unlock()
		for c := range clients {
			c.close()
		}
	})
}

// Root returns the mounted root. Only touch it from within Do.
func (s *Server) Root() *vdom.Root {
	return s.root
}

// Do runs fn on the loop goroutine, drains the work it caused and
// publishes the tree if it changed.
func (s *Server) Do(ctx context.Context, fn func()) error {
	return s.loop.Do(ctx, func() {
		fn()
		s.loop.Drain()
		s.publish()
	})
}

// Dispatch delivers an event of type typ to the element with the given id.
func (s *Server) Dispatch(ctx context.Context, target, typ, value string) error {
	var err error
	doErr := s.Do(ctx, func() {
		n := dom.Find(s.doc.Body(), dom.ByID(target))
		if n == nil {
			err = &TargetError{ID: target}
			return
		}
		ev := dom.NewEvent(typ)
		ev.Value = value
		n.DispatchEvent(ev)
	})
	if doErr != nil {
		return doErr
	}
	return err
}

// HTML returns the current markup of the tree.
func (s *Server) HTML(ctx context.Context) (string, error) {
	var (
		html string
		err  error
	)
	doErr := s.Do(ctx, func() {
		html, err = s.renderer.InnerHTML(s.doc.Body())
	})
	if doErr != nil {
		return "", doErr
	}
	return html, err
}

// TargetError reports an event aimed at an element that does not exist.
type TargetError struct {
	ID string
}

func (e *TargetError) Error() string {
	return "inspect: no element with id " + e.ID
}

// publish pushes the markup to every client when the tree changed since
// the last push. It runs on the loop goroutine.
func (s *Server) publish() {
	m := s.doc.Mutations()
	if m == s.published {
		return
	}
	s.published = m
	html, err := s.renderer.InnerHTML(s.doc.Body())
	if err != nil {
		s.logger.Error("inspect: render for publish", "error", err)
		return
	}
	s.broadcast(updateMessage(html, m))
}

func (s *Server) reportError(err error) {
	s.logger.Error("inspect: unhandled error", "error", err)
	s.broadcast(errorMessage(err))
}

package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/rask/pkg/render"
	"github.com/vango-dev/rask/pkg/snapshot"
)

const pageStyle = `body{font-family:system-ui,sans-serif;max-width:40rem;margin:2rem auto}
.done span{text-decoration:line-through}
.failed{color:#b00020}`

// clientScript forwards events to /ws and swaps in pushed markup.
const clientScript = `(function(){
var proto = location.protocol === "https:" ? "wss://" : "ws://";
var ws = new WebSocket(proto + location.host + "/ws");
ws.onmessage = function(e){
  var m = JSON.parse(e.data);
  if (m.type === "update") {
    var focus = document.activeElement && document.activeElement.id;
    document.body.innerHTML = m.html;
    if (focus) { var el = document.getElementById(focus); if (el) el.focus(); }
  } else if (m.type === "error") {
    console.error("rask:", m.error);
  }
};
function send(e){
  var t = e.target.closest("[id]");
  if (!t || ws.readyState !== 1) return;
  if (e.type === "submit") e.preventDefault();
  ws.send(JSON.stringify({type:"event", target:t.id, event:e.type, value:e.target.value || ""}));
}
["click","input","change","submit","keydown"].forEach(function(t){
  document.addEventListener(t, send, true);
});
})();`

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := render.PageData{
		Body:    s.doc.Body(),
		Title:   s.opts.Title,
		Styles:  []string{pageStyle},
		Scripts: []string{clientScript},
	}
	var renderErr error
	// The page is streamed from the loop goroutine since it reads the tree.
	// The wait is not canceled with the request so w is never written after
	// the handler returns.
	err := s.loop.Do(context.WithoutCancel(r.Context()), func() {
		sr := render.NewStreamingRenderer(w, render.RendererConfig{Pretty: s.opts.Pretty})
		renderErr = sr.RenderPage(page)
	})
	if err == nil {
		err = renderErr
	}
	if err != nil {
		s.logger.Error("inspect: page render failed", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	select {
	case <-s.loop.Done():
		http.Error(w, "loop stopped", http.StatusServiceUnavailable)
		return
	default:
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}

type snapshotResponse struct {
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	Nodes     int       `json:"nodes"`
	Mutations uint64    `json:"mutations"`
	TakenAt   time.Time `json:"taken_at"`
}

func (s *Server) handleTakeSnapshot(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = time.Now().UTC().Format("20060102-150405")
	}
	if err := snapshot.ValidateName(name); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var (
		snap    *snapshot.Snapshot
		takeErr error
	)
	err := s.loop.Do(r.Context(), func() {
		snap, takeErr = snapshot.Take(name, s.doc.Body(), render.RendererConfig{Pretty: s.opts.Pretty})
	})
	if err == nil {
		err = takeErr
	}
	if err != nil {
		s.logger.Error("inspect: snapshot failed", "name", name, "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}

	location, err := s.opts.Store.Save(r.Context(), snap)
	if err != nil {
		s.logger.Error("inspect: snapshot save failed", "name", name, "error", err)
		http.Error(w, "snapshot save failed", http.StatusBadGateway)
		return
	}
	s.logger.Info("inspect: snapshot saved", "name", name, "location", location)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(snapshotResponse{
		Name:      snap.Name,
		Location:  location,
		Nodes:     snap.Nodes,
		Mutations: snap.Mutations,
		TakenAt:   snap.TakenAt,
	})
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	html, err := s.opts.Store.Load(r.Context(), name)
	switch {
	case errors.Is(err, snapshot.ErrInvalidName):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, snapshot.ErrNotFound):
		http.NotFound(w, r)
		return
	case err != nil:
		s.logger.Error("inspect: snapshot load failed", "name", name, "error", err)
		http.Error(w, "snapshot load failed", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}

func (s *Server) traceRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := s.tracer.Start(r.Context(), "inspect "+r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
			))
		defer span.End()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		span.SetAttributes(attribute.Int("http.status_code", ww.Status()))
		if ww.Status() >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(ww.Status()))
		}
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		level := slog.LevelDebug
		if ww.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		s.logger.Log(r.Context(), level, "inspect: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

package metrics

import (
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/vango-dev/rask/pkg/dom"
	"github.com/vango-dev/rask/pkg/reactive"
	"github.com/vango-dev/rask/pkg/reconcile"
	"github.com/vango-dev/rask/pkg/scheduler"
	"github.com/vango-dev/rask/pkg/vdom"
)

var (
	_ scheduler.Recorder = (*Collector)(nil)
	_ vdom.Recorder      = (*Collector)(nil)
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	return m.GetGauge().GetValue()
}

func TestSchedulerRecording(t *testing.T) {
	c := New(WithRegistry(prometheus.NewRegistry()))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	loop := scheduler.NewLoop()
	s := scheduler.New(loop, scheduler.WithRecorder(c), scheduler.WithLogger(logger))

	s.Queue(scheduler.TaskFunc(func() {}))
	s.Queue(scheduler.TaskFunc(func() { panic(errors.New("boom")) }))
	loop.Drain()

	if got := counterValue(t, c.flushPasses.WithLabelValues(scheduler.KindDeferred)); got != 1 {
		t.Errorf("flush passes = %v, want 1", got)
	}
	if got := counterValue(t, c.flushTasks.WithLabelValues(scheduler.KindDeferred)); got != 2 {
		t.Errorf("flush tasks = %v, want 2", got)
	}
	if got := counterValue(t, c.taskFailures.WithLabelValues(scheduler.KindDeferred)); got != 1 {
		t.Errorf("task failures = %v, want 1", got)
	}
}

func TestRuntimeRecording(t *testing.T) {
	c := New(WithRegistry(prometheus.NewRegistry()), WithNamespace("test"))
	c.Render("Counter", 2*time.Millisecond)
	c.Render("Counter", time.Millisecond)
	c.RenderError("Broken", true)
	c.Reconcile("reorder", 0)
	c.Reconcile("none", 3)
	c.Resync(reconcile.Stats{Kept: 2, Moved: 1})
	c.InstanceMounted("Counter")
	c.InstanceMounted("List")
	c.InstanceUnmounted("List")
	c.CleanupFailed()

	if got := counterValue(t, c.renders.WithLabelValues("Counter")); got != 2 {
		t.Errorf("renders = %v, want 2", got)
	}
	if got := counterValue(t, c.renderErrors.WithLabelValues("Broken", "true")); got != 1 {
		t.Errorf("handled render errors = %v, want 1", got)
	}
	if got := counterValue(t, c.patchOps); got != 3 {
		t.Errorf("patch ops = %v, want 3", got)
	}
	if got := counterValue(t, c.resyncMoves.WithLabelValues("moved")); got != 1 {
		t.Errorf("resync moves = %v, want 1", got)
	}
	if got := gaugeValue(t, c.instances); got != 1 {
		t.Errorf("instances = %v, want 1", got)
	}
	if got := counterValue(t, c.cleanupErrors); got != 1 {
		t.Errorf("cleanup failures = %v, want 1", got)
	}
}

func TestCollectorWithRoot(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(WithRegistry(reg))
	doc := dom.NewDocument()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hello := vdom.Stateless("Hello", func(*reactive.Record) vdom.Node { return vdom.P("hi") })
	root, err := vdom.Render(hello.New(nil), doc.Body(), vdom.WithRecorder(c), vdom.WithLogger(logger))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got := gaugeValue(t, c.instances); got != 1 {
		t.Errorf("instances = %v after mount, want 1", got)
	}
	root.Unmount()
	if got := gaugeValue(t, c.instances); got != 0 {
		t.Errorf("instances = %v after unmount, want 0", got)
	}

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `rask_renders_total{component="Hello"} 1`) {
		t.Errorf("exposition missing render counter:\n%s", rec.Body.String())
	}
}

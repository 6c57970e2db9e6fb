package vdom

import (
	"time"

	"github.com/vango-dev/rask/pkg/reconcile"
)

// Recorder receives runtime statistics. pkg/metrics implements it.
type Recorder interface {
	Render(component string, elapsed time.Duration)
	RenderError(component string, handled bool)
	Reconcile(reason string, ops int)
	Resync(stats reconcile.Stats)
	InstanceMounted(component string)
	InstanceUnmounted(component string)
	CleanupFailed()
}

type nopRecorder struct{}

func (nopRecorder) Render(string, time.Duration) {}
func (nopRecorder) RenderError(string, bool)     {}
func (nopRecorder) Reconcile(string, int)        {}
func (nopRecorder) Resync(reconcile.Stats)       {}
func (nopRecorder) InstanceMounted(string)       {}
func (nopRecorder) InstanceUnmounted(string)     {}
func (nopRecorder) CleanupFailed()               {}

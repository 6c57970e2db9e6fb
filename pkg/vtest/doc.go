// Package vtest provides testing helpers for rask components.
//
// Mount renders a node into a fresh document and returns a Harness that
// finds elements by id, dispatches events and renders the tree back to
// HTML for assertions.
//
// # Quick Start
//
//	func TestCounter(t *testing.T) {
//	    h := vtest.Mount(t, Counter.New(nil))
//	    h.Click("inc").Click("inc")
//	    if got := h.Text("count"); got != "2" {
//	        t.Errorf("count = %q, want %q", got, "2")
//	    }
//	}
//
// Events dispatched through the harness are interactions: the writes they
// make are flushed before Dispatch returns. Writes made outside an event
// wait for Tick.
//
// # Render Assertions
//
//	vtest.ExpectContains(t, h, "Welcome")
//	vtest.ExpectNotContains(t, h, "Error")
//	vtest.ExpectAttribute(t, h, "reset", "disabled", "")
package vtest

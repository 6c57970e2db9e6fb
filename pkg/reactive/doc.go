// Package reactive implements the dependency-tracking graph of the rask
// runtime.
//
// A Signal is a bare change notifier. An Observer is a callback plus a
// tracking window: while the window returned by Observe is open, every
// Signal read through Track subscribes the observer. Notify delivers to a
// snapshot of the subscribers, so subscribing or unsubscribing during a
// notification never skips or double-delivers within that round.
//
// Delivery is deferred through the runtime's scheduler: an observer is
// queued at most once per flush and runs in enqueue order. A subscription
// created during a flush pass is not reached by notifications issued in the
// same pass; the observer is held back and runs in the following pass
// instead.
//
// Higher-level primitives are built on Signal and Observer:
//
//   - Record: a keyed state bag with one signal per key and lazily built,
//     identity-cached nested Record and List wrappers.
//   - List: an ordered collection with a single change signal.
//   - Value: a typed single cell.
//   - Computed: a lazy cached derivation.
//   - Effect: a side effect that re-runs on the next turn after any of its
//     dependencies changes.
//
// All tracking state lives on a Runtime; there are no package-level
// "current observer" variables. A Runtime and everything created from it
// must be used from a single goroutine, normally a scheduler.Loop.
package reactive

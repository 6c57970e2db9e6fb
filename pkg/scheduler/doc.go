// Package scheduler provides the coalescing flush queues that drive the
// rask runtime.
//
// The runtime is single-threaded and cooperative. Signal notifications do
// not run observers synchronously; they queue Tasks here and the scheduler
// runs them at one of two boundaries:
//
//   - Deferred flush: the default. The first Queue call of a turn arms a
//     callback on the Host (a microtask-equivalent facility). The flush
//     loop iterates the live queue length, so tasks queued while flushing
//     run in the same flush. Each task is isolated: a panic is recovered,
//     logged and reported, and the remaining tasks still run.
//
//   - Synchronous batch: RunBatched suppresses flushing until the outermost
//     call returns, then flushes immediately. An error or panic inside the
//     batch skips the flush and leaves the tasks queued for the next
//     deferred pass.
//
// Around host input events an interaction bracket (BeginInteraction /
// EndInteraction) widens the synchronous window so every write caused by
// one interaction is applied in a single pass. A deferred safety fallback
// closes an interaction whose closing half never ran.
//
// # Hosts
//
// Loop is the bundled Host: a single goroutine processing posted tasks and
// draining deferred callbacks after each one.
//
//	loop := scheduler.NewLoop()
//	sched := scheduler.New(loop)
//	go loop.Run(ctx)
//	loop.Post(func() { state.Set("count", 1) })
//
// Tests drive a Loop without a goroutine by calling Drain, which is the
// equivalent of awaiting one scheduler turn.
package scheduler

// Package worker supervises the long-running background components of the
// daemon (HTTP server, RunnerLoop, TrackerLoop, SchedulerLoop) under one
// manager. A critical component whose Start fails is surfaced as a process
// failure; the manager does not watch components once they have started.
//
// Adapted from petabytecl-gaz/worker: the same Worker contract (Start is
// non-blocking and spawns its own goroutine; Stop signals shutdown and may
// block until it completes) and the same supervisor-with-panic-recovery
// design, trimmed to what this daemon needs — no pool workers, no
// exponential backoff package dependency, since the four components here
// are fixed, named singletons rather than a scalable worker pool.
package worker

import "context"

// Worker is a long-running background component with lifecycle hooks.
//
// Start must be non-blocking: implementations spawn their own goroutine for
// long-running work and return immediately. Stop signals that goroutine to
// exit and should not return until it has (or ctx expires).
type Worker interface {
	// Name returns a unique identifier used for logging.
	Name() string

	// Start begins the worker's background processing. Must not block.
	Start(ctx context.Context) error

	// Stop signals the worker to shut down and waits for it to finish, or
	// until ctx is done.
	Stop(ctx context.Context) error
}

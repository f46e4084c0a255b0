/*
Package scheduler provides the pluggable trigger abstraction the store
uses to decide when a garbage collection sweep actually runs.

# Architecture

A GC-eligible event (the store disposing a retained operation) hands a
thunk to a Strategy instead of running the sweep inline. The simplest
strategy runs it immediately; the coalescing strategy used in production
batches any number of triggers arriving within one interval into a
single sweep, trading sweep latency for avoiding redundant full-graph
walks under bursty dispose traffic:

	┌────────────────────────────────────────────────────────────┐
	│                 Coalescing Scheduler                       │
	└────────────────┬───────────────────────────────────────────┘
	                 │
	     Schedule(gc) Schedule(gc) Schedule(gc)
	         │            │            │
	         ▼            ▼            ▼
	┌────────────────────────────────────────────────────────────┐
	│  the first Schedule call starts a timer for `interval`;    │
	│  every call before it fires replaces the pending thunk     │
	│  without starting a second timer                           │
	└────────────────┬───────────────────────────────────────────┘
	                 │
	                 ▼
	          timer fires: run the latest pending thunk once

# Core Components

Strategy: a func(Thunk) the store calls instead of running GC inline.

	sched := scheduler.NewCoalescing(100 * time.Millisecond)
	defer sched.Stop()
	st := store.New(sched.Schedule)

Immediate: a Strategy that runs its thunk synchronously on the calling
goroutine, used by tests and by callers that want deterministic GC
timing instead of coalescing.

# Usage

	// production: coalesce bursts of triggers into one sweep
	sched := scheduler.NewCoalescing(50 * time.Millisecond)
	sched.Schedule(sweep)
	sched.Schedule(sweep) // replaces the pending thunk, no extra timer

	// tests: deterministic, synchronous
	scheduler.Immediate(sweep)

# Design Patterns

The package never imports pkg/store: it only knows about Thunk, keeping
the GC trigger policy decoupled from what actually gets collected.
*/
package scheduler

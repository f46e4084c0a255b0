/*
Package store holds the canonical RecordSource and the bookkeeping that
makes it a live cache rather than a static snapshot: retained operation
roots, active subscriptions, and garbage collection.

# Architecture

	┌────────────────────────────────────────────────────────────┐
	│                         Store                               │
	│                                                              │
	│  ┌────────────────────┐   ┌──────────────────────────────┐ │
	│  │  canonical source   │   │     retained operations      │ │
	│  │  (source.MapSource) │   │  token -> NormalizationSelector│
	│  └──────────┬─────────┘   └──────────────┬───────────────┘ │
	│             │                             │                 │
	│             │          ┌──────────────────▼───────────────┐ │
	│             │          │   GC: refmark.Mark from every     │ │
	│             │          │   retained selector, union'd;     │ │
	│             │          │   then Remove everything else      │ │
	│             │          └────────────────────────────────────┘ │
	│             │                                                 │
	│  ┌──────────▼─────────────────────────────────────────────┐ │
	│  │  Publish(src): field-wise merge src into canonical,      │ │
	│  │  return touched DataIDs (no notification)                │ │
	│  │  Notify(ids): re-read subscriptions whose records overlap │ │
	│  └──────────┬─────────────────────────────────────────────┘ │
	│             │                                                 │
	│  ┌──────────▼─────────────────────────────────────────────┐ │
	│  │  subscriptions: id -> {selector, last Snapshot, callback} │ │
	│  └────────────────────────────────────────────────────────┘ │
	└────────────────────────────────────────────────────────────┘

This package is the raft FSM's state-machine half adapted to the cache
domain: one place owning mutable state, dispatch points (Publish, and
Restore for undo) that are the only way callers change it, and a
single-threaded, synchronous
notification model in place of the reference broker's goroutine/channel
fan-out, since a client-side cache's subscribers are expected to run on
the same thread that calls Publish.
*/
package store

/*
Package metrics provides Prometheus metrics collection and exposition for
cachecore's store and publish pipeline.

The metrics package defines and registers all cachecore metrics using the
Prometheus client library, providing observability into record count,
publish/GC latency, and subscription fan-out. Metrics are exposed via an
HTTP endpoint for scraping by Prometheus servers.

# Architecture

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │          Prometheus Registry                │          │
	│  │  - Global DefaultRegistry                   │          │
	│  │  - MustRegister at package init             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │              Metric Categories               │          │
	│  │                                              │          │
	│  │  Store: records, retained roots, subs       │          │
	│  │  Publish: duration, counts, rebase failures │          │
	│  │  GC: runs, coalesced triggers, sweep time   │          │
	│  │  Read: duration, missing-data count         │          │
	│  │  Normalize: duration, handle fields         │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          HTTP Metrics Endpoint               │          │
	│  │  - Path: /metrics                           │          │
	│  │  - Handler: metrics.Handler()                │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Gauges (RecordsTotal, RetainedRootsTotal, SubscriptionsTotal) are set
inline by the store whenever the underlying count changes, and can also
be sampled periodically by a Collector polling a StatsProvider
(typically the store).

Counters and histograms (PublishesTotal, PublishDuration, GCRunsTotal,
GCSweepDuration, ReadDuration, NormalizeDuration, ...) are updated inline
by the component that owns the event, using the Timer helper:

	timer := metrics.NewTimer()
	// ... do the work ...
	timer.ObserveDuration(metrics.PublishDuration)
	metrics.PublishesTotal.WithLabelValues("authoritative").Inc()

# Usage

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", metrics.HealthHandler())
	mux.HandleFunc("/ready", metrics.ReadyHandler())

	collector := metrics.NewCollector(store, 15*time.Second)
	collector.Start()
	defer collector.Stop()

# Integration Points

This package integrates with:

  - pkg/store: publish/notify/subscription gauges, the GC sweep counters,
    and ReadDuration/ReadsMissingDataTotal (observed in Store.Lookup)
  - pkg/publishqueue: PublishDuration, PublishesTotal, optimistic update
    counters, HandleFieldsProcessedTotal
  - pkg/scheduler: GCRunsTotal, GCCoalescedTotal, GCSweepDuration

NormalizeDuration is registered, but no package observes it.

# Health Checks

HealthHandler, ReadyHandler, and LivenessHandler expose a component-level
health registry (RegisterComponent/UpdateComponent) independent of the
Prometheus metrics above, intended for orchestrator liveness/readiness
probes rather than time-series monitoring.
*/
package metrics

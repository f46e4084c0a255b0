package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Store metrics
	RecordsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cachecore_records_total",
			Help: "Total number of records currently held by the canonical store",
		},
	)

	RetainedRootsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cachecore_retained_roots_total",
			Help: "Total number of operation roots currently retained",
		},
	)

	SubscriptionsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cachecore_subscriptions_total",
			Help: "Total number of active snapshot subscriptions",
		},
	)

	// Publish metrics
	PublishDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cachecore_publish_duration_seconds",
			Help:    "Time taken for one publish queue run() cycle in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	PublishesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cachecore_publishes_total",
			Help: "Total number of publish queue runs by payload kind",
		},
		[]string{"kind"},
	)

	NotifyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cachecore_notify_duration_seconds",
			Help:    "Time taken to notify all subscribers of changed DataIDs",
			Buckets: prometheus.DefBuckets,
		},
	)

	OptimisticUpdatesApplied = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cachecore_optimistic_updates_applied_total",
			Help: "Total number of optimistic updates applied",
		},
	)

	OptimisticRebaseFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cachecore_optimistic_rebase_failures_total",
			Help: "Total number of optimistic updates that failed to reapply during rebase",
		},
	)

	// GC metrics
	GCRunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cachecore_gc_runs_total",
			Help: "Total number of garbage collection sweeps performed",
		},
	)

	GCCoalescedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cachecore_gc_coalesced_total",
			Help: "Total number of GC triggers coalesced into an already-pending sweep",
		},
	)

	GCSweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cachecore_gc_sweep_duration_seconds",
			Help:    "Time taken for one mark-sweep GC pass in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	GCRecordsFreed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cachecore_gc_records_freed_total",
			Help: "Total number of unreachable records freed by GC",
		},
	)

	// Read metrics
	ReadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cachecore_read_duration_seconds",
			Help:    "Time taken to project a selector into a Snapshot",
			Buckets: prometheus.DefBuckets,
		},
	)

	ReadsMissingDataTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cachecore_reads_missing_data_total",
			Help: "Total number of reads that reported missing data",
		},
	)

	// Normalization metrics
	NormalizeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cachecore_normalize_duration_seconds",
			Help:    "Time taken to normalize a response payload into record writes",
			Buckets: prometheus.DefBuckets,
		},
	)

	HandleFieldsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cachecore_handle_fields_processed_total",
			Help: "Total number of @__clientField handle payloads processed by handle name",
		},
		[]string{"handle"},
	)
)

func init() {
	prometheus.MustRegister(RecordsTotal)
	prometheus.MustRegister(RetainedRootsTotal)
	prometheus.MustRegister(SubscriptionsTotal)
	prometheus.MustRegister(PublishDuration)
	prometheus.MustRegister(PublishesTotal)
	prometheus.MustRegister(NotifyDuration)
	prometheus.MustRegister(OptimisticUpdatesApplied)
	prometheus.MustRegister(OptimisticRebaseFailures)
	prometheus.MustRegister(GCRunsTotal)
	prometheus.MustRegister(GCCoalescedTotal)
	prometheus.MustRegister(GCSweepDuration)
	prometheus.MustRegister(GCRecordsFreed)
	prometheus.MustRegister(ReadDuration)
	prometheus.MustRegister(ReadsMissingDataTotal)
	prometheus.MustRegister(NormalizeDuration)
	prometheus.MustRegister(HandleFieldsProcessedTotal)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

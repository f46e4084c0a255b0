package metrics

import "time"

// StoreSnapshot is the subset of store state the collector polls. A
// store.Store satisfies this implicitly via its Stats method, keeping
// this package free of a dependency on package store.
type StoreSnapshot struct {
	Records       int
	RetainedRoots int
	Subscriptions int
}

// StatsProvider is implemented by anything the collector can poll for
// gauge-style metrics.
type StatsProvider interface {
	Stats() StoreSnapshot
}

// Collector periodically samples a StatsProvider into the package-level
// gauges, the same polling pattern used for any point-in-time state that
// isn't naturally driven by an event (compare PublishesTotal, which is
// incremented inline by the publish queue instead).
type Collector struct {
	provider StatsProvider
	interval time.Duration
	stopCh   chan struct{}
}

// NewCollector creates a collector that samples provider every interval.
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{provider: provider, interval: interval, stopCh: make(chan struct{})}
}

// Start begins the periodic sampling loop in a background goroutine.
func (c *Collector) Start() {
	ticker := time.NewTicker(c.interval)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the sampling loop.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	snap := c.provider.Stats()
	RecordsTotal.Set(float64(snap.Records))
	RetainedRootsTotal.Set(float64(snap.RetainedRoots))
	SubscriptionsTotal.Set(float64(snap.Subscriptions))
}

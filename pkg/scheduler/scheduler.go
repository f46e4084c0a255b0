package scheduler

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/cachecore/pkg/log"
	"github.com/cuemby/cachecore/pkg/metrics"
)

// Thunk is a unit of deferred work, almost always the store's GC sweep.
type Thunk func()

// Strategy is the trigger policy a store calls instead of running a GC
// sweep inline.
type Strategy func(Thunk)

// Immediate is a Strategy that runs thunk synchronously on the calling
// goroutine. Use it for tests or callers that want deterministic GC
// timing.
func Immediate(thunk Thunk) {
	thunk()
}

// Scheduler coalesces any number of Schedule calls arriving within one
// interval into a single run of the most recently scheduled thunk.
type Scheduler struct {
	interval time.Duration
	logger   zerolog.Logger

	mu      sync.Mutex
	pending Thunk
	timer   *time.Timer
	stopped bool
}

// NewCoalescing creates a Scheduler that waits interval after the first
// pending Schedule call before running.
func NewCoalescing(interval time.Duration) *Scheduler {
	return &Scheduler{
		interval: interval,
		logger:   log.WithComponent("scheduler"),
	}
}

// Schedule stages thunk to run after interval elapses, replacing any
// thunk already pending. It satisfies the Strategy signature.
func (s *Scheduler) Schedule(thunk Thunk) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if s.pending != nil {
		metrics.GCCoalescedTotal.Inc()
	}
	s.pending = thunk
	if s.timer == nil {
		s.timer = time.AfterFunc(s.interval, s.fire)
	}
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	thunk := s.pending
	s.pending = nil
	s.timer = nil
	s.mu.Unlock()

	if thunk == nil {
		return
	}
	timer := metrics.NewTimer()
	thunk()
	timer.ObserveDuration(metrics.GCSweepDuration)
	metrics.GCRunsTotal.Inc()
	s.logger.Debug().Msg("ran coalesced gc sweep")
}

// Stop cancels any pending timer. Scheduled-but-not-yet-fired thunks are
// dropped; callers that need a final sweep should run one explicitly.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = nil
}

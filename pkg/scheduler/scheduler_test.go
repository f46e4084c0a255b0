package scheduler

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestImmediateRunsSynchronously(t *testing.T) {
	ran := false
	Immediate(func() { ran = true })
	assert.True(t, ran)
}

func TestSchedulerCoalescesBurstIntoOneRun(t *testing.T) {
	sched := NewCoalescing(20 * time.Millisecond)
	defer sched.Stop()

	var runs int32
	var mu sync.Mutex
	var lastValue int

	for i := 0; i < 5; i++ {
		v := i
		sched.Schedule(func() {
			atomic.AddInt32(&runs, 1)
			mu.Lock()
			lastValue = v
			mu.Unlock()
		})
	}

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
	mu.Lock()
	assert.Equal(t, 4, lastValue)
	mu.Unlock()
}

func TestSchedulerRunsAgainAfterPreviousFired(t *testing.T) {
	sched := NewCoalescing(10 * time.Millisecond)
	defer sched.Stop()

	var runs int32
	sched.Schedule(func() { atomic.AddInt32(&runs, 1) })
	time.Sleep(40 * time.Millisecond)
	sched.Schedule(func() { atomic.AddInt32(&runs, 1) })
	time.Sleep(40 * time.Millisecond)

	assert.Equal(t, int32(2), atomic.LoadInt32(&runs))
}

func TestStopCancelsPendingRun(t *testing.T) {
	sched := NewCoalescing(20 * time.Millisecond)

	var runs int32
	sched.Schedule(func() { atomic.AddInt32(&runs, 1) })
	sched.Stop()
	time.Sleep(40 * time.Millisecond)

	assert.Equal(t, int32(0), atomic.LoadInt32(&runs))
}

func TestScheduleAfterStopIsNoop(t *testing.T) {
	sched := NewCoalescing(10 * time.Millisecond)
	sched.Stop()

	var runs int32
	sched.Schedule(func() { atomic.AddInt32(&runs, 1) })
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, int32(0), atomic.LoadInt32(&runs))
}

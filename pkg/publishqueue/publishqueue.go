package publishqueue

import (
	"context"
	"sync"

	"github.com/cuemby/cachecore/pkg/handle"
	"github.com/cuemby/cachecore/pkg/ir"
	"github.com/cuemby/cachecore/pkg/log"
	"github.com/cuemby/cachecore/pkg/metrics"
	"github.com/cuemby/cachecore/pkg/normalize"
	"github.com/cuemby/cachecore/pkg/source"
	"github.com/cuemby/cachecore/pkg/store"
	"github.com/cuemby/cachecore/pkg/types"
)

// Disposable cancels a queued piece of work. Disposing an applied
// optimistic update removes it from the layer; the change only takes
// effect on the next Run.
type Disposable interface {
	Dispose()
}

type disposeFunc func()

func (f disposeFunc) Dispose() { f() }

type authoritativePayload struct {
	src      source.Source
	payloads []normalize.HandleFieldPayload
}

// PublishQueue batches writes against a store.Store; see the package doc
// for the ordering guarantee Run provides.
type PublishQueue struct {
	mu sync.Mutex

	st      *store.Store
	handles *handle.Registry

	backup source.MutableSource // undo snapshot for the currently-applied optimistic layer, nil if none has run yet

	pendingAuthoritative []authoritativePayload
	pendingUpdaters      []func(proxy *source.Proxy)
	applied              []OptimisticUpdate // insertion order; current optimistic layer

	gcHeld bool
}

// New creates a PublishQueue writing through st. handles may be nil if the
// operations this queue serves never use @__clientField.
func New(st *store.Store, handles *handle.Registry) *PublishQueue {
	return &PublishQueue{st: st, handles: handles}
}

// CommitPayload enqueues an authoritative normalized payload (and its
// handle-field payloads, if any) to be merged into the store on the next
// Run. This is the path a network response takes after normalize.Normalize.
func (q *PublishQueue) CommitPayload(src source.Source, payloads []normalize.HandleFieldPayload) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pendingAuthoritative = append(q.pendingAuthoritative, authoritativePayload{src: src, payloads: payloads})
}

// CommitUpdate enqueues a client updater closure to run against current
// store state on the next Run, after authoritative payloads and before the
// optimistic layer is rebased.
func (q *PublishQueue) CommitUpdate(fn func(proxy *source.Proxy)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pendingUpdaters = append(q.pendingUpdaters, fn)
}

// ApplyOptimisticUpdate adds update to the optimistic layer. It takes
// effect on the next Run and stays applied, rebased on top of whatever
// authoritative data arrives, until its Disposable is disposed.
func (q *PublishQueue) ApplyOptimisticUpdate(update OptimisticUpdate) Disposable {
	q.mu.Lock()
	q.applied = append(q.applied, update)
	q.mu.Unlock()

	return disposeFunc(func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		for i, u := range q.applied {
			if u.id == update.id {
				q.applied = append(q.applied[:i], q.applied[i+1:]...)
				break
			}
		}
	})
}

// GCHeld reports whether the optimistic layer is currently non-empty, the
// condition under which a garbage collection sweep should be deferred: an
// optimistic update's guessed records must survive until the layer is
// either confirmed by authoritative data or explicitly disposed.
func (q *PublishQueue) GCHeld() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.gcHeld
}

// Run executes one publish cycle: undo the previous optimistic layer,
// apply pending authoritative payloads, apply pending client updaters,
// then rebase the current optimistic layer on top, in that order. None of
// steps 1-4 notify subscribers on their own (store.Publish/store.Restore
// only merge); Run accumulates every DataID touched across all four steps
// and calls store.Notify exactly once at the end, so a subscriber never
// observes an intermediate state from mid-run (spec.md §5's ordering
// guarantee). It returns the operation descriptor of every subscription
// that fired as a result.
func (q *PublishQueue) Run(ctx context.Context) ([]*ir.OperationDescriptor, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.PublishDuration)

	q.mu.Lock()
	backup := q.backup
	authoritative := q.pendingAuthoritative
	updaters := q.pendingUpdaters
	applied := append([]OptimisticUpdate(nil), q.applied...)
	q.pendingAuthoritative = nil
	q.pendingUpdaters = nil
	q.mu.Unlock()

	touched := make(map[types.DataID]bool)
	merge := func(t map[types.DataID]bool) {
		for id := range t {
			touched[id] = true
		}
	}

	// 1. Undo the previous run's optimistic layer.
	if backup != nil {
		merge(q.st.Restore(ctx, backup))
	}

	// 2. Apply authoritative payloads.
	for _, p := range authoritative {
		merge(q.st.Publish(ctx, p.src))
		if len(p.payloads) > 0 {
			t, err := q.applyHandlePayloads(ctx, p.payloads)
			if err != nil {
				return nil, err
			}
			merge(t)
		}
		metrics.PublishesTotal.WithLabelValues("authoritative").Inc()
	}

	// 3. Apply client updaters.
	for _, fn := range updaters {
		mutator := q.st.NewMutator(nil)
		proxy := source.NewProxy(mutator)
		fn(proxy)
		merge(q.st.Publish(ctx, mutator.Sink()))
		metrics.PublishesTotal.WithLabelValues("updater").Inc()
	}

	// 4. Rebase the optimistic layer onto current state.
	var newBackup source.MutableSource
	if len(applied) > 0 {
		newBackup = source.New()
		mutator := q.st.NewMutator(newBackup)
		proxy := source.NewProxy(mutator)
		for _, u := range applied {
			if err := u.apply(ctx, proxy, q.handles); err != nil {
				metrics.OptimisticRebaseFailures.Inc()
				log.WithComponent("publishqueue").Error().Err(err).Msg("optimistic update failed to rebase")
				continue
			}
			metrics.OptimisticUpdatesApplied.Inc()
		}
		merge(q.st.Publish(ctx, mutator.Sink()))
		metrics.PublishesTotal.WithLabelValues("optimistic").Inc()
	}

	// 5. Record GC hold state and stash the backup for next run's undo.
	q.mu.Lock()
	q.backup = newBackup
	q.gcHeld = len(applied) > 0
	q.mu.Unlock()

	// 6. Notify once, against the fully-landed end-of-run state.
	return q.st.Notify(ctx, touched), nil
}

func (q *PublishQueue) applyHandlePayloads(ctx context.Context, payloads []normalize.HandleFieldPayload) (map[types.DataID]bool, error) {
	if q.handles == nil {
		return nil, nil
	}
	mutator := q.st.NewMutator(nil)
	proxy := source.NewProxy(mutator)
	if err := q.handles.Apply(proxy, payloads); err != nil {
		return nil, err
	}
	for _, p := range payloads {
		metrics.HandleFieldsProcessedTotal.WithLabelValues(p.Handle).Inc()
	}
	return q.st.Publish(ctx, mutator.Sink()), nil
}

package store

import (
	"context"
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/cuemby/cachecore/pkg/ir"
	"github.com/cuemby/cachecore/pkg/log"
	"github.com/cuemby/cachecore/pkg/metrics"
	"github.com/cuemby/cachecore/pkg/reader"
	"github.com/cuemby/cachecore/pkg/refmark"
	"github.com/cuemby/cachecore/pkg/scheduler"
	"github.com/cuemby/cachecore/pkg/source"
	"github.com/cuemby/cachecore/pkg/types"
)

// Disposable releases a resource held by the store: a retained operation
// root or an active subscription.
type Disposable interface {
	Dispose()
}

type disposeFunc func()

func (f disposeFunc) Dispose() { f() }

type retainedOp struct {
	op    *ir.OperationDescriptor
	count int
}

type subscription struct {
	id       string
	selector ir.ReaderSelector
	loader   ir.OperationLoader
	owner    *ir.OperationDescriptor
	last     *reader.Snapshot
	callback func(*reader.Snapshot)
}

// Store owns the canonical RecordSource plus the bookkeeping (retained
// roots, subscriptions, scheduled GC) that keeps it alive across publishes.
// Methods take the store's lock around their access to canonical state,
// but Notify runs callbacks and updates each subscription's last snapshot
// outside it, and a Mutator from NewMutator reads canonical state without
// it; publishing and notifying are therefore done from one goroutine.
type Store struct {
	mu sync.Mutex

	records *source.MapSource
	retain  map[string]*retainedOp
	subs    map[string]*subscription
	gc      scheduler.Strategy
}

// New creates an empty Store. gc is the scheduling strategy that runs
// garbage collection sweeps; a sweep is requested each time a Retain's
// Disposable is disposed (Publish never requests one). Pass
// scheduler.Immediate for synchronous GC, or a *scheduler.Scheduler's
// Schedule method to coalesce bursts of disposals into one sweep.
func New(gc scheduler.Strategy) *Store {
	return &Store{
		records: source.New(),
		retain:  make(map[string]*retainedOp),
		subs:    make(map[string]*subscription),
		gc:      gc,
	}
}

// Lookup reads sel directly off the canonical source, with no subscription
// bookkeeping.
func (s *Store) Lookup(ctx context.Context, sel ir.ReaderSelector, opts reader.Options) *reader.Snapshot {
	timer := metrics.NewTimer()
	s.mu.Lock()
	snap := reader.Read(ctx, s.records, sel, nil, opts)
	s.mu.Unlock()
	timer.ObserveDuration(metrics.ReadDuration)
	if snap.IsMissingData {
		metrics.ReadsMissingDataTotal.Inc()
	}
	return snap
}

// Check reports whether sel's data is fully available in the canonical
// source without performing a full read.
func (s *Store) Check(sel ir.ReaderSelector) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return refmark.DataAvailable(s.records, sel)
}

// Retain marks op's root reachable for garbage collection purposes.
// Retains are counted per descriptor Token, so the same descriptor may be
// retained more than once and its root is only released once every
// retaining Disposable has been disposed. Descriptors with equal CacheKey
// but different tokens are counted separately.
func (s *Store) Retain(op *ir.OperationDescriptor) Disposable {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := op.Token()
	if r, ok := s.retain[key]; ok {
		r.count++
	} else {
		s.retain[key] = &retainedOp{op: op, count: 1}
	}
	metrics.RetainedRootsTotal.Set(float64(len(s.retain)))

	return disposeFunc(func() {
		s.mu.Lock()
		r, ok := s.retain[key]
		if !ok {
			s.mu.Unlock()
			return
		}
		r.count--
		if r.count <= 0 {
			delete(s.retain, key)
		}
		metrics.RetainedRootsTotal.Set(float64(len(s.retain)))
		s.mu.Unlock()

		s.scheduleGC()
	})
}

// Subscribe registers callback to fire whenever a Notify call reports data
// reachable by sel has changed. The first call happens synchronously
// against the current state before Subscribe returns. opts.Owner, if set,
// is returned by Notify when this subscription fires.
func (s *Store) Subscribe(ctx context.Context, sel ir.ReaderSelector, opts reader.Options, callback func(*reader.Snapshot)) Disposable {
	s.mu.Lock()
	id := uuid.NewString()
	snap := reader.Read(ctx, s.records, sel, nil, opts)
	sub := &subscription{id: id, selector: sel, loader: opts.Loader, owner: opts.Owner, last: snap}
	sub.callback = callback
	s.subs[id] = sub
	metrics.SubscriptionsTotal.Set(float64(len(s.subs)))
	s.mu.Unlock()

	callback(snap)

	return disposeFunc(func() {
		s.mu.Lock()
		delete(s.subs, id)
		metrics.SubscriptionsTotal.Set(float64(len(s.subs)))
		s.mu.Unlock()
	})
}

// Publish merges src into the canonical source field by field, following
// the same precedence PublishInto uses for a mutator's sink. It returns
// the set of DataIDs touched by the merge but does not notify
// subscriptions: publish and notify are separate operations (spec.md
// §4.5), so a caller driving several merges as one logical unit of work
// (see package publishqueue) can defer notification until all of them have
// landed, rather than exposing subscribers to intermediate states.
func (s *Store) Publish(ctx context.Context, src source.Source) map[types.DataID]bool {
	timer := metrics.NewTimer()
	touched := make(map[types.DataID]bool)

	s.mu.Lock()
	for _, id := range src.GetRecordIDs() {
		rec, status := src.Get(id)
		switch status {
		case source.StatusTombstone:
			s.records.Delete(id)
		case source.StatusUnpublish:
			s.records.Remove(id)
		case source.StatusPresent:
			if existing, st := s.records.Get(id); st == source.StatusPresent {
				s.records.Set(id, existing.Merge(rec))
			} else {
				s.records.Set(id, rec.Clone())
			}
		}
		touched[id] = true
	}
	metrics.RecordsTotal.Set(float64(s.records.Size()))
	s.mu.Unlock()

	timer.ObserveDuration(metrics.PublishDuration)
	metrics.PublishesTotal.WithLabelValues("authoritative").Inc()

	return touched
}

// NewMutator returns a Mutator whose base is the canonical source and whose
// sink starts empty, for a caller (typically the publish queue) that needs
// Proxy-mediated write access to current state without touching canonical
// records directly. backup may be nil; if non-nil it accumulates the exact
// inverse of whatever the mutator writes, the same way an optimistic
// update's rebase phase collects its undo snapshot. The caller is expected
// to publish the mutator's sink back with Publish or Restore when done; the
// mutator reads a live reference to canonical state, so this is only safe
// to use from the single goroutine driving publish queue runs (see package
// doc).
func (s *Store) NewMutator(backup source.MutableSource) *source.Mutator {
	s.mu.Lock()
	defer s.mu.Unlock()
	return source.NewMutator(s.records, source.New(), backup)
}

// Restore replaces canonical records with the exact values held in src,
// rather than merging field by field like Publish. The publish queue uses
// this to undo an optimistic update's backup: the backup holds a full
// pre-transaction snapshot of every record it touched, so restoring must
// overwrite rather than overlay, or fields the optimistic update added
// outright would survive the undo. Like Publish, Restore does not notify;
// call Notify once the caller's unit of work has fully landed.
func (s *Store) Restore(ctx context.Context, src source.Source) map[types.DataID]bool {
	touched := make(map[types.DataID]bool)

	s.mu.Lock()
	for _, id := range src.GetRecordIDs() {
		rec, status := src.Get(id)
		switch status {
		case source.StatusTombstone:
			s.records.Delete(id)
		case source.StatusUnpublish:
			s.records.Remove(id)
		case source.StatusPresent:
			s.records.Set(id, rec.Clone())
		}
		touched[id] = true
	}
	metrics.RecordsTotal.Set(float64(s.records.Size()))
	s.mu.Unlock()

	return touched
}

// Notify re-reads every subscription whose last-seen records overlap
// touched and invokes its callback when the resulting snapshot differs
// from the last one delivered (the hasOverlappingIDs gate of spec.md
// §4.5, kept so an unrelated publish recomputes nothing). It returns the
// operation descriptor owning each subscription that actually fired,
// nil for a subscription with no configured owner.
func (s *Store) Notify(ctx context.Context, touched map[types.DataID]bool) []*ir.OperationDescriptor {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.NotifyDuration)

	s.mu.Lock()
	subs := make([]*subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	var fired []*ir.OperationDescriptor
	for _, sub := range subs {
		if !overlaps(sub.last, touched) {
			continue
		}

		s.mu.Lock()
		next := reader.Read(ctx, s.records, sub.selector, sub.last, reader.Options{Loader: sub.loader, Owner: sub.owner})
		s.mu.Unlock()

		unchanged := sub.last != nil && sameSnapshotData(next, sub.last)
		sub.last = next
		if !unchanged {
			sub.callback(next)
			fired = append(fired, sub.owner)
		}
	}
	return fired
}

// overlaps reports whether any DataID last's read traversed is among
// touched, the condition under which a re-read can possibly observe a
// change.
func overlaps(last *reader.Snapshot, touched map[types.DataID]bool) bool {
	if last == nil {
		return true
	}
	for _, id := range last.SeenRecords {
		if touched[id] {
			return true
		}
	}
	return false
}

// sameSnapshotData reports whether two read snapshots carry the identical
// data map by pointer, the identity-recycling signal the reader leaves
// behind when a reread finds nothing changed under a subtree.
func sameSnapshotData(a, b *reader.Snapshot) bool {
	return a.IsMissingData == b.IsMissingData && sameMap(a.Data, b.Data)
}

func sameMap(a, b map[string]any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

// Stats implements metrics.StatsProvider.
func (s *Store) Stats() metrics.StoreSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return metrics.StoreSnapshot{
		Records:       s.records.Size(),
		RetainedRoots: len(s.retain),
		Subscriptions: len(s.subs),
	}
}

// scheduleGC asks the configured strategy to run a sweep. It is called
// when a Retain's Disposable is disposed; a coalescing strategy folds a
// burst of such calls into a single mark-and-sweep.
func (s *Store) scheduleGC() {
	if s.gc == nil {
		return
	}
	s.gc(s.collectGarbage)
}

// collectGarbage marks every DataID reachable from a retained operation's
// normalization selection and removes everything else from the canonical
// source. With no retained roots, nothing is reachable and the sweep
// clears the entire source (spec.md §4.5, §8 scenario 5).
func (s *Store) collectGarbage() {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.GCSweepDuration)
	metrics.GCRunsTotal.Inc()

	s.mu.Lock()
	defer s.mu.Unlock()

	reachable := make(map[types.DataID]bool, len(s.retain))
	for _, r := range s.retain {
		sel := ir.NormalizationSelector{
			Node:      r.op.NormalizationSelection,
			DataID:    r.op.RootDataID,
			Variables: r.op.Variables,
		}
		for id := range refmark.Mark(context.Background(), s.records, sel, refmark.Options{}) {
			reachable[id] = true
		}
	}

	freed := 0
	for _, id := range s.records.GetRecordIDs() {
		if !reachable[id] {
			s.records.Remove(id)
			freed++
		}
	}
	if freed > 0 {
		metrics.GCRecordsFreed.Add(float64(freed))
		log.WithComponent("store").Debug().Int("freed", freed).Msg("gc sweep freed records")
	}
	metrics.RecordsTotal.Set(float64(s.records.Size()))
}

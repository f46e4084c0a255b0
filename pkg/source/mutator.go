package source

import (
	"fmt"

	"github.com/cuemby/cachecore/pkg/types"
)

// Mutator overlays a mutable sink on top of a read-only base, optionally
// accumulating the exact inverse of its writes into a backup sink. All
// reads fall through sink then base; all writes land on sink only. A
// mutator never writes to base directly (spec.md §4.1 invariant).
type Mutator struct {
	base   Source
	sink   MutableSource
	backup MutableSource // nil if the caller does not need undo support

	backedUp map[types.DataID]bool
}

// NewMutator builds a mutator. backup may be nil when the caller has no
// need to undo the resulting writes (e.g. applying an authoritative
// payload outside the optimistic rebase path).
func NewMutator(base Source, sink MutableSource, backup MutableSource) *Mutator {
	return &Mutator{base: base, sink: sink, backup: backup, backedUp: make(map[types.DataID]bool)}
}

// Sink returns the mutator's sink, for publishing once writes are done.
func (m *Mutator) Sink() MutableSource { return m.sink }

// GetStatus reads id, falling through sink then base.
func (m *Mutator) GetStatus(id types.DataID) (*types.Record, Status) {
	if r, st := m.sink.Get(id); st != StatusAbsent {
		return r, st
	}
	return m.base.Get(id)
}

// backupOnce snapshots id's pre-transaction state into backup, the first
// time any write touches id during this mutator's lifetime.
func (m *Mutator) backupOnce(id types.DataID) {
	if m.backup == nil || m.backedUp[id] {
		return
	}
	m.backedUp[id] = true
	rec, status := m.base.Get(id)
	switch status {
	case StatusPresent:
		m.backup.Set(id, rec.Clone())
	case StatusTombstone:
		m.backup.Delete(id)
	default: // StatusAbsent: nothing existed before, so undo must forget it
		m.backup.Unpublish(id)
	}
}

// writable returns the sink record for id, performing copy-on-write from
// base (and snapshotting the old value into backup) the first time this
// mutator touches id. The returned record is fresh on sink and safe to
// mutate directly.
func (m *Mutator) writable(id types.DataID) *types.Record {
	if r, st := m.sink.Get(id); st == StatusPresent {
		return r
	}
	m.backupOnce(id)

	baseRec, baseStatus := m.base.Get(id)
	var rec *types.Record
	if baseStatus == StatusPresent {
		rec = baseRec.Clone()
	} else {
		rec = types.NewRecord(id)
	}
	m.sink.Set(id, rec)
	return rec
}

// CreateRecord creates a fresh record for id on the sink, overwriting
// whatever base or sink previously held for it.
func (m *Mutator) CreateRecord(id types.DataID, typename string) *types.Record {
	m.backupOnce(id)
	rec := types.NewRecord(id)
	rec.SetTypename(typename)
	m.sink.Set(id, rec)
	return rec
}

// DeleteRecord writes a tombstone for id on the sink.
func (m *Mutator) DeleteRecord(id types.DataID) {
	m.backupOnce(id)
	m.sink.Delete(id)
}

// GetValue reads storageKey on id, falling through sink then base.
func (m *Mutator) GetValue(id types.DataID, storageKey string) (types.Value, bool, error) {
	rec, status := m.GetStatus(id)
	if status != StatusPresent {
		return types.Value{}, false, fmt.Errorf("source: record %q is not present (status=%v)", id, status)
	}
	v, ok := rec.Get(storageKey)
	return v, ok, nil
}

// SetValue writes storageKey on id, copy-on-writing the record into the
// sink first.
func (m *Mutator) SetValue(id types.DataID, storageKey string, v types.Value) error {
	if _, status := m.GetStatus(id); status != StatusPresent {
		return fmt.Errorf("source: cannot set %q on missing record %q (status=%v)", storageKey, id, status)
	}
	m.writable(id).Set(storageKey, v)
	return nil
}

// GetLinkedRecordID returns the singular linked DataID stored at
// storageKey on id, or ok=false if absent, or ref=nil if explicitly null.
func (m *Mutator) GetLinkedRecordID(id types.DataID, storageKey string) (ref *types.DataID, ok bool, err error) {
	v, ok, err := m.GetValue(id, storageKey)
	if err != nil || !ok {
		return nil, ok, err
	}
	if v.Kind != types.KindLinked {
		return nil, false, fmt.Errorf("source: %q on %q is not a linked field", storageKey, id)
	}
	return v.Ref, true, nil
}

// SetLinkedRecordID writes a singular linked reference (nil for explicit
// null) at storageKey on id.
func (m *Mutator) SetLinkedRecordID(id types.DataID, storageKey string, ref *types.DataID) error {
	return m.SetValue(id, storageKey, types.Value{Kind: types.KindLinked, Ref: ref})
}

// SetLinkedRecordIDs writes a plural linked reference list at storageKey
// on id.
func (m *Mutator) SetLinkedRecordIDs(id types.DataID, storageKey string, refs []*types.DataID) error {
	return m.SetValue(id, storageKey, types.PluralLinkedValue(refs))
}

// PublishInto merges src into this mutator's sink directly, field for
// field, using the same precedence rules Store.publish applies to the
// canonical store (used when an optimistic update supplies a raw source
// to publish rather than individual field writes).
func (m *Mutator) PublishInto(src Source) {
	for _, id := range src.GetRecordIDs() {
		rec, status := src.Get(id)
		switch status {
		case StatusTombstone:
			m.backupOnce(id)
			m.sink.Delete(id)
		case StatusUnpublish:
			m.backupOnce(id)
			m.sink.Unpublish(id)
		case StatusPresent:
			m.backupOnce(id)
			if existing, st := m.GetStatus(id); st == StatusPresent {
				m.sink.Set(id, existing.Merge(rec))
			} else {
				m.sink.Set(id, rec.Clone())
			}
		}
	}
}

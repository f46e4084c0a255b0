package source

import (
	"sort"

	"github.com/cuemby/cachecore/pkg/types"
)

// Status classifies what a Source holds for a given DataID.
type Status int

const (
	// StatusAbsent means the DataID is not present in the source at all.
	StatusAbsent Status = iota
	// StatusPresent means a live record is stored for the DataID.
	StatusPresent
	// StatusTombstone means the DataID was explicitly deleted.
	StatusTombstone
	// StatusUnpublish is a publish-time-only marker meaning "forget this
	// DataID", distinct from StatusTombstone in intent (bookkeeping
	// cleanup rather than a user-visible delete) though both cause the
	// canonical store to remove the id on merge (see package store).
	StatusUnpublish
)

// Source is the read-only facade over a keyed record mapping.
type Source interface {
	// Get returns the record stored for id and its status. The returned
	// *types.Record is nil unless status == StatusPresent.
	Get(id types.DataID) (*types.Record, Status)
	// GetRecordIDs returns every DataID with a non-absent status, sorted
	// for deterministic iteration.
	GetRecordIDs() []types.DataID
	// Size returns the number of non-absent DataIDs.
	Size() int
}

// MutableSource additionally accepts writes.
type MutableSource interface {
	Source

	// Set stores a live record.
	Set(id types.DataID, record *types.Record)
	// Delete writes a tombstone for id.
	Delete(id types.DataID)
	// Unpublish writes the publish-time "forget" marker for id.
	Unpublish(id types.DataID)
	// Remove forgets id entirely, as if it had never been written.
	Remove(id types.DataID)
	// Clear removes every entry.
	Clear()
}

type entry struct {
	status Status
	record *types.Record
}

// MapSource is the default in-memory MutableSource implementation used
// for the canonical store, normalization sinks, and backups alike.
type MapSource struct {
	entries map[types.DataID]entry
}

// New creates an empty MapSource.
func New() *MapSource {
	return &MapSource{entries: make(map[types.DataID]entry)}
}

func (s *MapSource) Get(id types.DataID) (*types.Record, Status) {
	e, ok := s.entries[id]
	if !ok {
		return nil, StatusAbsent
	}
	return e.record, e.status
}

func (s *MapSource) GetRecordIDs() []types.DataID {
	ids := make([]types.DataID, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *MapSource) Size() int { return len(s.entries) }

func (s *MapSource) Set(id types.DataID, record *types.Record) {
	s.entries[id] = entry{status: StatusPresent, record: record}
}

func (s *MapSource) Delete(id types.DataID) {
	s.entries[id] = entry{status: StatusTombstone}
}

func (s *MapSource) Unpublish(id types.DataID) {
	s.entries[id] = entry{status: StatusUnpublish}
}

func (s *MapSource) Remove(id types.DataID) {
	delete(s.entries, id)
}

func (s *MapSource) Clear() {
	s.entries = make(map[types.DataID]entry)
}

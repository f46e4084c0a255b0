package source

import (
	"github.com/cuemby/cachecore/pkg/ir"
	"github.com/cuemby/cachecore/pkg/types"
)

// Proxy is the capability-restricted handle given to user-supplied
// updater closures: create record, get/set scalar, get/set linked
// record(s), delete record, plus traversal by field name and arguments.
// It never exposes the underlying Mutator.
type Proxy struct {
	m *Mutator
}

// NewProxy wraps a Mutator in a Proxy.
func NewProxy(m *Mutator) *Proxy { return &Proxy{m: m} }

// Create creates a fresh record for id and returns a handle to it.
func (p *Proxy) Create(id types.DataID, typename string) *RecordProxy {
	p.m.CreateRecord(id, typename)
	return &RecordProxy{m: p.m, id: id}
}

// Get returns a handle to id if it is present.
func (p *Proxy) Get(id types.DataID) (*RecordProxy, bool) {
	_, status := p.m.GetStatus(id)
	if status != StatusPresent {
		return nil, false
	}
	return &RecordProxy{m: p.m, id: id}, true
}

// GetOrCreate returns the existing handle for id, creating a fresh
// record with the given typename if one is not already present.
func (p *Proxy) GetOrCreate(id types.DataID, typename string) *RecordProxy {
	if rp, ok := p.Get(id); ok {
		if typename != "" {
			if rec, _ := p.m.GetStatus(id); rec.Typename() != typename {
				p.m.writable(id).SetTypename(typename)
			}
		}
		return rp
	}
	return p.Create(id, typename)
}

// Delete writes a tombstone for id.
func (p *Proxy) Delete(id types.DataID) { p.m.DeleteRecord(id) }

// Root returns a handle to the query root record, creating it if absent.
func (p *Proxy) Root() *RecordProxy { return p.GetOrCreate(types.RootID, "") }

// PublishSource merges a raw record source directly into the proxy's
// underlying sink, as used by the `{source, fieldPayloads}` optimistic
// update variant (spec.md §4.6).
func (p *Proxy) PublishSource(src Source) { p.m.PublishInto(src) }

// RecordProxy is a handle bound to one DataID.
type RecordProxy struct {
	m  *Mutator
	id types.DataID
}

// DataID returns the bound record's identifier.
func (rp *RecordProxy) DataID() types.DataID { return rp.id }

// Typename returns the bound record's current __typename.
func (rp *RecordProxy) Typename() string {
	rec, _ := rp.m.GetStatus(rp.id)
	if rec == nil {
		return ""
	}
	return rec.Typename()
}

// GetValue reads a scalar (or raw linked) value by storage key.
func (rp *RecordProxy) GetValue(storageKey string) (types.Value, bool) {
	v, ok, err := rp.m.GetValue(rp.id, storageKey)
	if err != nil {
		return types.Value{}, false
	}
	return v, ok
}

// SetValue writes a scalar value by storage key.
func (rp *RecordProxy) SetValue(storageKey string, v any) *RecordProxy {
	_ = rp.m.SetValue(rp.id, storageKey, types.ScalarValue(v))
	return rp
}

// GetLinkedRecord follows a singular linked field.
func (rp *RecordProxy) GetLinkedRecord(storageKey string) (*RecordProxy, bool) {
	ref, ok, err := rp.m.GetLinkedRecordID(rp.id, storageKey)
	if err != nil || !ok || ref == nil {
		return nil, false
	}
	return rp.m.proxyFor(*ref), true
}

// SetLinkedRecord writes a singular linked reference to target (nil
// clears the link to an explicit null).
func (rp *RecordProxy) SetLinkedRecord(storageKey string, target *RecordProxy) *RecordProxy {
	var id *types.DataID
	if target != nil {
		tid := target.id
		id = &tid
	}
	_ = rp.m.SetLinkedRecordID(rp.id, storageKey, id)
	return rp
}

// GetLinkedRecords follows a plural linked field, preserving null holes.
func (rp *RecordProxy) GetLinkedRecords(storageKey string) ([]*RecordProxy, bool) {
	v, ok, err := rp.m.GetValue(rp.id, storageKey)
	if err != nil || !ok || v.Kind != types.KindLinkedPlural {
		return nil, false
	}
	out := make([]*RecordProxy, len(v.Refs))
	for i, ref := range v.Refs {
		if ref != nil {
			out[i] = rp.m.proxyFor(*ref)
		}
	}
	return out, true
}

// SetLinkedRecords writes a plural linked reference list; a nil element
// writes a null hole at that position.
func (rp *RecordProxy) SetLinkedRecords(storageKey string, targets []*RecordProxy) *RecordProxy {
	refs := make([]*types.DataID, len(targets))
	for i, t := range targets {
		if t != nil {
			id := t.id
			refs[i] = &id
		}
	}
	_ = rp.m.SetLinkedRecordIDs(rp.id, storageKey, refs)
	return rp
}

// Delete tombstones the bound record.
func (rp *RecordProxy) Delete() { rp.m.DeleteRecord(rp.id) }

func (m *Mutator) proxyFor(id types.DataID) *RecordProxy { return &RecordProxy{m: m, id: id} }

// SelectorProxy additionally exposes typed helpers bound to a specific
// reader selector, such as resolving the root field matching a given
// response key in that selection.
type SelectorProxy struct {
	*Proxy
	Selector ir.ReaderSelector
}

// NewSelectorProxy wraps p with typed accessors scoped to sel.
func NewSelectorProxy(p *Proxy, sel ir.ReaderSelector) *SelectorProxy {
	return &SelectorProxy{Proxy: p, Selector: sel}
}

// RootField resolves the linked-field selection in the selector's root
// selection tree whose response key matches name, and returns the
// corresponding record proxy.
func (sp *SelectorProxy) RootField(responseKey string) (*RecordProxy, bool) {
	root, ok := sp.Get(sp.Selector.DataID)
	if !ok {
		return nil, false
	}
	if sp.Selector.Node == nil {
		return nil, false
	}
	for _, sel := range sp.Selector.Node.Selections {
		if sel.Kind == ir.LinkedField && sel.ResponseKey() == responseKey {
			return root.GetLinkedRecord(sel.StorageKey())
		}
	}
	return nil, false
}

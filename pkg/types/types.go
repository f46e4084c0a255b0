package types

import (
	"fmt"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
)

// DataID is an opaque interned string identifying a normalized record.
type DataID string

const (
	// RootID is the well-known DataID of the query root record.
	RootID DataID = "client:root"
	// ViewerID is the well-known DataID of the viewer record.
	ViewerID DataID = "client:root:viewer"
)

// Reserved record keys. These are never produced by StorageKey.
const (
	KeyID       = "__id"
	KeyTypename = "__typename"
)

// ValueKind discriminates the shape of a Value.
type ValueKind int

const (
	// KindScalar holds a plain JSON scalar, or an array/object of scalars
	// that never needed normalization (e.g. a list of strings).
	KindScalar ValueKind = iota
	// KindLinked holds a single reference to another record.
	KindLinked
	// KindLinkedPlural holds an ordered, nullable list of references.
	KindLinkedPlural
)

// Value is a single field's worth of record storage: exactly one of
// scalar, linked reference, or plural linked references. Field absence is
// modeled by the key not being present in the Record at all, never by a
// zero Value.
type Value struct {
	Kind ValueKind

	// Scalar holds the JSON scalar (string/float64/bool/nil) or a raw
	// slice/map of scalars when Kind == KindScalar.
	Scalar any

	// Ref holds the linked DataID when Kind == KindLinked; nil means the
	// field resolved to an explicit null (distinct from absence, which is
	// modeled by the key missing from the Record entirely).
	Ref *DataID

	// Refs holds one entry per element when Kind == KindLinkedPlural; a nil
	// entry represents a null element (distinct from a hole created by a
	// shorter list on re-read).
	Refs []*DataID
}

// ScalarValue builds a scalar field value.
func ScalarValue(v any) Value { return Value{Kind: KindScalar, Scalar: v} }

// LinkedValue builds a singular linked-record field value.
func LinkedValue(id DataID) Value { return Value{Kind: KindLinked, Ref: &id} }

// NullLinkedValue builds a singular linked field value that resolved to
// an explicit null.
func NullLinkedValue() Value { return Value{Kind: KindLinked, Ref: nil} }

// PluralLinkedValue builds an ordered, nullable linked-record list value.
func PluralLinkedValue(ids []*DataID) Value { return Value{Kind: KindLinkedPlural, Refs: ids} }

// Equal reports whether two values represent the same field content.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindLinked:
		if (v.Ref == nil) != (o.Ref == nil) {
			return false
		}
		return v.Ref == nil || *v.Ref == *o.Ref
	case KindLinkedPlural:
		if len(v.Refs) != len(o.Refs) {
			return false
		}
		for i := range v.Refs {
			if (v.Refs[i] == nil) != (o.Refs[i] == nil) {
				return false
			}
			if v.Refs[i] != nil && *v.Refs[i] != *o.Refs[i] {
				return false
			}
		}
		return true
	default:
		return scalarEqual(v.Scalar, o.Scalar)
	}
}

func scalarEqual(a, b any) bool {
	ab, aerr := json.Marshal(a)
	bb, berr := json.Marshal(b)
	if aerr != nil || berr != nil {
		return false
	}
	return string(ab) == string(bb)
}

// Record is a mapping from storage key to field value, plus the two
// reserved attributes __id and __typename. A nil *Record is never a valid
// record value on its own; RecordSource distinguishes absent, tombstone,
// and present records (see package source).
type Record struct {
	id       DataID
	typename string
	fields   map[string]Value
}

// NewRecord creates an empty record for the given DataID.
func NewRecord(id DataID) *Record {
	return &Record{id: id, fields: make(map[string]Value)}
}

// ID returns the record's immutable DataID.
func (r *Record) ID() DataID { return r.id }

// Typename returns the record's current __typename, or "" if unset.
func (r *Record) Typename() string { return r.typename }

// SetTypename sets the record's __typename. An empty name is ignored; any
// non-empty name replaces the current one, with no check that it refines
// (rather than contradicts) the typename already set.
func (r *Record) SetTypename(name string) {
	if name == "" {
		return
	}
	r.typename = name
}

// Get returns the value stored at storageKey and whether it is present.
func (r *Record) Get(storageKey string) (Value, bool) {
	v, ok := r.fields[storageKey]
	return v, ok
}

// Set stores a value at storageKey.
func (r *Record) Set(storageKey string, v Value) {
	r.fields[storageKey] = v
}

// Has reports whether storageKey is present on the record.
func (r *Record) Has(storageKey string) bool {
	_, ok := r.fields[storageKey]
	return ok
}

// Keys returns the record's storage keys, not including __id/__typename.
func (r *Record) Keys() []string {
	keys := make([]string, 0, len(r.fields))
	for k := range r.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy of the record: the fields map is copied but
// Value contents (which are themselves immutable scalars/DataIDs) are
// shared. This is the copy made on first write within a mutator
// transaction (see package source).
func (r *Record) Clone() *Record {
	clone := &Record{id: r.id, typename: r.typename, fields: make(map[string]Value, len(r.fields))}
	for k, v := range r.fields {
		clone.fields[k] = v
	}
	return clone
}

// Merge returns a new record combining base with the fields overwritten by
// overlay, used by Store.publish's field-wise merge rule. The result
// shares the more specific __typename (overlay wins when set).
func (r *Record) Merge(overlay *Record) *Record {
	merged := r.Clone()
	if overlay.typename != "" {
		merged.SetTypename(overlay.typename)
	}
	for k, v := range overlay.fields {
		merged.fields[k] = v
	}
	return merged
}

// Equal reports whether two records hold identical field-for-field state.
func (r *Record) Equal(o *Record) bool {
	if r == o {
		return true
	}
	if r == nil || o == nil {
		return false
	}
	if r.id != o.id || r.typename != o.typename || len(r.fields) != len(o.fields) {
		return false
	}
	for k, v := range r.fields {
		ov, ok := o.fields[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// StorageKey canonicalizes a field name and its arguments into the stable
// textual key used as a Record map key: argument names are sorted
// ascending and each value is rendered through stable (sorted-key,
// whitespace-free) JSON encoding.
//
//	StorageKey("node", map[string]any{"id": "4"})        -> `node(id:"4")`
//	StorageKey("friends", map[string]any{"first": 10})   -> `friends(first:10)`
//	StorageKey("name", nil)                               -> `name`
func StorageKey(fieldName string, args map[string]any) string {
	if len(args) == 0 {
		return fieldName
	}
	names := make([]string, 0, len(args))
	for k := range args {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(fieldName)
	b.WriteByte('(')
	for i, name := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(stableJSON(args[name]))
	}
	b.WriteByte(')')
	return b.String()
}

// stableJSON renders v as JSON with map keys sorted and no whitespace.
// goccy/go-json sorts map[string]any keys by default on Marshal, matching
// the canonicalization rule required here.
func stableJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		// Arguments are always literal, compiler-provided values; a
		// marshal failure here is a programmer error in the IR, not a
		// runtime condition to recover from.
		panic(fmt.Sprintf("types: cannot canonicalize argument value %#v: %v", v, err))
	}
	return string(b)
}

// ClientID synthesizes a stable positional client DataID for a linked
// field whose child the response did not identify, of the form
// "parent:storageKey".
func ClientID(parent DataID, storageKey string) DataID {
	return DataID(string(parent) + ":" + storageKey)
}

// ClientListID synthesizes a stable positional client DataID for the i'th
// element of a plural linked field, of the form "parent:storageKey:i".
func ClientListID(parent DataID, storageKey string, i int) DataID {
	return DataID(fmt.Sprintf("%s:%s:%d", parent, storageKey, i))
}

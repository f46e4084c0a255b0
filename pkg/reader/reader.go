package reader

import (
	"context"

	"github.com/google/go-cmp/cmp"

	"github.com/cuemby/cachecore/pkg/ir"
	"github.com/cuemby/cachecore/pkg/source"
	"github.com/cuemby/cachecore/pkg/types"
)

// Options configures one Read call.
type Options struct {
	Loader ir.OperationLoader
	// Owner identifies the operation this read is performed on behalf of,
	// stamped onto every fragment/module pointer object the read
	// assembles (spec.md §4.3's __fragmentOwner).
	Owner *ir.OperationDescriptor
}

// Snapshot is the result of reading a selector against a RecordSource.
type Snapshot struct {
	// Data mirrors the response JSON shape described by the selector.
	Data map[string]any
	// IsMissingData is true if any selected field was absent on its
	// record, or any selected record was not present at all.
	IsMissingData bool
	// SeenRecords lists every DataID this read traversed, in traversal
	// order, for the caller to retain or inspect.
	SeenRecords []types.DataID
	// Owner is the operation this snapshot was read on behalf of, carried
	// over from Options.Owner.
	Owner *ir.OperationDescriptor
}

// Read projects src through sel into a Snapshot. prev, if non-nil, is the
// previous Snapshot for the same selector: unchanged subtrees are reused
// from prev.Data by pointer so callers can skip re-rendering them.
//
// The root DataID's status drives the missing-root policy: an absent (or
// unpublished) root yields IsMissingData true with no Data, while a
// tombstoned root yields Data == nil with IsMissingData false, since a
// tombstone is an explicit "this is null now," not a gap waiting to be
// filled (spec.md §4.3).
func Read(ctx context.Context, src source.Source, sel ir.ReaderSelector, prev *Snapshot, opts Options) *Snapshot {
	r := &reader{ctx: ctx, src: src, variables: sel.Variables, opts: opts, owner: opts.Owner}

	var prevData map[string]any
	if prev != nil {
		prevData = prev.Data
	}

	rec, status := src.Get(sel.DataID)
	r.seen = append(r.seen, sel.DataID)

	switch status {
	case source.StatusTombstone:
		return &Snapshot{IsMissingData: false, SeenRecords: r.seen, Owner: r.owner}
	case source.StatusPresent:
		// fall through to the selection walk below
	default: // StatusAbsent, StatusUnpublish
		return &Snapshot{IsMissingData: true, SeenRecords: r.seen, Owner: r.owner}
	}

	var selections []*ir.Node
	if sel.Node != nil {
		selections = sel.Node.Selections
	}
	data, missing := r.readSelections(selections, rec, prevData)
	return &Snapshot{Data: data, IsMissingData: missing, SeenRecords: r.seen, Owner: r.owner}
}

type reader struct {
	ctx       context.Context
	src       source.Source
	variables map[string]any
	opts      Options
	owner     *ir.OperationDescriptor
	seen      []types.DataID
}

// operationDescriptorComparer lets cmp.Equal walk into data maps carrying
// an *ir.OperationDescriptor (stamped on fragment/module pointer objects)
// without tripping over its unexported token field; two descriptors are
// equal for recycling purposes iff they share the same identity token.
var operationDescriptorComparer = cmp.Comparer(func(a, b *ir.OperationDescriptor) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Token() == b.Token()
})

func prevChild(prev map[string]any, key string) map[string]any {
	if prev == nil {
		return nil
	}
	m, _ := prev[key].(map[string]any)
	return m
}

func (r *reader) readSelections(selections []*ir.Node, rec *types.Record, prev map[string]any) (map[string]any, bool) {
	data := make(map[string]any)
	missing := false
	if rec.Typename() != "" {
		data[types.KeyTypename] = rec.Typename()
	}

	for _, s := range selections {
		if r.readSelection(s, rec, data, prev) {
			missing = true
		}
	}

	if prev != nil && cmp.Equal(data, prev, operationDescriptorComparer) {
		return prev, missing
	}
	return data, missing
}

// readSelection writes into data and returns true if it found missing data.
func (r *reader) readSelection(s *ir.Node, rec *types.Record, data map[string]any, prev map[string]any) bool {
	switch s.Kind {
	case ir.Condition:
		if evalCondition(r.variables, s.ConditionVariable) == s.IncludeWhen {
			missing := false
			for _, child := range s.Selections {
				if r.readSelection(child, rec, data, prev) {
					missing = true
				}
			}
			return missing
		}
		return false

	case ir.InlineFragment:
		if s.TypeCondition != "" && s.TypeCondition != rec.Typename() {
			return false
		}
		missing := false
		for _, child := range s.Selections {
			if r.readSelection(child, rec, data, prev) {
				missing = true
			}
		}
		return missing

	case ir.FragmentSpread:
		if s.Inline {
			missing := false
			for _, child := range s.Selections {
				if r.readSelection(child, rec, data, prev) {
					missing = true
				}
			}
			return missing
		}
		data[types.KeyID] = rec.ID()
		frags, _ := data["__fragments"].(map[string]any)
		if frags == nil {
			frags = make(map[string]any)
		}
		frags[s.FragmentName] = s.FragmentArgs
		data["__fragments"] = frags
		data["__fragmentOwner"] = r.owner
		return false

	case ir.ScalarField:
		v, ok := rec.Get(s.StorageKey())
		if !ok {
			return true
		}
		data[s.ResponseKey()] = v.Scalar
		return false

	case ir.ClientExtension:
		v, ok := rec.Get(s.HandleKey())
		if !ok {
			v, ok = rec.Get(s.StorageKey())
		}
		if !ok {
			return true
		}
		data[s.ResponseKey()] = v.Scalar
		return false

	case ir.LinkedField:
		return r.readLinkedField(s, rec, data, prev)

	case ir.Match:
		return r.readMatch(s, rec, data, prev)

	default:
		return true
	}
}

func (r *reader) readLinkedField(s *ir.Node, rec *types.Record, data map[string]any, prev map[string]any) bool {
	v, ok := rec.Get(s.StorageKey())
	if !ok {
		return true
	}
	key := s.ResponseKey()

	if s.Plural {
		if v.Refs == nil {
			data[key] = nil
			return false
		}
		list := make([]any, len(v.Refs))
		missing := false
		prevList, _ := prev[key].([]any)
		for i, ref := range v.Refs {
			if ref == nil {
				list[i] = nil
				continue
			}
			childRec, status := r.src.Get(*ref)
			if status != source.StatusPresent {
				missing = true
				continue
			}
			r.seen = append(r.seen, *ref)
			var prevChildData map[string]any
			if i < len(prevList) {
				prevChildData, _ = prevList[i].(map[string]any)
			}
			childData, childMissing := r.readSelections(s.Selections, childRec, prevChildData)
			list[i] = childData
			if childMissing {
				missing = true
			}
		}
		data[key] = list
		return missing
	}

	if v.Ref == nil {
		data[key] = nil
		return false
	}
	childRec, status := r.src.Get(*v.Ref)
	if status != source.StatusPresent {
		return true
	}
	r.seen = append(r.seen, *v.Ref)
	childData, missing := r.readSelections(s.Selections, childRec, prevChild(prev, key))
	data[key] = childData
	return missing
}

// readMatch selects the branch whose TypeCondition matches the linked
// record's __typename and reads it; a branch whose Selections are not yet
// loaded is reported as missing data rather than an error, since the
// caller may resolve it via opts.Loader on a subsequent attempt. A record
// whose __typename matches none of the compiled branches is not missing
// data at all: spec.md §8 scenario 4 requires it read as an empty object,
// since no branch was ever meant to apply to it.
func (r *reader) readMatch(s *ir.Node, rec *types.Record, data map[string]any, prev map[string]any) bool {
	v, ok := rec.Get(s.StorageKey())
	if !ok {
		return true
	}
	key := s.ResponseKey()
	if v.Ref == nil {
		data[key] = nil
		return false
	}
	childRec, status := r.src.Get(*v.Ref)
	if status != source.StatusPresent {
		return true
	}
	r.seen = append(r.seen, *v.Ref)

	for i := range s.MatchBranches {
		branch := &s.MatchBranches[i]
		if branch.TypeCondition != childRec.Typename() {
			continue
		}
		if branch.Selections == nil && r.opts.Loader != nil {
			loaded, err := r.opts.Loader.Load(r.ctx, branch.NormalizationOperation)
			if err == nil && loaded != nil {
				branch.Selections = loaded.Selections
			}
		}
		if branch.Selections == nil {
			return true
		}
		childData, missing := r.readSelections(branch.Selections, childRec, prevChild(prev, key))
		r.attachModulePointer(childRec, childData)
		data[key] = childData
		return missing
	}

	data[key] = map[string]any{}
	return false
}

// attachModulePointer copies the @module bookkeeping fields normalize
// wrote onto the matched child record (see normalize.go's walkMatch) plus
// this read's owner, so an external component loader can resolve which
// component renders this branch (spec.md §6 "Module directives").
func (r *reader) attachModulePointer(childRec *types.Record, childData map[string]any) {
	if v, ok := childRec.Get("__module_component"); ok {
		childData["__module_component"] = v.Scalar
	}
	if v, ok := childRec.Get("__fragmentPropName"); ok {
		childData["__fragmentPropName"] = v.Scalar
	}
	childData["__fragmentOwner"] = r.owner
}

func evalCondition(variables map[string]any, name string) bool {
	v, ok := variables[name]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

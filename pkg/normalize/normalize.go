package normalize

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cuemby/cachecore/pkg/ir"
	"github.com/cuemby/cachecore/pkg/source"
	"github.com/cuemby/cachecore/pkg/types"
)

// GetDataIDFunc computes the DataID for a linked record given its raw
// response object, the parent's __typename, the field name, and its
// resolved arguments. Returning ok=false falls back to the default
// policy (response-provided "id", else a synthesized client id).
type GetDataIDFunc func(response map[string]any, parentTypename, fieldName string, args map[string]any) (id types.DataID, ok bool)

// HandleFieldPayload is emitted for every @__clientField(handle:) selection
// encountered; the publish pipeline runs it through the handle registry
// after normalization writes land (spec.md §4.2 step 9).
type HandleFieldPayload struct {
	DataID    types.DataID
	FieldKey  string
	HandleKey string
	Handle    string
	Args      map[string]any
	Filters   []string
}

// Options configures one Normalize call.
type Options struct {
	GetDataID GetDataIDFunc
	Loader    ir.OperationLoader
}

type normalizer struct {
	sink    source.MutableSource
	opts    Options
	handles []HandleFieldPayload
}

// Normalize walks sel.Node's selections against data (the JSON object
// rooted at sel.DataID) and writes normalized records into sink. It
// returns the handle field payloads collected along the way.
func Normalize(ctx context.Context, sel ir.NormalizationSelector, data map[string]any, sink source.MutableSource, opts Options) ([]HandleFieldPayload, error) {
	n := &normalizer{sink: sink, opts: opts}
	if sel.Node == nil {
		return nil, nil
	}
	typename := typenameOf(data)
	if err := n.walkSelections(ctx, sel.Node.Selections, sel.DataID, typename, data, sel.Variables); err != nil {
		return nil, err
	}
	return n.handles, nil
}

func (n *normalizer) getOrCreate(id types.DataID, typename string) *types.Record {
	rec, status := n.sink.Get(id)
	if status == source.StatusPresent {
		if typename != "" {
			rec.SetTypename(typename)
		}
		return rec
	}
	rec = types.NewRecord(id)
	rec.SetTypename(typename)
	n.sink.Set(id, rec)
	return rec
}

func typenameOf(data map[string]any) string {
	if data == nil {
		return ""
	}
	if v, ok := data[types.KeyTypename]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func evalCondition(variables map[string]any, name string) bool {
	v, ok := variables[name]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

func (n *normalizer) walkSelections(ctx context.Context, selections []*ir.Node, parentID types.DataID, parentTypename string, data map[string]any, variables map[string]any) error {
	needsTypename := false
	for _, s := range selections {
		if s.Kind == ir.InlineFragment && s.TypeCondition != "" {
			needsTypename = true
		}
	}
	if needsTypename && data != nil && typenameOf(data) == "" {
		return fmt.Errorf("normalize: record at %q requires __typename for abstract-type narrowing but the response omitted it", parentID)
	}

	for _, s := range selections {
		if err := n.walkSelection(ctx, s, parentID, parentTypename, data, variables); err != nil {
			return err
		}
	}
	return nil
}

func (n *normalizer) walkSelection(ctx context.Context, s *ir.Node, parentID types.DataID, parentTypename string, data map[string]any, variables map[string]any) error {
	switch s.Kind {
	case ir.Condition:
		if evalCondition(variables, s.ConditionVariable) == s.IncludeWhen {
			return n.walkSelections(ctx, s.Selections, parentID, parentTypename, data, variables)
		}
		return nil

	case ir.InlineFragment:
		if s.TypeCondition != "" && s.TypeCondition != parentTypename {
			return nil
		}
		return n.walkSelections(ctx, s.Selections, parentID, parentTypename, data, variables)

	case ir.FragmentSpread:
		// The compiler inlines ordinary spreads ahead of time; by the time
		// one reaches the normalizer it behaves like an unconditioned
		// inline fragment over the same parent object.
		return n.walkSelections(ctx, s.Selections, parentID, parentTypename, data, variables)

	case ir.ScalarField:
		raw, present := data[s.ResponseKey()]
		if !present {
			return nil
		}
		n.getOrCreate(parentID, "").Set(s.StorageKey(), types.ScalarValue(raw))
		return nil

	case ir.ClientExtension:
		raw, present := data[s.ResponseKey()]
		if !present {
			return nil
		}
		n.getOrCreate(parentID, "").Set(s.StorageKey(), types.ScalarValue(raw))
		n.handles = append(n.handles, HandleFieldPayload{
			DataID:    parentID,
			FieldKey:  s.StorageKey(),
			HandleKey: s.HandleKey(),
			Handle:    s.Handle,
			Args:      s.Args,
			Filters:   s.HandleFilters,
		})
		return nil

	case ir.LinkedField:
		return n.walkLinkedField(ctx, s, parentID, parentTypename, data, variables)

	case ir.Match:
		return n.walkMatch(ctx, s, parentID, data, variables)

	default:
		return fmt.Errorf("normalize: unsupported selection kind %v", s.Kind)
	}
}

func (n *normalizer) walkLinkedField(ctx context.Context, s *ir.Node, parentID types.DataID, parentTypename string, data map[string]any, variables map[string]any) error {
	raw, present := data[s.ResponseKey()]
	if !present {
		return nil
	}
	storageKey := s.StorageKey()
	rec := n.getOrCreate(parentID, "")

	if s.Plural {
		if raw == nil {
			rec.Set(storageKey, types.PluralLinkedValue(nil))
			return nil
		}
		arr, ok := raw.([]any)
		if !ok {
			return fmt.Errorf("normalize: field %q expected a list, got %T", s.ResponseKey(), raw)
		}
		refs := make([]*types.DataID, len(arr))
		for i, el := range arr {
			if el == nil {
				continue
			}
			elData, ok := el.(map[string]any)
			if !ok {
				return fmt.Errorf("normalize: field %q element %d expected an object, got %T", s.ResponseKey(), i, el)
			}
			childID := n.resolveDataID(elData, parentID, parentTypename, s, i, true)
			n.getOrCreate(childID, typenameOf(elData))
			refs[i] = &childID
			if err := n.walkSelections(ctx, s.Selections, childID, typenameOf(elData), elData, variables); err != nil {
				return err
			}
		}
		rec.Set(storageKey, types.PluralLinkedValue(refs))
		return nil
	}

	if raw == nil {
		rec.Set(storageKey, types.NullLinkedValue())
		return nil
	}
	childData, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("normalize: field %q expected an object, got %T", s.ResponseKey(), raw)
	}
	childID := n.resolveDataID(childData, parentID, parentTypename, s, 0, false)
	rec.Set(storageKey, types.LinkedValue(childID))
	n.getOrCreate(childID, typenameOf(childData))
	return n.walkSelections(ctx, s.Selections, childID, typenameOf(childData), childData, variables)
}

// walkMatch handles an @match linked field: the branch is selected by the
// child's resolved __typename, matching one of s.MatchBranches. Module
// bookkeeping fields are written on the child record for external
// component loaders to consume; an unresolved branch still creates the
// child record (with its __typename) but writes no further fields.
func (n *normalizer) walkMatch(ctx context.Context, s *ir.Node, parentID types.DataID, data map[string]any, variables map[string]any) error {
	raw, present := data[s.ResponseKey()]
	if !present {
		return nil
	}
	storageKey := s.StorageKey()
	rec := n.getOrCreate(parentID, "")
	if raw == nil {
		rec.Set(storageKey, types.NullLinkedValue())
		return nil
	}
	childData, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("normalize: match field %q expected an object, got %T", s.ResponseKey(), raw)
	}
	childTypename := typenameOf(childData)
	childID := n.resolveDataID(childData, parentID, "", s, 0, false)
	rec.Set(storageKey, types.LinkedValue(childID))
	child := n.getOrCreate(childID, childTypename)

	for prefix, v := range childData {
		const componentPrefix = "__module_component_"
		if len(prefix) > len(componentPrefix) && prefix[:len(componentPrefix)] == componentPrefix {
			if comp, ok := v.(string); ok {
				child.Set("__module_component", types.ScalarValue(comp))
				child.Set("__fragmentPropName", types.ScalarValue(s.ResponseKey()))
			}
		}
	}

	for i := range s.MatchBranches {
		branch := &s.MatchBranches[i]
		if branch.TypeCondition != childTypename {
			continue
		}
		if branch.Selections == nil && n.opts.Loader != nil {
			loaded, err := n.opts.Loader.Load(ctx, branch.NormalizationOperation)
			if err != nil {
				return fmt.Errorf("normalize: loading @match branch %q: %w", branch.FragmentName, err)
			}
			branch.Selections = loaded.Selections
		}
		if branch.Selections != nil {
			return n.walkSelections(ctx, branch.Selections, childID, childTypename, childData, variables)
		}
	}
	return nil
}

func (n *normalizer) resolveDataID(data map[string]any, parentID types.DataID, parentTypename string, s *ir.Node, index int, plural bool) types.DataID {
	if n.opts.GetDataID != nil {
		if id, ok := n.opts.GetDataID(data, parentTypename, s.FieldName, s.Args); ok {
			return id
		}
	}
	if raw, ok := data["id"]; ok {
		switch v := raw.(type) {
		case string:
			if v != "" {
				return types.DataID(v)
			}
		case float64:
			return types.DataID(strconv.FormatFloat(v, 'f', -1, 64))
		}
	}
	storageKey := s.StorageKey()
	if plural {
		return types.ClientListID(parentID, storageKey, index)
	}
	return types.ClientID(parentID, storageKey)
}

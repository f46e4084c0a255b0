package refmark

import (
	"context"

	"github.com/cuemby/cachecore/pkg/ir"
	"github.com/cuemby/cachecore/pkg/source"
	"github.com/cuemby/cachecore/pkg/types"
)

// Options configures a marker or checker walk.
type Options struct {
	Loader ir.OperationLoader
}

// Mark walks sel against src and returns every DataID reachable from
// sel.DataID, sel.DataID included. An unreachable (non-present) record
// along the way simply terminates that branch; it contributes no error,
// since a dangling reference is exactly what GC exists to clean up.
func Mark(ctx context.Context, src source.Source, sel ir.NormalizationSelector, opts Options) map[types.DataID]bool {
	m := &marker{ctx: ctx, src: src, variables: sel.Variables, opts: opts, seen: make(map[types.DataID]bool)}
	if rec, status := src.Get(sel.DataID); status == source.StatusPresent {
		m.seen[sel.DataID] = true
		if sel.Node != nil {
			m.walk(sel.Node.Selections, rec)
		}
	}
	return m.seen
}

type marker struct {
	ctx       context.Context
	src       source.Source
	variables map[string]any
	opts      Options
	seen      map[types.DataID]bool
}

func (m *marker) walk(selections []*ir.Node, rec *types.Record) {
	for _, s := range selections {
		m.walkOne(s, rec)
	}
}

func (m *marker) walkOne(s *ir.Node, rec *types.Record) {
	switch s.Kind {
	case ir.Condition:
		if evalCondition(m.variables, s.ConditionVariable) == s.IncludeWhen {
			m.walk(s.Selections, rec)
		}
	case ir.InlineFragment:
		if s.TypeCondition == "" || s.TypeCondition == rec.Typename() {
			m.walk(s.Selections, rec)
		}
	case ir.FragmentSpread:
		m.walk(s.Selections, rec)
	case ir.LinkedField:
		m.markLinked(s, rec)
	case ir.Match:
		m.markMatch(s, rec)
	}
}

func (m *marker) markChild(id types.DataID, selections []*ir.Node) {
	if m.seen[id] {
		return
	}
	rec, status := m.src.Get(id)
	if status != source.StatusPresent {
		return
	}
	m.seen[id] = true
	m.walk(selections, rec)
}

func (m *marker) markLinked(s *ir.Node, rec *types.Record) {
	v, ok := rec.Get(s.StorageKey())
	if !ok {
		return
	}
	if s.Plural {
		for _, ref := range v.Refs {
			if ref != nil {
				m.markChild(*ref, s.Selections)
			}
		}
		return
	}
	if v.Ref != nil {
		m.markChild(*v.Ref, s.Selections)
	}
}

func (m *marker) markMatch(s *ir.Node, rec *types.Record) {
	v, ok := rec.Get(s.StorageKey())
	if !ok || v.Ref == nil {
		return
	}
	childRec, status := m.src.Get(*v.Ref)
	if status != source.StatusPresent {
		return
	}
	m.seen[*v.Ref] = true
	for i := range s.MatchBranches {
		branch := &s.MatchBranches[i]
		if branch.TypeCondition != childRec.Typename() {
			continue
		}
		if branch.Selections == nil && m.opts.Loader != nil {
			if loaded, err := m.opts.Loader.Load(m.ctx, branch.NormalizationOperation); err == nil && loaded != nil {
				branch.Selections = loaded.Selections
			}
		}
		m.walk(branch.Selections, childRec)
		return
	}
}

// DataAvailable reports whether every field sel selects is present on its
// record, without materializing any of it. It is the cheap pre-check a
// store uses to decide whether a read can be served locally.
func DataAvailable(src source.Source, sel ir.ReaderSelector) bool {
	c := &checker{src: src, variables: sel.Variables}
	rec, status := src.Get(sel.DataID)
	if status != source.StatusPresent {
		return false
	}
	if sel.Node == nil {
		return true
	}
	return c.check(sel.Node.Selections, rec)
}

type checker struct {
	src       source.Source
	variables map[string]any
}

func (c *checker) check(selections []*ir.Node, rec *types.Record) bool {
	for _, s := range selections {
		if !c.checkOne(s, rec) {
			return false
		}
	}
	return true
}

func (c *checker) checkOne(s *ir.Node, rec *types.Record) bool {
	switch s.Kind {
	case ir.Condition:
		if evalCondition(c.variables, s.ConditionVariable) != s.IncludeWhen {
			return true
		}
		return c.check(s.Selections, rec)

	case ir.InlineFragment:
		if s.TypeCondition != "" && s.TypeCondition != rec.Typename() {
			return true
		}
		return c.check(s.Selections, rec)

	case ir.FragmentSpread:
		return c.check(s.Selections, rec)

	case ir.ScalarField, ir.ClientExtension:
		_, ok := rec.Get(s.StorageKey())
		return ok

	case ir.LinkedField:
		return c.checkLinked(s, rec)

	case ir.Match:
		return c.checkMatch(s, rec)

	default:
		return false
	}
}

func (c *checker) checkLinked(s *ir.Node, rec *types.Record) bool {
	v, ok := rec.Get(s.StorageKey())
	if !ok {
		return false
	}
	if s.Plural {
		for _, ref := range v.Refs {
			if ref == nil {
				continue
			}
			childRec, status := c.src.Get(*ref)
			if status != source.StatusPresent || !c.check(s.Selections, childRec) {
				return false
			}
		}
		return true
	}
	if v.Ref == nil {
		return true
	}
	childRec, status := c.src.Get(*v.Ref)
	if status != source.StatusPresent {
		return false
	}
	return c.check(s.Selections, childRec)
}

func (c *checker) checkMatch(s *ir.Node, rec *types.Record) bool {
	v, ok := rec.Get(s.StorageKey())
	if !ok {
		return false
	}
	if v.Ref == nil {
		return true
	}
	childRec, status := c.src.Get(*v.Ref)
	if status != source.StatusPresent {
		return false
	}
	for i := range s.MatchBranches {
		branch := &s.MatchBranches[i]
		if branch.TypeCondition != childRec.Typename() {
			continue
		}
		if branch.Selections == nil {
			return false
		}
		return c.check(branch.Selections, childRec)
	}
	// No branch applies to this __typename, so nothing is selected below it.
	return true
}

func evalCondition(variables map[string]any, name string) bool {
	v, ok := variables[name]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

package ir

import (
	"context"
	"fmt"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/cuemby/cachecore/pkg/types"
)

// NodeKind discriminates the shape of a compiled selection node.
type NodeKind int

const (
	// ScalarField reads a single leaf value.
	ScalarField NodeKind = iota
	// LinkedField follows a singular or plural reference.
	LinkedField
	// InlineFragment narrows by __typename without runtime indirection.
	InlineFragment
	// FragmentSpread emits a fragment pointer at read time (reader form
	// only); it never appears in a normalization selection because the
	// compiler inlines ordinary spreads ahead of time.
	FragmentSpread
	// Condition evaluates @include/@skip against a boolean variable.
	Condition
	// Match models @match + per-branch @module(name:) on a linked field.
	Match
	// ClientExtension models @__clientField(handle, key, filters).
	ClientExtension
)

// MatchBranch is one @module(name:) arm of a Match node.
type MatchBranch struct {
	// TypeCondition is the concrete __typename this branch matches.
	TypeCondition string
	// FragmentName is the fragment spread under this branch.
	FragmentName string
	// ComponentModule is the module/component name carried in the
	// @module(name:) directive.
	ComponentModule string
	// NormalizationOperation is the identifier of the normalization
	// fragment an OperationLoader resolves for this branch.
	NormalizationOperation string
	// Selections is the branch's own subselection, present once the
	// normalization fragment has been loaded and inlined.
	Selections []*Node
}

// Node is one compiled selection, reused for both reader and
// normalization selector trees; a given tree only populates the fields
// relevant to its kind.
type Node struct {
	Kind NodeKind

	// FieldName is the GraphQL field name; Alias is the response key
	// (equal to FieldName when the field is not aliased).
	FieldName string
	Alias     string
	Args      map[string]any
	Plural    bool

	// Selections are child selections for LinkedField, InlineFragment,
	// Condition, and the @inline form of FragmentSpread.
	Selections []*Node

	// InlineFragment fields.
	TypeCondition string

	// FragmentSpread fields.
	FragmentName string
	FragmentArgs map[string]any
	Inline       bool // true for @inline: data is embedded, not pointed to

	// Condition fields.
	ConditionVariable string
	IncludeWhen       bool // the boolean value of ConditionVariable that means "include this selection"

	// Match fields.
	MatchBranches []MatchBranch

	// ClientExtension fields.
	Handle        string
	HandleKeyName string // the `key` argument of @__clientField, may be ""
	HandleFilters []string
}

// StorageKey returns the canonicalized storage key for this field
// selection. It is recomputed from FieldName and Args on every call.
func (n *Node) StorageKey() string {
	return types.StorageKey(n.FieldName, n.Args)
}

// ResponseKey returns the key this selection reads from a JSON response
// object: the alias if aliased, else the field name.
func (n *Node) ResponseKey() string {
	if n.Alias != "" {
		return n.Alias
	}
	return n.FieldName
}

// HandleKey returns the derived storage key a registered handle writes
// its computed value to: the field's storage key, with any listed filter
// arguments removed, further combined with the handle name and optional
// key argument.
func (n *Node) HandleKey() string {
	args := make(map[string]any, len(n.Args))
	filtered := make(map[string]bool, len(n.HandleFilters))
	for _, f := range n.HandleFilters {
		filtered[f] = true
	}
	for k, v := range n.Args {
		if !filtered[k] {
			args[k] = v
		}
	}
	base := types.StorageKey(n.FieldName, args)
	suffix := "_" + n.Handle
	if n.HandleKeyName != "" {
		suffix += "_" + n.HandleKeyName
	}
	return "__" + base + suffix
}

// Request stands in for a compiled query/mutation/subscription document.
// Equality of two Requests is identity equality on ID.
type Request struct {
	ID   string
	Text string
}

// OperationDescriptor bundles a compiled request, concrete variables, and
// the root reader/normalization selections for one operation instance.
type OperationDescriptor struct {
	Request                *Request
	Variables              map[string]any
	RootDataID             types.DataID
	ReaderSelection        *Node
	NormalizationSelection *Node

	// token is a process-unique identity for this descriptor instance,
	// used by the store to key retained roots and subscriptions without
	// requiring OperationDescriptor to be comparable with ==.
	token string
}

// NewOperationDescriptor builds an OperationDescriptor, minting a fresh
// identity token.
func NewOperationDescriptor(req *Request, variables map[string]any, root types.DataID, readerSel, normSel *Node) *OperationDescriptor {
	return &OperationDescriptor{
		Request:                req,
		Variables:              variables,
		RootDataID:             root,
		ReaderSelection:        readerSel,
		NormalizationSelection: normSel,
		token:                  uuid.NewString(),
	}
}

// Token returns the descriptor's process-unique identity.
func (op *OperationDescriptor) Token() string { return op.token }

// CacheKey returns a structural identity over (request identity,
// variables), stable regardless of variable insertion order.
func (op *OperationDescriptor) CacheKey() string {
	names := make([]string, 0, len(op.Variables))
	for k := range op.Variables {
		names = append(names, k)
	}
	sort.Strings(names)
	var b strings.Builder
	b.WriteString(op.Request.ID)
	b.WriteByte(':')
	for i, name := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		v, _ := json.Marshal(op.Variables[name])
		fmt.Fprintf(&b, "%s=%s", name, v)
	}
	return b.String()
}

// ReaderSelector drives the Reader: the shape to extract, rooted at a
// DataID, under a set of concrete variables.
type ReaderSelector struct {
	Node      *Node
	DataID    types.DataID
	Variables map[string]any
}

// NormalizationSelector drives the Normalizer, ReferenceMarker, and
// DataChecker: how to interpret and walk a response or source.
type NormalizationSelector struct {
	Node      *Node
	DataID    types.DataID
	Variables map[string]any
}

// OperationLoader asynchronously resolves the normalization fragment
// referenced by a Match branch's NormalizationOperation identifier, for
// @match/@module support. It is an external collaborator (spec.md §1);
// the core runtime only calls it and waits for its result.
type OperationLoader interface {
	Load(ctx context.Context, normalizationOperation string) (*Node, error)
}

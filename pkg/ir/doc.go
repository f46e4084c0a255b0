/*
Package ir holds the compiled, immutable selection-tree descriptors that
the rest of the runtime consumes but never constructs: reader selections
(what Reader materializes), normalization selections (what Normalizer,
ReferenceMarker, and DataChecker walk), and the OperationDescriptor that
ties a compiled request to concrete variables and its two root
selections.

Compilation itself — turning GraphQL query/fragment text into these trees
— is out of scope (spec.md §1): descriptors arrive here fully built, the
way a compiled .graphql.go file would in the reference ecosystem.

# Selection kinds

	┌─────────────────── SELECTION TREE (either form) ───────────────┐
	│                                                                  │
	│  ScalarField        "name"                                      │
	│  LinkedField        "friends(first:10)" -> []Selection          │
	│  InlineFragment     type condition -> []Selection               │
	│  FragmentSpread     fragment name + argument bindings           │
	│                     (Inline set for an @inline fragment)        │
	│  Condition          @include/@skip -> []Selection               │
	│  Match               @match branches, keyed by __typename       │
	│  ClientExtension     @__clientField(handle, key, filters)       │
	└──────────────────────────────────────────────────────────────────┘

In reader selections, FragmentSpread and Match nodes produce fragment and
module pointers at read time. The normalizer accepts both kinds as well:
it walks a FragmentSpread's selections like an unconditioned inline
fragment, and picks the Match branch whose TypeCondition equals the
child's __typename. A branch whose Selections are still nil is loaded
through an OperationLoader, and the loaded selections are stored on that
MatchBranch in place, so later walks reuse them.
*/
package ir

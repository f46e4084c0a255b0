/*
Package types defines the normalized record model shared by every layer of
the cache runtime: the opaque DataID, the Record value type, and the
canonicalization rules that turn a field name plus its arguments into a
stable storage key.

# Architecture

	┌─────────────────────── RECORD MODEL ──────────────────────┐
	│                                                             │
	│  DataID (string)                                           │
	│    "4"                 — server-identified record          │
	│    "4:friends"         — client-synthesized, parent:key    │
	│                                                             │
	│  Record (map[string]Value)                                 │
	│    __id:        DataID                                     │
	│    __typename:  "User"                                     │
	│    "name":      Scalar("zuck")                             │
	│    "friends(first:10)": Linked(DataID) | LinkedList([]DataID)│
	│                                                             │
	│  Sentinel                                                  │
	│    Tombstone — "this id was explicitly deleted"            │
	│    (a source's Status tells a tombstone from an absent id) │
	└─────────────────────────────────────────────────────────────┘

A storage key canonicalizes a field's arguments so that two reads of the
same field with the same arguments (regardless of argument order) land on
the same map entry: argument names are sorted ascending and each value is
rendered through stable JSON encoding.

# Field Values

A field value is exactly one of: scalar (string, float64, bool, nil),
a singular linked reference, a plural (ordered, nullable) linked
reference list, or absent (the key does not exist in the map at all).
Absence is distinct from an explicit nil scalar.
*/
package types

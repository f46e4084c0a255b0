/*
Package refmark walks selector trees over a RecordSource without
materializing response data, for the two bookkeeping passes that do not
need it: marking which DataIDs are reachable (the mark half of mark-sweep
GC) and checking whether a selector's data is fully available (deciding
whether a read can be satisfied from cache or must go to the network).

Both walkers share the same field-selection dispatch as package reader
and package normalize, because "which records does this selection touch"
and "does this selection have all its data" are the same tree walk as
"project this selection into a response", just discarding the payload.
*/
package refmark

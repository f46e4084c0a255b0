/*
Package reader projects a RecordSource back into the plain JSON-shaped
tree a reader selector describes, the inverse of package normalize.

    RecordSource  --Read(selector)-->  Snapshot{Data, IsMissingData}

A read never errors on missing data: a linked field whose record was
garbage collected, or a scalar never fetched, simply contributes nothing
to Data and flips IsMissingData, the same way a normalized write leaves
an unfetched field absent rather than null.

Re-reading after a publish reuses the previous Snapshot's subtrees
wherever the underlying records did not change, so two reads of the same
selector produce pointer-identical results for any branch untouched by
the write in between. This is the identity-recycling property consumers
rely on to skip re-rendering unchanged subtrees; it is implemented by
structurally diffing the new tree against the previous one with
go-cmp rather than tracking per-field dirty bits.
*/
package reader

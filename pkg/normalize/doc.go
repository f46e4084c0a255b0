/*
Package normalize turns a GraphQL response payload into record writes
against a sink RecordSource, dispatching on selection kind the same way
the reference FSM dispatches a Raft log entry on its command opcode: one
entry point, one switch, one handler per kind, recursing into child
selections for linked fields.

Server omissions are absent, never null: a key missing from the response
is left unwritten on the record, while an explicit JSON null is written
as a null scalar or a null linked reference. This distinction is what
lets Reader later tell "never fetched" apart from "fetched and empty".

@defer/@stream require no special casing here: the initial payload simply
leaves the deferred fields absent (Reader reports isMissingData for that
branch), and the follow-up incremental payload is an ordinary second call
to Normalize against the same DataID; Store.publish's field-wise merge
fills the branch in when that second sink is published.
*/
package normalize

/*
Package publishqueue batches writes against a store.Store into discrete,
ordered runs, and layers optimistic updates on top of authoritative data
so the two can coexist and be told apart on undo.

# Why a queue in front of the store

Store.Publish and Store.Restore are the only ways canonical records
change, but a single GraphQL interaction typically produces several kinds
of write in one tick: the normalized payload from a network response, a
handful of client-side updater closures, and zero or more optimistic
updates still waiting on their server round trip. Applying each of those
the moment it arrives would let a client updater observe half-normalized
data, or leave an optimistic update's guess on the screen after its
payload already landed. PublishQueue collects pending writes and commits
them together in Run, in a fixed order:

	1. Undo        - revert the previous run's optimistic layer using its backup
	2. Authoritative - merge every pending normalized payload, running its
	                    handle-field payloads through the handle registry
	3. Updaters    - run every pending client updater closure against current state
	4. Optimistic  - reapply every currently-applied optimistic update, in
	                  the order it was applied, onto a single shared sink,
	                  capturing a fresh backup for the next run's undo
	5. GC hold     - record whether an optimistic layer is still active
	6. Notify      - call Store.Notify once, against every DataID touched by
	                 steps 1-4 combined, and return the owners whose
	                 subscriptions fired

Store.Publish and Store.Restore only merge; they never notify on their
own. If each step above notified as it landed, a subscriber touching both
the undone optimistic layer and the rebased one would see the store's
transient mid-run state, not just its end state. Run instead accumulates
the touched DataIDs across all four steps and calls Notify exactly once,
after step 5, so every subscriber callback sees a snapshot consistent
with the fully-landed result of that Run.

Steps 1 and 4 are what let an optimistic update act like a transaction:
applying it writes through a Mutator with a backup, so the exact
pre-update field values are known and can be put back verbatim, not
merged back, regardless of what the optimistic update changed.

# Rebase, not append

An optimistic update is "reapplied" every Run because new authoritative
data or other optimistic updates may have changed the base it reads from
since it was first applied; replaying it against current state keeps its
effect consistent rather than calcifying stale reads. All currently
applied updates run into one shared Mutator sink per Run, in insertion
order, so update N sees update N-1's writes through the sink before base,
exactly as if they were one transaction.
*/
package publishqueue

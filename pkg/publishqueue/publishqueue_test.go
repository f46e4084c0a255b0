package publishqueue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/cachecore/pkg/ir"
	"github.com/cuemby/cachecore/pkg/reader"
	"github.com/cuemby/cachecore/pkg/scheduler"
	"github.com/cuemby/cachecore/pkg/source"
	"github.com/cuemby/cachecore/pkg/store"
	"github.com/cuemby/cachecore/pkg/types"
)

func nameSource(id types.DataID, name string) *source.MapSource {
	src := source.New()
	rec := types.NewRecord(id)
	rec.SetTypename("User")
	rec.Set("name", types.ScalarValue(name))
	src.Set(id, rec)
	return src
}

func nameSelector(id types.DataID) ir.ReaderSelector {
	return ir.ReaderSelector{
		DataID: id,
		Node:   &ir.Node{Selections: []*ir.Node{{Kind: ir.ScalarField, FieldName: "name"}}},
	}
}

func TestRunAppliesAuthoritativePayload(t *testing.T) {
	st := store.New(scheduler.Immediate)
	q := New(st, nil)
	ctx := context.Background()

	q.CommitPayload(nameSource("4", "Zuck"), nil)
	_, err := q.Run(ctx)
	require.NoError(t, err)

	snap := st.Lookup(ctx, nameSelector("4"), reader.Options{})
	assert.Equal(t, "Zuck", snap.Data["name"])
}

func TestRunAppliesClientUpdater(t *testing.T) {
	st := store.New(scheduler.Immediate)
	q := New(st, nil)
	ctx := context.Background()

	q.CommitUpdate(func(proxy *source.Proxy) {
		proxy.Create("4", "User").SetValue("name", "Zuck")
	})
	_, err := q.Run(ctx)
	require.NoError(t, err)

	snap := st.Lookup(ctx, nameSelector("4"), reader.Options{})
	assert.Equal(t, "Zuck", snap.Data["name"])
}

func TestOptimisticUpdateIsVisibleUntilDisposed(t *testing.T) {
	st := store.New(scheduler.Immediate)
	q := New(st, nil)
	ctx := context.Background()

	update := NewUpdaterOptimisticUpdate(func(proxy *source.Proxy) {
		proxy.Create("4", "User").SetValue("name", "Optimistic Zuck")
	})
	disp := q.ApplyOptimisticUpdate(update)
	_, err := q.Run(ctx)
	require.NoError(t, err)

	snap := st.Lookup(ctx, nameSelector("4"), reader.Options{})
	assert.Equal(t, "Optimistic Zuck", snap.Data["name"])
	assert.True(t, q.GCHeld())

	disp.Dispose()
	_, err = q.Run(ctx)
	require.NoError(t, err)

	snap = st.Lookup(ctx, nameSelector("4"), reader.Options{})
	assert.True(t, snap.IsMissingData, "undoing the optimistic update should remove the record it created")
	assert.False(t, q.GCHeld())
}

func TestOptimisticUpdateStaysOnTopUntilExplicitlyConfirmed(t *testing.T) {
	st := store.New(scheduler.Immediate)
	q := New(st, nil)
	ctx := context.Background()

	update := NewUpdaterOptimisticUpdate(func(proxy *source.Proxy) {
		proxy.GetOrCreate("4", "User").SetValue("name", "Optimistic Zuck")
	})
	disp := q.ApplyOptimisticUpdate(update)
	_, err := q.Run(ctx)
	require.NoError(t, err)

	// Authoritative data arrives for the same record while the optimistic
	// update is still applied: the update is rebased on top of it, so its
	// guess keeps winning until the caller disposes it.
	q.CommitPayload(nameSource("4", "Zuck"), nil)
	_, err = q.Run(ctx)
	require.NoError(t, err)

	snap := st.Lookup(ctx, nameSelector("4"), reader.Options{})
	assert.Equal(t, "Optimistic Zuck", snap.Data["name"], "a still-applied optimistic update is rebased on top of new authoritative data")

	// The caller confirms the optimistic guess by disposing it in the same
	// tick the real response is committed.
	disp.Dispose()
	q.CommitPayload(nameSource("4", "Zuck"), nil)
	_, err = q.Run(ctx)
	require.NoError(t, err)

	snap = st.Lookup(ctx, nameSelector("4"), reader.Options{})
	assert.Equal(t, "Zuck", snap.Data["name"], "disposing the optimistic update should let authoritative data show through")
}

func TestMultipleOptimisticUpdatesRebaseInInsertionOrder(t *testing.T) {
	st := store.New(scheduler.Immediate)
	q := New(st, nil)
	ctx := context.Background()

	first := NewUpdaterOptimisticUpdate(func(proxy *source.Proxy) {
		proxy.Create("4", "User").SetValue("name", "First")
	})
	second := NewUpdaterOptimisticUpdate(func(proxy *source.Proxy) {
		rp, ok := proxy.Get("4")
		require.True(t, ok)
		rp.SetValue("name", "Second")
	})
	q.ApplyOptimisticUpdate(first)
	q.ApplyOptimisticUpdate(second)
	_, err := q.Run(ctx)
	require.NoError(t, err)

	snap := st.Lookup(ctx, nameSelector("4"), reader.Options{})
	assert.Equal(t, "Second", snap.Data["name"])
}

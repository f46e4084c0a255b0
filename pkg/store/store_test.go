package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/cachecore/pkg/ir"
	"github.com/cuemby/cachecore/pkg/reader"
	"github.com/cuemby/cachecore/pkg/scheduler"
	"github.com/cuemby/cachecore/pkg/source"
	"github.com/cuemby/cachecore/pkg/types"
)

func scalar(name string) *ir.Node { return &ir.Node{Kind: ir.ScalarField, FieldName: name} }

func userSource(id types.DataID, name string) *source.MapSource {
	src := source.New()
	user := types.NewRecord(id)
	user.SetTypename("User")
	user.Set("name", types.ScalarValue(name))
	src.Set(id, user)
	return src
}

func userSelector(id types.DataID) ir.ReaderSelector {
	return ir.ReaderSelector{
		DataID: id,
		Node:   &ir.Node{Selections: []*ir.Node{scalar("name")}},
	}
}

func userOperationDescriptor(id types.DataID) *ir.OperationDescriptor {
	node := &ir.Node{Selections: []*ir.Node{scalar("name")}}
	return ir.NewOperationDescriptor(&ir.Request{ID: "UserQuery"}, nil, id, node, node)
}

func TestPublishMergesIntoCanonicalSourceAndNotifiesSubscribers(t *testing.T) {
	st := New(scheduler.Immediate)
	ctx := context.Background()

	var got *reader.Snapshot
	disp := st.Subscribe(ctx, userSelector("4"), reader.Options{}, func(s *reader.Snapshot) { got = s })
	defer disp.Dispose()
	assert.True(t, got.IsMissingData)

	st.Notify(ctx, st.Publish(ctx, userSource("4", "Zuck")))
	require.False(t, got.IsMissingData)
	assert.Equal(t, "Zuck", got.Data["name"])
}

func TestSubscribeDoesNotFireOnUnrelatedPublish(t *testing.T) {
	st := New(scheduler.Immediate)
	ctx := context.Background()

	calls := 0
	disp := st.Subscribe(ctx, userSelector("4"), reader.Options{}, func(s *reader.Snapshot) { calls++ })
	defer disp.Dispose()
	assert.Equal(t, 1, calls)

	st.Notify(ctx, st.Publish(ctx, userSource("4", "Zuck")))
	assert.Equal(t, 2, calls)

	st.Notify(ctx, st.Publish(ctx, userSource("9", "Someone Else")))
	assert.Equal(t, 2, calls, "unrelated publish should not re-trigger the callback")
}

func TestDisposeSubscriptionStopsNotifications(t *testing.T) {
	st := New(scheduler.Immediate)
	ctx := context.Background()

	calls := 0
	disp := st.Subscribe(ctx, userSelector("4"), reader.Options{}, func(s *reader.Snapshot) { calls++ })
	disp.Dispose()

	st.Notify(ctx, st.Publish(ctx, userSource("4", "Zuck")))
	assert.Equal(t, 1, calls)
}

func TestCheckReflectsDataAvailability(t *testing.T) {
	st := New(scheduler.Immediate)
	ctx := context.Background()

	assert.False(t, st.Check(userSelector("4")))
	st.Publish(ctx, userSource("4", "Zuck"))
	assert.True(t, st.Check(userSelector("4")))
}

func TestGCRemovesUnretainedRecordsAfterPublish(t *testing.T) {
	st := New(scheduler.Immediate)
	ctx := context.Background()

	op := userOperationDescriptor("4")
	disp := st.Retain(op)

	st.Publish(ctx, userSource("4", "Zuck"))
	assert.True(t, st.Check(userSelector("4")))

	disp.Dispose() // releasing the only retainer should trigger a GC sweep
	assert.False(t, st.Check(userSelector("4")))
}

func TestRetainedRecordSurvivesGC(t *testing.T) {
	st := New(scheduler.Immediate)
	ctx := context.Background()

	op := userOperationDescriptor("4")
	disp := st.Retain(op)
	defer disp.Dispose()

	st.Publish(ctx, userSource("4", "Zuck"))
	st.collectGarbage()
	assert.True(t, st.Check(userSelector("4")))
}

func TestStatsReflectsStoreState(t *testing.T) {
	st := New(scheduler.Immediate)
	ctx := context.Background()

	op := userOperationDescriptor("4")
	disp := st.Retain(op)
	defer disp.Dispose()
	st.Publish(ctx, userSource("4", "Zuck"))
	subDisp := st.Subscribe(ctx, userSelector("4"), reader.Options{}, func(*reader.Snapshot) {})
	defer subDisp.Dispose()

	stats := st.Stats()
	assert.Equal(t, 1, stats.Records)
	assert.Equal(t, 1, stats.RetainedRoots)
	assert.Equal(t, 1, stats.Subscriptions)
}

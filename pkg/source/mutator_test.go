package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/cachecore/pkg/types"
)

func baseWithUser(id types.DataID, name string) *MapSource {
	base := New()
	rec := types.NewRecord(id)
	rec.SetTypename("User")
	rec.Set("name", types.ScalarValue(name))
	base.Set(id, rec)
	return base
}

func TestMutatorNeverWritesBase(t *testing.T) {
	base := baseWithUser("1", "zuck")
	sink := New()
	m := NewMutator(base, sink, nil)

	require.NoError(t, m.SetValue("1", "name", types.ScalarValue("Mark")))

	baseRec, _ := base.Get("1")
	name, _ := baseRec.Get("name")
	assert.Equal(t, "zuck", name.Scalar)

	sinkRec, status := sink.Get("1")
	require.Equal(t, StatusPresent, status)
	sinkName, _ := sinkRec.Get("name")
	assert.Equal(t, "Mark", sinkName.Scalar)
}

func TestMutatorCopyOnWriteHappensOnce(t *testing.T) {
	base := baseWithUser("1", "zuck")
	sink := New()
	m := NewMutator(base, sink, nil)

	require.NoError(t, m.SetValue("1", "name", types.ScalarValue("Mark")))
	first, _ := sink.Get("1")

	require.NoError(t, m.SetValue("1", "age", types.ScalarValue(float64(30))))
	second, _ := sink.Get("1")

	assert.Same(t, first, second)
}

func TestBackupCapturesExactPreWriteState(t *testing.T) {
	base := baseWithUser("1", "zuck")
	sink := New()
	backup := New()
	m := NewMutator(base, sink, backup)

	require.NoError(t, m.SetValue("1", "name", types.ScalarValue("Mark")))
	require.NoError(t, m.SetValue("1", "age", types.ScalarValue(float64(30))))

	backupRec, status := backup.Get("1")
	require.Equal(t, StatusPresent, status)
	name, _ := backupRec.Get("name")
	assert.Equal(t, "zuck", name.Scalar)
	_, hasAge := backupRec.Get("age")
	assert.False(t, hasAge)
}

func TestBackupRecordsUnpublishForNewlyCreatedRecord(t *testing.T) {
	base := New()
	sink := New()
	backup := New()
	m := NewMutator(base, sink, backup)

	m.CreateRecord("1", "User")

	_, status := backup.Get("1")
	assert.Equal(t, StatusUnpublish, status)
}

func TestBackupRecordsTombstoneForPriorDeletion(t *testing.T) {
	base := New()
	base.Delete("1")
	sink := New()
	backup := New()
	m := NewMutator(base, sink, backup)

	m.CreateRecord("1", "User")

	_, status := backup.Get("1")
	assert.Equal(t, StatusTombstone, status)
}

func TestProxyLinkedRecordRoundTrip(t *testing.T) {
	base := New()
	sink := New()
	m := NewMutator(base, sink, nil)
	p := NewProxy(m)

	root := p.Root()
	user := p.Create("1", "User")
	user.SetValue("name", "zuck")
	root.SetLinkedRecord(`node(id:"1")`, user)

	linked, ok := root.GetLinkedRecord(`node(id:"1")`)
	require.True(t, ok)
	assert.Equal(t, types.DataID("1"), linked.DataID())
	name, ok := linked.GetValue("name")
	require.True(t, ok)
	assert.Equal(t, "zuck", name.Scalar)
}

func TestProxySetLinkedRecordsPreservesHoles(t *testing.T) {
	base := New()
	sink := New()
	m := NewMutator(base, sink, nil)
	p := NewProxy(m)

	root := p.Root()
	a := p.Create("1", "User")
	root.SetLinkedRecords("friends", []*RecordProxy{a, nil})

	friends, ok := root.GetLinkedRecords("friends")
	require.True(t, ok)
	require.Len(t, friends, 2)
	assert.Equal(t, types.DataID("1"), friends[0].DataID())
	assert.Nil(t, friends[1])
}

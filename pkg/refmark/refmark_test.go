package refmark

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cuemby/cachecore/pkg/ir"
	"github.com/cuemby/cachecore/pkg/source"
	"github.com/cuemby/cachecore/pkg/types"
)

func scalar(name string) *ir.Node { return &ir.Node{Kind: ir.ScalarField, FieldName: name} }

func TestMarkReachesLinkedRecordsOnly(t *testing.T) {
	src := source.New()
	root := types.NewRecord(types.RootID)
	root.Set("viewer", types.LinkedValue("4"))
	src.Set(types.RootID, root)
	user := types.NewRecord("4")
	user.Set("address", types.LinkedValue("addr-1"))
	src.Set("4", user)
	addr := types.NewRecord("addr-1")
	src.Set("addr-1", addr)
	orphan := types.NewRecord("orphan")
	src.Set("orphan", orphan)

	sel := ir.NormalizationSelector{
		DataID: types.RootID,
		Node: &ir.Node{
			Selections: []*ir.Node{
				{
					Kind: ir.LinkedField, FieldName: "viewer",
					Selections: []*ir.Node{
						{Kind: ir.LinkedField, FieldName: "address"},
					},
				},
			},
		},
	}

	seen := Mark(context.Background(), src, sel, Options{})
	assert.True(t, seen[types.RootID])
	assert.True(t, seen["4"])
	assert.True(t, seen["addr-1"])
	assert.False(t, seen["orphan"])
}

func TestMarkSkipsDanglingReference(t *testing.T) {
	src := source.New()
	root := types.NewRecord(types.RootID)
	root.Set("viewer", types.LinkedValue("missing"))
	src.Set(types.RootID, root)

	sel := ir.NormalizationSelector{
		DataID: types.RootID,
		Node: &ir.Node{
			Selections: []*ir.Node{
				{Kind: ir.LinkedField, FieldName: "viewer"},
			},
		},
	}

	seen := Mark(context.Background(), src, sel, Options{})
	assert.True(t, seen[types.RootID])
	assert.False(t, seen["missing"])
}

func TestDataAvailableFalseWhenFieldMissing(t *testing.T) {
	src := source.New()
	user := types.NewRecord("4")
	user.Set("name", types.ScalarValue("Zuck"))
	src.Set("4", user)

	sel := ir.ReaderSelector{DataID: "4", Node: &ir.Node{Selections: []*ir.Node{scalar("name"), scalar("email")}}}
	assert.False(t, DataAvailable(src, sel))

	sel2 := ir.ReaderSelector{DataID: "4", Node: &ir.Node{Selections: []*ir.Node{scalar("name")}}}
	assert.True(t, DataAvailable(src, sel2))
}

func TestDataAvailableTrueForExplicitNullLinkedField(t *testing.T) {
	src := source.New()
	user := types.NewRecord("4")
	user.Set("manager", types.NullLinkedValue())
	src.Set("4", user)

	sel := ir.ReaderSelector{
		DataID: "4",
		Node: &ir.Node{
			Selections: []*ir.Node{
				{Kind: ir.LinkedField, FieldName: "manager", Selections: []*ir.Node{scalar("name")}},
			},
		},
	}
	assert.True(t, DataAvailable(src, sel))
}

func TestDataAvailableFalseWhenLinkedRecordAbsent(t *testing.T) {
	src := source.New()
	user := types.NewRecord("4")
	user.Set("manager", types.LinkedValue("missing"))
	src.Set("4", user)

	sel := ir.ReaderSelector{
		DataID: "4",
		Node: &ir.Node{
			Selections: []*ir.Node{
				{Kind: ir.LinkedField, FieldName: "manager", Selections: []*ir.Node{scalar("name")}},
			},
		},
	}
	assert.False(t, DataAvailable(src, sel))
}

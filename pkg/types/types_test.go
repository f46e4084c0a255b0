package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStorageKey(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		args     map[string]any
		expected string
	}{
		{
			name:     "no arguments",
			field:    "name",
			args:     nil,
			expected: "name",
		},
		{
			name:     "single argument",
			field:    "node",
			args:     map[string]any{"id": "4"},
			expected: `node(id:"4")`,
		},
		{
			name:     "arguments sorted regardless of insertion order",
			field:    "friends",
			args:     map[string]any{"after": "cursor", "first": float64(10)},
			expected: `friends(after:"cursor",first:10)`,
		},
		{
			name:     "nested object argument is stable",
			field:    "search",
			args:     map[string]any{"filter": map[string]any{"b": 1, "a": 2}},
			expected: `search(filter:{"a":2,"b":1})`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StorageKey(tt.field, tt.args))
		})
	}
}

func TestStorageKeyIsArgumentOrderIndependent(t *testing.T) {
	a := StorageKey("friends", map[string]any{"first": float64(10), "after": "x"})
	b := StorageKey("friends", map[string]any{"after": "x", "first": float64(10)})
	assert.Equal(t, a, b)
}

func TestRecordMergeFieldWise(t *testing.T) {
	base := NewRecord("1")
	base.SetTypename("User")
	base.Set("name", ScalarValue("zuck"))
	base.Set("age", ScalarValue(float64(20)))

	overlay := NewRecord("1")
	overlay.Set("name", ScalarValue("Mark"))

	merged := base.Merge(overlay)

	name, ok := merged.Get("name")
	assert.True(t, ok)
	assert.Equal(t, "Mark", name.Scalar)

	age, ok := merged.Get("age")
	assert.True(t, ok)
	assert.Equal(t, float64(20), age.Scalar)

	// base is untouched
	baseName, _ := base.Get("name")
	assert.Equal(t, "zuck", baseName.Scalar)
}

func TestRecordEqual(t *testing.T) {
	a := NewRecord("1")
	a.SetTypename("User")
	a.Set("name", ScalarValue("zuck"))

	b := a.Clone()
	assert.True(t, a.Equal(b))

	b.Set("name", ScalarValue("Mark"))
	assert.False(t, a.Equal(b))
}

func TestClientIDSynthesis(t *testing.T) {
	assert.Equal(t, DataID("1:friends"), ClientID("1", "friends"))
	assert.Equal(t, DataID("1:friends:0"), ClientListID("1", "friends", 0))
}

func TestValueEqualPluralHandlesHoles(t *testing.T) {
	id1 := DataID("1")
	a := PluralLinkedValue([]*DataID{&id1, nil})
	b := PluralLinkedValue([]*DataID{&id1, nil})
	assert.True(t, a.Equal(b))

	id2 := DataID("2")
	c := PluralLinkedValue([]*DataID{&id1, &id2})
	assert.False(t, a.Equal(c))
}

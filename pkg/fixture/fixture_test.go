package fixture

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/cachecore/pkg/normalize"
	"github.com/cuemby/cachecore/pkg/reader"
	"github.com/cuemby/cachecore/pkg/source"
)

const operationYAML = `
name: ViewerQuery
rootId: client:root
selections:
  - name: viewer
    linked: true
    selections:
      - name: name
      - name: address
        linked: true
        selections:
          - name: city
`

const responseYAML = `
viewer:
  id: "4"
  __typename: User
  name: Zuck
  address:
    __typename: Address
    city: Palo Alto
`

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadOperationCompilesSelectionTree(t *testing.T) {
	path := writeFixture(t, "op.yaml", operationYAML)
	op, err := LoadOperation(path)
	require.NoError(t, err)

	assert.Equal(t, "ViewerQuery", op.Name)
	assert.Equal(t, "client:root", op.RootID)
	require.Len(t, op.Selections, 1)
	assert.Equal(t, "viewer", op.Selections[0].Name)
	assert.True(t, op.Selections[0].Linked)
}

func TestOperationAndResponseRoundTripThroughNormalizeAndRead(t *testing.T) {
	opPath := writeFixture(t, "op.yaml", operationYAML)
	respPath := writeFixture(t, "resp.yaml", responseYAML)

	op, err := LoadOperation(opPath)
	require.NoError(t, err)
	resp, err := LoadResponse(respPath)
	require.NoError(t, err)

	sink := source.New()
	_, err = normalize.Normalize(context.Background(), op.NormalizationSelector(), resp, sink, normalize.Options{})
	require.NoError(t, err)

	snap := reader.Read(context.Background(), sink, op.ReaderSelector(), nil, reader.Options{})
	require.False(t, snap.IsMissingData)

	viewer, ok := snap.Data["viewer"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Zuck", viewer["name"])

	addr, ok := viewer["address"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Palo Alto", addr["city"])
}

func TestLoadOperationDefaultsRootIDToWellKnownRoot(t *testing.T) {
	path := writeFixture(t, "op.yaml", "name: NoRoot\nselections: []\n")
	op, err := LoadOperation(path)
	require.NoError(t, err)
	assert.Equal(t, "client:root", op.RootID)
}

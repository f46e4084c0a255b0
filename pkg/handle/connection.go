package handle

import (
	"fmt"

	"github.com/cuemby/cachecore/pkg/normalize"
	"github.com/cuemby/cachecore/pkg/source"
	"github.com/cuemby/cachecore/pkg/types"
)

// ConnectionHandler implements the "connection" handle: it turns a raw
// Relay-style {edges, pageInfo} payload into a normalized connection
// record, an edge record per entry (cursor + linked node), and a linked
// pageInfo record, then links the owning record's handle key to the
// connection record. Pagination arguments are expected to already be
// excluded from the handle key via the field's HandleFilters, so pages
// fetched with different after/before/first/last values accumulate onto
// the same handle key only when the caller also merges edges itself;
// ConnectionHandler always replaces the edge list with the latest page.
type ConnectionHandler struct{}

func (ConnectionHandler) Update(proxy *source.Proxy, record *source.RecordProxy, payload normalize.HandleFieldPayload) error {
	v, ok := record.GetValue(payload.FieldKey)
	if !ok {
		return nil
	}
	raw, ok := v.Scalar.(map[string]any)
	if !ok {
		return fmt.Errorf("connection handle: field %q is not a connection object (got %T)", payload.FieldKey, v.Scalar)
	}

	connID := types.ClientID(record.DataID(), payload.HandleKey)
	conn := proxy.GetOrCreate(connID, "__ConnectionRecord")

	edgesRaw, _ := raw["edges"].([]any)
	edges := make([]*source.RecordProxy, 0, len(edgesRaw))
	for i, e := range edgesRaw {
		edgeMap, ok := e.(map[string]any)
		if !ok {
			continue
		}
		edgeID := types.ClientListID(connID, "edges", i)
		edge := proxy.GetOrCreate(edgeID, "__ConnectionEdge")
		if cursor, ok := edgeMap["cursor"]; ok {
			edge.SetValue("cursor", cursor)
		}
		if nodeRaw, ok := edgeMap["node"].(map[string]any); ok {
			nodeID := connectionNodeDataID(nodeRaw, connID, i)
			node := proxy.GetOrCreate(nodeID, typenameOf(nodeRaw))
			edge.SetLinkedRecord("node", node)
		}
		edges = append(edges, edge)
	}
	conn.SetLinkedRecords("edges", edges)

	if pageInfo, ok := raw["pageInfo"].(map[string]any); ok {
		pageInfoID := types.ClientID(connID, "pageInfo")
		pi := proxy.GetOrCreate(pageInfoID, "PageInfo")
		for k, val := range pageInfo {
			pi.SetValue(k, val)
		}
		conn.SetLinkedRecord("pageInfo", pi)
	}

	record.SetLinkedRecord(payload.HandleKey, conn)
	return nil
}

func typenameOf(data map[string]any) string {
	if s, ok := data[types.KeyTypename].(string); ok {
		return s
	}
	return ""
}

func connectionNodeDataID(nodeRaw map[string]any, connID types.DataID, index int) types.DataID {
	if raw, ok := nodeRaw["id"]; ok {
		if s, ok := raw.(string); ok && s != "" {
			return types.DataID(s)
		}
	}
	return types.ClientListID(connID, "edges:node", index)
}

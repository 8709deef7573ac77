// Package tools exposes the bridge operations as MCP tools over a cached
// protocol client. Tool handlers never return Go errors to the MCP
// framework; failures become human-readable error results so callers stay
// resilient to a host that is down or restarting.
package tools

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mapgrid/gisbridge/pkg/protocol"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// BridgeTools holds the shared connection to the bridge host. The client is
// constructed lazily and replaced whenever the liveness probe fails, so a
// restarted host is picked up transparently.
type BridgeTools struct {
	addr string

	mu     sync.Mutex
	client *protocol.Client
}

// NewBridgeTools creates the tool set for a bridge at addr.
func NewBridgeTools(addr string) *BridgeTools {
	if addr == "" {
		addr = protocol.DefaultAddr
	}
	return &BridgeTools{addr: addr}
}

// Close disconnects the cached client, if any.
func (bt *BridgeTools) Close() {
	bt.mu.Lock()
	defer bt.mu.Unlock()
	if bt.client != nil {
		bt.client.Disconnect()
		bt.client = nil
	}
}

// connection returns a live client: an existing one that still answers the
// probe command, or a freshly connected replacement.
func (bt *BridgeTools) connection() (*protocol.Client, error) {
	bt.mu.Lock()
	defer bt.mu.Unlock()
	if bt.client != nil {
		if bt.client.IsAlive() {
			return bt.client, nil
		}
		bt.client.Disconnect()
		bt.client = nil
	}
	client := protocol.NewClient(bt.addr)
	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("could not connect to the bridge host (is the server running?): %w", err)
	}
	bt.client = client
	return client, nil
}

func (bt *BridgeTools) send(cmdType string, params any, out any) error {
	client, err := bt.connection()
	if err != nil {
		return err
	}
	result, err := client.SendCommand(cmdType, params)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", cmdType, err)
	}
	return nil
}

// Register adds every bridge tool to the MCP server.
func Register(server *mcp.Server, bt *BridgeTools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_project_info",
		Description: "Get metadata about the current project: file name, title, CRS, layer count, and view extent.",
	}, bt.makeProjectInfoHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_layers",
		Description: "List the layers in the current project with id, name, type, CRS, and visibility.",
	}, bt.makeGetLayersHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name: "add_vector_layer",
		Description: `Add a vector layer from a path (GeoJSON, Shapefile, GeoPackage, or memory URI).
Example: add_vector_layer {path: "/data/roads.geojson"}`,
	}, bt.makeAddVectorHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_raster_layer",
		Description: "Add a raster layer from a path (PNG, JPEG, GIF, or Arc/Info ASCII grid).",
	}, bt.makeAddRasterHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "zoom_to_layer",
		Description: "Zoom the map view to a layer's extent; the layer is looked up by name.",
	}, bt.makeZoomHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_layer_visibility",
		Description: "Show or hide a layer by id.",
	}, bt.makeVisibilityHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_layer",
		Description: "Remove a layer from the project by id.",
	}, bt.makeRemoveHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "execute_code",
		Description: "Execute an opaque code fragment in the host's embedded interpreter.",
	}, bt.makeExecuteCodeHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name: "run_processing_algorithm",
		Description: `Run a named processing algorithm with a parameter mapping.
Example: run_processing_algorithm {algorithm: "native:buffer", parameters: {INPUT: "<layer id>", DISTANCE: 10}}`,
	}, bt.makeRunAlgorithmHandler())
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

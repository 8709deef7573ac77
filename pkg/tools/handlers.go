package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// EmptyInput is used by tools that take no arguments.
type EmptyInput struct{}

// ProjectInfoOutput mirrors the get_project_info result.
type ProjectInfoOutput struct {
	FileName   string         `json:"fileName"`
	Title      string         `json:"title"`
	CRS        string         `json:"crs"`
	LayerCount int            `json:"layerCount"`
	Extent     map[string]any `json:"extent,omitempty"`
}

func (bt *BridgeTools) makeProjectInfoHandler() func(context.Context, *mcp.CallToolRequest, EmptyInput) (*mcp.CallToolResult, ProjectInfoOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, ProjectInfoOutput, error) {
		var out ProjectInfoOutput
		if err := bt.send("get_project_info", nil, &out); err != nil {
			return errorResult(fmt.Sprintf("Error getting project info: %v", err)), ProjectInfoOutput{}, nil
		}
		return nil, out, nil
	}
}

// LayerSummary is one entry of the get_layers result.
type LayerSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	CRS          string `json:"crs"`
	Visible      bool   `json:"visible"`
	GeometryType string `json:"geometry_type,omitempty"`
	FeatureCount int64  `json:"feature_count,omitempty"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	BandCount    int    `json:"band_count,omitempty"`
}

// GetLayersOutput lists the project layers.
type GetLayersOutput struct {
	Count  int            `json:"count"`
	Layers []LayerSummary `json:"layers"`
}

func (bt *BridgeTools) makeGetLayersHandler() func(context.Context, *mcp.CallToolRequest, EmptyInput) (*mcp.CallToolResult, GetLayersOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, GetLayersOutput, error) {
		empty := GetLayersOutput{Layers: []LayerSummary{}}
		layers, err := bt.fetchLayers()
		if err != nil {
			return errorResult(fmt.Sprintf("Error getting layers: %v", err)), empty, nil
		}
		return nil, GetLayersOutput{Count: len(layers), Layers: layers}, nil
	}
}

func (bt *BridgeTools) fetchLayers() ([]LayerSummary, error) {
	var result struct {
		Layers []LayerSummary `json:"layers"`
	}
	if err := bt.send("get_layers", nil, &result); err != nil {
		return nil, err
	}
	if result.Layers == nil {
		result.Layers = []LayerSummary{}
	}
	return result.Layers, nil
}

// AddLayerInput names a data source to load.
type AddLayerInput struct {
	Path     string `json:"path" jsonschema:"Path to the data source (file, database, or memory URI)"`
	Name     string `json:"name,omitempty" jsonschema:"Display name (defaults to the file name)"`
	Provider string `json:"provider,omitempty" jsonschema:"Data provider (ogr for vector, gdal for raster, memory)"`
}

// AddVectorOutput reports the registered vector layer.
type AddVectorOutput struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	FeatureCount int64  `json:"feature_count"`
}

func (bt *BridgeTools) makeAddVectorHandler() func(context.Context, *mcp.CallToolRequest, AddLayerInput) (*mcp.CallToolResult, AddVectorOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AddLayerInput) (*mcp.CallToolResult, AddVectorOutput, error) {
		if input.Path == "" {
			return errorResult("path is required"), AddVectorOutput{}, nil
		}
		var out AddVectorOutput
		params := map[string]any{"path": input.Path, "name": input.Name}
		if input.Provider != "" {
			params["provider"] = input.Provider
		}
		if err := bt.send("add_vector_layer", params, &out); err != nil {
			return errorResult(fmt.Sprintf("Error adding vector layer: %v", err)), AddVectorOutput{}, nil
		}
		return nil, out, nil
	}
}

// AddRasterOutput reports the registered raster layer.
type AddRasterOutput struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (bt *BridgeTools) makeAddRasterHandler() func(context.Context, *mcp.CallToolRequest, AddLayerInput) (*mcp.CallToolResult, AddRasterOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AddLayerInput) (*mcp.CallToolResult, AddRasterOutput, error) {
		if input.Path == "" {
			return errorResult("path is required"), AddRasterOutput{}, nil
		}
		var out AddRasterOutput
		params := map[string]any{"path": input.Path, "name": input.Name}
		if input.Provider != "" {
			params["provider"] = input.Provider
		}
		if err := bt.send("add_raster_layer", params, &out); err != nil {
			return errorResult(fmt.Sprintf("Error adding raster layer: %v", err)), AddRasterOutput{}, nil
		}
		return nil, out, nil
	}
}

// ZoomInput names the layer to zoom to.
type ZoomInput struct {
	LayerName string `json:"layer_name" jsonschema:"Name of the layer to zoom to"`
}

// ZoomOutput reports the layer zoomed to.
type ZoomOutput struct {
	ZoomedTo string `json:"zoomed_to"`
}

func (bt *BridgeTools) makeZoomHandler() func(context.Context, *mcp.CallToolRequest, ZoomInput) (*mcp.CallToolResult, ZoomOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ZoomInput) (*mcp.CallToolResult, ZoomOutput, error) {
		if input.LayerName == "" {
			return errorResult("layer_name is required"), ZoomOutput{}, nil
		}
		layers, err := bt.fetchLayers()
		if err != nil {
			return errorResult(fmt.Sprintf("Error zooming to layer: %v", err)), ZoomOutput{}, nil
		}
		layerID := ""
		for _, l := range layers {
			if l.Name == input.LayerName {
				layerID = l.ID
				break
			}
		}
		if layerID == "" {
			return errorResult(fmt.Sprintf("Layer not found: %s", input.LayerName)), ZoomOutput{}, nil
		}
		var out ZoomOutput
		if err := bt.send("zoom_to_layer", map[string]any{"layer_id": layerID}, &out); err != nil {
			return errorResult(fmt.Sprintf("Error zooming to layer: %v", err)), ZoomOutput{}, nil
		}
		return nil, out, nil
	}
}

// VisibilityInput toggles a layer's visibility.
type VisibilityInput struct {
	LayerID string `json:"layer_id" jsonschema:"Layer id as returned by get_layers"`
	Visible bool   `json:"visible" jsonschema:"Whether the layer should be shown"`
}

// VisibilityOutput reports the applied visibility.
type VisibilityOutput struct {
	Layer   string `json:"layer"`
	Visible bool   `json:"visible"`
}

func (bt *BridgeTools) makeVisibilityHandler() func(context.Context, *mcp.CallToolRequest, VisibilityInput) (*mcp.CallToolResult, VisibilityOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input VisibilityInput) (*mcp.CallToolResult, VisibilityOutput, error) {
		if input.LayerID == "" {
			return errorResult("layer_id is required"), VisibilityOutput{}, nil
		}
		var out VisibilityOutput
		params := map[string]any{"layer_id": input.LayerID, "visible": input.Visible}
		if err := bt.send("set_visibility", params, &out); err != nil {
			return errorResult(fmt.Sprintf("Error setting visibility: %v", err)), VisibilityOutput{}, nil
		}
		return nil, out, nil
	}
}

// RemoveInput names the layer to remove.
type RemoveInput struct {
	LayerID string `json:"layer_id" jsonschema:"Layer id as returned by get_layers"`
}

// RemoveOutput reports the removed layer's name.
type RemoveOutput struct {
	Removed string `json:"removed"`
}

func (bt *BridgeTools) makeRemoveHandler() func(context.Context, *mcp.CallToolRequest, RemoveInput) (*mcp.CallToolResult, RemoveOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input RemoveInput) (*mcp.CallToolResult, RemoveOutput, error) {
		if input.LayerID == "" {
			return errorResult("layer_id is required"), RemoveOutput{}, nil
		}
		var out RemoveOutput
		if err := bt.send("remove_layer", map[string]any{"layer_id": input.LayerID}, &out); err != nil {
			return errorResult(fmt.Sprintf("Error removing layer: %v", err)), RemoveOutput{}, nil
		}
		return nil, out, nil
	}
}

// ExecuteCodeInput carries the code fragment to run in the host.
type ExecuteCodeInput struct {
	Code string `json:"code" jsonschema:"Code to execute in the host's embedded interpreter"`
}

// ExecuteCodeOutput confirms execution.
type ExecuteCodeOutput struct {
	Executed bool `json:"executed"`
}

func (bt *BridgeTools) makeExecuteCodeHandler() func(context.Context, *mcp.CallToolRequest, ExecuteCodeInput) (*mcp.CallToolResult, ExecuteCodeOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ExecuteCodeInput) (*mcp.CallToolResult, ExecuteCodeOutput, error) {
		if input.Code == "" {
			return errorResult("code is required"), ExecuteCodeOutput{}, nil
		}
		var out ExecuteCodeOutput
		if err := bt.send("execute_code", map[string]any{"code": input.Code}, &out); err != nil {
			return errorResult(fmt.Sprintf("Error executing code: %v", err)), ExecuteCodeOutput{}, nil
		}
		return nil, out, nil
	}
}

// RunAlgorithmInput names an algorithm and its parameter mapping.
type RunAlgorithmInput struct {
	Algorithm  string         `json:"algorithm" jsonschema:"Algorithm id (e.g. native:buffer)"`
	Parameters map[string]any `json:"parameters,omitempty" jsonschema:"Algorithm parameter mapping"`
}

// RunAlgorithmOutput carries the algorithm's result mapping.
type RunAlgorithmOutput struct {
	Algorithm string         `json:"algorithm"`
	Result    map[string]any `json:"result"`
}

func (bt *BridgeTools) makeRunAlgorithmHandler() func(context.Context, *mcp.CallToolRequest, RunAlgorithmInput) (*mcp.CallToolResult, RunAlgorithmOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input RunAlgorithmInput) (*mcp.CallToolResult, RunAlgorithmOutput, error) {
		if input.Algorithm == "" {
			return errorResult("algorithm is required"), RunAlgorithmOutput{}, nil
		}
		var out RunAlgorithmOutput
		params := map[string]any{
			"algorithm":  input.Algorithm,
			"parameters": input.Parameters,
		}
		if err := bt.send("run_processing_algorithm", params, &out); err != nil {
			return errorResult(fmt.Sprintf("Error running algorithm: %v", err)), RunAlgorithmOutput{}, nil
		}
		return nil, out, nil
	}
}

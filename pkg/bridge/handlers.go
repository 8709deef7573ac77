package bridge

import (
	"context"
	"encoding/json"
	"fmt"
)

// Failure texts for missing layers and unloadable sources are part of the
// wire contract; clients match on them.

func (b *Bridge) handleGetProjectInfo(ctx context.Context, params json.RawMessage) (any, error) {
	info := map[string]any{
		"fileName":   b.project.FileName(),
		"title":      b.project.Title(),
		"crs":        b.project.CRS(),
		"layerCount": b.project.LayerCount(),
	}
	if b.canvas != nil {
		info["extent"] = b.canvas.Extent()
	}
	return info, nil
}

func (b *Bridge) handleGetLayers(ctx context.Context, params json.RawMessage) (any, error) {
	layers := make([]map[string]any, 0)
	for _, l := range b.project.Layers() {
		layers = append(layers, l.Info())
	}
	return map[string]any{"layers": layers}, nil
}

type addLayerParams struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

func (b *Bridge) handleAddVectorLayer(ctx context.Context, params json.RawMessage) (any, error) {
	var p addLayerParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %v", err)
	}
	if p.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if p.Provider == "" {
		p.Provider = "ogr"
	}
	layer, err := b.providers.Open(p.Provider, p.Path, p.Name)
	if err != nil {
		b.logf("open vector source %s (%s): %v", p.Path, p.Provider, err)
		return nil, fmt.Errorf("Layer failed to load: %s", p.Path)
	}
	b.project.AddLayer(layer)
	return map[string]any{
		"id":            layer.ID,
		"name":          layer.Name,
		"feature_count": layer.FeatureCount,
	}, nil
}

func (b *Bridge) handleAddRasterLayer(ctx context.Context, params json.RawMessage) (any, error) {
	var p addLayerParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %v", err)
	}
	if p.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if p.Provider == "" {
		p.Provider = "gdal"
	}
	layer, err := b.providers.Open(p.Provider, p.Path, p.Name)
	if err != nil {
		b.logf("open raster source %s (%s): %v", p.Path, p.Provider, err)
		return nil, fmt.Errorf("Layer failed to load: %s", p.Path)
	}
	b.project.AddLayer(layer)
	return map[string]any{
		"id":     layer.ID,
		"name":   layer.Name,
		"width":  layer.Width,
		"height": layer.Height,
	}, nil
}

type layerIDParams struct {
	LayerID string `json:"layer_id"`
}

func (b *Bridge) handleZoomToLayer(ctx context.Context, params json.RawMessage) (any, error) {
	var p layerIDParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %v", err)
	}
	if p.LayerID == "" {
		return nil, fmt.Errorf("layer_id is required")
	}
	layer, ok := b.project.Layer(p.LayerID)
	if !ok {
		return nil, fmt.Errorf("Layer not found: %s", p.LayerID)
	}
	if b.canvas != nil {
		b.canvas.SetExtent(layer.Extent)
	}
	return map[string]any{"zoomed_to": layer.Name}, nil
}

type setVisibilityParams struct {
	LayerID string `json:"layer_id"`
	Visible *bool  `json:"visible"`
}

func (b *Bridge) handleSetVisibility(ctx context.Context, params json.RawMessage) (any, error) {
	var p setVisibilityParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %v", err)
	}
	if p.LayerID == "" {
		return nil, fmt.Errorf("layer_id is required")
	}
	if p.Visible == nil {
		return nil, fmt.Errorf("visible is required")
	}
	name, err := b.project.SetLayerVisibility(p.LayerID, *p.Visible)
	if err != nil {
		return nil, fmt.Errorf("Layer not found: %s", p.LayerID)
	}
	return map[string]any{"layer": name, "visible": *p.Visible}, nil
}

func (b *Bridge) handleRemoveLayer(ctx context.Context, params json.RawMessage) (any, error) {
	var p layerIDParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %v", err)
	}
	if p.LayerID == "" {
		return nil, fmt.Errorf("layer_id is required")
	}
	name, err := b.project.RemoveLayer(p.LayerID)
	if err != nil {
		return nil, fmt.Errorf("Layer not found: %s", p.LayerID)
	}
	return map[string]any{"removed": name}, nil
}

type executeCodeParams struct {
	Code string `json:"code"`
}

func (b *Bridge) handleExecuteCode(ctx context.Context, params json.RawMessage) (any, error) {
	var p executeCodeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %v", err)
	}
	if p.Code == "" {
		return nil, fmt.Errorf("code is required")
	}
	if b.interpreter == nil {
		return nil, fmt.Errorf("Code execution error: no interpreter configured")
	}
	if err := b.interpreter.Execute(p.Code); err != nil {
		return nil, fmt.Errorf("Code execution error: %v", err)
	}
	return map[string]any{"executed": true}, nil
}

type runAlgorithmParams struct {
	Algorithm  string         `json:"algorithm"`
	Parameters map[string]any `json:"parameters"`
}

func (b *Bridge) handleRunProcessingAlgorithm(ctx context.Context, params json.RawMessage) (any, error) {
	var p runAlgorithmParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %v", err)
	}
	if p.Algorithm == "" {
		return nil, fmt.Errorf("algorithm is required")
	}
	result, err := b.processing.Run(ctx, b.project, p.Algorithm, p.Parameters)
	if err != nil {
		return nil, fmt.Errorf("Error running algorithm: %v", err)
	}
	return map[string]any{"algorithm": p.Algorithm, "result": result}, nil
}

func (b *Bridge) logf(format string, v ...any) {
	if b.logger != nil {
		b.logger.Printf(format, v...)
	}
}

package gis

import (
	"context"
	"fmt"
	"sync"
)

// AlgorithmFunc runs one processing algorithm against a project. Parameters
// arrive as the decoded JSON mapping the client sent; results must be a
// plain JSON-serializable mapping, conventionally keyed OUTPUT.
type AlgorithmFunc func(ctx context.Context, p *Project, params map[string]any) (map[string]any, error)

// Processing owns the algorithm registry. The built-in algorithms are
// installed lazily on first use.
type Processing struct {
	initOnce sync.Once
	mu       sync.RWMutex
	algs     map[string]AlgorithmFunc
}

// NewProcessing returns an uninitialized processing subsystem.
func NewProcessing() *Processing {
	return &Processing{algs: make(map[string]AlgorithmFunc)}
}

// Register installs an algorithm under id.
func (pr *Processing) Register(id string, fn AlgorithmFunc) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	pr.algs[id] = fn
}

// Run initializes the subsystem if needed and executes the named algorithm.
func (pr *Processing) Run(ctx context.Context, project *Project, algorithm string, params map[string]any) (map[string]any, error) {
	pr.initOnce.Do(pr.registerBuiltins)

	pr.mu.RLock()
	fn, ok := pr.algs[algorithm]
	pr.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("algorithm not found: %s", algorithm)
	}
	if params == nil {
		params = map[string]any{}
	}
	return fn(ctx, project, params)
}

func (pr *Processing) registerBuiltins() {
	pr.Register("native:buffer", bufferAlgorithm)
	pr.Register("native:centroids", centroidsAlgorithm)
	pr.Register("native:mergevectorlayers", mergeAlgorithm)
}

// bufferAlgorithm grows a vector layer's extent by DISTANCE and registers
// the result as a new polygon layer.
func bufferAlgorithm(ctx context.Context, p *Project, params map[string]any) (map[string]any, error) {
	input, err := inputLayer(p, params)
	if err != nil {
		return nil, err
	}
	distance, ok := paramFloat(params, "DISTANCE")
	if !ok {
		return nil, fmt.Errorf("parameter DISTANCE is required")
	}
	out := p.AddLayer(&Layer{
		Name:         outputName(params, input.Name+"_buffered"),
		Type:         VectorLayer,
		CRS:          input.CRS,
		Visible:      true,
		Provider:     "memory",
		GeometryType: PolygonGeometry,
		FeatureCount: input.FeatureCount,
		Extent:       input.Extent.Buffer(distance),
	})
	return map[string]any{"OUTPUT": out.ID}, nil
}

// centroidsAlgorithm derives a point layer covering the input's extent.
func centroidsAlgorithm(ctx context.Context, p *Project, params map[string]any) (map[string]any, error) {
	input, err := inputLayer(p, params)
	if err != nil {
		return nil, err
	}
	out := p.AddLayer(&Layer{
		Name:         outputName(params, input.Name+"_centroids"),
		Type:         VectorLayer,
		CRS:          input.CRS,
		Visible:      true,
		Provider:     "memory",
		GeometryType: PointGeometry,
		FeatureCount: input.FeatureCount,
		Extent:       input.Extent,
	})
	return map[string]any{"OUTPUT": out.ID}, nil
}

// mergeAlgorithm unions the LAYERS inputs into one layer whose extent
// covers them all and whose feature count is their sum.
func mergeAlgorithm(ctx context.Context, p *Project, params map[string]any) (map[string]any, error) {
	raw, ok := params["LAYERS"].([]any)
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("parameter LAYERS is required")
	}
	var (
		extent   Extent
		features int64
		crs      string
		geometry GeometryType = UnknownGeometry
	)
	for i, v := range raw {
		id, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("parameter LAYERS must hold layer ids")
		}
		layer, ok := p.Layer(id)
		if !ok {
			return nil, fmt.Errorf("layer not found: %s", id)
		}
		if layer.Type != VectorLayer {
			return nil, fmt.Errorf("layer %s is not a vector layer", id)
		}
		if i == 0 {
			extent = layer.Extent
			crs = layer.CRS
			geometry = layer.GeometryType
		} else {
			extent = extent.Union(layer.Extent)
			if layer.GeometryType != geometry {
				geometry = UnknownGeometry
			}
		}
		features += layer.FeatureCount
	}
	out := p.AddLayer(&Layer{
		Name:         outputName(params, "merged"),
		Type:         VectorLayer,
		CRS:          crs,
		Visible:      true,
		Provider:     "memory",
		GeometryType: geometry,
		FeatureCount: features,
		Extent:       extent,
	})
	return map[string]any{"OUTPUT": out.ID, "LAYERS_MERGED": len(raw)}, nil
}

func inputLayer(p *Project, params map[string]any) (*Layer, error) {
	id, ok := params["INPUT"].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("parameter INPUT is required")
	}
	layer, ok := p.Layer(id)
	if !ok {
		return nil, fmt.Errorf("layer not found: %s", id)
	}
	if layer.Type != VectorLayer {
		return nil, fmt.Errorf("layer %s is not a vector layer", id)
	}
	return layer, nil
}

func outputName(params map[string]any, fallback string) string {
	if name, ok := params["OUTPUT"].(string); ok && name != "" {
		return name
	}
	return fallback
}

// paramFloat reads a numeric parameter; JSON numbers decode as float64 but
// integers sent by typed clients are accepted too.
func paramFloat(params map[string]any, key string) (float64, bool) {
	switch v := params[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

package gis

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// Provider opens a data source and describes it as a layer. Providers read
// source metadata only; feature data itself stays with the source.
type Provider interface {
	Open(path, name string) (*Layer, error)
}

// ProviderRegistry maps provider names to implementations.
type ProviderRegistry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewProviderRegistry returns a registry with the built-in providers
// installed: ogr (vector files), gdal (raster files), memory (synthetic).
func NewProviderRegistry() *ProviderRegistry {
	r := &ProviderRegistry{providers: make(map[string]Provider)}
	r.Register("ogr", OGRProvider{})
	r.Register("gdal", GDALProvider{})
	r.Register("memory", MemoryProvider{})
	return r
}

// Register installs a provider under name, replacing any previous one.
func (r *ProviderRegistry) Register(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
}

// Open resolves the named provider and opens the source through it.
func (r *ProviderRegistry) Open(provider, path, name string) (*Layer, error) {
	r.mu.RLock()
	p, ok := r.providers[provider]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
	return p.Open(path, name)
}

// MemoryProvider creates layers from memory URIs of the form
// "Point?crs=EPSG:4326". The path carries the geometry type and options;
// no backing file exists.
type MemoryProvider struct{}

// Open parses a memory URI into an empty vector layer.
func (MemoryProvider) Open(path, name string) (*Layer, error) {
	geometry, rawQuery, _ := strings.Cut(path, "?")
	var gt GeometryType
	switch strings.ToLower(geometry) {
	case "point", "multipoint":
		gt = PointGeometry
	case "linestring", "multilinestring", "line":
		gt = LineGeometry
	case "polygon", "multipolygon":
		gt = PolygonGeometry
	case "none", "":
		gt = UnknownGeometry
	default:
		return nil, fmt.Errorf("memory uri: unknown geometry %q", geometry)
	}
	crs := ""
	if rawQuery != "" {
		values, err := url.ParseQuery(rawQuery)
		if err != nil {
			return nil, fmt.Errorf("memory uri: %w", err)
		}
		crs = values.Get("crs")
	}
	return &Layer{
		Name:         name,
		Type:         VectorLayer,
		CRS:          crs,
		Visible:      true,
		Source:       path,
		Provider:     "memory",
		GeometryType: gt,
	}, nil
}

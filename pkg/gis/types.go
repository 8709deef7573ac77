package gis

// LayerType enumerates supported map layer kinds. The values match the
// type names the protocol exposes to clients.
type LayerType string

const (
	VectorLayer LayerType = "VectorLayer"
	RasterLayer LayerType = "RasterLayer"
)

// GeometryType enumerates vector geometry classes.
type GeometryType string

const (
	PointGeometry   GeometryType = "Point"
	LineGeometry    GeometryType = "Line"
	PolygonGeometry GeometryType = "Polygon"
	UnknownGeometry GeometryType = "Unknown"
)

// Extent is an axis-aligned bounding box in layer CRS units.
type Extent struct {
	XMin float64 `json:"xMin"`
	YMin float64 `json:"yMin"`
	XMax float64 `json:"xMax"`
	YMax float64 `json:"yMax"`
}

// IsEmpty reports whether the extent is an inverted box, the sentinel for
// "no extent yet". A degenerate box where min equals max is a valid extent:
// a single point still has a location.
func (e Extent) IsEmpty() bool {
	return e.XMin > e.XMax || e.YMin > e.YMax
}

// Buffer returns the extent grown by d on every side.
func (e Extent) Buffer(d float64) Extent {
	return Extent{
		XMin: e.XMin - d,
		YMin: e.YMin - d,
		XMax: e.XMax + d,
		YMax: e.YMax + d,
	}
}

// Union returns the smallest extent covering both e and o. An empty side
// contributes nothing, so point boxes accumulate correctly.
func (e Extent) Union(o Extent) Extent {
	if e.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return e
	}
	return Extent{
		XMin: min(e.XMin, o.XMin),
		YMin: min(e.YMin, o.YMin),
		XMax: max(e.XMax, o.XMax),
		YMax: max(e.YMax, o.YMax),
	}
}

// Layer is one map layer registered in a project.
type Layer struct {
	ID       string
	Name     string
	Type     LayerType
	CRS      string
	Visible  bool
	Source   string
	Provider string
	Extent   Extent

	// Vector extras.
	GeometryType GeometryType
	FeatureCount int64

	// Raster extras.
	Width     int
	Height    int
	BandCount int
}

// Info returns the layer as a plain JSON-serializable mapping holding the
// common fields plus the extras for the layer's type. Handlers return this
// shape to clients; internal handles never cross the protocol boundary.
func (l *Layer) Info() map[string]any {
	info := map[string]any{
		"id":      l.ID,
		"name":    l.Name,
		"type":    string(l.Type),
		"crs":     l.CRS,
		"visible": l.Visible,
	}
	switch l.Type {
	case VectorLayer:
		info["geometry_type"] = string(l.GeometryType)
		info["feature_count"] = l.FeatureCount
	case RasterLayer:
		info["width"] = l.Width
		info["height"] = l.Height
		info["band_count"] = l.BandCount
	}
	return info
}

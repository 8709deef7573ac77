package gis

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

const townsGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"name": "a"},
     "geometry": {"type": "Point", "coordinates": [10.0, 20.0]}},
    {"type": "Feature", "properties": {"name": "b"},
     "geometry": {"type": "Point", "coordinates": [-5.0, 45.5]}},
    {"type": "Feature", "properties": {"name": "c"},
     "geometry": {"type": "Point", "coordinates": [2.5, -8.25]}}
  ]
}`

func TestOpenGeoJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "towns.geojson")
	if err := os.WriteFile(path, []byte(townsGeoJSON), 0o600); err != nil {
		t.Fatal(err)
	}

	layer, err := OGRProvider{}.Open(path, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if layer.Name != "towns" {
		t.Fatalf("name = %q", layer.Name)
	}
	if layer.Type != VectorLayer || layer.GeometryType != PointGeometry {
		t.Fatalf("type = %q/%q", layer.Type, layer.GeometryType)
	}
	if layer.FeatureCount != 3 {
		t.Fatalf("feature count = %d", layer.FeatureCount)
	}
	if layer.CRS != "EPSG:4326" {
		t.Fatalf("crs = %q", layer.CRS)
	}
	want := Extent{XMin: -5, YMin: -8.25, XMax: 10, YMax: 45.5}
	if layer.Extent != want {
		t.Fatalf("extent = %+v, want %+v", layer.Extent, want)
	}
}

func TestOpenGeoJSONPolygonFeature(t *testing.T) {
	doc := `{"type": "Feature", "geometry": {"type": "Polygon",
	  "coordinates": [[[0,0],[4,0],[4,3],[0,3],[0,0]]]}}`
	dir := t.TempDir()
	path := filepath.Join(dir, "area.json")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	layer, err := OGRProvider{}.Open(path, "plot")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if layer.Name != "plot" {
		t.Fatalf("name override ignored, got %q", layer.Name)
	}
	if layer.GeometryType != PolygonGeometry || layer.FeatureCount != 1 {
		t.Fatalf("geometry = %q, count = %d", layer.GeometryType, layer.FeatureCount)
	}
	want := Extent{XMin: 0, YMin: 0, XMax: 4, YMax: 3}
	if layer.Extent != want {
		t.Fatalf("extent = %+v", layer.Extent)
	}
}

func TestOpenGeoJSONRejectsNonFeatureDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bare.geojson")
	if err := os.WriteFile(path, []byte(`{"type":"Point","coordinates":[1,2]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := (OGRProvider{}).Open(path, ""); err == nil {
		t.Fatal("bare geometry document should be rejected")
	}
}

// writeShapefile creates a minimal .shp/.shx pair: valid headers, the
// given shape type and bounding box, and records index entries.
func writeShapefile(t *testing.T, dir string, shapeType uint32, extent Extent, records int) string {
	t.Helper()

	header := make([]byte, shpHeaderLength)
	binary.BigEndian.PutUint32(header[0:4], shpFileCode)
	binary.BigEndian.PutUint32(header[24:28], shpHeaderLength/2)
	binary.LittleEndian.PutUint32(header[32:36], shapeType)
	binary.LittleEndian.PutUint64(header[36:44], math.Float64bits(extent.XMin))
	binary.LittleEndian.PutUint64(header[44:52], math.Float64bits(extent.YMin))
	binary.LittleEndian.PutUint64(header[52:60], math.Float64bits(extent.XMax))
	binary.LittleEndian.PutUint64(header[60:68], math.Float64bits(extent.YMax))

	shpPath := filepath.Join(dir, "parcels.shp")
	if err := os.WriteFile(shpPath, header, 0o600); err != nil {
		t.Fatal(err)
	}

	index := make([]byte, shpHeaderLength+records*8)
	copy(index, header)
	binary.BigEndian.PutUint32(index[24:28], uint32(len(index)/2))
	if err := os.WriteFile(filepath.Join(dir, "parcels.shx"), index, 0o600); err != nil {
		t.Fatal(err)
	}
	return shpPath
}

func TestOpenShapefile(t *testing.T) {
	extent := Extent{XMin: 100, YMin: -50, XMax: 250.5, YMax: 75}
	path := writeShapefile(t, t.TempDir(), 5, extent, 7)

	layer, err := OGRProvider{}.Open(path, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if layer.Name != "parcels" {
		t.Fatalf("name = %q", layer.Name)
	}
	if layer.GeometryType != PolygonGeometry {
		t.Fatalf("geometry = %q", layer.GeometryType)
	}
	if layer.FeatureCount != 7 {
		t.Fatalf("feature count = %d", layer.FeatureCount)
	}
	if layer.Extent != extent {
		t.Fatalf("extent = %+v, want %+v", layer.Extent, extent)
	}
}

func TestOpenShapefileBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bogus.shp")
	if err := os.WriteFile(path, make([]byte, shpHeaderLength), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := (OGRProvider{}).Open(path, ""); err == nil {
		t.Fatal("zeroed header should be rejected")
	}
}

func TestShapeGeometryMapping(t *testing.T) {
	cases := map[uint32]GeometryType{
		1: PointGeometry, 8: PointGeometry, 11: PointGeometry,
		3: LineGeometry, 13: LineGeometry,
		5: PolygonGeometry, 25: PolygonGeometry,
		0: UnknownGeometry, 31: UnknownGeometry,
	}
	for shapeType, want := range cases {
		if got := shapeGeometry(shapeType); got != want {
			t.Errorf("shapeGeometry(%d) = %q, want %q", shapeType, got, want)
		}
	}
}

func TestLayerNameFromPath(t *testing.T) {
	cases := map[string]string{
		"/data/towns.geojson":   "towns",
		"rivers.shp":            "rivers",
		"/a/b/no_extension":     "no_extension",
		"/data/multi.part.gpkg": "multi.part",
	}
	for path, want := range cases {
		if got := LayerNameFromPath(path); got != want {
			t.Errorf("LayerNameFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestOGRUnsupportedExtension(t *testing.T) {
	if _, err := (OGRProvider{}).Open("/data/grid.tiff", ""); err == nil {
		t.Fatal("want error for unsupported extension")
	}
}

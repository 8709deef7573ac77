package gis

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/mapgrid/gisbridge/pkg/gis/geopackage"
)

// OGRProvider opens vector sources by file extension: GeoJSON, ESRI
// Shapefile, and GeoPackage.
type OGRProvider struct{}

// Open reads source metadata and returns a vector layer description.
func (OGRProvider) Open(path, name string) (*Layer, error) {
	if name == "" {
		name = LayerNameFromPath(path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		return openGeoJSON(path, name)
	case ".shp":
		return openShapefile(path, name)
	case ".gpkg":
		return openGeoPackageVector(path, name)
	default:
		return nil, fmt.Errorf("ogr: unsupported vector source %s", path)
	}
}

// LayerNameFromPath derives a display name from a source path, dropping
// the directory and extension.
func LayerNameFromPath(path string) string {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

type geoJSONGeometry struct {
	Type        string            `json:"type"`
	Coordinates json.RawMessage   `json:"coordinates"`
	Geometries  []geoJSONGeometry `json:"geometries"`
}

type geoJSONFeature struct {
	Geometry *geoJSONGeometry `json:"geometry"`
}

type geoJSONDocument struct {
	Type     string           `json:"type"`
	Features []geoJSONFeature `json:"features"`
	Geometry *geoJSONGeometry `json:"geometry"`
}

func openGeoJSON(path, name string) (*Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ogr: %w", err)
	}
	var doc geoJSONDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("ogr: parse %s: %w", path, err)
	}

	layer := &Layer{
		Name:         name,
		Type:         VectorLayer,
		CRS:          "EPSG:4326", // GeoJSON is WGS84 by specification
		Visible:      true,
		Source:       path,
		Provider:     "ogr",
		GeometryType: UnknownGeometry,
	}
	var geometries []geoJSONGeometry
	switch doc.Type {
	case "FeatureCollection":
		layer.FeatureCount = int64(len(doc.Features))
		for _, f := range doc.Features {
			if f.Geometry != nil {
				geometries = append(geometries, *f.Geometry)
			}
		}
	case "Feature":
		layer.FeatureCount = 1
		if doc.Geometry != nil {
			geometries = append(geometries, *doc.Geometry)
		}
	default:
		return nil, fmt.Errorf("ogr: %s is not a GeoJSON feature document", path)
	}

	var extent Extent
	for i, g := range geometries {
		if i == 0 {
			layer.GeometryType = geometryTypeOf(g.Type)
		}
		box, err := geometryExtent(g)
		if err != nil {
			return nil, fmt.Errorf("ogr: %s: %w", path, err)
		}
		if i == 0 {
			extent = box
		} else {
			extent = extent.Union(box)
		}
	}
	layer.Extent = extent
	return layer, nil
}

func geometryTypeOf(geojsonType string) GeometryType {
	switch geojsonType {
	case "Point", "MultiPoint":
		return PointGeometry
	case "LineString", "MultiLineString":
		return LineGeometry
	case "Polygon", "MultiPolygon":
		return PolygonGeometry
	default:
		return UnknownGeometry
	}
}

// geometryExtent computes the bounding box of one geometry by walking its
// coordinate nesting, whatever its depth.
func geometryExtent(g geoJSONGeometry) (Extent, error) {
	if g.Type == "GeometryCollection" {
		var extent Extent
		for i, sub := range g.Geometries {
			box, err := geometryExtent(sub)
			if err != nil {
				return Extent{}, err
			}
			if i == 0 {
				extent = box
			} else {
				extent = extent.Union(box)
			}
		}
		return extent, nil
	}
	var coords any
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
		return Extent{}, fmt.Errorf("geometry coordinates: %w", err)
	}
	ext := Extent{}
	first := true
	var walk func(v any) error
	walk = func(v any) error {
		arr, ok := v.([]any)
		if !ok {
			return fmt.Errorf("unexpected coordinate value %v", v)
		}
		if len(arr) == 0 {
			return nil
		}
		if x, ok := arr[0].(float64); ok {
			if len(arr) < 2 {
				return fmt.Errorf("position with %d ordinates", len(arr))
			}
			y, ok := arr[1].(float64)
			if !ok {
				return fmt.Errorf("non-numeric ordinate %v", arr[1])
			}
			if first {
				ext = Extent{XMin: x, YMin: y, XMax: x, YMax: y}
				first = false
			} else {
				ext = ext.Union(Extent{XMin: x, YMin: y, XMax: x, YMax: y})
			}
			return nil
		}
		for _, sub := range arr {
			if err := walk(sub); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(coords); err != nil {
		return Extent{}, err
	}
	return ext, nil
}

// Shapefile main-file header layout (100 bytes): file code 9994 big-endian
// at offset 0, shape type little-endian at 32, bounding box doubles at 36.
const (
	shpFileCode     = 9994
	shpHeaderLength = 100
)

func openShapefile(path, name string) (*Layer, error) {
	header := make([]byte, shpHeaderLength)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ogr: %w", err)
	}
	defer f.Close()
	if _, err := io.ReadFull(f, header); err != nil {
		return nil, fmt.Errorf("ogr: read %s header: %w", path, err)
	}
	if binary.BigEndian.Uint32(header[0:4]) != shpFileCode {
		return nil, fmt.Errorf("ogr: %s is not a shapefile", path)
	}
	shapeType := binary.LittleEndian.Uint32(header[32:36])
	layer := &Layer{
		Name:         name,
		Type:         VectorLayer,
		Visible:      true,
		Source:       path,
		Provider:     "ogr",
		GeometryType: shapeGeometry(shapeType),
		Extent: Extent{
			XMin: float64FromLE(header[36:44]),
			YMin: float64FromLE(header[44:52]),
			XMax: float64FromLE(header[52:60]),
			YMax: float64FromLE(header[60:68]),
		},
	}
	count, err := shapefileRecordCount(path)
	if err != nil {
		return nil, err
	}
	layer.FeatureCount = count
	return layer, nil
}

func shapeGeometry(shapeType uint32) GeometryType {
	switch shapeType {
	case 1, 8, 11, 18, 21, 28:
		return PointGeometry
	case 3, 13, 23:
		return LineGeometry
	case 5, 15, 25:
		return PolygonGeometry
	default:
		return UnknownGeometry
	}
}

// shapefileRecordCount derives the feature count from the .shx index: its
// length field at offset 24 is in 16-bit words and each record entry is 8
// bytes after the 100-byte header.
func shapefileRecordCount(shpPath string) (int64, error) {
	shxPath := strings.TrimSuffix(shpPath, filepath.Ext(shpPath)) + ".shx"
	header := make([]byte, shpHeaderLength)
	f, err := os.Open(shxPath)
	if err != nil {
		return 0, fmt.Errorf("ogr: missing index %s: %w", shxPath, err)
	}
	defer f.Close()
	if _, err := io.ReadFull(f, header); err != nil {
		return 0, fmt.Errorf("ogr: read %s header: %w", shxPath, err)
	}
	lengthWords := int64(binary.BigEndian.Uint32(header[24:28]))
	records := (lengthWords*2 - shpHeaderLength) / 8
	if records < 0 {
		return 0, fmt.Errorf("ogr: corrupt index %s", shxPath)
	}
	return records, nil
}

func float64FromLE(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

func openGeoPackageVector(path, name string) (*Layer, error) {
	tables, err := geopackage.Read(path)
	if err != nil {
		return nil, fmt.Errorf("ogr: %w", err)
	}
	for _, t := range tables {
		if t.DataType != geopackage.DataTypeFeatures {
			continue
		}
		layer := &Layer{
			Name:         name,
			Type:         VectorLayer,
			CRS:          fmt.Sprintf("EPSG:%d", t.SRSID),
			Visible:      true,
			Source:       path,
			Provider:     "ogr",
			GeometryType: geometryTypeOf(geopackage.GeometryName(t.GeometryType)),
			FeatureCount: t.FeatureCount,
			Extent:       Extent{XMin: t.MinX, YMin: t.MinY, XMax: t.MaxX, YMax: t.MaxY},
		}
		// A name derived from the file path is less useful than the
		// catalogued table name.
		if name == LayerNameFromPath(path) {
			layer.Name = t.TableName
		}
		return layer, nil
	}
	return nil, fmt.Errorf("ogr: %s has no feature tables", path)
}

package geopackage

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// writeFixture builds a minimal GeoPackage: the gpkg_contents and
// gpkg_geometry_columns catalog tables plus one feature table with rows.
func writeFixture(t *testing.T, featureRows int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.gpkg")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE gpkg_contents (
			table_name TEXT PRIMARY KEY,
			data_type TEXT NOT NULL,
			identifier TEXT,
			min_x DOUBLE, min_y DOUBLE, max_x DOUBLE, max_y DOUBLE,
			srs_id INTEGER
		);`,
		`CREATE TABLE gpkg_geometry_columns (
			table_name TEXT PRIMARY KEY,
			column_name TEXT NOT NULL,
			geometry_type_name TEXT NOT NULL,
			srs_id INTEGER
		);`,
		`CREATE TABLE parks (fid INTEGER PRIMARY KEY, geom BLOB, name TEXT);`,
		`INSERT INTO gpkg_contents VALUES
			('parks', 'features', 'City Parks', -10.0, -20.0, 30.0, 40.0, 4326);`,
		`INSERT INTO gpkg_geometry_columns VALUES ('parks', 'geom', 'MULTIPOLYGON', 4326);`,
		`INSERT INTO gpkg_contents VALUES
			('basemap', 'tiles', 'Basemap', 0, 0, 0, 0, 3857);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("fixture setup: %v", err)
		}
	}
	for i := 0; i < featureRows; i++ {
		if _, err := db.Exec(`INSERT INTO parks (geom, name) VALUES (NULL, 'p');`); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestRead(t *testing.T) {
	path := writeFixture(t, 12)

	tables, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(tables) != 2 {
		t.Fatalf("len(tables) = %d", len(tables))
	}

	// Rows come back ordered by table name.
	basemap, parks := tables[0], tables[1]
	if basemap.TableName != "basemap" || basemap.DataType != DataTypeTiles {
		t.Fatalf("basemap = %+v", basemap)
	}
	if basemap.FeatureCount != 0 {
		t.Fatalf("tile table got a feature count: %d", basemap.FeatureCount)
	}

	if parks.TableName != "parks" || parks.DataType != DataTypeFeatures {
		t.Fatalf("parks = %+v", parks)
	}
	if parks.Identifier != "City Parks" {
		t.Fatalf("identifier = %q", parks.Identifier)
	}
	if parks.GeometryType != "MULTIPOLYGON" {
		t.Fatalf("geometry type = %q", parks.GeometryType)
	}
	if parks.SRSID != 4326 {
		t.Fatalf("srs id = %d", parks.SRSID)
	}
	if parks.FeatureCount != 12 {
		t.Fatalf("feature count = %d", parks.FeatureCount)
	}
	if parks.MinX != -10 || parks.MinY != -20 || parks.MaxX != 30 || parks.MaxY != 40 {
		t.Fatalf("bounds = %v %v %v %v", parks.MinX, parks.MinY, parks.MaxX, parks.MaxY)
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "absent.gpkg")); err == nil {
		t.Fatal("want error for missing file")
	}
}

func TestGeometryName(t *testing.T) {
	cases := map[string]string{
		"POINT":          "Point",
		"point":          "Point",
		"LINESTRING":     "LineString",
		"MULTIPOLYGON":   "MultiPolygon",
		"GEOMETRY":       "GEOMETRY",
		"CIRCULARSTRING": "CIRCULARSTRING",
	}
	for in, want := range cases {
		if got := GeometryName(in); got != want {
			t.Errorf("GeometryName(%q) = %q, want %q", in, got, want)
		}
	}
}

// Package geopackage reads layer metadata out of GeoPackage databases.
// A GeoPackage is a SQLite file whose gpkg_contents table catalogs the
// feature and tile tables it carries.
package geopackage

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"
)

// Data types recorded in gpkg_contents.
const (
	DataTypeFeatures = "features"
	DataTypeTiles    = "tiles"
)

// Table describes one catalogued table.
type Table struct {
	TableName    string
	DataType     string
	Identifier   string
	MinX         float64
	MinY         float64
	MaxX         float64
	MaxY         float64
	SRSID        int
	GeometryType string
	FeatureCount int64
}

// Read opens the GeoPackage at path and returns its catalogued tables with
// per-table feature counts. The database is opened read-only and closed
// before returning.
func Read(path string) ([]Table, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`
		SELECT c.table_name, c.data_type, COALESCE(c.identifier, c.table_name),
		       COALESCE(c.min_x, 0), COALESCE(c.min_y, 0),
		       COALESCE(c.max_x, 0), COALESCE(c.max_y, 0),
		       COALESCE(c.srs_id, 0),
		       COALESCE(g.geometry_type_name, '')
		FROM gpkg_contents c
		LEFT JOIN gpkg_geometry_columns g ON g.table_name = c.table_name
		ORDER BY c.table_name;
	`)
	if err != nil {
		return nil, fmt.Errorf("read gpkg_contents: %w", err)
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.TableName, &t.DataType, &t.Identifier,
			&t.MinX, &t.MinY, &t.MaxX, &t.MaxY, &t.SRSID, &t.GeometryType); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tables {
		if tables[i].DataType != DataTypeFeatures {
			continue
		}
		count, err := countRows(db, tables[i].TableName)
		if err != nil {
			return nil, err
		}
		tables[i].FeatureCount = count
	}
	return tables, nil
}

func countRows(db *sql.DB, table string) (int64, error) {
	if strings.ContainsAny(table, `"`) {
		return 0, fmt.Errorf("suspicious table name %q", table)
	}
	var count int64
	err := db.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %q;`, table)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return count, nil
}

// GeometryName normalizes a gpkg geometry type name (POINT, LINESTRING,
// MULTIPOLYGON, ...) to the GeoJSON-style spelling used elsewhere.
func GeometryName(gpkgType string) string {
	switch strings.ToUpper(gpkgType) {
	case "POINT":
		return "Point"
	case "MULTIPOINT":
		return "MultiPoint"
	case "LINESTRING":
		return "LineString"
	case "MULTILINESTRING":
		return "MultiLineString"
	case "POLYGON":
		return "Polygon"
	case "MULTIPOLYGON":
		return "MultiPolygon"
	default:
		return gpkgType
	}
}

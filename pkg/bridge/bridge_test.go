package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapgrid/gisbridge/pkg/gis"
	"github.com/mapgrid/gisbridge/pkg/protocol"
)

// testHost wires a bridge to a real server on a loopback port and returns
// a connected client. Everything is torn down with the test.
func testHost(t *testing.T, cfg Config) (*Bridge, *protocol.Client) {
	t.Helper()

	b := New(cfg)
	srv := protocol.NewServer(nil)
	b.Register(srv)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, srv.Start(ctx, "127.0.0.1:0"))

	client := protocol.NewClient(srv.Addr())
	t.Cleanup(func() {
		client.Disconnect()
		srv.Stop()
		cancel()
	})
	return b, client
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func remoteMessage(t *testing.T, err error) string {
	t.Helper()
	var remote *protocol.RemoteError
	require.True(t, errors.As(err, &remote), "expected RemoteError, got %v", err)
	return remote.Message
}

func TestGetProjectInfo(t *testing.T) {
	project := gis.NewProject("city.qgz", "City", "EPSG:3857")
	canvas := gis.NewCanvas(gis.Extent{XMin: -1, YMin: -1, XMax: 1, YMax: 1})
	_, client := testHost(t, Config{Project: project, Canvas: canvas})

	raw, err := client.SendCommand("get_project_info", nil)
	require.NoError(t, err)

	info := decode[map[string]any](t, raw)
	assert.Equal(t, "city.qgz", info["fileName"])
	assert.Equal(t, "City", info["title"])
	assert.Equal(t, "EPSG:3857", info["crs"])
	assert.Equal(t, float64(0), info["layerCount"])
	assert.Contains(t, info, "extent")
}

func TestGetLayersEmptyProject(t *testing.T) {
	_, client := testHost(t, Config{})

	raw, err := client.SendCommand("get_layers", nil)
	require.NoError(t, err)

	// An empty project yields an empty array, never null.
	assert.JSONEq(t, `{"layers": []}`, string(raw))
}

func TestAddVectorLayer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spots.geojson")
	doc := `{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[3,4]}}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	b, client := testHost(t, Config{})

	raw, err := client.SendCommand("add_vector_layer", map[string]any{"path": path})
	require.NoError(t, err)

	result := decode[map[string]any](t, raw)
	assert.Equal(t, "spots", result["name"])
	assert.Equal(t, float64(2), result["feature_count"])
	require.NotEmpty(t, result["id"])

	layer, ok := b.Project().Layer(result["id"].(string))
	require.True(t, ok)
	assert.Equal(t, gis.VectorLayer, layer.Type)

	t.Run("layers listing includes it", func(t *testing.T) {
		raw, err := client.SendCommand("get_layers", nil)
		require.NoError(t, err)
		listing := decode[struct {
			Layers []map[string]any `json:"layers"`
		}](t, raw)
		require.Len(t, listing.Layers, 1)
		assert.Equal(t, "spots", listing.Layers[0]["name"])
		assert.Equal(t, "Point", listing.Layers[0]["geometry_type"])
	})
}

func TestAddVectorLayerFailureText(t *testing.T) {
	_, client := testHost(t, Config{})

	_, err := client.SendCommand("add_vector_layer", map[string]any{
		"path": "/does/not/exist.shp",
	})
	assert.Equal(t, "Layer failed to load: /does/not/exist.shp", remoteMessage(t, err))
}

func TestAddVectorLayerMemoryProvider(t *testing.T) {
	_, client := testHost(t, Config{})

	raw, err := client.SendCommand("add_vector_layer", map[string]any{
		"path":     "Point?crs=EPSG:4326",
		"name":     "scratch",
		"provider": "memory",
	})
	require.NoError(t, err)
	result := decode[map[string]any](t, raw)
	assert.Equal(t, "scratch", result["name"])
}

func TestAddRasterLayerFailureText(t *testing.T) {
	_, client := testHost(t, Config{})

	_, err := client.SendCommand("add_raster_layer", map[string]any{
		"path": "/does/not/exist.tif",
	})
	assert.Equal(t, "Layer failed to load: /does/not/exist.tif", remoteMessage(t, err))
}

func TestZoomToLayer(t *testing.T) {
	project := gis.NewProject("", "", "EPSG:4326")
	canvas := gis.NewCanvas(gis.Extent{XMin: -180, YMin: -90, XMax: 180, YMax: 90})
	layer := project.AddLayer(&gis.Layer{
		Name: "parcels", Type: gis.VectorLayer, Visible: true,
		Extent: gis.Extent{XMin: 5, YMin: 6, XMax: 7, YMax: 8},
	})
	_, client := testHost(t, Config{Project: project, Canvas: canvas})

	raw, err := client.SendCommand("zoom_to_layer", map[string]any{"layer_id": layer.ID})
	require.NoError(t, err)
	result := decode[map[string]any](t, raw)
	assert.Equal(t, "parcels", result["zoomed_to"])
	assert.Equal(t, layer.Extent, canvas.Extent())

	t.Run("missing layer", func(t *testing.T) {
		_, err := client.SendCommand("zoom_to_layer", map[string]any{"layer_id": "missing-id"})
		assert.Equal(t, "Layer not found: missing-id", remoteMessage(t, err))
	})
}

func TestSetVisibility(t *testing.T) {
	project := gis.NewProject("", "", "EPSG:4326")
	layer := project.AddLayer(&gis.Layer{Name: "roads", Type: gis.VectorLayer, Visible: true})
	_, client := testHost(t, Config{Project: project})

	raw, err := client.SendCommand("set_visibility", map[string]any{
		"layer_id": layer.ID,
		"visible":  false,
	})
	require.NoError(t, err)
	result := decode[map[string]any](t, raw)
	assert.Equal(t, "roads", result["layer"])
	assert.Equal(t, false, result["visible"])
	assert.False(t, layer.Visible)

	t.Run("visible param required", func(t *testing.T) {
		_, err := client.SendCommand("set_visibility", map[string]any{"layer_id": layer.ID})
		assert.Equal(t, "visible is required", remoteMessage(t, err))
	})

	t.Run("missing layer", func(t *testing.T) {
		_, err := client.SendCommand("set_visibility", map[string]any{
			"layer_id": "nope", "visible": true,
		})
		assert.Equal(t, "Layer not found: nope", remoteMessage(t, err))
	})
}

func TestRemoveLayer(t *testing.T) {
	project := gis.NewProject("", "", "EPSG:4326")
	layer := project.AddLayer(&gis.Layer{Name: "temp", Type: gis.VectorLayer})
	_, client := testHost(t, Config{Project: project})

	raw, err := client.SendCommand("remove_layer", map[string]any{"layer_id": layer.ID})
	require.NoError(t, err)
	result := decode[map[string]any](t, raw)
	assert.Equal(t, "temp", result["removed"])
	assert.Equal(t, 0, project.LayerCount())

	t.Run("second removal fails", func(t *testing.T) {
		_, err := client.SendCommand("remove_layer", map[string]any{"layer_id": layer.ID})
		assert.Equal(t, "Layer not found: "+layer.ID, remoteMessage(t, err))
	})
}

func TestExecuteCode(t *testing.T) {
	var executed []string
	interpreter := gis.InterpreterFunc(func(code string) error {
		executed = append(executed, code)
		if code == "raise" {
			return fmt.Errorf("division by zero")
		}
		return nil
	})
	_, client := testHost(t, Config{Interpreter: interpreter})

	raw, err := client.SendCommand("execute_code", map[string]any{"code": "print('hi')"})
	require.NoError(t, err)
	result := decode[map[string]any](t, raw)
	assert.Equal(t, true, result["executed"])
	assert.Equal(t, []string{"print('hi')"}, executed)

	t.Run("interpreter failure", func(t *testing.T) {
		_, err := client.SendCommand("execute_code", map[string]any{"code": "raise"})
		assert.Equal(t, "Code execution error: division by zero", remoteMessage(t, err))
	})
}

func TestExecuteCodeWithoutInterpreter(t *testing.T) {
	_, client := testHost(t, Config{})

	_, err := client.SendCommand("execute_code", map[string]any{"code": "print(1)"})
	assert.Equal(t, "Code execution error: no interpreter configured", remoteMessage(t, err))
}

func TestRunProcessingAlgorithm(t *testing.T) {
	project := gis.NewProject("", "", "EPSG:4326")
	layer := project.AddLayer(&gis.Layer{
		Name: "fields", Type: gis.VectorLayer, Visible: true,
		GeometryType: gis.PolygonGeometry, FeatureCount: 4,
		Extent: gis.Extent{XMin: 0, YMin: 0, XMax: 2, YMax: 2},
	})
	_, client := testHost(t, Config{Project: project})

	raw, err := client.SendCommand("run_processing_algorithm", map[string]any{
		"algorithm": "native:buffer",
		"parameters": map[string]any{
			"INPUT":    layer.ID,
			"DISTANCE": 1.0,
		},
	})
	require.NoError(t, err)

	result := decode[struct {
		Algorithm string         `json:"algorithm"`
		Result    map[string]any `json:"result"`
	}](t, raw)
	assert.Equal(t, "native:buffer", result.Algorithm)
	outID, _ := result.Result["OUTPUT"].(string)
	require.NotEmpty(t, outID)

	out, ok := project.Layer(outID)
	require.True(t, ok)
	assert.Equal(t, gis.Extent{XMin: -1, YMin: -1, XMax: 3, YMax: 3}, out.Extent)

	t.Run("unknown algorithm", func(t *testing.T) {
		_, err := client.SendCommand("run_processing_algorithm", map[string]any{
			"algorithm": "native:bogus",
		})
		assert.Equal(t, "Error running algorithm: algorithm not found: native:bogus",
			remoteMessage(t, err))
	})
}

func TestUnknownCommandText(t *testing.T) {
	_, client := testHost(t, Config{})

	_, err := client.SendCommand("reticulate_splines", nil)
	assert.Equal(t, "Unknown command type: reticulate_splines", remoteMessage(t, err))
}

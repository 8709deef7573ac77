// Package bridge binds the command protocol to host state: it owns the
// handler registry mapping command names to operations on a project.
package bridge

import (
	"github.com/mapgrid/gisbridge/pkg/gis"
	"github.com/mapgrid/gisbridge/pkg/protocol"
)

// Bridge holds the host-state collaborators the handlers operate on.
type Bridge struct {
	project     *gis.Project
	canvas      *gis.Canvas
	providers   *gis.ProviderRegistry
	processing  *gis.Processing
	interpreter gis.Interpreter
	logger      protocol.Logger
}

// Config collects the collaborators for New. Project is required; a nil
// Canvas means project info carries no view extent, and a nil Interpreter
// makes execute_code fail with a descriptive error.
type Config struct {
	Project     *gis.Project
	Canvas      *gis.Canvas
	Providers   *gis.ProviderRegistry
	Processing  *gis.Processing
	Interpreter gis.Interpreter
	Logger      protocol.Logger
}

// New builds a bridge, filling in default provider and processing
// registries when none are supplied.
func New(cfg Config) *Bridge {
	b := &Bridge{
		project:     cfg.Project,
		canvas:      cfg.Canvas,
		providers:   cfg.Providers,
		processing:  cfg.Processing,
		interpreter: cfg.Interpreter,
		logger:      cfg.Logger,
	}
	if b.project == nil {
		b.project = gis.NewProject("", "", "EPSG:4326")
	}
	if b.providers == nil {
		b.providers = gis.NewProviderRegistry()
	}
	if b.processing == nil {
		b.processing = gis.NewProcessing()
	}
	return b
}

// Project exposes the underlying project, mainly for tests and startup
// preloading.
func (b *Bridge) Project() *gis.Project {
	return b.project
}

// Register installs every command handler on the server.
func (b *Bridge) Register(srv *protocol.Server) {
	srv.Register("get_project_info", b.handleGetProjectInfo)
	srv.Register("get_layers", b.handleGetLayers)
	srv.Register("add_vector_layer", b.handleAddVectorLayer)
	srv.Register("add_raster_layer", b.handleAddRasterLayer)
	srv.Register("zoom_to_layer", b.handleZoomToLayer)
	srv.Register("set_visibility", b.handleSetVisibility)
	srv.Register("remove_layer", b.handleRemoveLayer)
	srv.Register("execute_code", b.handleExecuteCode)
	srv.Register("run_processing_algorithm", b.handleRunProcessingAlgorithm)
}

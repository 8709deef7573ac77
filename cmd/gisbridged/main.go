package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mapgrid/gisbridge/pkg/bridge"
	"github.com/mapgrid/gisbridge/pkg/config"
	"github.com/mapgrid/gisbridge/pkg/gis"
	"github.com/mapgrid/gisbridge/pkg/logging"
	"github.com/mapgrid/gisbridge/pkg/protocol"
)

func main() {
	configPath := flag.String("config", "", "Path to config.toml (optional)")
	host := flag.String("host", "", "Override listen host")
	port := flag.Int("port", 0, "Override listen port")
	flag.Parse()

	logger := logging.New("gisbridged")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configPath, *host, *port, logger); err != nil {
		logger.Errorf("fatal: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, hostOverride string, portOverride int, logger *logging.Logger) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if hostOverride != "" {
		cfg.Server.Host = hostOverride
	}
	if portOverride != 0 {
		cfg.Server.Port = portOverride
	}
	if err := logger.Configure(cfg.Logging); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}

	project := gis.NewProject(cfg.Project.FileName, cfg.Project.Title, cfg.Project.CRS)
	canvas := gis.NewCanvas(gis.Extent{XMin: -180, YMin: -90, XMax: 180, YMax: 90})
	providers := gis.NewProviderRegistry()
	preloadLayers(cfg.Project.Layers, project, providers, logger)

	b := bridge.New(bridge.Config{
		Project:     project,
		Canvas:      canvas,
		Providers:   providers,
		Processing:  gis.NewProcessing(),
		Interpreter: loggingInterpreter(logger),
		Logger:      logger,
	})

	srv := protocol.NewServer(logger)
	b.Register(srv)

	if err := srv.Start(ctx, cfg.Server.Addr()); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	defer srv.Stop()

	logger.Infof("bridge server listening on %s", srv.Addr())

	<-ctx.Done()
	logger.Infof("shutting down")
	return nil
}

func preloadLayers(sources []config.LayerSource, project *gis.Project, providers *gis.ProviderRegistry, logger *logging.Logger) {
	for _, src := range sources {
		provider := src.Provider
		if provider == "" {
			if src.Kind == "raster" {
				provider = "gdal"
			} else {
				provider = "ogr"
			}
		}
		layer, err := providers.Open(provider, src.Path, src.Name)
		if err != nil {
			logger.Warnf("preload %s failed: %v", src.Path, err)
			continue
		}
		project.AddLayer(layer)
		logger.Debugf("preloaded layer %s (%s)", layer.Name, layer.ID)
	}
}

// loggingInterpreter stands in for an embedded scripting runtime: fragments
// are accepted and logged. An embedding application replaces this with its
// real interpreter binding.
func loggingInterpreter(logger *logging.Logger) gis.Interpreter {
	return gis.InterpreterFunc(func(code string) error {
		logger.Debugf("executing %d-byte code fragment", len(code))
		return nil
	})
}

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultPort is the port the bridge server listens on unless configured.
const DefaultPort = 9877

// ServerConfig defines the TCP endpoint the bridge server binds to.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the host:port dial/listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LayerSource describes a layer preloaded into the project at startup.
type LayerSource struct {
	Path     string `toml:"path"`
	Name     string `toml:"name"`
	Provider string `toml:"provider"`
	Kind     string `toml:"kind"` // vector or raster
}

// ProjectConfig seeds the host project state.
type ProjectConfig struct {
	FileName string        `toml:"fileName"`
	Title    string        `toml:"title"`
	CRS      string        `toml:"crs"`
	Layers   []LayerSource `toml:"layers"`
}

// LoggingConfig defines basic logging knobs.
type LoggingConfig struct {
	Level       string `toml:"level"`
	FilePath    string `toml:"filePath"`
	FileMaxSize int    `toml:"fileMaxSizeMB"`
}

// BridgeConfig aggregates daemon configuration.
type BridgeConfig struct {
	Server  ServerConfig  `toml:"server"`
	Project ProjectConfig `toml:"project"`
	Logging LoggingConfig `toml:"logging"`
}

// Default returns a configuration suitable for local development.
func Default() *BridgeConfig {
	return &BridgeConfig{
		Server: ServerConfig{Host: "localhost", Port: DefaultPort},
		Project: ProjectConfig{
			Title: "Untitled Project",
			CRS:   "EPSG:4326",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads a TOML config from the provided path.
func Load(path string) (*BridgeConfig, error) {
	var cfg BridgeConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes cfg as TOML to path.
func Save(path string, cfg *BridgeConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(cfg)
}

func (cfg *BridgeConfig) validate() error {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}
	if cfg.Project.CRS == "" {
		cfg.Project.CRS = "EPSG:4326"
	}
	for i, src := range cfg.Project.Layers {
		if src.Path == "" {
			return fmt.Errorf("project.layers[%d]: path required", i)
		}
		switch src.Kind {
		case "", "vector", "raster":
		default:
			return fmt.Errorf("project.layers[%d]: unknown kind %q", i, src.Kind)
		}
	}
	return nil
}

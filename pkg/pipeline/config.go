package pipeline

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/flowgridhq/flowgrid/pkg/cache"
	"github.com/flowgridhq/flowgrid/pkg/errors"
	"github.com/flowgridhq/flowgrid/pkg/layout"
	"github.com/flowgridhq/flowgrid/pkg/store"
)

// FileConfig is the on-disk TOML configuration shared by the CLI and the
// server. Every section is optional; missing sections keep their defaults.
//
//	[layout]
//	rank_spacing = 200
//	grid_size = 10
//
//	[server]
//	addr = ":8080"
//
//	[redis]
//	addr = "localhost:6379"
//
//	[mongo]
//	uri = "mongodb://localhost:27017"
type FileConfig struct {
	Layout layout.Config     `toml:"layout"`
	Server ServerConfig      `toml:"server"`
	Redis  cache.RedisConfig `toml:"redis"`
	Mongo  store.MongoConfig `toml:"mongo"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Addr string `toml:"addr" json:"addr"`
}

// LoadFileConfig reads a TOML configuration file. A missing path returns the
// zero config with layout defaults filled in.
func LoadFileConfig(path string) (FileConfig, error) {
	cfg := FileConfig{
		Layout: layout.DefaultConfig(),
		Server: ServerConfig{Addr: ":8080"},
	}
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, errors.New(errors.ErrCodeFileNotFound, "config file %s not found", path)
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config file %s", path)
	}
	return cfg, nil
}

// LoadLayoutConfig reads just the [layout] section of a TOML config file,
// merged over the engine defaults.
func LoadLayoutConfig(path string) (layout.Config, error) {
	cfg, err := LoadFileConfig(path)
	return cfg.Layout, err
}


// Package config loads the server configuration from a YAML file, filling
// unset fields from struct-tag defaults.
package config

import (
	"os"

	"github.com/juju/errors"
	"github.com/mcuadros/go-defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Listen is the address the HTTP server binds to.
	Listen string `yaml:"listen" default:":8080"`

	MaxSteps          int `yaml:"max_steps" default:"1000"`
	MaxConcurrentRuns int `yaml:"max_concurrent_runs" default:"64"`

	// Postgres makes run records durable; omitted means in-memory only.
	Postgres *Postgres `yaml:"postgres,omitempty"`
}

type Postgres struct {
	Host     string `yaml:"host" default:"localhost"`
	Port     int    `yaml:"port" default:"5432"`
	User     string `yaml:"user" default:"postgres"`
	Password string `yaml:"password"`
	Database string `yaml:"database" default:"flowforge"`
	SSLMode  string `yaml:"sslmode" default:"disable"`
}

func Default() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// Load reads path and overlays it on the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to read config %s", path)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, errors.Annotatef(err, "failed to parse config %s", path)
	}
	if cfg.Postgres != nil {
		defaults.SetDefaults(cfg.Postgres)
	}
	return cfg, nil
}

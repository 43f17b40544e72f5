// Package config loads the runtime's ambient configuration: debug and
// trace toggles settable per Runtime instance instead of hardcoded as
// build-time constants, plus the hash substrate's initial capacity.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the runtime's ambient settings.
type Config struct {
	// Debug raises the runtime's log level to Debug (Trace, when also
	// set, takes precedence). It enables no extra assertions.
	Debug bool `yaml:"debug"`
	// Trace enables verbose structured logging of type-lattice and
	// module-registry activity.
	Trace bool `yaml:"trace"`
	// InitialCapacity is the starting bucket count for freshly created
	// hashmap.Tables (module namespaces, instance maps, ...). Must be
	// a power of two; non-power-of-two values are rounded up. Default
	// 8, the hash table substrate's minimum capacity.
	InitialCapacity int `yaml:"initial_capacity"`
}

// Default returns the zero-configuration defaults: tracing and extra
// assertions off, minimum hash capacity.
func Default() *Config {
	return &Config{
		Debug:           false,
		Trace:           false,
		InitialCapacity: 8,
	}
}

// Load reads a YAML configuration file at path and overlays it onto
// Default(). An empty path returns Default() unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.InitialCapacity < 8 {
		cfg.InitialCapacity = 8
	}
	return cfg, nil
}

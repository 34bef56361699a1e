// Package config handles Yggdrasil configuration via environment variables
// and optional YAML files.
//
// All keys are prefixed with YGGDRASIL_. Configuration is loaded from the
// environment with LoadFromEnv() or from a YAML file with LoadFile(), and
// validated with Validate() before use. The two loaders are not merged.
//
// Environment Variables:
//   - YGGDRASIL_MAX_RECURSION_DEPTH=100   traversal recursion cap
//   - YGGDRASIL_COLLATION_LOCALE=en       ORDER BY string collation locale
//   - YGGDRASIL_SCHEMA_FILE=schema.yaml   schema for mutation validation
//   - YGGDRASIL_GRAPH_FILE=graph.json     graph export consumed by the CLI
//
// Example Usage:
//
//	cfg := config.LoadFromEnv()
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("invalid config: %v", err)
//	}
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all Yggdrasil configuration.
type Config struct {
	Engine EngineConfig `yaml:"engine"`
	Paths  PathsConfig  `yaml:"paths"`
}

// EngineConfig holds query-engine settings.
type EngineConfig struct {
	// MaxRecursionDepth caps variable-length, hierarchy, and reachability
	// walks. Walks truncate silently at the cap.
	MaxRecursionDepth int `yaml:"maxRecursionDepth"`

	// CollationLocale is the BCP 47 tag used for ORDER BY string collation.
	// Empty means the undetermined locale.
	CollationLocale string `yaml:"collationLocale"`
}

// PathsConfig holds file locations consumed by the CLI.
type PathsConfig struct {
	SchemaFile string `yaml:"schemaFile"`
	GraphFile  string `yaml:"graphFile"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxRecursionDepth: 100,
		},
	}
}

// LoadFromEnv builds a Config from defaults overridden by YGGDRASIL_*
// environment variables. Malformed numeric values keep the default.
func LoadFromEnv() *Config {
	cfg := Default()
	if v := os.Getenv("YGGDRASIL_MAX_RECURSION_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.MaxRecursionDepth = n
		}
	}
	if v := os.Getenv("YGGDRASIL_COLLATION_LOCALE"); v != "" {
		cfg.Engine.CollationLocale = v
	}
	if v := os.Getenv("YGGDRASIL_SCHEMA_FILE"); v != "" {
		cfg.Paths.SchemaFile = v
	}
	if v := os.Getenv("YGGDRASIL_GRAPH_FILE"); v != "" {
		cfg.Paths.GraphFile = v
	}
	return cfg
}

// LoadFile reads a YAML config file over the defaults. It does not read the
// YGGDRASIL_* environment variables; LoadFromEnv does that separately.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if c.Engine.MaxRecursionDepth <= 0 {
		return fmt.Errorf("engine.maxRecursionDepth must be positive, got %d", c.Engine.MaxRecursionDepth)
	}
	return nil
}

// Package config loads engine configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"glyphos/internal/activation"
	"glyphos/internal/glyph"
)

// Config holds all glyphd configuration.
type Config struct {
	// Vault directory holding *.gdf records
	Vault VaultConfig `yaml:"vault"`

	// Glyph registry configuration
	Registry RegistryConfig `yaml:"registry"`

	// Activation trace log configuration
	Trace TraceConfig `yaml:"trace"`

	// Inheritance resolver configuration
	Inheritance InheritanceConfig `yaml:"inheritance"`

	// Dynamics rule engine configuration
	Dynamics DynamicsConfig `yaml:"dynamics"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// VaultConfig configures the GDF vault.
type VaultConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// RegistryConfig configures the glyph registry.
type RegistryConfig struct {
	Capacity int `yaml:"capacity"`
}

// TraceConfig configures the activation trace log.
type TraceConfig struct {
	Capacity int  `yaml:"capacity"`
	Enabled  bool `yaml:"enabled"`
}

// InheritanceConfig configures the parent resolver.
type InheritanceConfig struct {
	MaxDepth int `yaml:"max_depth"`
}

// DynamicsConfig configures the glyph evolution rules.
type DynamicsConfig struct {
	ActivationThreshold float64 `yaml:"activation_threshold"`
	DecayRate           float64 `yaml:"decay_rate"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Vault: VaultConfig{
			Path:  "vault",
			Watch: false,
		},
		Registry: RegistryConfig{
			Capacity: glyph.DefaultCapacity,
		},
		Trace: TraceConfig{
			Capacity: activation.DefaultTraceCapacity,
			Enabled:  true,
		},
		Inheritance: InheritanceConfig{
			MaxDepth: activation.DefaultMaxDepth,
		},
		Dynamics: DynamicsConfig{
			ActivationThreshold: 50.0,
			DecayRate:           0.05,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, cfg.Validate()
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("GLYPHD_VAULT_PATH"); path != "" {
		c.Vault.Path = path
	}
	if v := os.Getenv("GLYPHD_REGISTRY_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Registry.Capacity = n
		}
	}
	if v := os.Getenv("GLYPHD_TRACE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Trace.Capacity = n
		}
	}
	if v := os.Getenv("GLYPHD_MAX_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Inheritance.MaxDepth = n
		}
	}
	if level := os.Getenv("GLYPHD_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate checks the configuration for values the engine cannot run
// with.
func (c *Config) Validate() error {
	if c.Registry.Capacity <= 0 {
		return fmt.Errorf("registry capacity must be positive, got %d", c.Registry.Capacity)
	}
	if c.Trace.Capacity <= 0 {
		return fmt.Errorf("trace capacity must be positive, got %d", c.Trace.Capacity)
	}
	if c.Inheritance.MaxDepth <= 0 {
		return fmt.Errorf("inheritance max depth must be positive, got %d", c.Inheritance.MaxDepth)
	}
	if c.Dynamics.DecayRate < 0 || c.Dynamics.DecayRate > 1 {
		return fmt.Errorf("decay rate must be in [0,1], got %v", c.Dynamics.DecayRate)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	return nil
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Kauxtubh/pinecone/index"
)

// Config represents the index server configuration
type Config struct {
	Port                 int               `json:"port"`
	DataDir              string            `json:"data_dir,omitempty"`
	StatsIntervalSeconds int               `json:"stats_interval_seconds,omitempty"`
	Database             DatabaseConfig    `json:"database"`
	Engine               EngineConfig      `json:"engine"`
	Maintenance          MaintenanceConfig `json:"maintenance"`
	Bootstrap            BootstrapConfig   `json:"bootstrap,omitempty"`
	Debug                DebugConfig       `json:"debug,omitempty"`
}

// DatabaseConfig contains snapshot database settings
type DatabaseConfig struct {
	Path string `json:"path"`
}

// EngineConfig selects the similarity search engine backing every index.
type EngineConfig struct {
	Kind string     `json:"kind"` // "flat" (exact) or "hnsw" (approximate)
	HNSW HNSWConfig `json:"hnsw,omitempty"`
}

// HNSWConfig tunes the graph engine. Zero values fall back to the
// engine's own defaults.
type HNSWConfig struct {
	M              int `json:"m,omitempty"`
	EfConstruction int `json:"ef_construction,omitempty"`
	EfSearch       int `json:"ef_search,omitempty"`
}

// MaintenanceConfig contains background maintenance settings
type MaintenanceConfig struct {
	Enabled          bool    `json:"enabled"`
	SnapshotSchedule string  `json:"snapshot_schedule,omitempty"` // cron expression with seconds field
	CompactSchedule  string  `json:"compact_schedule,omitempty"`
	CompactThreshold float64 `json:"compact_threshold,omitempty"` // garbage ratio that triggers a rebuild
}

// BootstrapConfig points at an optional YAML manifest of indexes to
// ensure at startup.
type BootstrapConfig struct {
	ManifestPath string `json:"manifest_path,omitempty"`
}

// DebugConfig contains debugging and logging settings
type DebugConfig struct {
	VerboseLogging bool `json:"verbose_logging,omitempty"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Port:                 18700,
		StatsIntervalSeconds: 2,
		Database: DatabaseConfig{
			Path: "pinecone.db",
		},
		Engine: EngineConfig{
			Kind: "flat",
			HNSW: HNSWConfig{
				M:              16,
				EfConstruction: 200,
				EfSearch:       50,
			},
		},
		Maintenance: MaintenanceConfig{
			Enabled:          true,
			SnapshotSchedule: "0 */5 * * * *", // every five minutes
			CompactSchedule:  "0 0 * * * *",   // hourly
			CompactThreshold: 0.2,
		},
	}
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	// Check if file exists, create default if not
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		if err := cfg.Save(path); err != nil {
			return nil, fmt.Errorf("failed to save default config: %w", err)
		}
		fmt.Printf("Created default configuration at %s\n", path)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Expand tilde in path fields before env-var expansion so that
	// both "~/foo" and "${SOME_PATH}" work.
	cfg.expandTilde()
	cfg.expandEnvVars()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the entire configuration
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	switch c.Engine.Kind {
	case "", "flat", "hnsw":
	default:
		return fmt.Errorf("engine kind must be \"flat\" or \"hnsw\", got %q", c.Engine.Kind)
	}
	if c.Engine.HNSW.M < 0 || c.Engine.HNSW.EfConstruction < 0 || c.Engine.HNSW.EfSearch < 0 {
		return fmt.Errorf("hnsw parameters must not be negative")
	}

	if c.Maintenance.Enabled {
		if c.Maintenance.SnapshotSchedule == "" && c.Maintenance.CompactSchedule == "" {
			return fmt.Errorf("maintenance is enabled but no schedules are set")
		}
		if t := c.Maintenance.CompactThreshold; t < 0 || t > 1 {
			return fmt.Errorf("compact_threshold must be between 0 and 1, got %g", t)
		}
	}

	return nil
}

// EngineKind returns the configured engine kind, defaulting to "flat"
// so that search stays exact unless the operator opts in to HNSW.
func (c *Config) EngineKind() string {
	if c.Engine.Kind == "" {
		return "flat"
	}
	return c.Engine.Kind
}

// HNSWOptions translates the config block into engine options.
func (c *Config) HNSWOptions() index.HNSWConfig {
	return index.HNSWConfig{
		M:              c.Engine.HNSW.M,
		EfConstruction: c.Engine.HNSW.EfConstruction,
		EfSearch:       c.Engine.HNSW.EfSearch,
	}
}

// CompactThreshold returns the garbage ratio above which the compact
// task rebuilds an engine, defaulting to 0.2.
func (c *Config) CompactThreshold() float64 {
	if c.Maintenance.CompactThreshold == 0 {
		return 0.2
	}
	return c.Maintenance.CompactThreshold
}

// StatsInterval returns the websocket stats push interval, defaulting
// to two seconds.
func (c *Config) StatsInterval() time.Duration {
	if c.StatsIntervalSeconds <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.StatsIntervalSeconds) * time.Second
}

// SnapshotPath returns the resolved snapshot database path. An explicit
// database.path wins, then data_dir/pinecone.db, then pinecone.db in
// the working directory.
func (c *Config) SnapshotPath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	if c.DataDir != "" {
		return filepath.Join(c.DataDir, "pinecone.db")
	}
	return "pinecone.db"
}

// expandEnvVars expands ${ENV_VAR} placeholders in path-valued fields.
func (c *Config) expandEnvVars() {
	c.DataDir = os.ExpandEnv(c.DataDir)
	c.Database.Path = os.ExpandEnv(c.Database.Path)
	c.Bootstrap.ManifestPath = os.ExpandEnv(c.Bootstrap.ManifestPath)
}

// expandTilde replaces a leading "~/" with the user's home directory in
// path-valued config fields.
func (c *Config) expandTilde() {
	home, err := os.UserHomeDir()
	if err != nil {
		return // can't expand, leave as-is
	}
	expand := func(p string) string {
		if p == "~" {
			return home
		}
		if strings.HasPrefix(p, "~/") {
			return filepath.Join(home, p[2:])
		}
		return p
	}

	c.DataDir = expand(c.DataDir)
	c.Database.Path = expand(c.Database.Path)
	c.Bootstrap.ManifestPath = expand(c.Bootstrap.ManifestPath)
}

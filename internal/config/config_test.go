package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Port != 18700 {
		t.Errorf("Expected default port 18700, got %d", cfg.Port)
	}

	if cfg.Database.Path != "pinecone.db" {
		t.Errorf("Expected default database path 'pinecone.db', got %s", cfg.Database.Path)
	}

	if cfg.EngineKind() != "flat" {
		t.Errorf("Expected default engine 'flat', got %s", cfg.EngineKind())
	}

	if !cfg.Maintenance.Enabled {
		t.Error("Expected maintenance enabled by default")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate, got: %v", err)
	}
}

func TestConfigSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.json")

	originalConfig := &Config{
		Port:    19999,
		DataDir: tmpDir,
		Database: DatabaseConfig{
			Path: filepath.Join(tmpDir, "test.db"),
		},
		Engine: EngineConfig{
			Kind: "hnsw",
			HNSW: HNSWConfig{M: 32, EfConstruction: 100, EfSearch: 64},
		},
		Maintenance: MaintenanceConfig{
			Enabled:          true,
			SnapshotSchedule: "*/30 * * * * *",
			CompactThreshold: 0.5,
		},
	}

	if err := originalConfig.Save(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	loadedConfig, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loadedConfig.Port != originalConfig.Port {
		t.Errorf("Port mismatch: expected %d, got %d", originalConfig.Port, loadedConfig.Port)
	}
	if loadedConfig.Engine.Kind != "hnsw" {
		t.Errorf("Engine kind mismatch: expected hnsw, got %s", loadedConfig.Engine.Kind)
	}
	if loadedConfig.Engine.HNSW.M != 32 {
		t.Errorf("HNSW M mismatch: expected 32, got %d", loadedConfig.Engine.HNSW.M)
	}
	if loadedConfig.Maintenance.CompactThreshold != 0.5 {
		t.Errorf("CompactThreshold mismatch: expected 0.5, got %g", loadedConfig.Maintenance.CompactThreshold)
	}
}

func TestLoadNonExistentConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "non-existent-config.json")

	// Should create default config if file doesn't exist
	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Expected Load to create default config, got error: %v", err)
	}

	defaultCfg := Default()
	if cfg.Port != defaultCfg.Port {
		t.Errorf("Expected default port %d, got %d", defaultCfg.Port, cfg.Port)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Config file should have been created")
	}
}

func TestInvalidConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid-config.json")

	if err := os.WriteFile(configPath, []byte("invalid json {"), 0644); err != nil {
		t.Fatalf("Failed to write invalid config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("Expected error when loading invalid JSON config")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default is valid", func(c *Config) {}, false},
		{"zero port", func(c *Config) { c.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Port = 70000 }, true},
		{"unknown engine", func(c *Config) { c.Engine.Kind = "ivf" }, true},
		{"empty engine kind allowed", func(c *Config) { c.Engine.Kind = "" }, false},
		{"negative hnsw m", func(c *Config) { c.Engine.HNSW.M = -1 }, true},
		{"maintenance without schedules", func(c *Config) {
			c.Maintenance.SnapshotSchedule = ""
			c.Maintenance.CompactSchedule = ""
		}, true},
		{"threshold above one", func(c *Config) { c.Maintenance.CompactThreshold = 1.5 }, true},
		{"maintenance disabled skips schedule checks", func(c *Config) {
			c.Maintenance = MaintenanceConfig{Enabled: false}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected config to validate, got: %v", err)
			}
		})
	}
}

func TestEnvironmentVariableExpansion(t *testing.T) {
	t.Setenv("PINECONE_TEST_DIR", "/var/lib/pinecone")

	cfg := &Config{
		DataDir:  "${PINECONE_TEST_DIR}",
		Database: DatabaseConfig{Path: "${PINECONE_TEST_DIR}/snap.db"},
	}
	cfg.expandEnvVars()

	if cfg.DataDir != "/var/lib/pinecone" {
		t.Errorf("DataDir not expanded: got %s", cfg.DataDir)
	}
	if cfg.Database.Path != "/var/lib/pinecone/snap.db" {
		t.Errorf("Database.Path not expanded: got %s", cfg.Database.Path)
	}
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}

	cfg := &Config{
		DataDir:   "~/pinecone-data",
		Database:  DatabaseConfig{Path: "~/db/snap.db"},
		Bootstrap: BootstrapConfig{ManifestPath: "~/indexes.yaml"},
	}
	cfg.expandTilde()

	if cfg.DataDir != filepath.Join(home, "pinecone-data") {
		t.Errorf("DataDir: got %s, want %s", cfg.DataDir, filepath.Join(home, "pinecone-data"))
	}
	if cfg.Database.Path != filepath.Join(home, "db/snap.db") {
		t.Errorf("Database.Path: got %s, want %s", cfg.Database.Path, filepath.Join(home, "db/snap.db"))
	}
	if cfg.Bootstrap.ManifestPath != filepath.Join(home, "indexes.yaml") {
		t.Errorf("Bootstrap.ManifestPath: got %s", cfg.Bootstrap.ManifestPath)
	}
}

func TestExpandTilde_NoTilde(t *testing.T) {
	cfg := &Config{
		DataDir:  "/absolute/path",
		Database: DatabaseConfig{Path: ""},
	}
	cfg.expandTilde()

	if cfg.DataDir != "/absolute/path" {
		t.Errorf("absolute path should be unchanged: got %s", cfg.DataDir)
	}
	if cfg.Database.Path != "" {
		t.Errorf("empty string should be unchanged: got %s", cfg.Database.Path)
	}
}

func TestSnapshotPath(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"explicit path wins", Config{DataDir: "/data", Database: DatabaseConfig{Path: "/db/x.db"}}, "/db/x.db"},
		{"derives from data dir", Config{DataDir: "/data"}, filepath.Join("/data", "pinecone.db")},
		{"falls back to working dir", Config{}, "pinecone.db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.SnapshotPath(); got != tt.want {
				t.Errorf("SnapshotPath: got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCompactThresholdDefault(t *testing.T) {
	cfg := &Config{}
	if got := cfg.CompactThreshold(); got != 0.2 {
		t.Errorf("Expected default threshold 0.2, got %g", got)
	}

	cfg.Maintenance.CompactThreshold = 0.7
	if got := cfg.CompactThreshold(); got != 0.7 {
		t.Errorf("Expected configured threshold 0.7, got %g", got)
	}
}

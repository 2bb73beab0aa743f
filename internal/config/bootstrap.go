package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Kauxtubh/pinecone/index"
)

// Manifest declares indexes that should exist when the server starts.
// Indexes already present are left untouched.
type Manifest struct {
	Indexes []ManifestIndex `yaml:"indexes"`
}

// ManifestIndex describes one index to ensure at startup.
type ManifestIndex struct {
	Name      string `yaml:"name"`
	Dimension int    `yaml:"dimension"`
	Metric    string `yaml:"metric,omitempty"` // defaults to "cosine"
}

// LoadManifest reads and validates a bootstrap manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest validation failed: %w", err)
	}

	// Fill in the metric default so callers never see an empty one.
	for i := range m.Indexes {
		if m.Indexes[i].Metric == "" {
			m.Indexes[i].Metric = "cosine"
		}
	}

	return &m, nil
}

// Validate checks every declared index for a usable name, dimension,
// and metric, and rejects duplicate names.
func (m *Manifest) Validate() error {
	seen := make(map[string]struct{}, len(m.Indexes))
	for i, mi := range m.Indexes {
		if mi.Name == "" {
			return fmt.Errorf("index %d: name is required", i)
		}
		if _, dup := seen[mi.Name]; dup {
			return fmt.Errorf("index %q: duplicate name", mi.Name)
		}
		seen[mi.Name] = struct{}{}

		if mi.Dimension <= 0 {
			return fmt.Errorf("index %q: dimension must be positive, got %d", mi.Name, mi.Dimension)
		}
		if mi.Metric != "" {
			if _, err := index.ParseMetric(mi.Metric); err != nil {
				return fmt.Errorf("index %q: %w", mi.Name, err)
			}
		}
	}
	return nil
}

package pinecone

import (
	"fmt"

	"github.com/Kauxtubh/pinecone/index"
	"github.com/Kauxtubh/pinecone/storage"
)

// Builder configures a DB.
type Builder struct {
	sqlitePath string
	useHNSW    bool
	hnswCfg    index.HNSWConfig
}

// NewBuilder creates a DB builder. The zero configuration uses exact
// linear-scan search and no persistence.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithSQLite enables snapshot persistence at path.
func (b *Builder) WithSQLite(path string) *Builder {
	b.sqlitePath = path
	return b
}

// WithHNSW switches namespaces to graph-based approximate search.
func (b *Builder) WithHNSW(cfg index.HNSWConfig) *Builder {
	b.useHNSW = true
	b.hnswCfg = cfg
	return b
}

// WithFlat switches namespaces to exact linear-scan search, the default.
func (b *Builder) WithFlat() *Builder {
	b.useHNSW = false
	return b
}

// Build creates the DB.
func (b *Builder) Build() (*DB, error) {
	db := &DB{indexes: make(map[string]*Index)}

	if b.useHNSW {
		cfg := b.hnswCfg
		db.engine = func(m index.Metric) index.Index { return index.NewHNSW(m, cfg) }
	} else {
		db.engine = func(m index.Metric) index.Index { return index.NewFlat(m) }
	}

	if b.sqlitePath != "" {
		snap, err := storage.NewSQLite(b.sqlitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite: %w", err)
		}
		db.snap = snap
	}
	return db, nil
}

// Quick creates a DB with sensible defaults.
func Quick() (*DB, error) {
	return NewBuilder().Build()
}

// QuickWithPath creates a DB with SQLite snapshot persistence.
func QuickWithPath(dbPath string) (*DB, error) {
	return NewBuilder().WithSQLite(dbPath).Build()
}

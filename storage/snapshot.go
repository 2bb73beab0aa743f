package storage

import (
	"context"
	"time"
)

// IndexSnapshot is the persisted form of one index: its definition plus every
// namespace's records. Namespaces with zero records are present as empty
// slices so implicitly created containers survive a restart.
//
// Metric is carried as its wire string; the engine parses it on load.
type IndexSnapshot struct {
	Name       string
	ID         string
	Dimension  int
	Metric     string
	CreatedAt  time.Time
	Namespaces map[string][]Record
}

// Snapshotter persists and restores full registry snapshots. Records are the
// source of truth: similarity structures are rebuilt from them on load rather
// than persisted alongside.
type Snapshotter interface {
	Save(ctx context.Context, indexes []IndexSnapshot) error
	Load(ctx context.Context) ([]IndexSnapshot, error)
	Close() error
}

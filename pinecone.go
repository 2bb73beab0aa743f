// Package pinecone implements a single-node vector index engine: named
// indexes with a fixed dimension and metric, records partitioned into
// namespaces, metadata-filtered top-k similarity search, and optional
// SQLite snapshot persistence.
//
// A DB owns the index registry and exposes the full operation surface.
// Reads run in parallel; writes serialize per namespace, so traffic on
// different namespaces never contends.
package pinecone

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Kauxtubh/pinecone/index"
	"github.com/Kauxtubh/pinecone/storage"
)

// Version of the engine library.
const Version = "0.1.0"

// DB is the index registry and operation surface. All methods are safe for
// concurrent use.
type DB struct {
	mu      sync.RWMutex
	indexes map[string]*Index
	engine  func(metric index.Metric) index.Index
	snap    storage.Snapshotter
}

// CreateIndex provisions a new named index. The index registers in state
// creating and flips to ready before CreateIndex returns; pollers on other
// goroutines may observe the intermediate state.
func (db *DB) CreateIndex(ctx context.Context, name string, dimension int, metric index.Metric) (*Index, error) {
	if name == "" {
		return nil, wrapError("CreateIndex", fmt.Errorf("%w: index name must not be empty", ErrInvalidArgument))
	}
	if dimension < 1 {
		return nil, wrapError("CreateIndex", fmt.Errorf("%w: dimension must be positive, got %d", ErrInvalidArgument, dimension))
	}
	if _, err := index.ParseMetric(string(metric)); err != nil {
		return nil, wrapError("CreateIndex", fmt.Errorf("%w: %v", ErrInvalidArgument, err))
	}

	ix := &Index{
		name:       name,
		id:         uuid.NewString(),
		dimension:  dimension,
		metric:     metric,
		createdAt:  time.Now().UTC(),
		state:      StateCreating,
		namespaces: make(map[string]*namespace),
	}
	ix.engine = func() index.Index { return db.engine(metric) }

	db.mu.Lock()
	if _, exists := db.indexes[name]; exists {
		db.mu.Unlock()
		return nil, wrapError("CreateIndex", fmt.Errorf("index %q: %w", name, ErrAlreadyExists))
	}
	db.indexes[name] = ix
	db.mu.Unlock()

	ix.ready()
	return ix, nil
}

// DescribeIndex returns the control-plane view of an index.
func (db *DB) DescribeIndex(ctx context.Context, name string) (*IndexDescription, error) {
	ix, err := db.lookup(name)
	if err != nil {
		return nil, wrapError("DescribeIndex", err)
	}
	desc := ix.describe()
	return &desc, nil
}

// ListIndexes returns descriptions of every index, sorted by name.
func (db *DB) ListIndexes(ctx context.Context) []IndexDescription {
	db.mu.RLock()
	out := make([]IndexDescription, 0, len(db.indexes))
	for _, ix := range db.indexes {
		out = append(out, ix.describe())
	}
	db.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DeleteIndex removes an index. Operations already in flight finish
// against the detached state; anything issued afterwards fails as not
// found.
func (db *DB) DeleteIndex(ctx context.Context, name string) error {
	db.mu.Lock()
	ix, ok := db.indexes[name]
	if ok {
		delete(db.indexes, name)
	}
	db.mu.Unlock()
	if !ok {
		return wrapError("DeleteIndex", fmt.Errorf("index %q: %w", name, ErrNotFound))
	}

	ix.mu.Lock()
	ix.state = StateDeleting
	ix.namespaces = make(map[string]*namespace)
	ix.mu.Unlock()
	return nil
}

// Upsert inserts or fully replaces records in one namespace of the index,
// creating the namespace on first use. The batch is all-or-nothing: any
// invalid record rejects the whole call before anything is written.
// Records are retained by the index; callers must not modify them after
// upsert.
func (db *DB) Upsert(ctx context.Context, name, namespace string, records []storage.Record) (int, error) {
	ix, err := db.lookup(name)
	if err != nil {
		return 0, wrapError("Upsert", err)
	}
	n, err := ix.upsert(ctx, namespace, records)
	if err != nil {
		return 0, wrapError("Upsert", err)
	}
	return n, nil
}

// Query returns the top-k most similar records in one namespace, best
// first. An unknown namespace yields an empty response, not an error.
func (db *DB) Query(ctx context.Context, name string, req QueryRequest) (*QueryResponse, error) {
	ix, err := db.lookup(name)
	if err != nil {
		return nil, wrapError("Query", err)
	}
	resp, err := ix.query(ctx, req)
	if err != nil {
		return nil, wrapError("Query", err)
	}
	return resp, nil
}

// Fetch returns the records with the given ids, keyed by id. Missing ids
// are simply absent from the result.
func (db *DB) Fetch(ctx context.Context, name, namespace string, ids []string) (map[string]storage.Record, error) {
	ix, err := db.lookup(name)
	if err != nil {
		return nil, wrapError("Fetch", err)
	}
	recs, err := ix.fetch(ctx, namespace, ids)
	if err != nil {
		return nil, wrapError("Fetch", err)
	}
	return recs, nil
}

// Delete removes records from one namespace, either the listed ids or,
// with deleteAll, the whole namespace including its container. Deleting
// absent ids or an absent namespace succeeds with a count of zero.
func (db *DB) Delete(ctx context.Context, name, namespace string, ids []string, deleteAll bool) (int, error) {
	ix, err := db.lookup(name)
	if err != nil {
		return 0, wrapError("Delete", err)
	}
	n, err := ix.delete(ctx, namespace, ids, deleteAll)
	if err != nil {
		return 0, wrapError("Delete", err)
	}
	return n, nil
}

// DescribeIndexStats reports per-namespace and total record counts.
func (db *DB) DescribeIndexStats(ctx context.Context, name string) (*IndexStats, error) {
	ix, err := db.lookup(name)
	if err != nil {
		return nil, wrapError("DescribeIndexStats", err)
	}
	stats, err := ix.stats()
	if err != nil {
		return nil, wrapError("DescribeIndexStats", err)
	}
	return stats, nil
}

// Compact rebuilds any namespace search structure whose garbage ratio is
// nonzero and meets the threshold, reclaiming space left behind by deletes
// and replacements. It returns the number of structures rebuilt.
func (db *DB) Compact(threshold float64) int {
	db.mu.RLock()
	indexes := make([]*Index, 0, len(db.indexes))
	for _, ix := range db.indexes {
		indexes = append(indexes, ix)
	}
	db.mu.RUnlock()

	compacted := 0
	for _, ix := range indexes {
		ix.mu.RLock()
		nss := make([]*namespace, 0, len(ix.namespaces))
		for _, ns := range ix.namespaces {
			nss = append(nss, ns)
		}
		ix.mu.RUnlock()

		for _, ns := range nss {
			ns.mu.Lock()
			if c, ok := ns.idx.(index.Compactor); ok {
				if ratio := c.GarbageRatio(); ratio > 0 && ratio >= threshold {
					c.Compact()
					compacted++
				}
			}
			ns.mu.Unlock()
		}
	}
	return compacted
}

// SaveSnapshot writes every ready index to the snapshot store. It is a
// no-op when persistence is not configured.
func (db *DB) SaveSnapshot(ctx context.Context) error {
	if db.snap == nil {
		return nil
	}

	db.mu.RLock()
	indexes := make([]*Index, 0, len(db.indexes))
	for _, ix := range db.indexes {
		indexes = append(indexes, ix)
	}
	db.mu.RUnlock()
	sort.Slice(indexes, func(i, j int) bool { return indexes[i].name < indexes[j].name })

	snaps := make([]storage.IndexSnapshot, 0, len(indexes))
	for _, ix := range indexes {
		if snap, ok := ix.snapshot(); ok {
			snaps = append(snaps, snap)
		}
	}
	if err := db.snap.Save(ctx, snaps); err != nil {
		return wrapError("SaveSnapshot", err)
	}
	return nil
}

// LoadSnapshot restores indexes from the snapshot store, rebuilding each
// namespace's search structure from its records. A loaded index replaces
// any live index with the same name.
func (db *DB) LoadSnapshot(ctx context.Context) error {
	if db.snap == nil {
		return nil
	}
	snaps, err := db.snap.Load(ctx)
	if err != nil {
		return wrapError("LoadSnapshot", err)
	}

	for _, snap := range snaps {
		if err := ctx.Err(); err != nil {
			return wrapError("LoadSnapshot", err)
		}
		metric, err := index.ParseMetric(snap.Metric)
		if err != nil {
			return wrapError("LoadSnapshot", fmt.Errorf("index %q: %w", snap.Name, err))
		}

		ix := &Index{
			name:       snap.Name,
			id:         snap.ID,
			dimension:  snap.Dimension,
			metric:     metric,
			createdAt:  snap.CreatedAt,
			state:      StateCreating,
			namespaces: make(map[string]*namespace, len(snap.Namespaces)),
		}
		ix.engine = func() index.Index { return db.engine(metric) }

		for name, records := range snap.Namespaces {
			ns := newNamespace(ix.engine)
			for _, rec := range records {
				ns.store.Upsert(rec)
				ns.idx.Insert(rec)
			}
			ix.namespaces[name] = ns
		}
		ix.state = StateReady

		db.mu.Lock()
		db.indexes[snap.Name] = ix
		db.mu.Unlock()
	}
	return nil
}

// Close releases the snapshot store. In-memory indexes remain usable.
func (db *DB) Close() error {
	if db.snap == nil {
		return nil
	}
	return db.snap.Close()
}

func (db *DB) lookup(name string) (*Index, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	ix, ok := db.indexes[name]
	if !ok {
		return nil, fmt.Errorf("index %q: %w", name, ErrNotFound)
	}
	return ix, nil
}

package pinecone

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Kauxtubh/pinecone/filter"
	"github.com/Kauxtubh/pinecone/index"
	"github.com/Kauxtubh/pinecone/storage"
)

// IndexState tracks an index through its lifecycle:
// absent, creating, ready, deleting, absent.
type IndexState string

const (
	StateCreating IndexState = "creating"
	StateReady    IndexState = "ready"
	StateDeleting IndexState = "deleting"
)

// Index is one named vector index: a fixed dimension and metric, with
// records partitioned into namespaces. Indexes are created and owned by a
// DB; operations route through it.
type Index struct {
	name      string
	id        string
	dimension int
	metric    index.Metric
	createdAt time.Time
	engine    func() index.Index

	mu         sync.RWMutex
	state      IndexState
	namespaces map[string]*namespace
}

// namespace pairs a record store with its search structure. Its lock keeps
// the two consistent: a mutation updates both before any reader can observe
// either, and operations on different namespaces never contend.
type namespace struct {
	mu    sync.RWMutex
	store *storage.RecordStore
	idx   index.Index
}

func newNamespace(engine func() index.Index) *namespace {
	return &namespace{store: storage.NewRecordStore(), idx: engine()}
}

func (ix *Index) Name() string         { return ix.name }
func (ix *Index) ID() string           { return ix.id }
func (ix *Index) Dimension() int       { return ix.dimension }
func (ix *Index) Metric() index.Metric { return ix.metric }
func (ix *Index) CreatedAt() time.Time { return ix.createdAt }

// State reports the current lifecycle state.
func (ix *Index) State() IndexState {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.state
}

func (ix *Index) ready() {
	ix.mu.Lock()
	ix.state = StateReady
	ix.mu.Unlock()
}

func (ix *Index) describe() IndexDescription {
	return IndexDescription{
		Name:      ix.name,
		ID:        ix.id,
		Dimension: ix.dimension,
		Metric:    ix.metric,
		Status:    ix.State(),
		CreatedAt: ix.createdAt,
	}
}

// errNotReady converts a non-ready state into the error the caller sees.
// A deleting index behaves as if it were already gone.
func errNotReady(state IndexState, name string) error {
	if state == StateDeleting {
		return fmt.Errorf("index %q: %w", name, ErrNotFound)
	}
	return fmt.Errorf("index %q is %s: %w", name, state, ErrIndexNotReady)
}

// namespaceFor returns the named namespace, creating it when create is set.
// Without create, a missing namespace returns nil with no error: absent
// namespaces read as empty.
func (ix *Index) namespaceFor(name string, create bool) (*namespace, error) {
	ix.mu.RLock()
	state := ix.state
	ns := ix.namespaces[name]
	ix.mu.RUnlock()

	if state != StateReady {
		return nil, errNotReady(state, ix.name)
	}
	if ns != nil || !create {
		return ns, nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.state != StateReady {
		return nil, errNotReady(ix.state, ix.name)
	}
	if ns = ix.namespaces[name]; ns == nil {
		ns = newNamespace(ix.engine)
		ix.namespaces[name] = ns
	}
	return ns, nil
}

func (ix *Index) upsert(ctx context.Context, nsName string, records []storage.Record) (int, error) {
	if len(records) == 0 {
		return 0, fmt.Errorf("%w: upsert requires at least one record", ErrInvalidArgument)
	}

	// The whole batch is validated before anything mutates, so a bad record
	// aborts with the store untouched and the namespace uncreated.
	for _, rec := range records {
		if rec.ID == "" {
			return 0, fmt.Errorf("%w: record with empty id", ErrInvalidArgument)
		}
		if len(rec.Values) != ix.dimension {
			return 0, fmt.Errorf("%w: record %q has %d values, index dimension is %d",
				ErrDimensionMismatch, rec.ID, len(rec.Values), ix.dimension)
		}
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	ns, err := ix.namespaceFor(nsName, true)
	if err != nil {
		return 0, err
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()
	for _, rec := range records {
		ns.store.Upsert(rec)
		ns.idx.Insert(rec)
	}
	return len(records), nil
}

func (ix *Index) query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	if req.TopK < 1 {
		return nil, fmt.Errorf("%w: top_k must be at least 1, got %d", ErrInvalidArgument, req.TopK)
	}
	if len(req.Vector) != ix.dimension {
		return nil, fmt.Errorf("%w: query has %d values, index dimension is %d",
			ErrDimensionMismatch, len(req.Vector), ix.dimension)
	}

	var pred index.Predicate
	if req.Filter != nil {
		compiled, err := filter.Compile(req.Filter)
		if err != nil {
			return nil, err
		}
		pred = compiled.Matches
	}

	ns, err := ix.namespaceFor(req.Namespace, false)
	if err != nil {
		return nil, err
	}
	resp := &QueryResponse{Namespace: req.Namespace, Matches: []ScoredMatch{}}
	if ns == nil {
		return resp, nil
	}

	ns.mu.RLock()
	defer ns.mu.RUnlock()
	matches, err := ns.idx.Search(ctx, req.Vector, req.TopK, pred)
	if err != nil {
		return nil, err
	}

	resp.Matches = make([]ScoredMatch, 0, len(matches))
	for _, m := range matches {
		sm := ScoredMatch{ID: m.ID, Score: m.Score}
		if req.IncludeValues || req.IncludeMetadata {
			if rec, ok := ns.store.Get(m.ID); ok {
				if req.IncludeValues {
					sm.Values = rec.Values
				}
				if req.IncludeMetadata {
					sm.Metadata = rec.Metadata
				}
			}
		}
		resp.Matches = append(resp.Matches, sm)
	}
	return resp, nil
}

func (ix *Index) fetch(ctx context.Context, nsName string, ids []string) (map[string]storage.Record, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: fetch requires at least one id", ErrInvalidArgument)
	}

	ns, err := ix.namespaceFor(nsName, false)
	if err != nil {
		return nil, err
	}
	out := make(map[string]storage.Record, len(ids))
	if ns == nil {
		return out, nil
	}

	ns.mu.RLock()
	defer ns.mu.RUnlock()
	for _, id := range ids {
		if rec, ok := ns.store.Get(id); ok {
			out[id] = rec
		}
	}
	return out, nil
}

func (ix *Index) delete(ctx context.Context, nsName string, ids []string, deleteAll bool) (int, error) {
	if deleteAll == (len(ids) > 0) {
		return 0, fmt.Errorf("%w: exactly one of ids or delete_all must be set", ErrInvalidArgument)
	}

	if deleteAll {
		// Bulk deletion drops the namespace container itself.
		ix.mu.Lock()
		if ix.state != StateReady {
			state := ix.state
			ix.mu.Unlock()
			return 0, errNotReady(state, ix.name)
		}
		ns := ix.namespaces[nsName]
		delete(ix.namespaces, nsName)
		ix.mu.Unlock()

		if ns == nil {
			return 0, nil
		}
		ns.mu.Lock()
		defer ns.mu.Unlock()
		return ns.store.Len(), nil
	}

	ns, err := ix.namespaceFor(nsName, false)
	if err != nil {
		return 0, err
	}
	if ns == nil {
		return 0, nil
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()
	removed := ns.store.Delete(ids...)
	for _, id := range ids {
		ns.idx.Remove(id)
	}
	return removed, nil
}

func (ix *Index) stats() (*IndexStats, error) {
	ix.mu.RLock()
	if ix.state != StateReady {
		state := ix.state
		ix.mu.RUnlock()
		return nil, errNotReady(state, ix.name)
	}
	namespaces := make(map[string]*namespace, len(ix.namespaces))
	for name, ns := range ix.namespaces {
		namespaces[name] = ns
	}
	ix.mu.RUnlock()

	stats := &IndexStats{
		Dimension:  ix.dimension,
		Namespaces: make(map[string]int, len(namespaces)),
	}
	for name, ns := range namespaces {
		ns.mu.RLock()
		count := ns.store.Len()
		ns.mu.RUnlock()
		stats.Namespaces[name] = count
		stats.TotalVectorCount += count
	}
	return stats, nil
}

// snapshot captures a point-in-time copy of the index, namespace by
// namespace. Only ready indexes are captured.
func (ix *Index) snapshot() (storage.IndexSnapshot, bool) {
	ix.mu.RLock()
	if ix.state != StateReady {
		ix.mu.RUnlock()
		return storage.IndexSnapshot{}, false
	}
	namespaces := make(map[string]*namespace, len(ix.namespaces))
	for name, ns := range ix.namespaces {
		namespaces[name] = ns
	}
	ix.mu.RUnlock()

	snap := storage.IndexSnapshot{
		Name:       ix.name,
		ID:         ix.id,
		Dimension:  ix.dimension,
		Metric:     string(ix.metric),
		CreatedAt:  ix.createdAt,
		Namespaces: make(map[string][]storage.Record, len(namespaces)),
	}
	for name, ns := range namespaces {
		ns.mu.RLock()
		snap.Namespaces[name] = ns.store.All()
		ns.mu.RUnlock()
	}
	return snap, true
}

// IndexDescription is the control-plane view of an index.
type IndexDescription struct {
	Name      string       `json:"name"`
	ID        string       `json:"id"`
	Dimension int          `json:"dimension"`
	Metric    index.Metric `json:"metric"`
	Status    IndexState   `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

// IndexStats summarizes record counts. TotalVectorCount always equals the
// sum over Namespaces.
type IndexStats struct {
	Dimension        int            `json:"dimension"`
	TotalVectorCount int            `json:"total_vector_count"`
	Namespaces       map[string]int `json:"namespaces"`
}

// QueryRequest describes one similarity query against an index.
type QueryRequest struct {
	Namespace       string
	Vector          []float32
	TopK            int
	Filter          filter.Expr
	IncludeMetadata bool
	IncludeValues   bool
}

// ScoredMatch is one query hit. Values and Metadata are attached only when
// the query asked for them.
type ScoredMatch struct {
	ID       string           `json:"id"`
	Score    float32          `json:"score"`
	Values   []float32        `json:"values,omitempty"`
	Metadata storage.Metadata `json:"metadata,omitempty"`
}

// QueryResponse holds matches best-first. Equal scores order by ascending
// id, so responses are deterministic.
type QueryResponse struct {
	Matches   []ScoredMatch `json:"matches"`
	Namespace string        `json:"namespace"`
}

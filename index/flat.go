package index

import (
	"context"
	"sync"

	"github.com/Kauxtubh/pinecone/storage"
)

// cancelCheckInterval is how many records a scan visits between looking at
// the caller's context.
const cancelCheckInterval = 256

// Flat is an exact linear scan index. Every search considers every record,
// so filtered queries always return the full eligible top-k. It is the
// default structure and the oracle the approximate indexes are tested
// against.
type Flat struct {
	mu     sync.RWMutex
	metric Metric
	recs   map[string]storage.Record
}

// NewFlat creates an empty exact index scoring under metric.
func NewFlat(metric Metric) *Flat {
	return &Flat{
		metric: metric,
		recs:   make(map[string]storage.Record),
	}
}

func (f *Flat) Insert(rec storage.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs[rec.ID] = rec
}

func (f *Flat) Remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.recs, id)
}

func (f *Flat) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.recs)
}

func (f *Flat) Search(ctx context.Context, query []float32, k int, pred Predicate) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	matches := make([]Match, 0, len(f.recs))
	visited := 0
	for _, rec := range f.recs {
		if visited%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		visited++

		if pred != nil && !pred(rec.Metadata) {
			continue
		}
		matches = append(matches, Match{ID: rec.ID, Score: f.metric.Score(query, rec.Values)})
	}

	sortMatches(matches)
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Package index provides per-namespace nearest neighbor search structures.
// Flat scans every vector and is the exact reference; HNSW trades exactness
// for sublinear search on large namespaces. Both report scores where higher
// is always more similar, regardless of metric.
package index

import (
	"context"
	"fmt"
	"sort"

	"github.com/Kauxtubh/pinecone/internal/mathutil"
	"github.com/Kauxtubh/pinecone/storage"
)

// Metric is the scoring function fixed per index at creation.
type Metric string

const (
	Cosine     Metric = "cosine"
	Euclidean  Metric = "euclidean"
	DotProduct Metric = "dotproduct"
)

// ParseMetric validates a wire-format metric name.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case Cosine, Euclidean, DotProduct:
		return Metric(s), nil
	}
	return "", fmt.Errorf("unknown metric %q (want cosine, euclidean, or dotproduct)", s)
}

// Score reports the similarity of a and b under m. Higher is always more
// similar: euclidean similarity is the negated L2 distance, so 0 is a
// perfect match and scores fall from there. Cosine of a zero-norm vector
// is 0 rather than dividing by zero.
func (m Metric) Score(a, b []float32) float32 {
	switch m {
	case Cosine:
		return mathutil.CosineSimilarity(a, b)
	case Euclidean:
		return -mathutil.EuclideanDistance(a, b)
	case DotProduct:
		return mathutil.DotProduct(a, b)
	}
	return 0
}

// Match is a single search hit.
type Match struct {
	ID    string
	Score float32
}

// Predicate restricts search eligibility by record metadata. A nil
// Predicate admits every record.
type Predicate func(meta storage.Metadata) bool

// Index answers top-k nearest neighbor queries over one namespace's
// vectors. Implementations are safe for concurrent use. Dimension checks
// happen upstream; every vector an Index sees has the index dimension.
type Index interface {
	// Insert adds rec, replacing any existing record with the same id.
	Insert(rec storage.Record)

	// Remove drops the record with the given id. Unknown ids are a no-op.
	Remove(id string)

	// Search returns up to k matches for query, best first, restricted to
	// records satisfying pred. Equal scores order by ascending id. Search
	// returns ctx.Err() if the caller abandons the query mid-scan.
	Search(ctx context.Context, query []float32, k int, pred Predicate) ([]Match, error)

	// Len reports the number of live records.
	Len() int
}

// Compactor is implemented by indexes that accumulate garbage on remove and
// benefit from periodic rebuilds.
type Compactor interface {
	// Compact rebuilds the structure without deleted entries.
	Compact()

	// GarbageRatio reports the fraction of dead entries, in [0, 1].
	GarbageRatio() float64
}

// sortMatches orders by descending score, breaking ties by ascending id so
// results are deterministic.
func sortMatches(matches []Match) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
}

package index

import (
	"context"
	"testing"

	"github.com/Kauxtubh/pinecone/storage"
)

func TestFlat_SearchOrdering(t *testing.T) {
	f := NewFlat(Cosine)
	f.Insert(storage.Record{ID: "a", Values: []float32{1, 0, 0, 0}})
	f.Insert(storage.Record{ID: "b", Values: []float32{0, 1, 0, 0}})

	matches, err := f.Search(context.Background(), []float32{1, 0, 0, 0}, 2, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].ID != "a" || matches[0].Score != 1.0 {
		t.Errorf("first match = %+v, want a with score 1.0", matches[0])
	}
	if matches[1].ID != "b" || matches[1].Score != 0.0 {
		t.Errorf("second match = %+v, want b with score 0.0", matches[1])
	}
}

func TestFlat_TieBreakByID(t *testing.T) {
	f := NewFlat(DotProduct)
	// All three score identically against the query.
	f.Insert(storage.Record{ID: "z", Values: []float32{1, 0}})
	f.Insert(storage.Record{ID: "m", Values: []float32{1, 0}})
	f.Insert(storage.Record{ID: "a", Values: []float32{1, 0}})

	matches, err := f.Search(context.Background(), []float32{1, 1}, 3, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	got := []string{matches[0].ID, matches[1].ID, matches[2].ID}
	if got[0] != "a" || got[1] != "m" || got[2] != "z" {
		t.Errorf("tie-break order = %v, want [a m z]", got)
	}
}

func TestFlat_KLargerThanIndex(t *testing.T) {
	f := NewFlat(Cosine)
	f.Insert(storage.Record{ID: "only", Values: []float32{1, 2}})

	matches, err := f.Search(context.Background(), []float32{1, 2}, 10, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("expected 1 match, got %d", len(matches))
	}
}

func TestFlat_FilterReturnsAllEligible(t *testing.T) {
	f := NewFlat(Euclidean)
	for i := 0; i < 50; i++ {
		rec := storage.Record{
			ID:     recID(i),
			Values: []float32{float32(i), 0},
		}
		if i%10 == 0 {
			rec.Metadata = storage.Metadata{"keep": storage.BoolValue(true)}
		}
		f.Insert(rec)
	}

	keep := func(meta storage.Metadata) bool {
		v, ok := meta["keep"]
		return ok && v.Bool
	}
	matches, err := f.Search(context.Background(), []float32{49, 0}, 10, keep)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	// Only 5 of 50 records carry the flag; all must surface.
	if len(matches) != 5 {
		t.Fatalf("expected 5 eligible matches, got %d", len(matches))
	}
	for i := 1; i < len(matches); i++ {
		if matches[i-1].Score < matches[i].Score {
			t.Errorf("matches out of order at %d: %+v", i, matches)
		}
	}
}

func TestFlat_InsertReplacesAndRemoveDrops(t *testing.T) {
	f := NewFlat(Cosine)
	f.Insert(storage.Record{ID: "x", Values: []float32{1, 0}})
	f.Insert(storage.Record{ID: "x", Values: []float32{0, 1}})

	if f.Len() != 1 {
		t.Fatalf("expected Len()=1 after replace, got %d", f.Len())
	}
	matches, err := f.Search(context.Background(), []float32{0, 1}, 1, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Score != 1.0 {
		t.Errorf("replaced vector not searched: %+v", matches)
	}

	f.Remove("x")
	f.Remove("x") // idempotent
	if f.Len() != 0 {
		t.Errorf("expected empty index after remove, got %d", f.Len())
	}
	matches, err = f.Search(context.Background(), []float32{0, 1}, 1, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("removed vector still returned: %+v", matches)
	}
}

func TestFlat_SearchCancellation(t *testing.T) {
	f := NewFlat(Cosine)
	for i := 0; i < 1000; i++ {
		f.Insert(storage.Record{ID: recID(i), Values: []float32{float32(i), 1}})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.Search(ctx, []float32{1, 1}, 5, nil); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

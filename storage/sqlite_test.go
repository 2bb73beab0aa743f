package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func testSnapshot() []IndexSnapshot {
	return []IndexSnapshot{
		{
			Name:      "movies",
			ID:        "c3b0c2a0-0000-0000-0000-000000000001",
			Dimension: 4,
			Metric:    "cosine",
			CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			Namespaces: map[string][]Record{
				"": {
					{ID: "a", Values: []float32{1, 0, 0, 0}, Metadata: Metadata{"genre": StringValue("drama")}},
					{ID: "b", Values: []float32{0, 1, 0, 0}},
				},
				"archive": {}, // empty namespace must survive
			},
		},
	}
}

func TestSQLiteSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "snapshot.db")

	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	defer s.Close()

	if err := s.Save(ctx, testSnapshot()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 index, got %d", len(loaded))
	}

	snap := loaded[0]
	if snap.Name != "movies" || snap.Dimension != 4 || snap.Metric != "cosine" {
		t.Errorf("index definition mismatch: %+v", snap)
	}
	if !snap.CreatedAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("created_at mismatch: %v", snap.CreatedAt)
	}
	if len(snap.Namespaces) != 2 {
		t.Fatalf("expected 2 namespaces, got %d", len(snap.Namespaces))
	}
	if records, ok := snap.Namespaces["archive"]; !ok || len(records) != 0 {
		t.Errorf("empty namespace not preserved: %v", snap.Namespaces)
	}

	defaultNS := snap.Namespaces[""]
	if len(defaultNS) != 2 {
		t.Fatalf("expected 2 records in default namespace, got %d", len(defaultNS))
	}
	for _, rec := range defaultNS {
		if rec.ID == "a" {
			if len(rec.Values) != 4 || rec.Values[0] != 1 {
				t.Errorf("embedding mismatch for a: %v", rec.Values)
			}
			if rec.Metadata["genre"] != StringValue("drama") {
				t.Errorf("metadata mismatch for a: %+v", rec.Metadata)
			}
		}
		if rec.ID == "b" && rec.Metadata != nil {
			t.Errorf("expected nil metadata for b, got %+v", rec.Metadata)
		}
	}
}

func TestSQLiteSaveReplacesPrevious(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "snapshot.db")

	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	defer s.Close()

	if err := s.Save(ctx, testSnapshot()); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}

	replacement := []IndexSnapshot{{
		Name:       "other",
		ID:         "c3b0c2a0-0000-0000-0000-000000000002",
		Dimension:  2,
		Metric:     "dotproduct",
		CreatedAt:  time.Now(),
		Namespaces: map[string][]Record{"": {{ID: "x", Values: []float32{1, 2}}}},
	}}
	if err := s.Save(ctx, replacement); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Name != "other" {
		t.Errorf("snapshot not replaced: %+v", loaded)
	}
}

func TestSQLiteLoadEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.db")
	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	defer s.Close()

	loaded, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("expected empty snapshot, got %d indexes", len(loaded))
	}
}

func TestEncodeDecodeFloat32Slice(t *testing.T) {
	in := []float32{0, 1.5, -2.25, 3.14159}
	out := decodeFloat32Slice(encodeFloat32Slice(in))
	if len(out) != len(in) {
		t.Fatalf("length mismatch: %d vs %d", len(out), len(in))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("index %d: %v != %v", i, in[i], out[i])
		}
	}
}

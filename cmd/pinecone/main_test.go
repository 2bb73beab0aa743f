package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Kauxtubh/pinecone"
	"github.com/Kauxtubh/pinecone/index"
)

func writeTestManifest(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "indexes.yaml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestApplyManifest(t *testing.T) {
	db, err := pinecone.Quick()
	if err != nil {
		t.Fatalf("Failed to build engine: %v", err)
	}
	defer db.Close()

	path := writeTestManifest(t, `indexes:
  - name: articles
    dimension: 384
  - name: products
    dimension: 64
    metric: dotproduct
`)

	ctx := context.Background()
	if err := applyManifest(ctx, db, path); err != nil {
		t.Fatalf("applyManifest failed: %v", err)
	}

	articles, err := db.DescribeIndex(ctx, "articles")
	if err != nil {
		t.Fatal(err)
	}
	if articles.Dimension != 384 || articles.Metric != index.Cosine {
		t.Errorf("articles = dimension %d metric %s, want 384 cosine", articles.Dimension, articles.Metric)
	}

	products, err := db.DescribeIndex(ctx, "products")
	if err != nil {
		t.Fatal(err)
	}
	if products.Metric != index.DotProduct {
		t.Errorf("products metric = %s, want dotproduct", products.Metric)
	}

	// A second application skips indexes that already exist.
	if err := applyManifest(ctx, db, path); err != nil {
		t.Fatalf("applyManifest should tolerate existing indexes: %v", err)
	}
	if got := len(db.ListIndexes(ctx)); got != 2 {
		t.Errorf("Expected 2 indexes after reapply, got %d", got)
	}
}

func TestApplyManifestMissingFile(t *testing.T) {
	db, err := pinecone.Quick()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if err := applyManifest(context.Background(), db, "/does/not/exist.yaml"); err == nil {
		t.Error("Expected error for a missing manifest")
	}
}

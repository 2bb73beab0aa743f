package index

import (
	"math"
	"testing"
)

func TestParseMetric(t *testing.T) {
	for _, s := range []string{"cosine", "euclidean", "dotproduct"} {
		m, err := ParseMetric(s)
		if err != nil {
			t.Errorf("ParseMetric(%q) failed: %v", s, err)
		}
		if string(m) != s {
			t.Errorf("ParseMetric(%q) = %q", s, m)
		}
	}

	for _, s := range []string{"", "dot-product", "Cosine", "manhattan"} {
		if _, err := ParseMetric(s); err == nil {
			t.Errorf("ParseMetric(%q) should fail", s)
		}
	}
}

func TestMetricScore(t *testing.T) {
	a := []float32{1, 0, 0, 0}
	b := []float32{0, 1, 0, 0}

	if got := Cosine.Score(a, a); math.Abs(float64(got)-1) > 1e-6 {
		t.Errorf("cosine self score = %v, want 1", got)
	}
	if got := Cosine.Score(a, b); got != 0 {
		t.Errorf("cosine orthogonal score = %v, want 0", got)
	}
	if got := Cosine.Score(a, []float32{0, 0, 0, 0}); got != 0 {
		t.Errorf("cosine zero-norm score = %v, want 0", got)
	}

	if got := Euclidean.Score(a, a); got != 0 {
		t.Errorf("euclidean self score = %v, want 0", got)
	}
	if got := Euclidean.Score(a, b); math.Abs(float64(got)+math.Sqrt2) > 1e-6 {
		t.Errorf("euclidean score = %v, want -sqrt(2)", got)
	}

	if got := DotProduct.Score([]float32{2, 3}, []float32{4, 5}); got != 23 {
		t.Errorf("dot product score = %v, want 23", got)
	}
}

func TestSortMatchesTieBreak(t *testing.T) {
	matches := []Match{
		{ID: "c", Score: 0.5},
		{ID: "a", Score: 0.5},
		{ID: "b", Score: 0.9},
		{ID: "d", Score: 0.5},
	}
	sortMatches(matches)

	want := []string{"b", "a", "c", "d"}
	for i, id := range want {
		if matches[i].ID != id {
			t.Fatalf("position %d: got %s, want %s (full: %+v)", i, matches[i].ID, id, matches)
		}
	}
}

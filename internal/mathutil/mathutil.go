package mathutil

import "math"

// DotProduct computes the dot product of two equal-length vectors.
// Accumulates in float64 to limit rounding drift on long vectors.
func DotProduct(a, b []float32) float32 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return float32(sum)
}

// Norm computes the L2 norm (magnitude) of a vector.
func Norm(v []float32) float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return float32(math.Sqrt(sum))
}

// CosineSimilarity computes cosine similarity between two vectors.
// Returns 1 for identical directions, 0 for perpendicular, -1 for opposite.
// Defined as 0 when either vector has zero norm, so the zero vector never
// divides by zero and simply matches nothing well.
func CosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		ai, bi := float64(a[i]), float64(b[i])
		dot += ai * bi
		normA += ai * ai
		normB += bi * bi
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp to [-1, 1] to absorb floating point error.
	if sim > 1 {
		sim = 1
	}
	if sim < -1 {
		sim = -1
	}
	return float32(sim)
}

// EuclideanDistance computes the L2 distance between two equal-length vectors.
func EuclideanDistance(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(math.Sqrt(sum))
}

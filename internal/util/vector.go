package util

import "math"

// CosineSimilarity returns the cosine similarity of two vectors, or 0 if
// either vector is empty, zero, or the dimensions differ. Callers that
// need to distinguish "dissimilar" from "not comparable" should check
// dimensions with SameDimension first.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// SameDimension reports whether both vectors are non-empty and share the
// given dimension. Used to filter provider vectors of unexpected size.
func SameDimension(a []float32, dim int) bool {
	return dim > 0 && len(a) == dim
}

// Min returns the smaller of two ints.
func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

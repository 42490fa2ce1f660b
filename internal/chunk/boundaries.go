package chunk

import (
	"math"
	"sort"
)

// CosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched lengths or zero vectors yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
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

// Percentile computes the p-th percentile of values using linear
// interpolation between closest ranks. p is in [0, 100].
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// FindBoundaries locates topic boundaries between consecutive sentence
// embeddings. A boundary is placed after sentence i when the similarity
// between sentences i and i+1 falls strictly below the percentile
// threshold over all adjacent similarities. Returned indices are
// ascending and lie in [1, len(embeddings)-1].
func FindBoundaries(embeddings [][]float32, thresholdPercentile float64) []int {
	if len(embeddings) < 2 {
		return nil
	}

	sims := make([]float64, len(embeddings)-1)
	for i := 0; i < len(embeddings)-1; i++ {
		sims[i] = CosineSimilarity(embeddings[i], embeddings[i+1])
	}

	threshold := Percentile(sims, thresholdPercentile)

	var boundaries []int
	for i, sim := range sims {
		if sim < threshold {
			boundaries = append(boundaries, i+1)
		}
	}
	return boundaries
}

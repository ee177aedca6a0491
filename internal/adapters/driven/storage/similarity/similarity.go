// Package similarity ranks stored embeddings against a query vector.
package similarity

import (
	"fmt"
	"math"
	"sort"
)

// CosineDistance returns 1 - cosine similarity, in [0, 2].
// A zero-magnitude vector is at distance 1 from everything.
func CosineDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("empty vectors")
	}
	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 1, nil
	}
	return 1 - dot/(math.Sqrt(na2)*math.Sqrt(nb2)), nil
}

// Scored pairs a candidate's position with its distance to the query.
type Scored struct {
	Index    int
	Distance float64
}

// TopK returns the k nearest candidates by ascending distance. Ties keep
// candidate order, so results are deterministic for a fixed input.
func TopK(scored []Scored, k int) []Scored {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Distance < scored[j].Distance
	})
	if k < len(scored) {
		scored = scored[:k]
	}
	return scored
}

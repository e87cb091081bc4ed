package features

import (
	"math"
	"sort"
)

// Vector is a sparse TF-IDF weighted term vector with a cached norm.
type Vector struct {
	Weights map[string]float64
	norm    float64
}

// NewVector builds a vector from term weights, caching the Euclidean norm.
func NewVector(weights map[string]float64) Vector {
	var norm float64
	for _, w := range weights {
		norm += w * w
	}
	return Vector{Weights: weights, norm: math.Sqrt(norm)}
}

// Norm returns the cached Euclidean norm.
func (v Vector) Norm() float64 { return v.norm }

// IsZero reports whether the vector carries no weight.
func (v Vector) IsZero() bool { return v.norm == 0 }

// Cosine computes cosine similarity with another vector. Zero vectors
// yield 0.
func (v Vector) Cosine(other Vector) float64 {
	if v.norm == 0 || other.norm == 0 {
		return 0
	}
	a, b := v.Weights, other.Weights
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for term, w := range a {
		if ow, ok := b[term]; ok {
			dot += w * ow
		}
	}
	if dot == 0 {
		return 0
	}
	return dot / (v.norm * other.norm)
}

// CosineDistance is 1 - cosine similarity, the metric k-means minimizes.
func (v Vector) CosineDistance(other Vector) float64 {
	return 1 - v.Cosine(other)
}

// Mean computes the centroid of the given vectors. Returns a zero vector for
// empty input.
func Mean(vectors []Vector) Vector {
	if len(vectors) == 0 {
		return NewVector(nil)
	}
	sums := make(map[string]float64)
	for _, v := range vectors {
		for term, w := range v.Weights {
			sums[term] += w
		}
	}
	n := float64(len(vectors))
	for term := range sums {
		sums[term] /= n
	}
	return NewVector(sums)
}

// TopTerms returns the k highest weighted terms of the vector, heaviest first.
// Ties break alphabetically for stable output.
func (v Vector) TopTerms(k int) []string {
	type termWeight struct {
		term   string
		weight float64
	}
	terms := make([]termWeight, 0, len(v.Weights))
	for term, w := range v.Weights {
		terms = append(terms, termWeight{term, w})
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].weight != terms[j].weight {
			return terms[i].weight > terms[j].weight
		}
		return terms[i].term < terms[j].term
	})
	if k > len(terms) {
		k = len(terms)
	}
	out := make([]string, 0, k)
	for _, tw := range terms[:k] {
		out = append(out, tw.term)
	}
	return out
}

package features

// SimilarityMatrix holds pairwise cosine similarities for a set of vectors.
// The matrix is symmetric with a unit diagonal.
type SimilarityMatrix struct {
	n      int
	values []float64
}

// NewSimilarityMatrix computes all pairwise similarities.
func NewSimilarityMatrix(vectors []Vector) *SimilarityMatrix {
	n := len(vectors)
	m := &SimilarityMatrix{n: n, values: make([]float64, n*n)}
	for i := 0; i < n; i++ {
		m.values[i*n+i] = 1
		for j := i + 1; j < n; j++ {
			sim := vectors[i].Cosine(vectors[j])
			m.values[i*n+j] = sim
			m.values[j*n+i] = sim
		}
	}
	return m
}

// Len returns the matrix dimension.
func (m *SimilarityMatrix) Len() int { return m.n }

// At returns the similarity between items i and j.
func (m *SimilarityMatrix) At(i, j int) float64 {
	return m.values[i*m.n+j]
}

// Average returns the mean off-diagonal similarity. Returns 0 for fewer than
// two items.
func (m *SimilarityMatrix) Average() float64 {
	if m.n < 2 {
		return 0
	}
	var sum float64
	count := 0
	for i := 0; i < m.n; i++ {
		for j := i + 1; j < m.n; j++ {
			sum += m.At(i, j)
			count++
		}
	}
	return sum / float64(count)
}

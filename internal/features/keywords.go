package features

// levelMarkers are words that grade difficulty rather than name a topic.
// On short titles they carry rare-term weight and would outrank the actual
// subject, so keyword extraction skips them.
var levelMarkers = map[string]struct{}{
	"intro":        {},
	"introduction": {},
	"basics":       {},
	"fundamentals": {},
	"beginner":     {},
	"intermediate": {},
	"advanced":     {},
	"expert":       {},
}

// ClusterKeywords aggregates the term weights of the member vectors and
// returns the k strongest topic terms, heaviest first.
func ClusterKeywords(vectors []Vector, members []int, k int) []string {
	sums := make(map[string]float64)
	for _, idx := range members {
		if idx < 0 || idx >= len(vectors) {
			continue
		}
		for term, w := range vectors[idx].Weights {
			if _, level := levelMarkers[term]; level {
				continue
			}
			sums[term] += w
		}
	}
	return NewVector(sums).TopTerms(k)
}

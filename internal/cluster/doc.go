// Package cluster groups videos into topical modules.
//
// Three algorithms share one contract: k-means on TF-IDF vectors, agglomerative
// hierarchical clustering over a cosine distance matrix, and LDA topic modeling
// via collapsed Gibbs sampling. A hybrid selector inspects corpus
// characteristics and picks among them, optionally running all three and
// keeping the highest quality result.
//
// Randomized algorithms accept an explicit *rand.Rand so callers can pin
// seeds; a nil source falls back to entropy seeding.
package cluster

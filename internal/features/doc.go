// Package features turns video titles into TF-IDF weighted term vectors and
// provides the similarity primitives the clustering algorithms operate on.
//
// Term frequency is normalized by document length and inverse document
// frequency is ln(N/df), so terms shared by every title contribute nothing.
// Vocabularies larger than the configured feature cap are pruned to the most
// frequent terms.
package features

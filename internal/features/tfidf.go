package features

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"coursepilot/internal/logging"
	"coursepilot/internal/services"
	"coursepilot/internal/textutil"
)

// MinDocuments is the smallest corpus TF-IDF extraction accepts. Below this,
// document frequencies are too noisy for meaningful weights.
const MinDocuments = 5

// DefaultMaxFeatures caps vocabulary size when no explicit limit is set.
const DefaultMaxFeatures = 1000

// Extractor computes TF-IDF vectors for a corpus of video titles.
type Extractor struct {
	maxFeatures int
	logger      *slog.Logger
}

// NewExtractor creates an extractor with the given vocabulary cap.
// Non-positive caps fall back to DefaultMaxFeatures.
func NewExtractor(maxFeatures int, logger *slog.Logger) *Extractor {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	return &Extractor{
		maxFeatures: maxFeatures,
		logger:      logging.NewComponentLogger(logger, "features"),
	}
}

// Extract tokenizes each title and produces one TF-IDF vector per title, in
// input order. Corpora smaller than MinDocuments are rejected.
func (e *Extractor) Extract(titles []string) ([]Vector, error) {
	if len(titles) < MinDocuments {
		return nil, services.Wrap(services.ErrInsufficientContent, "features", "tfidf",
			fmt.Sprintf("need at least %d titles, got %d", MinDocuments, len(titles)), nil)
	}

	docs := make([][]string, len(titles))
	docFreq := make(map[string]int)
	for i, title := range titles {
		tokens := textutil.Tokenize(title)
		docs[i] = tokens
		seen := make(map[string]struct{}, len(tokens))
		for _, token := range tokens {
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = struct{}{}
			docFreq[token]++
		}
	}

	vocab := e.pruneVocabulary(docFreq)

	n := float64(len(titles))
	idf := make(map[string]float64, len(vocab))
	for term := range vocab {
		idf[term] = math.Log(n / float64(docFreq[term]))
	}

	vectors := make([]Vector, len(docs))
	for i, tokens := range docs {
		counts := make(map[string]float64)
		kept := 0
		for _, token := range tokens {
			if _, ok := vocab[token]; !ok {
				continue
			}
			counts[token]++
			kept++
		}
		weights := make(map[string]float64, len(counts))
		if kept > 0 {
			docLen := float64(kept)
			for term, count := range counts {
				w := (count / docLen) * idf[term]
				if w != 0 {
					weights[term] = w
				}
			}
		}
		vectors[i] = NewVector(weights)
	}

	e.logger.Debug("extracted feature vectors",
		logging.Int("documents", len(titles)),
		logging.Int("vocabulary", len(vocab)))
	return vectors, nil
}

// pruneVocabulary keeps at most maxFeatures terms, preferring those that
// appear in more documents. Ties break alphabetically for determinism.
func (e *Extractor) pruneVocabulary(docFreq map[string]int) map[string]struct{} {
	vocab := make(map[string]struct{}, len(docFreq))
	if len(docFreq) <= e.maxFeatures {
		for term := range docFreq {
			vocab[term] = struct{}{}
		}
		return vocab
	}

	terms := make([]string, 0, len(docFreq))
	for term := range docFreq {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if docFreq[terms[i]] != docFreq[terms[j]] {
			return docFreq[terms[i]] > docFreq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	for _, term := range terms[:e.maxFeatures] {
		vocab[term] = struct{}{}
	}
	return vocab
}

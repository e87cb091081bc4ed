package cluster

import (
	"log/slog"
	"math"
	"math/rand"

	"coursepilot/internal/features"
	"coursepilot/internal/logging"
	"coursepilot/internal/services"
	"coursepilot/internal/textutil"
)

// SelectionMode controls how the hybrid clusterer picks an algorithm.
type SelectionMode string

const (
	// SelectionAutomatic inspects the corpus profile and picks one algorithm.
	SelectionAutomatic SelectionMode = "automatic"
	// SelectionEnsemble runs every algorithm and keeps the best scoring result.
	SelectionEnsemble SelectionMode = "ensemble"
	// SelectionCustom restricts the choice to an explicitly enabled subset.
	SelectionCustom SelectionMode = "custom"
)

// CustomSelection names the algorithms a custom-mode hybrid may use.
type CustomSelection struct {
	KMeans       bool
	Hierarchical bool
	LDA          bool
}

func (c CustomSelection) algorithms() []string {
	var names []string
	if c.KMeans {
		names = append(names, "kmeans")
	}
	if c.Hierarchical {
		names = append(names, "hierarchical")
	}
	if c.LDA {
		names = append(names, "lda")
	}
	return names
}

// CorpusProfile captures the statistics the selector decides on.
type CorpusProfile struct {
	DocCount       int
	VocabSize      int
	AvgDocLength   float64
	Diversity      float64 // |vocab| / total tokens
	TopicCoherence float64 // fraction of vocab appearing in >= 2 docs
	SimMean        float64
	SimStdDev      float64
	SimMin         float64
	SimMax         float64
	Bimodal        bool
}

// Profile computes corpus characteristics from titles and their similarity
// matrix.
func Profile(titles []string, matrix *features.SimilarityMatrix) CorpusProfile {
	p := CorpusProfile{DocCount: len(titles)}

	docFreq := make(map[string]int)
	totalTokens := 0
	for _, title := range titles {
		tokens := textutil.Tokenize(title)
		totalTokens += len(tokens)
		seen := make(map[string]struct{}, len(tokens))
		for _, token := range tokens {
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = struct{}{}
			docFreq[token]++
		}
	}
	p.VocabSize = len(docFreq)
	if len(titles) > 0 {
		p.AvgDocLength = float64(totalTokens) / float64(len(titles))
	}
	if totalTokens > 0 {
		p.Diversity = float64(p.VocabSize) / float64(totalTokens)
	}
	if p.VocabSize > 0 {
		shared := 0
		for _, df := range docFreq {
			if df >= 2 {
				shared++
			}
		}
		p.TopicCoherence = float64(shared) / float64(p.VocabSize)
	}

	n := matrix.Len()
	if n >= 2 {
		var sims []float64
		var sum float64
		p.SimMin, p.SimMax = math.Inf(1), math.Inf(-1)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				s := matrix.At(i, j)
				sims = append(sims, s)
				sum += s
				if s < p.SimMin {
					p.SimMin = s
				}
				if s > p.SimMax {
					p.SimMax = s
				}
			}
		}
		p.SimMean = sum / float64(len(sims))
		var variance float64
		for _, s := range sims {
			variance += (s - p.SimMean) * (s - p.SimMean)
		}
		p.SimStdDev = math.Sqrt(variance / float64(len(sims)))
		p.Bimodal = p.SimStdDev > 0.2 && (p.SimMax-p.SimMin) > 0.4
	}
	return p
}

// Hybrid selects among k-means, hierarchical, and LDA based on corpus
// characteristics.
type Hybrid struct {
	extractor *features.Extractor
	mode      SelectionMode
	custom    CustomSelection
	rng       *rand.Rand
	logger    *slog.Logger

	// lastChoice records the algorithm picked by the most recent Cluster call.
	lastChoice string
}

// NewHybrid builds a hybrid clusterer.
func NewHybrid(extractor *features.Extractor, mode SelectionMode, rng *rand.Rand, logger *slog.Logger) *Hybrid {
	if mode == "" {
		mode = SelectionAutomatic
	}
	return &Hybrid{
		extractor: extractor,
		mode:      mode,
		rng:       rng,
		logger:    logging.NewComponentLogger(logger, "hybrid"),
	}
}

// NewHybridCustom builds a hybrid clusterer limited to the enabled algorithms.
// A single enabled algorithm runs directly; several compete as an ensemble.
func NewHybridCustom(extractor *features.Extractor, custom CustomSelection, rng *rand.Rand, logger *slog.Logger) *Hybrid {
	h := NewHybrid(extractor, SelectionCustom, rng, logger)
	h.custom = custom
	return h
}

// Analyze implements Clusterer.
func (h *Hybrid) Analyze(titles []string) (*Analysis, error) {
	return Analyze(h.extractor, titles)
}

// ChosenAlgorithm names the algorithm the last Cluster call delegated to.
func (h *Hybrid) ChosenAlgorithm() string { return h.lastChoice }

// Cluster implements Clusterer.
func (h *Hybrid) Cluster(analysis *Analysis, targetK int) ([]VideoCluster, error) {
	profile := Profile(analysis.Titles, analysis.Matrix)

	switch h.mode {
	case SelectionEnsemble:
		return h.ensemble(analysis, targetK, profile, []string{"kmeans", "hierarchical", "lda"})
	case SelectionCustom:
		names := h.custom.algorithms()
		switch len(names) {
		case 0:
			return nil, services.Wrap(services.ErrInvalidSettings, "cluster", "custom", "no clustering algorithm enabled", nil)
		case 1:
			h.lastChoice = names[0]
			h.logger.Debug("custom selection", logging.String("algorithm", names[0]))
			return h.run(names[0], analysis, targetK)
		default:
			return h.ensemble(analysis, targetK, profile, names)
		}
	}

	choice := selectAlgorithm(profile)
	h.lastChoice = choice
	h.logger.Debug("hybrid selection",
		logging.String("algorithm", choice),
		logging.Int("documents", profile.DocCount),
		logging.Float64("sim_stddev", profile.SimStdDev))
	return h.run(choice, analysis, targetK)
}

// selectAlgorithm applies the automatic selection rules in priority order.
func selectAlgorithm(p CorpusProfile) string {
	switch {
	// Tiny corpora leave k-means and LDA at the mercy of seeding; the
	// agglomerative merge order is fixed by the similarity matrix alone.
	case p.DocCount < 8:
		return "hierarchical"
	case p.DocCount >= 10 && p.Bimodal:
		return "kmeans"
	case p.DocCount <= 50 && p.SimStdDev > 0.15:
		return "hierarchical"
	case p.DocCount >= 8 && p.Diversity > 0.3 && p.TopicCoherence > 0.2:
		return "lda"
	default:
		return "kmeans"
	}
}

func (h *Hybrid) run(choice string, analysis *Analysis, targetK int) ([]VideoCluster, error) {
	switch choice {
	case "hierarchical":
		return NewHierarchical(h.extractor, LinkageAverage, 0, 0, h.logger).Cluster(analysis, targetK)
	case "lda":
		return NewLDA(h.extractor, 0, h.rng, h.logger).Cluster(analysis, targetK)
	default:
		return NewKMeans(h.extractor, h.rng, h.logger).Cluster(analysis, targetK)
	}
}

// ensemble runs the named algorithms and keeps the highest quality result.
// Quality is intra-cluster similarity for k-means and hierarchical, and
// inverted topic entropy for LDA. Ties keep the earlier algorithm in the
// given order.
func (h *Hybrid) ensemble(analysis *Analysis, targetK int, profile CorpusProfile, names []string) ([]VideoCluster, error) {
	type candidate struct {
		name     string
		clusters []VideoCluster
		score    float64
	}

	var candidates []candidate
	for _, name := range names {
		clusters, err := h.run(name, analysis, targetK)
		if err != nil {
			continue
		}
		var score float64
		if name == "lda" {
			score = 1 - TopicEntropy(clusters, profile.DocCount)
		} else {
			score = QualityScore(analysis.Matrix, clusters)
		}
		candidates = append(candidates, candidate{name, clusters, score})
	}
	if len(candidates) == 0 {
		return nil, services.Wrap(services.ErrAnalysisFailed, "cluster", "ensemble", "every algorithm failed", nil)
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.score > best.score {
			best = c
		}
	}
	h.lastChoice = best.name
	h.logger.Debug("ensemble selection",
		logging.String("algorithm", best.name),
		logging.Float64("score", best.score))
	return best.clusters, nil
}

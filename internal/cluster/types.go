package cluster

import (
	"fmt"
	"time"

	"coursepilot/internal/course"
	"coursepilot/internal/features"
	"coursepilot/internal/services"
)

// Analysis is the shared preprocessing result the algorithms consume.
type Analysis struct {
	Titles  []string
	Vectors []features.Vector
	Matrix  *features.SimilarityMatrix
}

// VideoCluster is one group of videos produced by a clustering algorithm.
// Videos holds original indices into the analyzed title list.
type VideoCluster struct {
	Videos          []int
	Centroid        features.Vector
	SimilarityScore float64
	TopicKeywords   []string
}

// OptimizedCluster augments a cluster with duration totals, a difficulty
// grade, and a suggested module title.
type OptimizedCluster struct {
	VideoCluster
	TotalDuration  time.Duration
	Difficulty     course.DifficultyLevel
	SuggestedTitle string
}

// Clusterer is the contract every algorithm implements. targetK <= 0 lets the
// algorithm choose its own cluster count.
type Clusterer interface {
	Analyze(titles []string) (*Analysis, error)
	Cluster(analysis *Analysis, targetK int) ([]VideoCluster, error)
}

// Analyze runs TF-IDF extraction and builds the similarity matrix. It is the
// common Analyze implementation shared by the algorithms.
func Analyze(extractor *features.Extractor, titles []string) (*Analysis, error) {
	vectors, err := extractor.Extract(titles)
	if err != nil {
		return nil, err
	}
	return &Analysis{
		Titles:  titles,
		Vectors: vectors,
		Matrix:  features.NewSimilarityMatrix(vectors),
	}, nil
}

// Optimize attaches durations, grades difficulty, and names each cluster.
// durations is indexed by video index and must cover every cluster member.
func Optimize(clusters []VideoCluster, durations []time.Duration) ([]OptimizedCluster, error) {
	optimized := make([]OptimizedCluster, 0, len(clusters))
	for i, cl := range clusters {
		var total time.Duration
		for _, idx := range cl.Videos {
			if idx < 0 || idx >= len(durations) {
				return nil, services.Wrap(services.ErrInvalidDurations, "cluster", "optimize",
					fmt.Sprintf("video index %d outside duration vector of length %d", idx, len(durations)), nil)
			}
			total += durations[idx]
		}
		title := fmt.Sprintf("Module %d", i+1)
		if len(cl.TopicKeywords) > 0 {
			title = cl.TopicKeywords[0]
		}
		optimized = append(optimized, OptimizedCluster{
			VideoCluster:   cl,
			TotalDuration:  total,
			Difficulty:     course.DifficultyIntermediate,
			SuggestedTitle: title,
		})
	}
	return optimized, nil
}

// averageIntraSimilarity measures how tightly a cluster's members resemble
// each other. Single-member clusters score 1.
func averageIntraSimilarity(matrix *features.SimilarityMatrix, members []int) float64 {
	if len(members) < 2 {
		return 1
	}
	var sum float64
	count := 0
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			sum += matrix.At(members[i], members[j])
			count++
		}
	}
	if count == 0 {
		return 1
	}
	return sum / float64(count)
}

// QualityScore is the weighted average intra-cluster similarity across all
// clusters, weighted by member count.
func QualityScore(matrix *features.SimilarityMatrix, clusters []VideoCluster) float64 {
	total := 0
	var weighted float64
	for _, cl := range clusters {
		n := len(cl.Videos)
		if n == 0 {
			continue
		}
		weighted += averageIntraSimilarity(matrix, cl.Videos) * float64(n)
		total += n
	}
	if total == 0 {
		return 0
	}
	return weighted / float64(total)
}

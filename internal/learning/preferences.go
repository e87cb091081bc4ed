package learning

import (
	"time"

	"coursepilot/internal/course"
)

// Preference value ranges. Every adjustment clamps back into these.
const (
	MinSimilarityThreshold = 0.3
	MaxSimilarityThreshold = 0.9
	MinClusters            = 3
	MaxClusters            = 15
	MinClusterSizeFloor    = 1
	MinClusterSizeCeil     = 10
	MinContentWeight       = 0.1
	MaxContentWeight       = 0.9
)

// Preferences is the tunable clustering parameter record the engine learns.
type Preferences struct {
	SimilarityThreshold     float64                    `json:"similarity_threshold"`
	PreferredAlgorithm      course.ClusteringAlgorithm `json:"preferred_algorithm"`
	PreferredStrategy       course.ClusteringStrategy  `json:"preferred_strategy"`
	UserExperienceLevel     course.DifficultyLevel     `json:"user_experience_level"`
	MaxClusters             int                        `json:"max_clusters"`
	MinClusterSize          int                        `json:"min_cluster_size"`
	EnableDurationBalancing bool                       `json:"enable_duration_balancing"`
	ContentVsDurationWeight float64                    `json:"content_vs_duration_weight"`
	LastUpdated             time.Time                  `json:"last_updated"`
	UsageCount              int                        `json:"usage_count"`
	SatisfactionScore       float64                    `json:"satisfaction_score"`
}

// DefaultPreferences returns the starting record used before any feedback.
func DefaultPreferences() Preferences {
	return Preferences{
		SimilarityThreshold:     0.6,
		PreferredAlgorithm:      course.AlgorithmHybrid,
		PreferredStrategy:       course.StrategyHybrid,
		UserExperienceLevel:     course.DifficultyIntermediate,
		MaxClusters:             8,
		MinClusterSize:          2,
		EnableDurationBalancing: true,
		ContentVsDurationWeight: 0.7,
		LastUpdated:             time.Now().UTC(),
		UsageCount:              0,
		SatisfactionScore:       0.5,
	}
}

// Clamp forces every tunable field back into its enumerated range.
func (p *Preferences) Clamp() {
	p.SimilarityThreshold = clampFloat(p.SimilarityThreshold, MinSimilarityThreshold, MaxSimilarityThreshold)
	p.ContentVsDurationWeight = clampFloat(p.ContentVsDurationWeight, MinContentWeight, MaxContentWeight)
	p.MaxClusters = clampInt(p.MaxClusters, MinClusters, MaxClusters)
	p.MinClusterSize = clampInt(p.MinClusterSize, MinClusterSizeFloor, MinClusterSizeCeil)
	p.SatisfactionScore = clampFloat(p.SatisfactionScore, 0, 1)
}

// nextAlgorithm advances through the fixed rejection cycle.
func nextAlgorithm(a course.ClusteringAlgorithm) course.ClusteringAlgorithm {
	switch a {
	case course.AlgorithmTfIdf:
		return course.AlgorithmKMeans
	case course.AlgorithmKMeans:
		return course.AlgorithmHierarchical
	case course.AlgorithmHierarchical:
		return course.AlgorithmLda
	case course.AlgorithmLda:
		return course.AlgorithmHybrid
	case course.AlgorithmHybrid:
		return course.AlgorithmTfIdf
	default:
		return course.AlgorithmHybrid
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package cluster

import (
	"log/slog"
	"math"
	"sort"

	"coursepilot/internal/features"
	"coursepilot/internal/logging"
	"coursepilot/internal/services"
)

// Linkage selects how inter-cluster distance is computed during merging.
type Linkage string

const (
	LinkageSingle   Linkage = "single"
	LinkageComplete Linkage = "complete"
	LinkageAverage  Linkage = "average"
	// LinkageWard approximates Ward's criterion with centroid distance.
	LinkageWard Linkage = "ward"
)

// DefaultMinClusterSize drops degenerate singleton clusters after cutting.
const DefaultMinClusterSize = 2

// Hierarchical performs agglomerative clustering over cosine distances.
// The dendrogram is an arena of nodes indexed into a flat slice, leaves first.
type Hierarchical struct {
	extractor         *features.Extractor
	linkage           Linkage
	distanceThreshold float64
	minClusterSize    int
	logger            *slog.Logger
}

// NewHierarchical builds a hierarchical clusterer. A non-positive threshold
// auto-tunes from the corpus; a non-positive minClusterSize uses the default.
func NewHierarchical(extractor *features.Extractor, linkage Linkage, threshold float64, minClusterSize int, logger *slog.Logger) *Hierarchical {
	switch linkage {
	case LinkageSingle, LinkageComplete, LinkageAverage, LinkageWard:
	default:
		linkage = LinkageAverage
	}
	if minClusterSize <= 0 {
		minClusterSize = DefaultMinClusterSize
	}
	return &Hierarchical{
		extractor:         extractor,
		linkage:           linkage,
		distanceThreshold: threshold,
		minClusterSize:    minClusterSize,
		logger:            logging.NewComponentLogger(logger, "hierarchical"),
	}
}

// Analyze implements Clusterer.
func (h *Hierarchical) Analyze(titles []string) (*Analysis, error) {
	return Analyze(h.extractor, titles)
}

type dendroNode struct {
	left    int // arena index, -1 for leaves
	right   int
	height  float64
	members []int
}

// Cluster implements Clusterer. targetK is advisory: when positive, the cut
// threshold is ignored and the dendrogram is cut to yield targetK clusters.
func (h *Hierarchical) Cluster(analysis *Analysis, targetK int) ([]VideoCluster, error) {
	n := len(analysis.Vectors)
	if n < 2 {
		return nil, services.Wrap(services.ErrInsufficientContent, "cluster", "hierarchical", "need at least 2 videos", nil)
	}

	arena := make([]dendroNode, 0, 2*n-1)
	for i := 0; i < n; i++ {
		arena = append(arena, dendroNode{left: -1, right: -1, members: []int{i}})
	}

	active := make([]int, n)
	for i := range active {
		active[i] = i
	}

	cutHeights := make([]float64, 0, n-1)
	for len(active) > 1 {
		bestI, bestJ, bestDist := -1, -1, math.Inf(1)
		for i := 0; i < len(active); i++ {
			for j := i + 1; j < len(active); j++ {
				d := h.clusterDistance(analysis, arena[active[i]].members, arena[active[j]].members)
				if d < bestDist {
					bestI, bestJ, bestDist = i, j, d
				}
			}
		}
		if bestI < 0 {
			return nil, services.Wrap(services.ErrAnalysisFailed, "cluster", "hierarchical", "no mergeable cluster pair", nil)
		}

		left, right := active[bestI], active[bestJ]
		merged := dendroNode{
			left:    left,
			right:   right,
			height:  bestDist,
			members: append(append([]int{}, arena[left].members...), arena[right].members...),
		}
		arena = append(arena, merged)
		cutHeights = append(cutHeights, bestDist)

		// Remove the higher index first so positions stay valid.
		active = append(active[:bestJ], active[bestJ+1:]...)
		active = append(active[:bestI], active[bestI+1:]...)
		active = append(active, len(arena)-1)
	}
	root := len(arena) - 1

	var clusters [][]int
	if targetK > 0 {
		clusters = cutForK(arena, root, targetK)
	} else {
		threshold := h.distanceThreshold
		if threshold <= 0 {
			threshold = autoThreshold(analysis.Matrix)
		}
		clusters = cutAtHeight(arena, root, threshold)
	}

	kept := clusters[:0]
	var leftovers []int
	for _, members := range clusters {
		if len(members) >= h.minClusterSize {
			kept = append(kept, members)
		} else {
			leftovers = append(leftovers, members...)
		}
	}
	// Undersized fragments pool into one miscellaneous cluster when enough
	// of them exist; a lone orphan stays out and surfaces downstream.
	if len(leftovers) >= h.minClusterSize {
		kept = append(kept, leftovers)
	}
	if len(kept) == 0 {
		// Everything was dropped; the root is the only defensible answer.
		kept = [][]int{arena[root].members}
	}

	result := make([]VideoCluster, 0, len(kept))
	for _, members := range kept {
		sorted := append([]int{}, members...)
		sort.Ints(sorted)
		vecs := make([]features.Vector, 0, len(sorted))
		for _, idx := range sorted {
			vecs = append(vecs, analysis.Vectors[idx])
		}
		result = append(result, VideoCluster{
			Videos:          sorted,
			Centroid:        features.Mean(vecs),
			SimilarityScore: averageIntraSimilarity(analysis.Matrix, sorted),
			TopicKeywords:   features.ClusterKeywords(analysis.Vectors, sorted, 10),
		})
	}

	h.logger.Debug("hierarchical clustering complete",
		logging.Int("videos", n),
		logging.Int("clusters", len(result)),
		logging.String("linkage", string(h.linkage)))
	return result, nil
}

func (h *Hierarchical) clusterDistance(analysis *Analysis, a, b []int) float64 {
	switch h.linkage {
	case LinkageSingle:
		min := math.Inf(1)
		for _, i := range a {
			for _, j := range b {
				if d := 1 - analysis.Matrix.At(i, j); d < min {
					min = d
				}
			}
		}
		return min
	case LinkageComplete:
		max := math.Inf(-1)
		for _, i := range a {
			for _, j := range b {
				if d := 1 - analysis.Matrix.At(i, j); d > max {
					max = d
				}
			}
		}
		return max
	case LinkageWard:
		ca := centroidOf(analysis.Vectors, a)
		cb := centroidOf(analysis.Vectors, b)
		return ca.CosineDistance(cb)
	default: // average
		var sum float64
		for _, i := range a {
			for _, j := range b {
				sum += 1 - analysis.Matrix.At(i, j)
			}
		}
		return sum / float64(len(a)*len(b))
	}
}

func centroidOf(vectors []features.Vector, members []int) features.Vector {
	vecs := make([]features.Vector, 0, len(members))
	for _, idx := range members {
		vecs = append(vecs, vectors[idx])
	}
	return features.Mean(vecs)
}

// autoThreshold derives a cut height from the corpus: 0.7 times the average
// pairwise distance, clamped to [0.3, 0.9].
func autoThreshold(matrix *features.SimilarityMatrix) float64 {
	avgDistance := 1 - matrix.Average()
	threshold := 0.7 * avgDistance
	if threshold < 0.3 {
		threshold = 0.3
	}
	if threshold > 0.9 {
		threshold = 0.9
	}
	return threshold
}

// cutAtHeight walks down from the root, splitting any node whose merge height
// exceeds the threshold.
func cutAtHeight(arena []dendroNode, root int, threshold float64) [][]int {
	var clusters [][]int
	var walk func(idx int)
	walk = func(idx int) {
		node := arena[idx]
		if node.left < 0 || node.height <= threshold {
			clusters = append(clusters, node.members)
			return
		}
		walk(node.left)
		walk(node.right)
	}
	walk(root)
	return clusters
}

// cutForK repeatedly splits the highest remaining merge until k groups exist.
func cutForK(arena []dendroNode, root int, k int) [][]int {
	frontier := []int{root}
	for len(frontier) < k {
		split, maxHeight := -1, math.Inf(-1)
		for i, idx := range frontier {
			node := arena[idx]
			if node.left >= 0 && node.height > maxHeight {
				split, maxHeight = i, node.height
			}
		}
		if split < 0 {
			break
		}
		node := arena[frontier[split]]
		frontier = append(frontier[:split], frontier[split+1:]...)
		frontier = append(frontier, node.left, node.right)
	}
	clusters := make([][]int, 0, len(frontier))
	for _, idx := range frontier {
		clusters = append(clusters, arena[idx].members)
	}
	return clusters
}

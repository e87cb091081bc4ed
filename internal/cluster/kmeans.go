package cluster

import (
	"log/slog"
	"math"
	"math/rand"
	"time"

	"coursepilot/internal/features"
	"coursepilot/internal/logging"
	"coursepilot/internal/services"
)

// DefaultKMeansIterations bounds Lloyd iteration when assignments keep moving.
const DefaultKMeansIterations = 100

// KMeans clusters TF-IDF vectors with Lloyd iteration under cosine distance.
type KMeans struct {
	extractor     *features.Extractor
	maxIterations int
	rng           *rand.Rand
	logger        *slog.Logger
}

// NewKMeans builds a k-means clusterer. A nil rng falls back to entropy
// seeding; tests pass a seeded source for determinism.
func NewKMeans(extractor *features.Extractor, rng *rand.Rand, logger *slog.Logger) *KMeans {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &KMeans{
		extractor:     extractor,
		maxIterations: DefaultKMeansIterations,
		rng:           rng,
		logger:        logging.NewComponentLogger(logger, "kmeans"),
	}
}

// Analyze implements Clusterer.
func (k *KMeans) Analyze(titles []string) (*Analysis, error) {
	return Analyze(k.extractor, titles)
}

// Cluster implements Clusterer. targetK <= 0 selects k by the elbow method.
func (k *KMeans) Cluster(analysis *Analysis, targetK int) ([]VideoCluster, error) {
	n := len(analysis.Vectors)
	if n == 0 {
		return nil, services.Wrap(services.ErrInsufficientContent, "cluster", "kmeans", "no vectors to cluster", nil)
	}
	if targetK <= 0 {
		targetK = k.optimalK(analysis.Vectors)
	}
	if targetK > n {
		targetK = n
	}
	if targetK < 1 {
		targetK = 1
	}

	assignments := k.lloyd(analysis.Vectors, targetK)
	clusters := k.collect(analysis, assignments, targetK)

	k.logger.Debug("kmeans clustering complete",
		logging.Int("videos", n),
		logging.Int("clusters", len(clusters)))
	return clusters, nil
}

// lloyd runs seeded initialization plus assignment/update rounds and returns
// the final assignment per vector.
func (k *KMeans) lloyd(vectors []features.Vector, kCount int) []int {
	centroids := k.seedCentroids(vectors, kCount)
	assignments := make([]int, len(vectors))
	for i := range assignments {
		assignments[i] = -1
	}

	for iter := 0; iter < k.maxIterations; iter++ {
		changed := false
		for i, v := range vectors {
			best, bestDist := 0, math.Inf(1)
			for c, centroid := range centroids {
				if d := v.CosineDistance(centroid); d < bestDist {
					best, bestDist = c, d
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		members := make([][]features.Vector, kCount)
		memberIdx := make([][]int, kCount)
		for i, a := range assignments {
			members[a] = append(members[a], vectors[i])
			memberIdx[a] = append(memberIdx[a], i)
		}
		for c := range centroids {
			if len(members[c]) == 0 {
				// Reseed an empty cluster from the farthest member of the
				// largest cluster.
				if idx := k.farthestFromLargest(vectors, centroids, memberIdx); idx >= 0 {
					centroids[c] = vectors[idx]
				}
				continue
			}
			centroids[c] = features.Mean(members[c])
		}
	}
	return assignments
}

// seedCentroids implements k-means++ initialization.
func (k *KMeans) seedCentroids(vectors []features.Vector, kCount int) []features.Vector {
	centroids := make([]features.Vector, 0, kCount)
	centroids = append(centroids, vectors[k.rng.Intn(len(vectors))])

	for len(centroids) < kCount {
		weights := make([]float64, len(vectors))
		var total float64
		for i, v := range vectors {
			minDist := math.Inf(1)
			for _, c := range centroids {
				if d := v.CosineDistance(c); d < minDist {
					minDist = d
				}
			}
			weights[i] = minDist * minDist
			total += weights[i]
		}
		if total == 0 {
			centroids = append(centroids, vectors[k.rng.Intn(len(vectors))])
			continue
		}
		target := k.rng.Float64() * total
		var acc float64
		chosen := len(vectors) - 1
		for i, w := range weights {
			acc += w
			if acc >= target {
				chosen = i
				break
			}
		}
		centroids = append(centroids, vectors[chosen])
	}
	return centroids
}

func (k *KMeans) farthestFromLargest(vectors []features.Vector, centroids []features.Vector, memberIdx [][]int) int {
	largest := -1
	for c, members := range memberIdx {
		if largest < 0 || len(members) > len(memberIdx[largest]) {
			largest = c
		}
	}
	if largest < 0 || len(memberIdx[largest]) == 0 {
		return -1
	}
	farthest, maxDist := -1, -1.0
	for _, idx := range memberIdx[largest] {
		if d := vectors[idx].CosineDistance(centroids[largest]); d > maxDist {
			farthest, maxDist = idx, d
		}
	}
	return farthest
}

// optimalK picks k by the elbow of within-cluster distance sums over
// k in [2, min(10, ceil(sqrt(N)))].
func (k *KMeans) optimalK(vectors []features.Vector) int {
	n := len(vectors)
	if n <= 2 {
		return 1
	}
	maxK := int(math.Ceil(math.Sqrt(float64(n))))
	if maxK > 10 {
		maxK = 10
	}
	if maxK < 2 {
		maxK = 2
	}
	if maxK >= n {
		maxK = n - 1
	}
	if maxK < 2 {
		return 1
	}

	wcss := make([]float64, 0, maxK-1)
	for candidate := 2; candidate <= maxK; candidate++ {
		assignments := k.lloyd(vectors, candidate)
		wcss = append(wcss, withinClusterSum(vectors, assignments, candidate))
	}

	if len(wcss) == 1 {
		return 2
	}
	// Largest drop in within-cluster distance marks the elbow.
	bestK, bestDrop := 2, wcss[0]-wcss[1]
	for i := 1; i < len(wcss)-1; i++ {
		if drop := wcss[i] - wcss[i+1]; drop > bestDrop {
			bestDrop = drop
			bestK = i + 2
		}
	}
	return bestK
}

func withinClusterSum(vectors []features.Vector, assignments []int, kCount int) float64 {
	members := make([][]features.Vector, kCount)
	for i, a := range assignments {
		members[a] = append(members[a], vectors[i])
	}
	var sum float64
	for c := range members {
		if len(members[c]) == 0 {
			continue
		}
		centroid := features.Mean(members[c])
		for _, v := range members[c] {
			sum += v.CosineDistance(centroid)
		}
	}
	return sum
}

func (k *KMeans) collect(analysis *Analysis, assignments []int, kCount int) []VideoCluster {
	grouped := make([][]int, kCount)
	for i, a := range assignments {
		grouped[a] = append(grouped[a], i)
	}
	clusters := make([]VideoCluster, 0, kCount)
	for _, members := range grouped {
		if len(members) == 0 {
			continue
		}
		vecs := make([]features.Vector, 0, len(members))
		for _, idx := range members {
			vecs = append(vecs, analysis.Vectors[idx])
		}
		clusters = append(clusters, VideoCluster{
			Videos:          members,
			Centroid:        features.Mean(vecs),
			SimilarityScore: averageIntraSimilarity(analysis.Matrix, members),
			TopicKeywords:   features.ClusterKeywords(analysis.Vectors, members, 10),
		})
	}
	return clusters
}

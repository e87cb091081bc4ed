package cluster

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"time"

	"coursepilot/internal/features"
	"coursepilot/internal/logging"
	"coursepilot/internal/services"
	"coursepilot/internal/textutil"
)

// LDA hyperparameter defaults.
const (
	DefaultAlpha         = 0.1
	DefaultBeta          = 0.01
	DefaultTopics        = 5
	DefaultLDAIterations = 100
)

// LDA estimates topics over tokenized titles with collapsed Gibbs sampling
// and maps each document to its dominant topic.
type LDA struct {
	extractor  *features.Extractor
	numTopics  int
	alpha      float64
	beta       float64
	iterations int
	rng        *rand.Rand
	logger     *slog.Logger
}

// NewLDA builds an LDA clusterer. numTopics <= 0 defers topic count to a
// corpus heuristic. A nil rng falls back to entropy seeding.
func NewLDA(extractor *features.Extractor, numTopics int, rng *rand.Rand, logger *slog.Logger) *LDA {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &LDA{
		extractor:  extractor,
		numTopics:  numTopics,
		alpha:      DefaultAlpha,
		beta:       DefaultBeta,
		iterations: DefaultLDAIterations,
		rng:        rng,
		logger:     logging.NewComponentLogger(logger, "lda"),
	}
}

// Analyze implements Clusterer.
func (l *LDA) Analyze(titles []string) (*Analysis, error) {
	return Analyze(l.extractor, titles)
}

// Cluster implements Clusterer. targetK overrides the configured topic count.
func (l *LDA) Cluster(analysis *Analysis, targetK int) ([]VideoCluster, error) {
	n := len(analysis.Titles)
	k := targetK
	if k <= 0 {
		k = l.numTopics
	}
	if k <= 0 {
		k = heuristicTopics(n)
	}
	if n < k {
		return nil, services.Wrap(services.ErrInsufficientContent, "cluster", "lda",
			fmt.Sprintf("%d documents for %d topics", n, k), nil)
	}

	docs, vocab := buildCorpus(analysis.Titles)
	v := len(vocab)
	if v == 0 {
		return nil, services.Wrap(services.ErrInsufficientContent, "cluster", "lda", "empty vocabulary", nil)
	}

	// Count matrices for the collapsed sampler.
	docTopic := make([][]int, n)
	for d := range docTopic {
		docTopic[d] = make([]int, k)
	}
	topicWord := make([][]int, k)
	for t := range topicWord {
		topicWord[t] = make([]int, v)
	}
	topicTotal := make([]int, k)

	assignments := make([][]int, n)
	for d, words := range docs {
		assignments[d] = make([]int, len(words))
		for w, word := range words {
			topic := l.rng.Intn(k)
			assignments[d][w] = topic
			docTopic[d][topic]++
			topicWord[topic][word]++
			topicTotal[topic]++
		}
	}

	vBeta := float64(v) * l.beta
	probs := make([]float64, k)
	for iter := 0; iter < l.iterations; iter++ {
		for d, words := range docs {
			for w, word := range words {
				old := assignments[d][w]
				docTopic[d][old]--
				topicWord[old][word]--
				topicTotal[old]--

				var total float64
				for t := 0; t < k; t++ {
					p := (float64(docTopic[d][t]) + l.alpha) *
						(float64(topicWord[t][word]) + l.beta) /
						(float64(topicTotal[t]) + vBeta)
					probs[t] = p
					total += p
				}
				target := l.rng.Float64() * total
				chosen := k - 1
				var acc float64
				for t := 0; t < k; t++ {
					acc += probs[t]
					if acc >= target {
						chosen = t
						break
					}
				}

				assignments[d][w] = chosen
				docTopic[d][chosen]++
				topicWord[chosen][word]++
				topicTotal[chosen]++
			}
		}
	}

	clusters := l.collect(analysis, docs, docTopic, topicWord, vocab, k)
	l.logger.Debug("lda clustering complete",
		logging.Int("documents", n),
		logging.Int("topics", k),
		logging.Int("clusters", len(clusters)))
	return clusters, nil
}

// heuristicTopics is ceil(sqrt(N)) clamped to [2, 10], defaulting to
// DefaultTopics for mid-size corpora.
func heuristicTopics(n int) int {
	k := int(math.Ceil(math.Sqrt(float64(n))))
	if k < 2 {
		k = 2
	}
	if k > 10 {
		k = 10
	}
	if k > DefaultTopics && n < 30 {
		k = DefaultTopics
	}
	return k
}

// buildCorpus tokenizes titles into word-id sequences. Documents with no
// surviving tokens stay empty and fall into topic 0 at collection time.
func buildCorpus(titles []string) ([][]int, []string) {
	wordIDs := make(map[string]int)
	var vocab []string
	docs := make([][]int, len(titles))
	for d, title := range titles {
		tokens := textutil.Tokenize(title)
		ids := make([]int, 0, len(tokens))
		for _, token := range tokens {
			id, ok := wordIDs[token]
			if !ok {
				id = len(vocab)
				wordIDs[token] = id
				vocab = append(vocab, token)
			}
			ids = append(ids, id)
		}
		docs[d] = ids
	}
	return docs, vocab
}

func (l *LDA) collect(analysis *Analysis, docs [][]int, docTopic [][]int, topicWord [][]int, vocab []string, k int) []VideoCluster {
	grouped := make([][]int, k)
	for d := range docs {
		best := 0
		for t := 1; t < k; t++ {
			if docTopic[d][t] > docTopic[d][best] {
				best = t
			}
		}
		grouped[best] = append(grouped[best], d)
	}

	clusters := make([]VideoCluster, 0, k)
	for t, members := range grouped {
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
			TopicKeywords:   topTopicWords(topicWord[t], vocab, 10),
		})
	}
	return clusters
}

// topTopicWords ranks the vocabulary by per-topic count, ties alphabetical.
func topTopicWords(counts []int, vocab []string, k int) []string {
	type wordCount struct {
		word  string
		count int
	}
	ranked := make([]wordCount, 0, len(vocab))
	for id, count := range counts {
		if count > 0 {
			ranked = append(ranked, wordCount{vocab[id], count})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].word < ranked[j].word
	})
	if k > len(ranked) {
		k = len(ranked)
	}
	out := make([]string, 0, k)
	for _, wc := range ranked[:k] {
		out = append(out, wc.word)
	}
	return out
}

// TopicEntropy measures how evenly a topic's probability mass spreads over
// documents; used by the ensemble selector to score LDA runs. Normalized
// to [0, 1] where lower is more coherent.
func TopicEntropy(clusters []VideoCluster, totalDocs int) float64 {
	if len(clusters) < 2 || totalDocs == 0 {
		return 0
	}
	var entropy float64
	for _, cl := range clusters {
		p := float64(len(cl.Videos)) / float64(totalDocs)
		if p > 0 {
			entropy -= p * math.Log2(p)
		}
	}
	return entropy / math.Log2(float64(len(clusters)))
}

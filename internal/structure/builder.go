// Package structure composes detection, clustering, and difficulty analysis
// into the module layout of a course.
package structure

import (
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"coursepilot/internal/cluster"
	"coursepilot/internal/config"
	"coursepilot/internal/course"
	"coursepilot/internal/features"
	"coursepilot/internal/logging"
	"coursepilot/internal/sequence"
	"coursepilot/internal/services"
)

// Options steer a structuring run. Zero values defer to configuration.
type Options struct {
	// Algorithm forces a specific clustering algorithm. Empty picks hybrid.
	Algorithm course.ClusteringAlgorithm
	// TargetClusters forces the cluster count when positive.
	TargetClusters int
	// UserLevel calibrates difficulty scoring.
	UserLevel course.DifficultyLevel
	// ReorderByDifficulty sorts modules into beginner, intermediate, and
	// advanced tiers, preserving order inside each tier.
	ReorderByDifficulty bool
	// Seed fixes the random source for reproducible clustering. Zero seeds
	// from the clock.
	Seed int64
	// Progress, when set, observes stage boundaries as a stage name and the
	// fraction of work finished. Calls are synchronous.
	Progress func(stage string, fraction float64)
}

func (o Options) report(stage string, fraction float64) {
	if o.Progress != nil {
		o.Progress(stage, fraction)
	}
}

// Builder turns ingested videos into a course structure. Every run produces
// a structure: when analysis cannot help, the original order is preserved.
type Builder struct {
	cfg      config.Clustering
	detector *sequence.Detector
	logger   *slog.Logger
}

// NewBuilder constructs a builder over the clustering configuration.
func NewBuilder(cfg config.Clustering, logger *slog.Logger) *Builder {
	return &Builder{
		cfg:      cfg,
		detector: sequence.NewDetector(logger),
		logger:   logging.NewComponentLogger(logger, "structure"),
	}
}

var titleCaser = cases.Title(language.English)

// Build analyzes the videos and produces a structure. The only hard failure
// is invalid duration data; analysis failures degrade to preserved order.
func (b *Builder) Build(videos []course.VideoMetadata, opts Options) (*course.Structure, error) {
	if err := validateDurations(videos); err != nil {
		return nil, err
	}

	titles := make([]string, len(videos))
	for i := range videos {
		titles[i] = videos[i].Title
	}

	detection := b.detector.Detect(titles)
	opts.report("detection", 0.25)
	defer opts.report("assembly", 1)
	b.logger.Info("content analyzed",
		logging.String("content_type", string(detection.ContentType)),
		logging.Float64("confidence", detection.Confidence),
		logging.String("recommendation", string(detection.Recommendation)))

	switch detection.Recommendation {
	case sequence.RecommendPreserveOrder:
		return b.sequentialStructure(videos, detection, string(sequence.RecommendPreserveOrder)), nil
	case sequence.RecommendApplyClustering:
		structure, err := b.clusteredStructure(videos, titles, detection, opts)
		if err == nil {
			return structure, nil
		}
		b.logger.Warn("clustering failed, preserving original order", logging.Error(err))
		return b.sequentialStructure(videos, detection, string(sequence.RecommendFallbackProcessing)), nil
	case sequence.RecommendFallbackProcessing:
		return b.fallbackStructure(videos, titles, detection), nil
	default:
		// Without an interactive surface a user choice defaults to the
		// original ordering, recorded as fallback processing.
		return b.sequentialStructure(videos, detection, string(sequence.RecommendFallbackProcessing)), nil
	}
}

func validateDurations(videos []course.VideoMetadata) error {
	for i := range videos {
		if d := videos[i].DurationSeconds; d != nil && *d < 0 {
			return services.Wrap(services.ErrInvalidDurations, "structure", "build",
				"negative duration", nil)
		}
	}
	return nil
}

// sequentialStructure wraps all videos in one module in source order.
func (b *Builder) sequentialStructure(videos []course.VideoMetadata, detection *sequence.Result, strategy string) *course.Structure {
	sections := make([]course.Section, 0, len(videos))
	for i := range videos {
		sections = append(sections, course.Section{
			Title:      videos[i].Title,
			VideoIndex: i,
			Duration:   videoDuration(&videos[i]),
		})
	}
	module := course.NewModule("Course Content", sections)
	structure := &course.Structure{Modules: []course.Module{module}}
	b.fillMetadata(structure, videos, detection, true, strategy)
	return structure
}

func (b *Builder) clusteredStructure(videos []course.VideoMetadata, titles []string, detection *sequence.Result, opts Options) (*course.Structure, error) {
	rng := rand.New(rand.NewSource(opts.Seed))
	if opts.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	extractor := features.NewExtractor(b.cfg.MaxFeatures, b.logger)

	algorithm := opts.Algorithm
	if algorithm == "" {
		algorithm = course.AlgorithmHybrid
	}
	clusterer := b.clustererFor(algorithm, extractor, rng)

	started := time.Now()
	analysis, err := clusterer.Analyze(titles)
	if err != nil {
		return nil, err
	}
	extractionMS := time.Since(started).Milliseconds()
	opts.report("features", 0.5)

	targetK := opts.TargetClusters
	if targetK > b.cfg.MaxClusters {
		targetK = b.cfg.MaxClusters
	}
	clusterStart := time.Now()
	clusters, err := clusterer.Cluster(analysis, targetK)
	if err != nil {
		return nil, err
	}
	clusteringMS := time.Since(clusterStart).Milliseconds()
	opts.report("clustering", 0.75)

	durations := make([]time.Duration, len(videos))
	for i := range videos {
		durations[i] = videoDuration(&videos[i])
	}
	optimizeStart := time.Now()
	optimized, err := cluster.Optimize(clusters, durations)
	if err != nil {
		return nil, err
	}
	optimizationMS := time.Since(optimizeStart).Milliseconds()

	analyzer := cluster.NewDifficultyAnalyzer(opts.UserLevel)
	scores := analyzer.ScoreAll(videos)

	modules := make([]course.Module, 0, len(optimized)+1)
	for _, oc := range optimized {
		sections := make([]course.Section, 0, len(oc.Videos))
		var moduleScore float64
		for _, idx := range oc.Videos {
			sections = append(sections, course.Section{
				Title:      videos[idx].Title,
				VideoIndex: idx,
				Duration:   durations[idx],
			})
			moduleScore += scores[idx]
		}
		moduleScore /= float64(len(oc.Videos))

		title := oc.SuggestedTitle
		if len(oc.TopicKeywords) > 0 {
			title = titleCaser.String(oc.TopicKeywords[0])
		}
		module := course.NewClusteredModule(title, sections, oc.SimilarityScore, oc.TopicKeywords)
		level := cluster.Level(moduleScore)
		module.Difficulty = &level
		modules = append(modules, module)
	}

	// Any video the algorithm left out still belongs to the course.
	if residual := residualModule(videos, modules, durations); residual != nil {
		modules = append(modules, *residual)
	}

	if opts.ReorderByDifficulty {
		modules = reorderModulesByTier(modules)
	}

	quality := cluster.QualityScore(analysis.Matrix, clusters)
	structure := &course.Structure{
		Modules: modules,
		Clustering: &course.ClusteringMetadata{
			AlgorithmUsed:       algorithm,
			SimilarityThreshold: b.cfg.SimilarityThreshold,
			ClusterCount:        len(clusters),
			QualityScore:        quality,
			ProcessingTimeMS:    extractionMS + clusteringMS + optimizationMS,
			ContentTopics:       contentTopics(optimized),
			StrategyUsed:        strategyFor(algorithm),
			ConfidenceScores: map[string]float64{
				"sequential": detection.SequentialScore,
				"thematic":   detection.ThematicScore,
			},
			Rationale: "thematic content grouped by title similarity",
			PerformanceMetrics: course.PerformanceMetrics{
				TotalVideos:         len(videos),
				FeatureExtractionMS: extractionMS,
				ClusteringMS:        clusteringMS,
				OptimizationMS:      optimizationMS,
			},
		},
	}
	b.fillMetadata(structure, videos, detection, false, string(sequence.RecommendApplyClustering))
	structure.Metadata.StructureQualityScore = &quality
	return structure, nil
}

func (b *Builder) clustererFor(algorithm course.ClusteringAlgorithm, extractor *features.Extractor, rng *rand.Rand) cluster.Clusterer {
	switch algorithm {
	case course.AlgorithmKMeans, course.AlgorithmTfIdf:
		return cluster.NewKMeans(extractor, rng, b.logger)
	case course.AlgorithmHierarchical:
		return cluster.NewHierarchical(extractor, cluster.LinkageAverage, 1-b.cfg.SimilarityThreshold, b.cfg.MinClusterSize, b.logger)
	case course.AlgorithmLda:
		return cluster.NewLDA(extractor, 0, rng, b.logger)
	default:
		return cluster.NewHybrid(extractor, cluster.SelectionAutomatic, rng, b.logger)
	}
}

func strategyFor(algorithm course.ClusteringAlgorithm) course.ClusteringStrategy {
	switch algorithm {
	case course.AlgorithmHierarchical:
		return course.StrategyHierarchical
	case course.AlgorithmLda:
		return course.StrategyLda
	case course.AlgorithmHybrid:
		return course.StrategyHybrid
	case course.AlgorithmFallback:
		return course.StrategyFallback
	default:
		return course.StrategyContentBased
	}
}

func contentTopics(optimized []cluster.OptimizedCluster) []course.TopicInfo {
	topics := make([]course.TopicInfo, 0, len(optimized))
	for _, oc := range optimized {
		if len(oc.TopicKeywords) == 0 {
			continue
		}
		topics = append(topics, course.TopicInfo{
			Name:          oc.TopicKeywords[0],
			Keywords:      oc.TopicKeywords,
			RelevanceRank: oc.SimilarityScore,
			VideoCount:    len(oc.Videos),
		})
	}
	return topics
}

// residualModule collects videos absent from every module into a trailing
// catch-all. Returns nil when coverage is complete.
func residualModule(videos []course.VideoMetadata, modules []course.Module, durations []time.Duration) *course.Module {
	assigned := make(map[int]struct{})
	for _, m := range modules {
		for _, s := range m.Sections {
			assigned[s.VideoIndex] = struct{}{}
		}
	}
	var sections []course.Section
	for i := range videos {
		if _, ok := assigned[i]; ok {
			continue
		}
		sections = append(sections, course.Section{
			Title:      videos[i].Title,
			VideoIndex: i,
			Duration:   durations[i],
		})
	}
	if len(sections) == 0 {
		return nil
	}
	module := course.NewModule("Additional Content", sections)
	return &module
}

// reorderModulesByTier sorts modules into three difficulty tiers, keeping
// relative order inside each tier.
func reorderModulesByTier(modules []course.Module) []course.Module {
	tier := func(m *course.Module) int {
		if m.Difficulty == nil {
			return 1
		}
		switch *m.Difficulty {
		case course.DifficultyBeginner:
			return 0
		case course.DifficultyAdvanced, course.DifficultyExpert:
			return 2
		default:
			return 1
		}
	}
	sort.SliceStable(modules, func(i, j int) bool {
		return tier(&modules[i]) < tier(&modules[j])
	})
	return modules
}

func (b *Builder) fillMetadata(structure *course.Structure, videos []course.VideoMetadata, detection *sequence.Result, orderPreserved bool, strategy string) {
	var total time.Duration
	for i := range videos {
		total += videoDuration(&videos[i])
	}
	hours := total.Hours()
	confidence := detection.Confidence
	contentType := string(detection.ContentType)

	structure.Metadata = course.StructureMetadata{
		TotalVideos:            len(videos),
		TotalDuration:          total,
		EstimatedDurationHours: &hours,
		StructureQualityScore:  &confidence,
		ContentCoherenceScore:  &confidence,
		ContentTypeDetected:    &contentType,
		OriginalOrderPreserved: &orderPreserved,
		ProcessingStrategyUsed: &strategy,
	}

	analyzer := cluster.NewDifficultyAnalyzer("")
	scores := analyzer.ScoreAll(videos)
	if len(scores) > 0 {
		var sum float64
		for _, s := range scores {
			sum += s
		}
		level := cluster.Level(sum / float64(len(scores)))
		structure.Metadata.Difficulty = &level
	}
}

func videoDuration(v *course.VideoMetadata) time.Duration {
	if v.DurationSeconds == nil {
		return 0
	}
	return time.Duration(*v.DurationSeconds * float64(time.Second))
}

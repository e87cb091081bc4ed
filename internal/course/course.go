// Package course defines the core domain types shared across ingestion,
// analysis, structuring, planning, and persistence.
package course

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PlaceholderIDPrefix marks synthesized video identifiers produced by metadata
// repair. Courses carrying placeholder IDs cannot be saved until re-ingested.
const PlaceholderIDPrefix = "PLACEHOLDER_"

// Course is a collection of videos plus the optional structure computed for it.
type Course struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	CreatedAt time.Time       `json:"created_at"`
	RawTitles []string        `json:"raw_titles"`
	Videos    []VideoMetadata `json:"videos"`
	Structure *Structure      `json:"structure,omitempty"`
}

// New creates an empty course with a fresh identifier.
func New(name string) Course {
	return Course{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
}

// VideoCount reports the number of videos attached to the course.
func (c *Course) VideoCount() int {
	return len(c.Videos)
}

// IsStructured reports whether a structure has been computed for the course.
func (c *Course) IsStructured() bool {
	return c.Structure != nil
}

// TotalDuration sums the known durations of all videos.
func (c *Course) TotalDuration() time.Duration {
	var total time.Duration
	for i := range c.Videos {
		if d := c.Videos[i].DurationSeconds; d != nil {
			total += time.Duration(*d * float64(time.Second))
		}
	}
	return total
}

// VideoMetadata describes a single video from either a local folder or a
// remote playlist.
type VideoMetadata struct {
	Title           string   `json:"title"`
	SourceURL       *string  `json:"source_url,omitempty"`
	VideoID         *string  `json:"video_id,omitempty"`
	PlaylistID      *string  `json:"playlist_id,omitempty"`
	OriginalIndex   int      `json:"original_index"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
	ThumbnailURL    *string  `json:"thumbnail_url,omitempty"`
	Description     *string  `json:"description,omitempty"`
	UploadDate      *string  `json:"upload_date,omitempty"`
	Author          *string  `json:"author,omitempty"`
	ViewCount       *uint64  `json:"view_count,omitempty"`
	Tags            []string `json:"tags"`
	IsLocal         bool     `json:"is_local"`
}

// NewLocalVideo builds metadata for a video file on disk. The path doubles as
// the source URL so local and remote videos share one shape.
func NewLocalVideo(title, path string, index int) VideoMetadata {
	p := path
	return VideoMetadata{
		Title:         title,
		SourceURL:     &p,
		OriginalIndex: index,
		Tags:          []string{},
		IsLocal:       true,
	}
}

// NewRemoteVideo builds metadata for a video fetched from a remote playlist.
func NewRemoteVideo(title, videoID, url string, index int) VideoMetadata {
	id, u := videoID, url
	return VideoMetadata{
		Title:         title,
		SourceURL:     &u,
		VideoID:       &id,
		OriginalIndex: index,
		Tags:          []string{},
		IsLocal:       false,
	}
}

// HasCompleteMetadata reports whether the video carries everything persistence
// requires. Local videos need a title and a source path; remote videos also
// need a real (non placeholder) video ID.
func (v *VideoMetadata) HasCompleteMetadata() bool {
	if strings.TrimSpace(v.Title) == "" {
		return false
	}
	if v.SourceURL == nil || strings.TrimSpace(*v.SourceURL) == "" {
		return false
	}
	if v.IsLocal {
		return true
	}
	if v.VideoID == nil || strings.TrimSpace(*v.VideoID) == "" {
		return false
	}
	return !strings.HasPrefix(*v.VideoID, PlaceholderIDPrefix)
}

// Structure is the computed organization of a course into modules.
type Structure struct {
	Modules    []Module            `json:"modules"`
	Metadata   StructureMetadata   `json:"metadata"`
	Clustering *ClusteringMetadata `json:"clustering_metadata,omitempty"`
}

// Module groups sections that belong to one coherent unit of the course.
type Module struct {
	Title           string           `json:"title"`
	Sections        []Section        `json:"sections"`
	TotalDuration   time.Duration    `json:"total_duration"`
	SimilarityScore *float64         `json:"similarity_score,omitempty"`
	TopicKeywords   []string         `json:"topic_keywords"`
	Difficulty      *DifficultyLevel `json:"difficulty_level,omitempty"`
}

// NewModule builds a module whose total duration is the sum of its sections.
func NewModule(title string, sections []Section) Module {
	m := Module{Title: title, Sections: sections, TopicKeywords: []string{}}
	for i := range sections {
		m.TotalDuration += sections[i].Duration
	}
	return m
}

// NewClusteredModule builds a module annotated with clustering results.
func NewClusteredModule(title string, sections []Section, similarity float64, keywords []string) Module {
	m := NewModule(title, sections)
	m.SimilarityScore = &similarity
	if keywords != nil {
		m.TopicKeywords = keywords
	}
	return m
}

// Section points at one video inside a module. VideoIndex refers to the
// course's Videos slice.
type Section struct {
	Title      string        `json:"title"`
	VideoIndex int           `json:"video_index"`
	Duration   time.Duration `json:"duration"`
}

// StructureMetadata summarizes the structuring run that produced the modules.
type StructureMetadata struct {
	TotalVideos            int              `json:"total_videos"`
	TotalDuration          time.Duration    `json:"total_duration"`
	EstimatedDurationHours *float64         `json:"estimated_duration_hours,omitempty"`
	Difficulty             *DifficultyLevel `json:"difficulty_level,omitempty"`
	StructureQualityScore  *float64         `json:"structure_quality_score,omitempty"`
	ContentCoherenceScore  *float64         `json:"content_coherence_score,omitempty"`
	ContentTypeDetected    *string          `json:"content_type_detected,omitempty"`
	OriginalOrderPreserved *bool            `json:"original_order_preserved,omitempty"`
	ProcessingStrategyUsed *string          `json:"processing_strategy_used,omitempty"`
}

// ClusteringMetadata records how the clustering stage arrived at the modules.
type ClusteringMetadata struct {
	AlgorithmUsed       ClusteringAlgorithm `json:"algorithm_used"`
	SimilarityThreshold float64             `json:"similarity_threshold"`
	ClusterCount        int                 `json:"cluster_count"`
	QualityScore        float64             `json:"quality_score"`
	ProcessingTimeMS    int64               `json:"processing_time_ms"`
	ContentTopics       []TopicInfo         `json:"content_topics"`
	StrategyUsed        ClusteringStrategy  `json:"strategy_used"`
	ConfidenceScores    map[string]float64  `json:"confidence_scores"`
	Rationale           string              `json:"rationale"`
	PerformanceMetrics  PerformanceMetrics  `json:"performance_metrics"`
}

// TopicInfo names a detected topic and the keywords supporting it.
type TopicInfo struct {
	Name          string   `json:"name"`
	Keywords      []string `json:"keywords"`
	RelevanceRank float64  `json:"relevance_score"`
	VideoCount    int      `json:"video_count"`
}

// PerformanceMetrics captures coarse timing of a clustering run.
type PerformanceMetrics struct {
	TotalVideos         int   `json:"total_videos"`
	FeatureExtractionMS int64 `json:"feature_extraction_ms"`
	ClusteringMS        int64 `json:"clustering_ms"`
	OptimizationMS      int64 `json:"optimization_ms"`
}

// ClusteringAlgorithm identifies the algorithm that produced a structure.
type ClusteringAlgorithm string

const (
	AlgorithmTfIdf        ClusteringAlgorithm = "tfidf"
	AlgorithmKMeans       ClusteringAlgorithm = "kmeans"
	AlgorithmHierarchical ClusteringAlgorithm = "hierarchical"
	AlgorithmLda          ClusteringAlgorithm = "lda"
	AlgorithmHybrid       ClusteringAlgorithm = "hybrid"
	AlgorithmFallback     ClusteringAlgorithm = "fallback"
)

// ClusteringStrategy identifies the high level grouping approach.
type ClusteringStrategy string

const (
	StrategyContentBased  ClusteringStrategy = "content_based"
	StrategyDurationBased ClusteringStrategy = "duration_based"
	StrategyHierarchical  ClusteringStrategy = "hierarchical"
	StrategyLda           ClusteringStrategy = "lda"
	StrategyHybrid        ClusteringStrategy = "hybrid"
	StrategyFallback      ClusteringStrategy = "fallback"
)

// DifficultyLevel grades course or module difficulty.
type DifficultyLevel string

const (
	DifficultyBeginner     DifficultyLevel = "beginner"
	DifficultyIntermediate DifficultyLevel = "intermediate"
	DifficultyAdvanced     DifficultyLevel = "advanced"
	DifficultyExpert       DifficultyLevel = "expert"
)

// DifficultyScore maps a level onto the 0..1 scale used by progression checks.
func (d DifficultyLevel) DifficultyScore() float64 {
	switch d {
	case DifficultyBeginner:
		return 0.2
	case DifficultyIntermediate:
		return 0.5
	case DifficultyAdvanced:
		return 0.8
	case DifficultyExpert:
		return 1.0
	default:
		return 0.5
	}
}

// ParseDifficulty maps a stored string onto a level, defaulting to
// intermediate for unknown values.
func ParseDifficulty(s string) DifficultyLevel {
	switch DifficultyLevel(strings.ToLower(strings.TrimSpace(s))) {
	case DifficultyBeginner:
		return DifficultyBeginner
	case DifficultyAdvanced:
		return DifficultyAdvanced
	case DifficultyExpert:
		return DifficultyExpert
	default:
		return DifficultyIntermediate
	}
}

package learning

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"coursepilot/internal/course"
	"coursepilot/internal/logging"
)

// FeedbackKind identifies how the user reacted to a clustering result.
type FeedbackKind string

const (
	FeedbackExplicitRating     FeedbackKind = "explicit_rating"
	FeedbackManualAdjustment   FeedbackKind = "manual_adjustment"
	FeedbackParameterChange    FeedbackKind = "parameter_change"
	FeedbackImplicitAcceptance FeedbackKind = "implicit_acceptance"
	FeedbackRejection          FeedbackKind = "rejection"
)

// AdjustmentKind identifies a manual edit the user made to a structure.
type AdjustmentKind string

const (
	AdjustmentMoveVideos     AdjustmentKind = "move_videos"
	AdjustmentSplitModule    AdjustmentKind = "split_module"
	AdjustmentMergeModules   AdjustmentKind = "merge_modules"
	AdjustmentRenameModule   AdjustmentKind = "rename_module"
	AdjustmentReorderModules AdjustmentKind = "reorder_modules"
)

// Adjustment is one manual edit made to a clustered structure.
type Adjustment struct {
	Kind         AdjustmentKind `json:"kind"`
	FromModule   int            `json:"from_module"`
	ToModule     int            `json:"to_module"`
	VideoIndices []int          `json:"video_indices,omitempty"`
	Reason       string         `json:"reason,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}

// Feedback is one recorded user reaction to a clustering run.
type Feedback struct {
	ID          string       `json:"id"`
	CourseID    string       `json:"course_id"`
	Parameters  Preferences  `json:"parameters"`
	Kind        FeedbackKind `json:"kind"`
	Rating      float64      `json:"rating"`
	Comments    string       `json:"comments,omitempty"`
	Adjustments []Adjustment `json:"adjustments,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// NewFeedback builds a feedback record for the given course and reaction.
func NewFeedback(courseID string, kind FeedbackKind, rating float64, used Preferences) Feedback {
	return Feedback{
		ID:         uuid.NewString(),
		CourseID:   courseID,
		Parameters: used,
		Kind:       kind,
		Rating:     rating,
		CreatedAt:  time.Now().UTC(),
	}
}

// Learning rates. Explicit parameter changes move faster than ratings.
const (
	ratingLearningRate    = 0.1
	parameterLearningRate = 0.3
)

// Engine tracks preferences and adapts them from feedback. It is a
// single-owner object; callers serialize access.
type Engine struct {
	prefs   Preferences
	history []Feedback
	tests   []ABTest
	results []ABResult
	logger  *slog.Logger
}

// NewEngine starts from the default preference record.
func NewEngine(logger *slog.Logger) *Engine {
	return NewEngineWith(DefaultPreferences(), logger)
}

// NewEngineWith starts from an existing preference record.
func NewEngineWith(prefs Preferences, logger *slog.Logger) *Engine {
	prefs.Clamp()
	return &Engine{
		prefs:  prefs,
		logger: logging.NewComponentLogger(logger, "learning"),
	}
}

// Preferences returns the current record.
func (e *Engine) Preferences() Preferences { return e.prefs }

// History returns the recorded feedback, oldest first.
func (e *Engine) History() []Feedback { return e.history }

// RestoreHistory reloads persisted feedback without re-applying its
// adjustments; the loaded preference record already reflects them.
func (e *Engine) RestoreHistory(history []Feedback) {
	e.history = history
}

// RecordFeedback appends the feedback and adjusts the preference record
// according to its kind.
func (e *Engine) RecordFeedback(fb Feedback) {
	e.history = append(e.history, fb)

	switch fb.Kind {
	case FeedbackExplicitRating:
		e.applyRating(fb.Rating, fb.Parameters)
	case FeedbackManualAdjustment:
		e.applyAdjustments(fb.Adjustments)
	case FeedbackParameterChange:
		e.applyParameterChange(fb.Parameters)
	case FeedbackImplicitAcceptance:
		e.prefs.SatisfactionScore = clampFloat(e.prefs.SatisfactionScore+0.05, 0, 1)
	case FeedbackRejection:
		e.applyRejection(fb.Parameters)
	}

	e.prefs.SatisfactionScore = e.averageRating()
	e.prefs.UsageCount++
	e.prefs.LastUpdated = time.Now().UTC()
	e.prefs.Clamp()

	e.logger.Debug("feedback recorded",
		logging.String("kind", string(fb.Kind)),
		logging.Float64("rating", fb.Rating),
		logging.Float64("similarity_threshold", e.prefs.SimilarityThreshold),
		logging.String("algorithm", string(e.prefs.PreferredAlgorithm)))
}

func (e *Engine) applyRating(rating float64, used Preferences) {
	switch {
	case rating > 0.7:
		e.prefs.SimilarityThreshold += ratingLearningRate * (used.SimilarityThreshold - e.prefs.SimilarityThreshold)
		e.prefs.ContentVsDurationWeight += ratingLearningRate * (used.ContentVsDurationWeight - e.prefs.ContentVsDurationWeight)
		if rating > 0.8 {
			e.prefs.PreferredAlgorithm = used.PreferredAlgorithm
			e.prefs.PreferredStrategy = used.PreferredStrategy
		}
	case rating < 0.4:
		e.prefs.SimilarityThreshold -= ratingLearningRate * (used.SimilarityThreshold - e.prefs.SimilarityThreshold)
		e.prefs.ContentVsDurationWeight -= ratingLearningRate * (used.ContentVsDurationWeight - e.prefs.ContentVsDurationWeight)
	}
}

func (e *Engine) applyAdjustments(adjustments []Adjustment) {
	switch n := len(adjustments); {
	case n > 3:
		// Heavy editing means the clustering was too coarse.
		e.prefs.SimilarityThreshold -= 0.05
	case n == 1:
		e.prefs.SimilarityThreshold += 0.02
	}

	splits, merges := 0, 0
	for _, a := range adjustments {
		switch a.Kind {
		case AdjustmentSplitModule:
			splits++
		case AdjustmentMergeModules:
			merges++
		}
	}
	if splits > merges {
		e.prefs.MaxClusters++
		e.prefs.MinClusterSize--
	} else if merges > splits {
		e.prefs.MaxClusters--
		e.prefs.MinClusterSize++
	}
}

func (e *Engine) applyParameterChange(changed Preferences) {
	e.prefs.SimilarityThreshold += parameterLearningRate * (changed.SimilarityThreshold - e.prefs.SimilarityThreshold)
	e.prefs.ContentVsDurationWeight += parameterLearningRate * (changed.ContentVsDurationWeight - e.prefs.ContentVsDurationWeight)
	e.prefs.MaxClusters = changed.MaxClusters
	e.prefs.MinClusterSize = changed.MinClusterSize
	e.prefs.EnableDurationBalancing = changed.EnableDurationBalancing
}

func (e *Engine) applyRejection(rejected Preferences) {
	e.prefs.PreferredAlgorithm = nextAlgorithm(rejected.PreferredAlgorithm)
	if rejected.SimilarityThreshold > 0.6 {
		e.prefs.SimilarityThreshold = rejected.SimilarityThreshold - 0.1
	} else {
		e.prefs.SimilarityThreshold = rejected.SimilarityThreshold + 0.1
	}
}

func (e *Engine) averageRating() float64 {
	if len(e.history) == 0 {
		return 0.5
	}
	var total float64
	for _, fb := range e.history {
		total += fb.Rating
	}
	return total / float64(len(e.history))
}

// RecommendedParameters tailors the current record to one course's size and
// complexity without mutating the baseline.
func (e *Engine) RecommendedParameters(videoCount int, complexity course.DifficultyLevel) Preferences {
	params := e.prefs

	if videoCount < 10 {
		if params.MaxClusters > 3 {
			params.MaxClusters = 3
		}
		params.SimilarityThreshold += 0.1
	} else if videoCount > 50 {
		params.MaxClusters += 2
		params.SimilarityThreshold -= 0.05
	}

	switch complexity {
	case course.DifficultyBeginner:
		params.PreferredStrategy = course.StrategyContentBased
		params.ContentVsDurationWeight = 0.8
	case course.DifficultyExpert:
		params.PreferredStrategy = course.StrategyHybrid
		params.ContentVsDurationWeight = 0.6
	}

	params.Clamp()
	return params
}

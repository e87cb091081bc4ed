package api

import (
	"context"
	"fmt"
	"log/slog"

	"coursepilot/internal/config"
	"coursepilot/internal/course"
	"coursepilot/internal/learning"
	"coursepilot/internal/store"
)

// RecordFeedbackRequest describes one piece of structuring feedback.
type RecordFeedbackRequest struct {
	Config *config.Config
	Logger *slog.Logger

	Feedback learning.Feedback
}

// RecordFeedback feeds a feedback event through the preference engine and
// persists both the event and the adjusted preferences.
func RecordFeedback(ctx context.Context, req RecordFeedbackRequest) (learning.Preferences, error) {
	if req.Config == nil {
		return learning.Preferences{}, fmt.Errorf("config is required")
	}

	db, err := store.Open(req.Config, req.Logger)
	if err != nil {
		return learning.Preferences{}, err
	}
	defer db.Close()

	engine, err := db.LoadEngine(ctx, req.Logger)
	if err != nil {
		return learning.Preferences{}, err
	}
	engine.RecordFeedback(req.Feedback)

	if err := db.SaveFeedback(ctx, req.Feedback); err != nil {
		return learning.Preferences{}, err
	}
	if err := db.SaveEngine(ctx, engine); err != nil {
		return learning.Preferences{}, err
	}
	return engine.Preferences(), nil
}

// PreferencesRequest carries the fields of preference queries.
type PreferencesRequest struct {
	Config *config.Config
	Logger *slog.Logger
}

// GetPreferences returns the stored clustering preferences, or the defaults
// when none have been learned yet. The second result reports which case it is.
func GetPreferences(ctx context.Context, req PreferencesRequest) (learning.Preferences, bool, error) {
	if req.Config == nil {
		return learning.Preferences{}, false, fmt.Errorf("config is required")
	}

	db, err := store.Open(req.Config, req.Logger)
	if err != nil {
		return learning.Preferences{}, false, err
	}
	defer db.Close()

	return db.LoadPreferences(ctx)
}

// CreateABTestRequest describes a new A/B experiment over two algorithms.
type CreateABTestRequest struct {
	Config *config.Config
	Logger *slog.Logger

	Name             string
	Description      string
	AlgorithmA       course.ClusteringAlgorithm
	AlgorithmB       course.ClusteringAlgorithm
	TargetSampleSize int
}

// CreateABTest registers an experiment and returns its ID.
func CreateABTest(ctx context.Context, req CreateABTestRequest) (string, error) {
	if req.Config == nil {
		return "", fmt.Errorf("config is required")
	}

	db, err := store.Open(req.Config, req.Logger)
	if err != nil {
		return "", err
	}
	defer db.Close()

	engine, err := db.LoadEngine(ctx, req.Logger)
	if err != nil {
		return "", err
	}
	id := engine.CreateABTest(req.Name, req.Description, req.AlgorithmA, req.AlgorithmB, req.TargetSampleSize)

	if err := db.SaveEngine(ctx, engine); err != nil {
		return "", err
	}
	return id, nil
}

// AnalyzeABTestRequest addresses a single experiment.
type AnalyzeABTestRequest struct {
	Config *config.Config
	Logger *slog.Logger

	TestID string
}

// AnalyzeABTest compares the two arms of an experiment. A decisive winner's
// parameters become the new baseline preferences.
func AnalyzeABTest(ctx context.Context, req AnalyzeABTestRequest) (*learning.ABAnalysis, error) {
	if req.Config == nil {
		return nil, fmt.Errorf("config is required")
	}

	db, err := store.Open(req.Config, req.Logger)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	engine, err := db.LoadEngine(ctx, req.Logger)
	if err != nil {
		return nil, err
	}
	analysis, err := engine.AnalyzeABTest(req.TestID)
	if err != nil {
		return nil, err
	}
	if err := db.SaveEngine(ctx, engine); err != nil {
		return nil, err
	}
	return analysis, nil
}

package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"coursepilot/internal/config"
	"coursepilot/internal/course"
	"coursepilot/internal/services"
	"coursepilot/internal/store"
	"coursepilot/internal/structure"
)

// StructureCourseRequest describes a structuring run over a stored course.
type StructureCourseRequest struct {
	Config *config.Config
	Logger *slog.Logger

	// Course is the course ID or name.
	Course string
	// Options steer the run. Zero values defer to configuration.
	Options structure.Options
	// UseLearnedPreferences seeds the run from the preference engine's
	// recommendation for this course's size and level.
	UseLearnedPreferences bool
}

// StructureCourse computes (or recomputes) the structure of a stored course
// and persists the result. The previous structure, if any, is replaced.
func StructureCourse(ctx context.Context, req StructureCourseRequest) (*course.Course, error) {
	if req.Config == nil {
		return nil, fmt.Errorf("config is required")
	}

	db, err := store.Open(req.Config, req.Logger)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	c, err := resolveCourse(ctx, db, req.Course)
	if err != nil {
		return nil, err
	}

	clustering := req.Config.Clustering
	opts := req.Options
	if req.UseLearnedPreferences {
		engine, err := db.LoadEngine(ctx, req.Logger)
		if err != nil {
			return nil, err
		}
		prefs := engine.RecommendedParameters(c.VideoCount(), opts.UserLevel)
		clustering.SimilarityThreshold = prefs.SimilarityThreshold
		clustering.MaxClusters = prefs.MaxClusters
		clustering.MinClusterSize = prefs.MinClusterSize
		if opts.Algorithm == "" {
			opts.Algorithm = prefs.PreferredAlgorithm
		}
		if opts.UserLevel == "" {
			opts.UserLevel = prefs.UserExperienceLevel
		}
	}

	builder := structure.NewBuilder(clustering, req.Logger)
	st, err := builder.Build(c.Videos, opts)
	if err != nil {
		return nil, err
	}
	c.Structure = st

	if err := db.SaveCourse(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// resolveCourse looks a course up by ID first, then by name.
func resolveCourse(ctx context.Context, db *store.Store, ref string) (*course.Course, error) {
	if ref == "" {
		return nil, services.Wrap(services.ErrValidation, "api", "resolve_course", "course ID or name is required", nil)
	}
	c, err := db.GetCourse(ctx, ref)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, services.ErrNotFound) {
		return nil, err
	}
	return db.FindCourseByName(ctx, ref)
}

package api

import (
	"context"
	"fmt"
	"log/slog"

	"coursepilot/internal/config"
	"coursepilot/internal/course"
	"coursepilot/internal/planner"
	"coursepilot/internal/services"
	"coursepilot/internal/store"
)

// GeneratePlanRequest describes a study plan generation run.
type GeneratePlanRequest struct {
	Config *config.Config
	Logger *slog.Logger

	// Course is the course ID or name. The course must be structured.
	Course string
	// Settings control scheduling. Zero-value fields fall back to the
	// configured planner defaults.
	Settings course.PlanSettings
}

// GeneratePlan schedules the sessions of a structured course and persists the
// resulting plan.
func GeneratePlan(ctx context.Context, req GeneratePlanRequest) (*course.Plan, error) {
	if req.Config == nil {
		return nil, fmt.Errorf("config is required")
	}

	settings := req.Settings
	if settings.SessionsPerWeek == 0 {
		settings.SessionsPerWeek = req.Config.Planner.SessionsPerWeek
	}
	if settings.SessionLengthMinutes == 0 {
		settings.SessionLengthMinutes = req.Config.Planner.SessionLengthMinutes
	}
	if err := planner.ValidateSettings(settings); err != nil {
		return nil, err
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

	plan, err := planner.NewScheduler(req.Logger).GeneratePlan(c, settings)
	if err != nil {
		return nil, err
	}
	if err := db.SavePlan(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// OptimizePlanRequest re-runs the scheduling optimizations over a saved plan.
type OptimizePlanRequest struct {
	Config *config.Config
	Logger *slog.Logger

	PlanID string
	// Settings, when non-zero, replace the plan's stored settings before
	// rescheduling. Zero-value fields keep the stored values.
	Settings course.PlanSettings
}

// OptimizePlan rebuilds the review sessions, workload balance and dates of an
// existing plan and persists the result.
func OptimizePlan(ctx context.Context, req OptimizePlanRequest) (*course.Plan, error) {
	if req.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if req.PlanID == "" {
		return nil, services.Wrap(services.ErrValidation, "api", "optimize_plan", "plan ID is required", nil)
	}

	db, err := store.Open(req.Config, req.Logger)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	plan, err := db.GetPlan(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	if !req.Settings.StartDate.IsZero() {
		plan.Settings.StartDate = req.Settings.StartDate
	}
	if req.Settings.SessionsPerWeek != 0 {
		plan.Settings.SessionsPerWeek = req.Settings.SessionsPerWeek
	}
	if req.Settings.SessionLengthMinutes != 0 {
		plan.Settings.SessionLengthMinutes = req.Settings.SessionLengthMinutes
	}

	if err := planner.NewScheduler(req.Logger).OptimizePlan(plan); err != nil {
		return nil, err
	}
	if err := db.SavePlan(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// MarkProgressRequest records completion state for one video in a plan.
type MarkProgressRequest struct {
	Config *config.Config
	Logger *slog.Logger

	PlanID       string
	SessionIndex int
	VideoIndex   int
	Completed    bool
}

// MarkProgress flips a video's completion flag and returns the updated plan
// summary.
func MarkProgress(ctx context.Context, req MarkProgressRequest) (store.ProgressSummary, error) {
	if req.Config == nil {
		return store.ProgressSummary{}, fmt.Errorf("config is required")
	}
	if req.PlanID == "" {
		return store.ProgressSummary{}, services.Wrap(services.ErrValidation, "api", "mark_progress", "plan ID is required", nil)
	}

	db, err := store.Open(req.Config, req.Logger)
	if err != nil {
		return store.ProgressSummary{}, err
	}
	defer db.Close()

	if err := db.SetVideoProgress(ctx, req.PlanID, req.SessionIndex, req.VideoIndex, req.Completed); err != nil {
		return store.ProgressSummary{}, err
	}
	return db.ProgressSummaryFor(ctx, req.PlanID)
}

// PlanStatus bundles a plan with its recorded progress.
type PlanStatus struct {
	Plan    *course.Plan
	Summary store.ProgressSummary
	Entries []store.ProgressEntry
}

// PlanStatusRequest fetches a plan and its progress. An empty PlanID with a
// Course set resolves to the course's latest plan.
type PlanStatusRequest struct {
	Config *config.Config
	Logger *slog.Logger

	PlanID string
	Course string
}

// GetPlanStatus returns a plan together with its progress entries.
func GetPlanStatus(ctx context.Context, req PlanStatusRequest) (*PlanStatus, error) {
	if req.Config == nil {
		return nil, fmt.Errorf("config is required")
	}

	db, err := store.Open(req.Config, req.Logger)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var plan *course.Plan
	switch {
	case req.PlanID != "":
		plan, err = db.GetPlan(ctx, req.PlanID)
	case req.Course != "":
		var c *course.Course
		c, err = resolveCourse(ctx, db, req.Course)
		if err == nil {
			plan, err = db.LatestPlanForCourse(ctx, c.ID)
		}
	default:
		return nil, services.Wrap(services.ErrValidation, "api", "plan_status", "plan ID or course is required", nil)
	}
	if err != nil {
		return nil, err
	}

	entries, err := db.PlanProgress(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	summary, err := db.ProgressSummaryFor(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	return &PlanStatus{Plan: plan, Summary: summary, Entries: entries}, nil
}

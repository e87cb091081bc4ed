package store

import (
	"context"
	"time"

	"coursepilot/internal/services"
)

// ProgressEntry is one video's completion state inside a plan session.
type ProgressEntry struct {
	PlanID       string
	SessionIndex int
	VideoIndex   int
	Completed    bool
	UpdatedAt    time.Time
}

// ProgressSummary aggregates a plan's completion state.
type ProgressSummary struct {
	Total     int
	Completed int
}

// Percent reports completion as a percentage.
func (p ProgressSummary) Percent() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Completed) / float64(p.Total) * 100
}

// SetVideoProgress upserts one video's completion state.
func (s *Store) SetVideoProgress(ctx context.Context, planID string, sessionIndex, videoIndex int, completed bool) error {
	done := 0
	if completed {
		done = 1
	}
	_, err := s.exec(ctx, `
INSERT INTO video_progress (plan_id, session_index, video_index, completed, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(plan_id, session_index, video_index) DO UPDATE SET
	completed = excluded.completed,
	updated_at = excluded.updated_at`,
		planID, sessionIndex, videoIndex, done, time.Now().Unix())
	if err != nil {
		return services.Wrap(services.ErrDatabase, "store", "set_progress", "upsert progress", err)
	}
	return nil
}

// PlanProgress loads every progress entry recorded for a plan.
func (s *Store) PlanProgress(ctx context.Context, planID string) ([]ProgressEntry, error) {
	rows, err := s.query(ctx, `
SELECT plan_id, session_index, video_index, completed, updated_at
FROM video_progress WHERE plan_id = ?
ORDER BY session_index, video_index`, planID)
	if err != nil {
		return nil, services.Wrap(services.ErrDatabase, "store", "plan_progress", "query progress", err)
	}
	defer rows.Close()

	var out []ProgressEntry
	for rows.Next() {
		var (
			e         ProgressEntry
			completed int
			updatedAt int64
		)
		if err := rows.Scan(&e.PlanID, &e.SessionIndex, &e.VideoIndex, &completed, &updatedAt); err != nil {
			return nil, services.Wrap(services.ErrDatabase, "store", "plan_progress", "scan progress", err)
		}
		e.Completed = completed != 0
		e.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrDatabase, "store", "plan_progress", "iterate progress", err)
	}
	return out, nil
}

// ProgressSummaryFor counts completed videos against the plan's total.
func (s *Store) ProgressSummaryFor(ctx context.Context, planID string) (ProgressSummary, error) {
	plan, err := s.GetPlan(ctx, planID)
	if err != nil {
		return ProgressSummary{}, err
	}
	summary := ProgressSummary{Total: plan.TotalVideos()}

	row := s.queryRow(ctx,
		"SELECT COUNT(1) FROM video_progress WHERE plan_id = ? AND completed = 1", planID)
	if err := row.Scan(&summary.Completed); err != nil {
		return ProgressSummary{}, services.Wrap(services.ErrDatabase, "store", "progress_summary", "count completed", err)
	}
	return summary, nil
}

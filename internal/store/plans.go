package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"coursepilot/internal/course"
	"coursepilot/internal/services"
)

// SavePlan inserts or replaces a plan. The owning course must exist.
func (s *Store) SavePlan(ctx context.Context, p *course.Plan) error {
	settings, err := json.Marshal(p.Settings)
	if err != nil {
		return services.Wrap(services.ErrDatabase, "store", "save_plan", "marshal settings", err)
	}
	items, err := json.Marshal(p.Items)
	if err != nil {
		return services.Wrap(services.ErrDatabase, "store", "save_plan", "marshal items", err)
	}
	_, err = s.exec(ctx, `
INSERT INTO plans (id, course_id, settings, items, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	settings = excluded.settings,
	items = excluded.items`,
		p.ID, p.CourseID, string(settings), string(items), p.CreatedAt.Unix())
	if err != nil {
		return services.Wrap(services.ErrDatabase, "store", "save_plan", "insert plan", err)
	}
	return nil
}

// GetPlan loads a plan by ID.
func (s *Store) GetPlan(ctx context.Context, id string) (*course.Plan, error) {
	row := s.queryRow(ctx, `
SELECT id, course_id, settings, items, created_at FROM plans WHERE id = ?`, id)
	p, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return nil, services.Wrap(services.ErrNotFound, "store", "get_plan", "plan "+id, nil)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// LatestPlanForCourse returns the most recently created plan of a course.
func (s *Store) LatestPlanForCourse(ctx context.Context, courseID string) (*course.Plan, error) {
	row := s.queryRow(ctx, `
SELECT id, course_id, settings, items, created_at
FROM plans WHERE course_id = ?
ORDER BY created_at DESC, id LIMIT 1`, courseID)
	p, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return nil, services.Wrap(services.ErrNotFound, "store", "get_plan", "no plan for course "+courseID, nil)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListPlans returns every plan of a course, newest first.
func (s *Store) ListPlans(ctx context.Context, courseID string) ([]course.Plan, error) {
	rows, err := s.query(ctx, `
SELECT id, course_id, settings, items, created_at
FROM plans WHERE course_id = ?
ORDER BY created_at DESC, id`, courseID)
	if err != nil {
		return nil, services.Wrap(services.ErrDatabase, "store", "list_plans", "query plans", err)
	}
	defer rows.Close()

	var out []course.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrDatabase, "store", "list_plans", "iterate plans", err)
	}
	return out, nil
}

// DeletePlan removes a plan and its progress rows.
func (s *Store) DeletePlan(ctx context.Context, id string) error {
	res, err := s.exec(ctx, "DELETE FROM plans WHERE id = ?", id)
	if err != nil {
		return services.Wrap(services.ErrDatabase, "store", "delete_plan", "delete plan", err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return services.Wrap(services.ErrNotFound, "store", "delete_plan", "plan "+id, nil)
	}
	return nil
}

func scanPlan(row rowScanner) (*course.Plan, error) {
	var (
		p         course.Plan
		settings  string
		items     string
		createdAt int64
	)
	if err := row.Scan(&p.ID, &p.CourseID, &settings, &items, &createdAt); err != nil {
		return nil, err
	}
	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	if err := json.Unmarshal([]byte(settings), &p.Settings); err != nil {
		return nil, services.Wrap(services.ErrDatabase, "store", "get_plan", "decode settings", err)
	}
	if err := json.Unmarshal([]byte(items), &p.Items); err != nil {
		return nil, services.Wrap(services.ErrDatabase, "store", "get_plan", "decode items", err)
	}
	return &p, nil
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"coursepilot/internal/course"
	"coursepilot/internal/logging"
	"coursepilot/internal/services"
)

// CourseSummary is the listing row for a stored course.
type CourseSummary struct {
	ID         string
	Name       string
	CreatedAt  time.Time
	VideoCount int
	Structured bool
}

// SaveCourse inserts or replaces a course. Courses carrying placeholder video
// identifiers are refused; they must be re-ingested first.
func (s *Store) SaveCourse(ctx context.Context, c *course.Course) error {
	for i := range c.Videos {
		if !c.Videos[i].HasCompleteMetadata() {
			return &services.IncompleteMetadata{
				Position: i + 1,
				Reason:   fmt.Sprintf("video %q cannot be saved", c.Videos[i].Title),
			}
		}
	}

	rawTitles, err := json.Marshal(c.RawTitles)
	if err != nil {
		return services.Wrap(services.ErrDatabase, "store", "save_course", "marshal raw titles", err)
	}
	videos, err := json.Marshal(c.Videos)
	if err != nil {
		return services.Wrap(services.ErrDatabase, "store", "save_course", "marshal videos", err)
	}
	var structure any
	if c.Structure != nil {
		encoded, err := json.Marshal(c.Structure)
		if err != nil {
			return services.Wrap(services.ErrDatabase, "store", "save_course", "marshal structure", err)
		}
		structure = string(encoded)
	}

	_, err = s.exec(ctx, `
INSERT INTO courses (id, name, created_at, raw_titles, videos, structure)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	raw_titles = excluded.raw_titles,
	videos = excluded.videos,
	structure = excluded.structure`,
		c.ID, c.Name, c.CreatedAt.Unix(), string(rawTitles), string(videos), structure)
	if err != nil {
		return services.Wrap(services.ErrDatabase, "store", "save_course", "insert course", err)
	}
	return nil
}

// GetCourse loads a course by ID, repairing recoverable metadata damage on
// the way out. Repairs are logged and never fail the load.
func (s *Store) GetCourse(ctx context.Context, id string) (*course.Course, error) {
	row := s.queryRow(ctx, `
SELECT id, name, created_at, raw_titles, videos, structure
FROM courses WHERE id = ?`, id)

	c, err := s.scanCourse(row)
	if err == sql.ErrNoRows {
		return nil, services.Wrap(services.ErrNotFound, "store", "get_course", "course "+id, nil)
	}
	if err != nil {
		return nil, err
	}

	repairs := RepairVideos(c.Videos, c.RawTitles)
	if len(repairs.Notes) > 0 {
		c.Videos = repairs.Videos
		for _, note := range repairs.Notes {
			s.logger.Warn("course metadata repaired",
				logging.String("course_id", c.ID),
				logging.String("repair", note))
		}
	}
	return c, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanCourse(row rowScanner) (*course.Course, error) {
	var (
		c         course.Course
		createdAt int64
		rawTitles string
		videos    string
		structure sql.NullString
	)
	if err := row.Scan(&c.ID, &c.Name, &createdAt, &rawTitles, &videos, &structure); err != nil {
		return nil, err
	}
	c.CreatedAt = time.Unix(createdAt, 0).UTC()
	if err := json.Unmarshal([]byte(rawTitles), &c.RawTitles); err != nil {
		return nil, services.Wrap(services.ErrDatabase, "store", "get_course", "decode raw titles", err)
	}
	if err := json.Unmarshal([]byte(videos), &c.Videos); err != nil {
		return nil, services.Wrap(services.ErrDatabase, "store", "get_course", "decode videos", err)
	}
	if structure.Valid && structure.String != "" {
		var parsed course.Structure
		if err := json.Unmarshal([]byte(structure.String), &parsed); err != nil {
			return nil, services.Wrap(services.ErrDatabase, "store", "get_course", "decode structure", err)
		}
		c.Structure = &parsed
	}
	return &c, nil
}

// FindCourseByName looks a course up by exact name, case-insensitively.
func (s *Store) FindCourseByName(ctx context.Context, name string) (*course.Course, error) {
	row := s.queryRow(ctx, `
SELECT id, name, created_at, raw_titles, videos, structure
FROM courses WHERE name = ? COLLATE NOCASE LIMIT 1`, name)
	c, err := s.scanCourse(row)
	if err == sql.ErrNoRows {
		return nil, services.Wrap(services.ErrNotFound, "store", "find_course", "course "+name, nil)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListCourses returns course summaries, newest first.
func (s *Store) ListCourses(ctx context.Context) ([]CourseSummary, error) {
	rows, err := s.query(ctx, `
SELECT id, name, created_at, videos, structure IS NOT NULL
FROM courses ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, services.Wrap(services.ErrDatabase, "store", "list_courses", "query courses", err)
	}
	defer rows.Close()

	var out []CourseSummary
	for rows.Next() {
		var (
			summary   CourseSummary
			createdAt int64
			videos    string
		)
		if err := rows.Scan(&summary.ID, &summary.Name, &createdAt, &videos, &summary.Structured); err != nil {
			return nil, services.Wrap(services.ErrDatabase, "store", "list_courses", "scan course", err)
		}
		summary.CreatedAt = time.Unix(createdAt, 0).UTC()
		var parsed []course.VideoMetadata
		if err := json.Unmarshal([]byte(videos), &parsed); err == nil {
			summary.VideoCount = len(parsed)
		}
		out = append(out, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrDatabase, "store", "list_courses", "iterate courses", err)
	}
	return out, nil
}

// DeleteCourse removes a course along with its plans, notes, and progress.
func (s *Store) DeleteCourse(ctx context.Context, id string) error {
	if _, err := s.exec(ctx, "DELETE FROM notes WHERE course_id = ?", id); err != nil {
		return services.Wrap(services.ErrDatabase, "store", "delete_course", "delete notes", err)
	}
	res, err := s.exec(ctx, "DELETE FROM courses WHERE id = ?", id)
	if err != nil {
		return services.Wrap(services.ErrDatabase, "store", "delete_course", "delete course", err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return services.Wrap(services.ErrNotFound, "store", "delete_course", "course "+id, nil)
	}
	return nil
}

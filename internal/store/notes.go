package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"coursepilot/internal/course"
	"coursepilot/internal/services"
)

// VideoScope selects which notes a filter matches by video attachment.
type VideoScope int

const (
	// ScopeAll matches notes regardless of video attachment.
	ScopeAll VideoScope = iota
	// ScopeCourseOnly matches notes not attached to any video.
	ScopeCourseOnly
	// ScopeVideo matches notes attached to one specific video.
	ScopeVideo
)

// NoteFilter narrows a note search. Zero values mean unconstrained.
type NoteFilter struct {
	CourseID      string
	Scope         VideoScope
	VideoID       int
	ContainsText  string
	Tags          []string
	TimestampFrom *float64
	TimestampTo   *float64
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	UpdatedFrom   *time.Time
	UpdatedTo     *time.Time
}

// SaveNote inserts or replaces a note.
func (s *Store) SaveNote(ctx context.Context, n *course.Note) error {
	tags, err := json.Marshal(n.Tags)
	if err != nil {
		return services.Wrap(services.ErrDatabase, "store", "save_note", "marshal tags", err)
	}
	var timestamp any
	if n.Timestamp != nil {
		timestamp = int64(*n.Timestamp)
	}
	n.UpdatedAt = time.Now().UTC()
	_, err = s.exec(ctx, `
INSERT INTO notes (id, course_id, video_id, content, timestamp, created_at, updated_at, tags)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	content = excluded.content,
	timestamp = excluded.timestamp,
	updated_at = excluded.updated_at,
	tags = excluded.tags`,
		n.ID, n.CourseID, nullableInt(n.VideoID), n.Content, timestamp,
		n.CreatedAt.Format(time.RFC3339), n.UpdatedAt.Format(time.RFC3339), string(tags))
	if err != nil {
		return services.Wrap(services.ErrDatabase, "store", "save_note", "insert note", err)
	}
	return nil
}

// GetNote loads a note by ID.
func (s *Store) GetNote(ctx context.Context, id string) (*course.Note, error) {
	row := s.queryRow(ctx, `
SELECT id, course_id, video_id, content, timestamp, created_at, updated_at, tags
FROM notes WHERE id = ?`, id)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, services.Wrap(services.ErrNotFound, "store", "get_note", "note "+id, nil)
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

// DeleteNote removes a note.
func (s *Store) DeleteNote(ctx context.Context, id string) error {
	res, err := s.exec(ctx, "DELETE FROM notes WHERE id = ?", id)
	if err != nil {
		return services.Wrap(services.ErrDatabase, "store", "delete_note", "delete note", err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return services.Wrap(services.ErrNotFound, "store", "delete_note", "note "+id, nil)
	}
	return nil
}

// SearchNotes finds notes matching every constraint of the filter, ordered
// by creation time ascending.
func (s *Store) SearchNotes(ctx context.Context, filter NoteFilter) ([]course.Note, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.CourseID != "" {
		clauses = append(clauses, "course_id = ?")
		args = append(args, filter.CourseID)
	}
	switch filter.Scope {
	case ScopeCourseOnly:
		clauses = append(clauses, "video_id IS NULL")
	case ScopeVideo:
		clauses = append(clauses, "video_id = ?")
		args = append(args, filter.VideoID)
	}
	if filter.ContainsText != "" {
		clauses = append(clauses, "lower(content) LIKE ?")
		args = append(args, "%"+strings.ToLower(filter.ContainsText)+"%")
	}
	if filter.TimestampFrom != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, int64(*filter.TimestampFrom))
	}
	if filter.TimestampTo != nil {
		clauses = append(clauses, "timestamp <= ?")
		args = append(args, int64(*filter.TimestampTo))
	}
	if filter.CreatedFrom != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, filter.CreatedFrom.UTC().Format(time.RFC3339))
	}
	if filter.CreatedTo != nil {
		clauses = append(clauses, "created_at <= ?")
		args = append(args, filter.CreatedTo.UTC().Format(time.RFC3339))
	}
	if filter.UpdatedFrom != nil {
		clauses = append(clauses, "updated_at >= ?")
		args = append(args, filter.UpdatedFrom.UTC().Format(time.RFC3339))
	}
	if filter.UpdatedTo != nil {
		clauses = append(clauses, "updated_at <= ?")
		args = append(args, filter.UpdatedTo.UTC().Format(time.RFC3339))
	}
	for _, tag := range filter.Tags {
		clauses = append(clauses, "EXISTS (SELECT 1 FROM json_each(notes.tags) WHERE json_each.value = ?)")
		args = append(args, tag)
	}

	query := "SELECT id, course_id, video_id, content, timestamp, created_at, updated_at, tags FROM notes"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at ASC, id"

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, services.Wrap(services.ErrDatabase, "store", "search_notes", "query notes", err)
	}
	defer rows.Close()

	var out []course.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrDatabase, "store", "search_notes", "iterate notes", err)
	}
	return out, nil
}

// ExportNotesMarkdown renders a course's notes as a markdown document in
// creation order, grouped by video.
func (s *Store) ExportNotesMarkdown(ctx context.Context, courseID, courseName string) (string, error) {
	notes, err := s.SearchNotes(ctx, NoteFilter{CourseID: courseID})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Notes: %s\n\n", courseName)
	if len(notes) == 0 {
		b.WriteString("_No notes yet._\n")
		return b.String(), nil
	}

	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].CreatedAt.Before(notes[j].CreatedAt)
	})

	for i := range notes {
		n := &notes[i]
		if n.VideoID != nil {
			fmt.Fprintf(&b, "## Video %d\n\n", *n.VideoID+1)
		} else {
			b.WriteString("## Course\n\n")
		}
		if n.Timestamp != nil {
			fmt.Fprintf(&b, "**At %s**\n\n", formatTimestamp(*n.Timestamp))
		}
		b.WriteString(n.Content)
		b.WriteString("\n\n")
		if len(n.Tags) > 0 {
			fmt.Fprintf(&b, "_Tags: %s_\n\n", strings.Join(n.Tags, ", "))
		}
		fmt.Fprintf(&b, "_%s_\n\n---\n\n", n.CreatedAt.Format("2006-01-02 15:04"))
	}
	return b.String(), nil
}

func formatTimestamp(seconds float64) string {
	total := int(seconds)
	if total >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", total/3600, (total%3600)/60, total%60)
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func scanNote(row rowScanner) (*course.Note, error) {
	var (
		n         course.Note
		videoID   sql.NullInt64
		timestamp sql.NullInt64
		createdAt string
		updatedAt string
		tags      string
	)
	if err := row.Scan(&n.ID, &n.CourseID, &videoID, &n.Content, &timestamp, &createdAt, &updatedAt, &tags); err != nil {
		return nil, err
	}
	if videoID.Valid {
		v := int(videoID.Int64)
		n.VideoID = &v
	}
	if timestamp.Valid {
		t := float64(timestamp.Int64)
		n.Timestamp = &t
	}
	var err error
	if n.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, services.Wrap(services.ErrDatabase, "store", "get_note", "decode created_at", err)
	}
	if n.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, services.Wrap(services.ErrDatabase, "store", "get_note", "decode updated_at", err)
	}
	if err := json.Unmarshal([]byte(tags), &n.Tags); err != nil {
		return nil, services.Wrap(services.ErrDatabase, "store", "get_note", "decode tags", err)
	}
	return &n, nil
}

package api

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"coursepilot/internal/config"
	"coursepilot/internal/course"
	"coursepilot/internal/services"
	"coursepilot/internal/store"
	"coursepilot/internal/textutil"
)

// AddNoteRequest describes a new note on a course or one of its videos.
type AddNoteRequest struct {
	Config *config.Config
	Logger *slog.Logger

	// Course is the course ID or name.
	Course  string
	Content string
	// VideoIndex attaches the note to a video. Nil keeps it course-level.
	VideoIndex *int
	// Timestamp marks a position in the video, in seconds.
	Timestamp *float64
	Tags      []string
}

// AddNote validates and persists a note.
func AddNote(ctx context.Context, req AddNoteRequest) (*course.Note, error) {
	if req.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, services.Wrap(services.ErrValidation, "api", "add_note", "note content is required", nil)
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
	if req.VideoIndex != nil && (*req.VideoIndex < 0 || *req.VideoIndex >= c.VideoCount()) {
		return nil, services.Wrap(services.ErrValidation, "api", "add_note",
			fmt.Sprintf("video index %d out of range for %d videos", *req.VideoIndex, c.VideoCount()), nil)
	}

	var n course.Note
	if req.VideoIndex != nil {
		n = course.NewVideoNote(c.ID, *req.VideoIndex, req.Content, req.Timestamp)
	} else {
		n = course.NewNote(c.ID, req.Content)
	}
	n.Tags = req.Tags

	if err := db.SaveNote(ctx, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// SearchNotesRequest describes a filtered note query.
type SearchNotesRequest struct {
	Config *config.Config
	Logger *slog.Logger

	Filter store.NoteFilter
}

// SearchNotes returns notes matching every condition of the filter.
func SearchNotes(ctx context.Context, req SearchNotesRequest) ([]course.Note, error) {
	if req.Config == nil {
		return nil, fmt.Errorf("config is required")
	}

	db, err := store.Open(req.Config, req.Logger)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return db.SearchNotes(ctx, req.Filter)
}

// DeleteNoteRequest addresses a single note.
type DeleteNoteRequest struct {
	Config *config.Config
	Logger *slog.Logger

	NoteID string
}

// DeleteNote removes one note.
func DeleteNote(ctx context.Context, req DeleteNoteRequest) error {
	if req.Config == nil {
		return fmt.Errorf("config is required")
	}

	db, err := store.Open(req.Config, req.Logger)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.DeleteNote(ctx, req.NoteID)
}

// ExportNotesRequest describes a markdown export of a course's notes.
type ExportNotesRequest struct {
	Config *config.Config
	Logger *slog.Logger

	// Course is the course ID or name.
	Course string
	// OutputPath overrides the destination file. Empty writes to the
	// configured export directory.
	OutputPath string
}

// ExportNotes renders a course's notes as markdown and writes them to disk,
// returning the path written.
func ExportNotes(ctx context.Context, req ExportNotesRequest) (string, error) {
	if req.Config == nil {
		return "", fmt.Errorf("config is required")
	}

	db, err := store.Open(req.Config, req.Logger)
	if err != nil {
		return "", err
	}
	defer db.Close()

	c, err := resolveCourse(ctx, db, req.Course)
	if err != nil {
		return "", err
	}
	markdown, err := db.ExportNotesMarkdown(ctx, c.ID, c.Name)
	if err != nil {
		return "", err
	}

	path := req.OutputPath
	if path == "" {
		path = filepath.Join(req.Config.Paths.ExportDir, exportFileName(c.Name))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", services.Wrap(services.ErrFileSystem, "api", "export_notes", "creating export directory", err)
	}
	if err := os.WriteFile(path, []byte(markdown), 0o644); err != nil {
		return "", services.Wrap(services.ErrFileSystem, "api", "export_notes", "writing export file", err)
	}
	return path, nil
}

// exportFileName turns a course name into a safe markdown file name.
func exportFileName(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, textutil.SanitizeFileName(name))
	mapped = strings.Trim(mapped, "-")
	if mapped == "" {
		mapped = "course"
	}
	return mapped + "-notes.md"
}

package api

import (
	"context"
	"fmt"
	"log/slog"

	"coursepilot/internal/config"
	"coursepilot/internal/course"
	"coursepilot/internal/store"
)

// CoursesRequest carries the shared fields of read-only course operations.
type CoursesRequest struct {
	Config *config.Config
	Logger *slog.Logger
}

// ListCourses returns summaries of all stored courses, newest first.
func ListCourses(ctx context.Context, req CoursesRequest) ([]store.CourseSummary, error) {
	if req.Config == nil {
		return nil, fmt.Errorf("config is required")
	}

	db, err := store.Open(req.Config, req.Logger)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return db.ListCourses(ctx)
}

// CourseRequest addresses a single course by ID or name.
type CourseRequest struct {
	Config *config.Config
	Logger *slog.Logger

	Course string
}

// GetCourse loads one course with its videos and structure.
func GetCourse(ctx context.Context, req CourseRequest) (*course.Course, error) {
	if req.Config == nil {
		return nil, fmt.Errorf("config is required")
	}

	db, err := store.Open(req.Config, req.Logger)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return resolveCourse(ctx, db, req.Course)
}

// DeleteCourse removes a course together with its plans and notes.
func DeleteCourse(ctx context.Context, req CourseRequest) error {
	if req.Config == nil {
		return fmt.Errorf("config is required")
	}

	db, err := store.Open(req.Config, req.Logger)
	if err != nil {
		return err
	}
	defer db.Close()

	c, err := resolveCourse(ctx, db, req.Course)
	if err != nil {
		return err
	}
	return db.DeleteCourse(ctx, c.ID)
}

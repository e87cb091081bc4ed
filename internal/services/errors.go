package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInsufficientContent marks analysis inputs too small or too uniform
	// to cluster.
	ErrInsufficientContent = errors.New("insufficient content")
	// ErrInvalidDurations marks video duration data that cannot be analyzed.
	ErrInvalidDurations = errors.New("invalid durations")
	// ErrAnalysisFailed marks clustering or feature extraction failures.
	ErrAnalysisFailed = errors.New("analysis failed")
	// ErrIncompleteMetadata marks videos missing fields persistence requires.
	ErrIncompleteMetadata = errors.New("incomplete metadata")
	// ErrNetwork marks remote fetch failures.
	ErrNetwork = errors.New("network error")
	// ErrFileSystem marks local scan and file access failures.
	ErrFileSystem = errors.New("filesystem error")
	// ErrDatabase marks persistence failures.
	ErrDatabase = errors.New("database error")
	// ErrMigrationFailed marks schema migration failures.
	ErrMigrationFailed = errors.New("migration failed")
	// ErrInvalidSettings marks plan settings outside accepted bounds.
	ErrInvalidSettings = errors.New("invalid settings")
	// ErrCourseNotStructured marks operations that need a structured course.
	ErrCourseNotStructured = errors.New("course not structured")
	// ErrNotFound marks lookups for courses, plans, or notes that do not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks rejected user input.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks invalid configuration values.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrAnalysisFailed
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Outcome classifies how a failed operation should be surfaced to the user.
type Outcome string

const (
	// OutcomeRetryable covers failures worth retrying, such as network or
	// database contention.
	OutcomeRetryable Outcome = "retryable"
	// OutcomeUserInput covers failures the user must resolve, such as bad
	// settings or incomplete metadata.
	OutcomeUserInput Outcome = "user_input"
	// OutcomeDegraded covers analysis failures where a fallback strategy
	// still produced a usable result.
	OutcomeDegraded Outcome = "degraded"
	// OutcomeFatal covers everything else.
	OutcomeFatal Outcome = "fatal"
)

// Classify maps an error to the outcome callers should act on.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeFatal
	case errors.Is(err, ErrNetwork), errors.Is(err, ErrDatabase):
		return OutcomeRetryable
	case errors.Is(err, ErrInvalidSettings), errors.Is(err, ErrIncompleteMetadata),
		errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration),
		errors.Is(err, ErrCourseNotStructured), errors.Is(err, ErrNotFound):
		return OutcomeUserInput
	case errors.Is(err, ErrInsufficientContent), errors.Is(err, ErrInvalidDurations):
		return OutcomeDegraded
	default:
		return OutcomeFatal
	}
}

// IncompleteMetadata carries the position and reason for a video rejected by
// the persistence validator.
type IncompleteMetadata struct {
	Position int
	Reason   string
}

func (e *IncompleteMetadata) Error() string {
	return fmt.Sprintf("video at position %d: %s", e.Position, e.Reason)
}

// Unwrap ties the typed payload back to the sentinel marker.
func (e *IncompleteMetadata) Unwrap() error { return ErrIncompleteMetadata }

// MigrationFailure carries the schema version a migration failed at.
type MigrationFailure struct {
	Version int
	Cause   error
}

func (e *MigrationFailure) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("schema migration to version %d: %v", e.Version, e.Cause)
	}
	return fmt.Sprintf("schema migration to version %d failed", e.Version)
}

func (e *MigrationFailure) Unwrap() error { return ErrMigrationFailed }

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

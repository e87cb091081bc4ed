package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"coursepilot/internal/config"
	"coursepilot/internal/logging"
	"coursepilot/internal/services"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewWritesToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.log")
	logger, err := logging.New(logging.Options{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{path},
		ErrorOutputPaths: []string{path},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("structured message", logging.String("course_id", "abc"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	content := string(data)
	for _, fragment := range []string{`"msg":"structured message"`, `"course_id":"abc"`, `"level":"info"`} {
		if !strings.Contains(content, fragment) {
			t.Fatalf("expected %q in log output %q", fragment, content)
		}
	}
}

func TestNewFromConfigUsesLogDir(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.LogDir = filepath.Join(dir, "logs")
	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	logger.Info("hello")
	if _, err := os.Stat(filepath.Join(cfg.LogDir, "coursepilot.log")); err != nil {
		t.Fatalf("expected log file: %v", err)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := services.WithCourseID(context.Background(), "course-9")
	ctx = services.WithStage(ctx, "clustering")

	fields := logging.ContextFields(ctx)
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}

	logger := logging.WithContext(ctx, logging.NewNop())
	if logger == nil {
		t.Fatal("expected logger")
	}
}

func TestNewComponentLoggerNilBase(t *testing.T) {
	logger := logging.NewComponentLogger(nil, "planner")
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"coursepilot/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if cfg.Clustering.SimilarityThreshold != 0.6 {
		t.Fatalf("similarity threshold default = %v, want 0.6", cfg.Clustering.SimilarityThreshold)
	}
	if cfg.Planner.SessionsPerWeek != 3 {
		t.Fatalf("sessions per week default = %d, want 3", cfg.Planner.SessionsPerWeek)
	}
	if cfg.Paths.DatabasePath == "" {
		t.Fatal("expected database path to be derived from data dir")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
[paths]
data_dir = "`+dir+`"

[clustering]
similarity_threshold = 0.75
max_clusters = 12

[planner]
sessions_per_week = 5
session_length_minutes = 45
include_weekends = true

[logging]
format = "JSON"
level = "Debug"
`)
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.Clustering.SimilarityThreshold != 0.75 {
		t.Fatalf("similarity threshold = %v, want 0.75", cfg.Clustering.SimilarityThreshold)
	}
	if cfg.Clustering.MaxClusters != 12 {
		t.Fatalf("max clusters = %d, want 12", cfg.Clustering.MaxClusters)
	}
	if cfg.Planner.SessionsPerWeek != 5 || cfg.Planner.SessionLengthMinutes != 45 {
		t.Fatalf("planner = %+v", cfg.Planner)
	}
	if !cfg.Planner.IncludeWeekends {
		t.Fatal("expected include_weekends=true")
	}
	if cfg.LogFormat != "json" || cfg.LogLevel != "debug" {
		t.Fatalf("logging mirrors = %q/%q, want json/debug", cfg.LogFormat, cfg.LogLevel)
	}
	if cfg.Paths.DatabasePath != filepath.Join(dir, "courses.db") {
		t.Fatalf("database path = %q", cfg.Paths.DatabasePath)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "threshold out of range",
			content: "[clustering]\nsimilarity_threshold = 0.99\n",
			want:    "similarity_threshold",
		},
		{
			name:    "sessions out of range",
			content: "[planner]\nsessions_per_week = 9\n",
			want:    "sessions_per_week",
		},
		{
			name:    "session length out of range",
			content: "[planner]\nsession_length_minutes = 300\n",
			want:    "session_length_minutes",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.content)
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestAPIKeyEnvFallback(t *testing.T) {
	t.Setenv("YOUTUBE_API_KEY", "env-key")
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.YouTube.APIKey != "env-key" {
		t.Fatalf("api key = %q, want env fallback", cfg.YouTube.APIKey)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[clustering]") {
		t.Fatal("sample config missing clustering section")
	}
}

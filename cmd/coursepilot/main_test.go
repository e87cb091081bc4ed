package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	courseDir  string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q
export_dir = %q

[youtube]
api_key = "test"
`,
		base,
		filepath.Join(base, "logs"),
		filepath.Join(base, "exports"),
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	courseDir := filepath.Join(base, "Rust Essentials")
	if err := os.MkdirAll(courseDir, 0o755); err != nil {
		t.Fatalf("mkdir course dir: %v", err)
	}
	for _, name := range []string{
		"01 - Getting Started.mp4",
		"02 - Ownership Basics.mp4",
		"03 - Borrowing and Lifetimes.mp4",
		"04 - Advanced Traits.mp4",
	} {
		if err := os.WriteFile(filepath.Join(courseDir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write video file: %v", err)
		}
	}

	return &cliTestEnv{baseDir: base, configPath: configPath, courseDir: courseDir}
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCLIIngestStructurePlanFlow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "ingest", "folder", env.courseDir)
	if err != nil {
		t.Fatalf("ingest folder: %v", err)
	}
	if !strings.Contains(out, `Created course "Rust Essentials" with 4 videos`) {
		t.Fatalf("unexpected ingest output: %q", out)
	}

	out, _, err = runCLI(t, env.configPath, "courses")
	if err != nil {
		t.Fatalf("courses: %v", err)
	}
	if !strings.Contains(out, "Rust Essentials") {
		t.Fatalf("courses list missing course: %q", out)
	}

	out, _, err = runCLI(t, env.configPath, "structure", "Rust Essentials", "--seed", "1")
	if err != nil {
		t.Fatalf("structure: %v", err)
	}
	if !strings.Contains(out, "Structured \"Rust Essentials\"") {
		t.Fatalf("unexpected structure output: %q", out)
	}

	out, _, err = runCLI(t, env.configPath, "plan", "generate", "Rust Essentials", "--start", "2026-09-07")
	if err != nil {
		t.Fatalf("plan generate: %v", err)
	}
	if !strings.Contains(out, "Generated plan") {
		t.Fatalf("unexpected plan output: %q", out)
	}
	planID := extractPlanID(t, out)

	out, _, err = runCLI(t, env.configPath, "progress", planID, "1", "1")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if !strings.Contains(out, "Progress: 1/") {
		t.Fatalf("unexpected progress output: %q", out)
	}

	out, _, err = runCLI(t, env.configPath, "plan", "show", "Rust Essentials")
	if err != nil {
		t.Fatalf("plan show: %v", err)
	}
	if !strings.Contains(out, planID) {
		t.Fatalf("plan show missing plan id: %q", out)
	}
}

func TestCLINotesRoundTrip(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, env.configPath, "ingest", "folder", env.courseDir); err != nil {
		t.Fatalf("ingest folder: %v", err)
	}

	out, _, err := runCLI(t, env.configPath,
		"notes", "add", "Rust Essentials", "Revisit", "the", "borrow", "checker",
		"--video", "3", "--at", "1:35", "--tags", "borrowing,review")
	if err != nil {
		t.Fatalf("notes add: %v", err)
	}
	if !strings.Contains(out, "Added note") {
		t.Fatalf("unexpected notes add output: %q", out)
	}

	out, _, err = runCLI(t, env.configPath, "notes", "search", "Rust Essentials", "--text", "borrow")
	if err != nil {
		t.Fatalf("notes search: %v", err)
	}
	if !strings.Contains(out, "Revisit the borrow checker") || !strings.Contains(out, "video 3") {
		t.Fatalf("unexpected search output: %q", out)
	}

	out, _, err = runCLI(t, env.configPath, "notes", "export", "Rust Essentials")
	if err != nil {
		t.Fatalf("notes export: %v", err)
	}
	if !strings.Contains(out, "rust-essentials-notes.md") {
		t.Fatalf("unexpected export output: %q", out)
	}
}

func TestCLIFeedbackAndPrefs(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, env.configPath, "ingest", "folder", env.courseDir); err != nil {
		t.Fatalf("ingest folder: %v", err)
	}

	out, _, err := runCLI(t, env.configPath, "prefs")
	if err != nil {
		t.Fatalf("prefs: %v", err)
	}
	if !strings.Contains(out, "No learned preferences yet") {
		t.Fatalf("expected defaults notice, got %q", out)
	}

	out, _, err = runCLI(t, env.configPath, "feedback", "Rust Essentials", "0.9")
	if err != nil {
		t.Fatalf("feedback: %v", err)
	}
	if !strings.Contains(out, "Feedback recorded") {
		t.Fatalf("unexpected feedback output: %q", out)
	}

	out, _, err = runCLI(t, env.configPath, "prefs")
	if err != nil {
		t.Fatalf("prefs after feedback: %v", err)
	}
	if strings.Contains(out, "No learned preferences yet") {
		t.Fatalf("preferences were not persisted: %q", out)
	}

	if _, _, err := runCLI(t, env.configPath, "feedback", "Rust Essentials", "2"); err == nil {
		t.Fatal("expected error for out-of-range rating")
	}
}

func TestCLIDatabaseStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, env.configPath, "ingest", "folder", env.courseDir); err != nil {
		t.Fatalf("ingest folder: %v", err)
	}

	out, _, err := runCLI(t, env.configPath, "db", "status")
	if err != nil {
		t.Fatalf("db status: %v", err)
	}
	if !strings.Contains(out, "Schema version: 4") {
		t.Fatalf("unexpected db status output: %q", out)
	}
	if !strings.Contains(out, "Integrity: yes") {
		t.Fatalf("expected healthy integrity, got %q", out)
	}
}

func TestCLIConfigInit(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "config.toml")

	cmd := newRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(stdout.String(), "Wrote sample configuration") {
		t.Fatalf("unexpected init output: %q", stdout.String())
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}

	cmd = newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error when config already exists")
	}
}

func extractPlanID(t *testing.T, out string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "Generated plan ") {
			fields := strings.Fields(line)
			if len(fields) >= 3 {
				return fields[2]
			}
		}
	}
	t.Fatalf("no plan ID in output %q", out)
	return ""
}

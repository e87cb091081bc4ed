package course

import (
	"testing"
	"time"
)

func TestVideoMetadataCompleteness(t *testing.T) {
	local := NewLocalVideo("Intro", "/videos/intro.mp4", 0)
	if !local.HasCompleteMetadata() {
		t.Fatal("expected local video with title and path to be complete")
	}

	remote := NewRemoteVideo("Intro", "dQw4w9WgXcQ", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", 0)
	if !remote.HasCompleteMetadata() {
		t.Fatal("expected remote video with id and url to be complete")
	}

	placeholder := remote
	id := PlaceholderIDPrefix + "0"
	placeholder.VideoID = &id
	if placeholder.HasCompleteMetadata() {
		t.Fatal("placeholder video ids must not count as complete metadata")
	}

	missing := VideoMetadata{Title: "Orphan", IsLocal: false, Tags: []string{}}
	if missing.HasCompleteMetadata() {
		t.Fatal("remote video without url or id must be incomplete")
	}
}

func TestNewModuleSumsSectionDurations(t *testing.T) {
	m := NewModule("Basics", []Section{
		{Title: "One", VideoIndex: 0, Duration: 5 * time.Minute},
		{Title: "Two", VideoIndex: 1, Duration: 7 * time.Minute},
	})
	if m.TotalDuration != 12*time.Minute {
		t.Fatalf("module duration = %s, want 12m", m.TotalDuration)
	}
}

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		in   string
		want DifficultyLevel
	}{
		{"beginner", DifficultyBeginner},
		{"Advanced", DifficultyAdvanced},
		{"EXPERT", DifficultyExpert},
		{"intermediate", DifficultyIntermediate},
		{"garbage", DifficultyIntermediate},
		{"", DifficultyIntermediate},
	}
	for _, tc := range tests {
		if got := ParseDifficulty(tc.in); got != tc.want {
			t.Errorf("ParseDifficulty(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPlanProgress(t *testing.T) {
	plan := NewPlan("course-1", PlanSettings{SessionsPerWeek: 3, SessionLengthMinutes: 60})
	plan.Items = []PlanItem{
		{VideoIndices: []int{0, 1}, Completed: true},
		{VideoIndices: []int{2, 3}},
	}
	if got := plan.TotalVideos(); got != 4 {
		t.Fatalf("TotalVideos = %d, want 4", got)
	}
	if got := plan.CompletedVideos(); got != 2 {
		t.Fatalf("CompletedVideos = %d, want 2", got)
	}
	if got := plan.ProgressPercent(); got != 50 {
		t.Fatalf("ProgressPercent = %v, want 50", got)
	}
}

func TestCourseTotalDuration(t *testing.T) {
	c := New("Test Course")
	d1, d2 := 90.0, 30.0
	v1 := NewLocalVideo("A", "/a.mp4", 0)
	v1.DurationSeconds = &d1
	v2 := NewLocalVideo("B", "/b.mp4", 1)
	v2.DurationSeconds = &d2
	c.Videos = []VideoMetadata{v1, v2, NewLocalVideo("C", "/c.mp4", 2)}
	if got := c.TotalDuration(); got != 2*time.Minute {
		t.Fatalf("TotalDuration = %s, want 2m", got)
	}
	if c.IsStructured() {
		t.Fatal("new course must not report a structure")
	}
}

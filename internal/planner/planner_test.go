package planner

import (
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"coursepilot/internal/course"
	"coursepilot/internal/services"
)

// monday is a fixed Monday used as a schedule anchor.
var monday = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

func structuredCourse(moduleSizes []int, durationsMinutes []float64) *course.Course {
	c := course.New("test course")
	videoIndex := 0
	var modules []course.Module
	for mi, size := range moduleSizes {
		var sections []course.Section
		for i := 0; i < size; i++ {
			minutes := 10.0
			if videoIndex < len(durationsMinutes) {
				minutes = durationsMinutes[videoIndex]
			}
			seconds := minutes * 60
			title := fmt.Sprintf("Video %d", videoIndex+1)
			c.Videos = append(c.Videos, course.VideoMetadata{
				Title:           title,
				OriginalIndex:   videoIndex,
				DurationSeconds: &seconds,
				IsLocal:         true,
			})
			sections = append(sections, course.Section{
				Title:      title,
				VideoIndex: videoIndex,
				Duration:   time.Duration(seconds * float64(time.Second)),
			})
			videoIndex++
		}
		modules = append(modules, course.NewModule(fmt.Sprintf("Module %d", mi+1), sections))
	}
	c.Structure = &course.Structure{Modules: modules}
	return &c
}

func defaultSettings() course.PlanSettings {
	return course.PlanSettings{
		StartDate:            monday,
		SessionsPerWeek:      3,
		SessionLengthMinutes: 60,
		IncludeWeekends:      false,
	}
}

func planCoverage(t *testing.T, plan *course.Plan, want int) {
	t.Helper()
	var all []int
	for _, item := range plan.Items {
		all = append(all, item.VideoIndices...)
	}
	sort.Ints(all)
	if len(all) != want {
		t.Fatalf("plan covers %d videos, want %d", len(all), want)
	}
	for i, idx := range all {
		if idx != i {
			t.Fatalf("video indices %v, want 0..%d exactly once", all, want-1)
		}
	}
}

func TestValidateSettings(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(*course.PlanSettings)
		wantFail bool
	}{
		{"valid", func(*course.PlanSettings) {}, false},
		{"missing start date", func(s *course.PlanSettings) { s.StartDate = time.Time{} }, true},
		{"zero sessions", func(s *course.PlanSettings) { s.SessionsPerWeek = 0 }, true},
		{"eight sessions", func(s *course.PlanSettings) { s.SessionsPerWeek = 8 }, true},
		{"too short", func(s *course.PlanSettings) { s.SessionLengthMinutes = 4 }, true},
		{"too long", func(s *course.PlanSettings) { s.SessionLengthMinutes = 241 }, true},
		{"edge lengths", func(s *course.PlanSettings) { s.SessionLengthMinutes = 240 }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			settings := defaultSettings()
			tc.mutate(&settings)
			err := ValidateSettings(settings)
			if tc.wantFail && !errors.Is(err, services.ErrInvalidSettings) {
				t.Fatalf("err = %v, want ErrInvalidSettings", err)
			}
			if !tc.wantFail && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestGeneratePlanRequiresStructure(t *testing.T) {
	c := course.New("unstructured")
	_, err := NewScheduler(nil).GeneratePlan(&c, defaultSettings())
	if !errors.Is(err, services.ErrCourseNotStructured) {
		t.Fatalf("err = %v, want ErrCourseNotStructured", err)
	}
}

func TestShortCourseFitsOneSession(t *testing.T) {
	c := structuredCourse([]int{3}, []float64{10, 15, 30})
	plan, err := NewScheduler(nil).GeneratePlan(c, defaultSettings())
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if len(plan.Items) != 1 {
		t.Fatalf("got %d sessions, want 1", len(plan.Items))
	}
	item := plan.Items[0]
	if !item.Date.Equal(monday) {
		t.Errorf("session date = %v, want %v", item.Date, monday)
	}
	if len(item.VideoIndices) != 3 {
		t.Errorf("session has %d videos, want 3", len(item.VideoIndices))
	}
	if item.TotalDuration != 55*time.Minute {
		t.Errorf("session duration = %v, want 55m", item.TotalDuration)
	}
}

func TestOptimizePlanKeepsCoverageAndReschedules(t *testing.T) {
	c := structuredCourse([]int{6, 6, 6, 6}, nil)
	scheduler := NewScheduler(nil)
	plan, err := scheduler.GeneratePlan(c, defaultSettings())
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	reviews := 0
	for _, item := range plan.Items {
		if item.IsReview() {
			reviews++
		}
	}

	plan.Settings.SessionsPerWeek = 5
	plan.Settings.StartDate = monday.AddDate(0, 0, 7)
	if err := scheduler.OptimizePlan(plan); err != nil {
		t.Fatalf("OptimizePlan: %v", err)
	}

	planCoverage(t, plan, 24)
	gotReviews := 0
	for _, item := range plan.Items {
		if item.IsReview() {
			gotReviews++
		}
	}
	if gotReviews != reviews {
		t.Errorf("review sessions = %d after optimize, want %d", gotReviews, reviews)
	}
	if first := plan.Items[0].Date; first.Before(monday.AddDate(0, 0, 7)) {
		t.Errorf("first session %v predates the new start", first)
	}
	for i := 1; i < len(plan.Items); i++ {
		if plan.Items[i].Date.Before(plan.Items[i-1].Date) {
			t.Errorf("items out of date order at %d", i)
		}
	}
}

func TestPlanCoversEveryVideoExactlyOnce(t *testing.T) {
	c := structuredCourse([]int{4, 4, 4}, nil)
	plan, err := NewScheduler(nil).GeneratePlan(c, defaultSettings())
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	planCoverage(t, plan, 12)
}

func TestPlanNeverSchedulesWeekends(t *testing.T) {
	c := structuredCourse([]int{6, 6, 6, 6}, nil)
	settings := defaultSettings()
	settings.SessionsPerWeek = 7
	plan, err := NewScheduler(nil).GeneratePlan(c, settings)
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	for i, item := range plan.Items {
		if wd := item.Date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Errorf("item %d scheduled on %v", i, wd)
		}
	}
}

func TestBufferedHeavySessionSkipsWeekend(t *testing.T) {
	// A single dense session scheduled on a Friday gets buffered one day
	// later; that day is a Saturday and must be skipped.
	c := structuredCourse([]int{6}, []float64{600, 600, 600, 600, 600, 600})
	settings := defaultSettings()
	settings.StartDate = time.Date(2026, time.August, 28, 0, 0, 0, 0, time.UTC) // Friday
	settings.SessionsPerWeek = 7
	settings.SessionLengthMinutes = 240
	plan, err := NewScheduler(nil).GeneratePlan(c, settings)
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	for i, item := range plan.Items {
		if wd := item.Date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Errorf("item %d (%d videos) scheduled on %v", i, len(item.VideoIndices), wd)
		}
	}
}

func TestPlanAllowsWeekendsWhenEnabled(t *testing.T) {
	c := structuredCourse([]int{6, 6, 6, 6}, nil)
	settings := defaultSettings()
	settings.SessionsPerWeek = 7
	settings.IncludeWeekends = true
	plan, err := NewScheduler(nil).GeneratePlan(c, settings)
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	sawWeekend := false
	for _, item := range plan.Items {
		if wd := item.Date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			sawWeekend = true
		}
	}
	if !sawWeekend {
		t.Error("daily schedule with weekends enabled never used one")
	}
}

func TestPlanDatesNonDecreasing(t *testing.T) {
	c := structuredCourse([]int{8, 8, 8}, nil)
	plan, err := NewScheduler(nil).GeneratePlan(c, defaultSettings())
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	for i := 1; i < len(plan.Items); i++ {
		if plan.Items[i].Date.Before(plan.Items[i-1].Date) {
			t.Fatalf("item %d dated %v before item %d dated %v",
				i, plan.Items[i].Date, i-1, plan.Items[i-1].Date)
		}
	}
}

func TestModuleBasedStrategyKeepsModulesApart(t *testing.T) {
	// Small modules relative to the session capacity trigger module packing.
	c := structuredCourse([]int{3, 3}, nil)
	plan, err := NewScheduler(nil).GeneratePlan(c, defaultSettings())
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	for _, item := range plan.Items {
		if len(item.VideoIndices) == 0 {
			continue
		}
		modules := make(map[string]bool)
		modules[item.ModuleTitle] = true
		if len(modules) != 1 {
			t.Errorf("session mixes modules: %v", modules)
		}
	}
	planCoverage(t, plan, 6)
}

func TestLongCoursesGetReviewSessions(t *testing.T) {
	c := structuredCourse([]int{30}, nil)
	settings := defaultSettings()
	settings.SessionLengthMinutes = 30
	plan, err := NewScheduler(nil).GeneratePlan(c, settings)
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	reviews := 0
	for _, item := range plan.Items {
		if len(item.VideoIndices) == 0 {
			reviews++
			if item.ModuleTitle != "Review" {
				t.Errorf("empty session titled %q", item.ModuleTitle)
			}
		}
	}
	if reviews == 0 {
		t.Error("long course plan has no review sessions")
	}
	planCoverage(t, plan, 30)
}

func TestSessionTitleSummarizesExtraVideos(t *testing.T) {
	c := structuredCourse([]int{3}, []float64{5, 5, 5})
	plan, err := NewScheduler(nil).GeneratePlan(c, defaultSettings())
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if len(plan.Items) != 1 {
		t.Fatalf("got %d sessions, want 1", len(plan.Items))
	}
	want := "Video 1 (+2 more)"
	if plan.Items[0].SectionTitle != want {
		t.Errorf("section title = %q, want %q", plan.Items[0].SectionTitle, want)
	}
}

func TestReviewInterval(t *testing.T) {
	if got := reviewInterval(8); got != 5 {
		t.Errorf("reviewInterval(8) = %d, want 5", got)
	}
	if got := reviewInterval(40); got != 10 {
		t.Errorf("reviewInterval(40) = %d, want 10", got)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{55 * time.Minute, "55m"},
		{time.Hour, "1h"},
		{90 * time.Minute, "1h 30m"},
		{0, "0m"},
	}
	for _, tc := range cases {
		if got := FormatDuration(tc.d); got != tc.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}

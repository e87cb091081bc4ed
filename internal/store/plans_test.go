package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"coursepilot/internal/course"
	"coursepilot/internal/services"
)

func testPlan(courseID string, created time.Time) course.Plan {
	p := course.NewPlan(courseID, course.PlanSettings{
		StartDate:            time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC),
		SessionsPerWeek:      3,
		SessionLengthMinutes: 60,
	})
	p.CreatedAt = created
	p.Items = []course.PlanItem{
		{
			Date:          time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC),
			ModuleTitle:   "Course Content",
			SectionTitle:  "Lesson 1 (+1 more)",
			VideoIndices:  []int{0, 1},
			TotalDuration: 50 * time.Minute,
		},
		{
			Date:         time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC),
			ModuleTitle:  "Course Content",
			SectionTitle: "Lesson 3",
			VideoIndices: []int{2},
		},
	}
	return p
}

func TestPlanRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	c := testCourse(t, "Planned", 3)
	mustSaveCourse(t, s, c)

	p := testPlan(c.ID, time.Now().UTC())
	if err := s.SavePlan(ctx, &p); err != nil {
		t.Fatalf("SavePlan: %v", err)
	}

	got, err := s.GetPlan(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	if got.CourseID != c.ID || len(got.Items) != 2 {
		t.Fatalf("loaded plan course=%s items=%d, want %s/2", got.CourseID, len(got.Items), c.ID)
	}
	if !got.Items[0].Date.Equal(p.Items[0].Date) {
		t.Fatalf("item date = %v, want %v", got.Items[0].Date, p.Items[0].Date)
	}
	if got.Items[0].TotalDuration != 50*time.Minute {
		t.Fatalf("item duration = %v, want 50m", got.Items[0].TotalDuration)
	}
	if got.Settings.SessionsPerWeek != 3 || got.Settings.SessionLengthMinutes != 60 {
		t.Fatal("settings should survive the round trip")
	}
	if got.TotalVideos() != 3 {
		t.Fatalf("TotalVideos = %d, want 3", got.TotalVideos())
	}
}

func TestSavePlanUpdatesInPlace(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	c := testCourse(t, "Planned", 3)
	mustSaveCourse(t, s, c)

	p := testPlan(c.ID, time.Now().UTC())
	if err := s.SavePlan(ctx, &p); err != nil {
		t.Fatalf("SavePlan: %v", err)
	}
	p.Items[1].Completed = true
	if err := s.SavePlan(ctx, &p); err != nil {
		t.Fatalf("SavePlan update: %v", err)
	}

	got, err := s.GetPlan(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	if !got.Items[1].Completed {
		t.Fatal("updated completion flag should persist")
	}
	plans, err := s.ListPlans(ctx, c.ID)
	if err != nil {
		t.Fatalf("ListPlans: %v", err)
	}
	if len(plans) != 1 {
		t.Fatalf("plan count after update = %d, want 1", len(plans))
	}
}

func TestLatestPlanForCourse(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	c := testCourse(t, "Planned", 3)
	mustSaveCourse(t, s, c)

	old := testPlan(c.ID, time.Now().Add(-2*time.Hour).UTC())
	mid := testPlan(c.ID, time.Now().Add(-time.Hour).UTC())
	newest := testPlan(c.ID, time.Now().UTC())
	for _, p := range []*course.Plan{&old, &mid, &newest} {
		if err := s.SavePlan(ctx, p); err != nil {
			t.Fatalf("SavePlan: %v", err)
		}
	}

	got, err := s.LatestPlanForCourse(ctx, c.ID)
	if err != nil {
		t.Fatalf("LatestPlanForCourse: %v", err)
	}
	if got.ID != newest.ID {
		t.Fatalf("latest plan = %s, want %s", got.ID, newest.ID)
	}

	plans, err := s.ListPlans(ctx, c.ID)
	if err != nil {
		t.Fatalf("ListPlans: %v", err)
	}
	if len(plans) != 3 || plans[0].ID != newest.ID {
		t.Fatalf("ListPlans should return newest first, got %d plans", len(plans))
	}

	if _, err := s.LatestPlanForCourse(ctx, "no-such-course"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("LatestPlanForCourse = %v, want ErrNotFound", err)
	}
}

func TestDeletePlan(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	c := testCourse(t, "Planned", 3)
	mustSaveCourse(t, s, c)
	p := testPlan(c.ID, time.Now().UTC())
	if err := s.SavePlan(ctx, &p); err != nil {
		t.Fatalf("SavePlan: %v", err)
	}

	if err := s.DeletePlan(ctx, p.ID); err != nil {
		t.Fatalf("DeletePlan: %v", err)
	}
	if _, err := s.GetPlan(ctx, p.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("GetPlan after delete = %v, want ErrNotFound", err)
	}
	if err := s.DeletePlan(ctx, p.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("second DeletePlan = %v, want ErrNotFound", err)
	}
}

func TestSavePlanRequiresCourse(t *testing.T) {
	s := openTestStore(t)

	p := testPlan("orphan-course", time.Now().UTC())
	if err := s.SavePlan(context.Background(), &p); err == nil {
		t.Fatal("SavePlan should fail when the owning course does not exist")
	}
}

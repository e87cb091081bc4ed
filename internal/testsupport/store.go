package testsupport

import (
	"context"
	"fmt"
	"testing"

	"coursepilot/internal/config"
	"coursepilot/internal/course"
	"coursepilot/internal/store"
)

// MustOpenStore opens a store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	db, err := store.Open(cfg, nil)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

// NewCourse builds and saves a course with the requested number of videos.
// Video IDs are synthetic but well-formed so metadata validation passes.
func NewCourse(t testing.TB, db *store.Store, name string, videoCount int) *course.Course {
	t.Helper()

	c := course.New(name)
	for i := 0; i < videoCount; i++ {
		title := fmt.Sprintf("Lesson %02d", i+1)
		id := fmt.Sprintf("TESTVIDEO%02d", i)
		c.Videos = append(c.Videos, course.NewRemoteVideo(title, id, "https://www.youtube.com/watch?v="+id, i))
		c.RawTitles = append(c.RawTitles, title)
	}
	if err := db.SaveCourse(context.Background(), &c); err != nil {
		t.Fatalf("store.SaveCourse: %v", err)
	}
	return &c
}

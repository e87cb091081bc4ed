package store

import (
	"context"
	"path/filepath"
	"testing"

	"coursepilot/internal/course"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenPath(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func remoteVideo(title, id string, index int) course.VideoMetadata {
	return course.NewRemoteVideo(title, id, "https://www.youtube.com/watch?v="+id, index)
}

func testCourse(t *testing.T, name string, videoCount int) *course.Course {
	t.Helper()
	c := course.New(name)
	for i := 0; i < videoCount; i++ {
		id := "AAAAAAAAAA" + string(rune('a'+i))
		v := remoteVideo(c.Name+" part", id, i)
		c.RawTitles = append(c.RawTitles, v.Title)
		c.Videos = append(c.Videos, v)
	}
	return &c
}

func mustSaveCourse(t *testing.T, s *Store, c *course.Course) {
	t.Helper()
	if err := s.SaveCourse(context.Background(), c); err != nil {
		t.Fatalf("SaveCourse: %v", err)
	}
}

func TestOpenRefusesSecondProcess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	first, err := OpenPath(path, nil)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	defer first.Close()

	if _, err := OpenPath(path, nil); err == nil {
		t.Fatal("second open on the same database should fail while locked")
	}
}

func TestCloseReleasesLock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	first, err := OpenPath(path, nil)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := OpenPath(path, nil)
	if err != nil {
		t.Fatalf("reopen after close: %v", err)
	}
	defer second.Close()
}

func TestNormalizeQueryTruncates(t *testing.T) {
	got := normalizeQuery("SELECT a, b, c FROM t WHERE x = ? AND y = ?")
	want := "SELECT a, b, c FROM t WHERE x"
	if got != want {
		t.Fatalf("normalizeQuery = %q, want %q", got, want)
	}
}

package ingest

import (
	"testing"
	"time"
)

func TestIsPlaylistURL(t *testing.T) {
	cases := []struct {
		url  string
		want bool
	}{
		{"https://www.youtube.com/playlist?list=PLabc123", true},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PLabc123", true},
		{"https://youtu.be/dQw4w9WgXcQ?list=PLabc123", true},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", false},
		{"https://vimeo.com/playlist/123", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsPlaylistURL(tc.url); got != tc.want {
			t.Errorf("IsPlaylistURL(%q) = %v, want %v", tc.url, got, tc.want)
		}
	}
}

func TestExtractPlaylistID(t *testing.T) {
	id, err := ExtractPlaylistID("https://www.youtube.com/watch?v=abc&list=PLxyz789&index=2")
	if err != nil {
		t.Fatalf("ExtractPlaylistID: %v", err)
	}
	if id != "PLxyz789" {
		t.Errorf("id = %q, want PLxyz789", id)
	}
	if _, err := ExtractPlaylistID("https://example.com/list=PL1"); err == nil {
		t.Error("expected error for non playlist host")
	}
}

func TestExtractVideoID(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"Lecture dQw4w9WgXcQ recording", "dQw4w9WgXcQ", true},
		{"short text", "", false},
	}
	for _, tc := range cases {
		got, ok := ExtractVideoID(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ExtractVideoID(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestCanonicalWatchURL(t *testing.T) {
	want := "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	if got := CanonicalWatchURL("dQw4w9WgXcQ"); got != want {
		t.Errorf("CanonicalWatchURL = %q, want %q", got, want)
	}
}

func TestParseISODuration(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"PT15M33S", 15*time.Minute + 33*time.Second},
		{"PT1H2M3S", time.Hour + 2*time.Minute + 3*time.Second},
		{"PT45S", 45 * time.Second},
		{"PT2H", 2 * time.Hour},
	}
	for _, tc := range cases {
		got, err := ParseISODuration(tc.in)
		if err != nil {
			t.Errorf("ParseISODuration(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseISODuration(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	for _, bad := range []string{"", "15:33", "P1D"} {
		if _, err := ParseISODuration(bad); err == nil {
			t.Errorf("ParseISODuration(%q) succeeded, want error", bad)
		}
	}
}

func TestCleanRemoteTitle(t *testing.T) {
	if got := CleanRemoteTitle("  Go Concurrency - YouTube "); got != "Go Concurrency" {
		t.Errorf("CleanRemoteTitle = %q, want %q", got, "Go Concurrency")
	}
	if got := CleanRemoteTitle("Go Concurrency | YouTube"); got != "Go Concurrency" {
		t.Errorf("CleanRemoteTitle = %q, want %q", got, "Go Concurrency")
	}
	if got := CleanRemoteTitle("Plain Title"); got != "Plain Title" {
		t.Errorf("CleanRemoteTitle = %q, want unchanged", got)
	}
}

package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"coursepilot/internal/services"
)

// videoIDPattern matches the fixed 11 character identifiers used by watch
// URLs.
var videoIDPattern = regexp.MustCompile(`[A-Za-z0-9_-]{11}`)

// standaloneIDPattern finds an identifier as its own token, so longer words
// in free text do not yield false extractions.
var standaloneIDPattern = regexp.MustCompile(`(?:^|[^A-Za-z0-9_-])([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`)

var isoDurationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// IsPlaylistURL reports whether the URL plausibly addresses a playlist.
func IsPlaylistURL(u string) bool {
	lowered := strings.ToLower(u)
	if !strings.Contains(lowered, "youtube.com") && !strings.Contains(lowered, "youtu.be") {
		return false
	}
	return strings.Contains(lowered, "playlist") || strings.Contains(lowered, "list=")
}

// ExtractPlaylistID pulls the list parameter out of a playlist URL.
func ExtractPlaylistID(u string) (string, error) {
	if !IsPlaylistURL(u) {
		return "", services.Wrap(services.ErrValidation, "ingest", "playlist", "not a playlist URL", nil)
	}
	idx := strings.Index(u, "list=")
	if idx < 0 {
		return "", services.Wrap(services.ErrValidation, "ingest", "playlist", "no list parameter", nil)
	}
	id := u[idx+len("list="):]
	if amp := strings.Index(id, "&"); amp >= 0 {
		id = id[:amp]
	}
	if id == "" {
		return "", services.Wrap(services.ErrValidation, "ingest", "playlist", "empty playlist id", nil)
	}
	return id, nil
}

// CanonicalWatchURL builds the normalized watch URL for a video ID.
func CanonicalWatchURL(videoID string) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
}

// ExtractVideoID finds an 11 character video identifier inside free text,
// preferring explicit watch and short-link forms.
func ExtractVideoID(s string) (string, bool) {
	for _, marker := range []string{"watch?v=", "youtu.be/", "embed/", "v="} {
		if idx := strings.Index(s, marker); idx >= 0 {
			rest := s[idx+len(marker):]
			if m := videoIDPattern.FindString(rest); m != "" && strings.HasPrefix(rest, m) {
				return m, true
			}
		}
	}
	if m := standaloneIDPattern.FindStringSubmatch(s); m != nil {
		return m[1], true
	}
	return "", false
}

// ParseISODuration converts the PT#H#M#S form used by video APIs into a
// duration.
func ParseISODuration(s string) (time.Duration, error) {
	m := isoDurationPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, services.Wrap(services.ErrValidation, "ingest", "duration", fmt.Sprintf("unparseable duration %q", s), nil)
	}
	var total time.Duration
	units := []time.Duration{time.Hour, time.Minute, time.Second}
	for i, part := range m[1:] {
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return 0, services.Wrap(services.ErrValidation, "ingest", "duration", "bad duration component", err)
		}
		total += time.Duration(n) * units[i]
	}
	return total, nil
}

// CleanRemoteTitle strips the provider suffix some scrapes carry and trims
// whitespace.
func CleanRemoteTitle(title string) string {
	title = strings.TrimSpace(title)
	title = strings.TrimSuffix(title, " - YouTube")
	title = strings.TrimSuffix(title, " | YouTube")
	return strings.TrimSpace(title)
}

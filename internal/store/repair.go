package store

import (
	"fmt"
	"strings"

	"coursepilot/internal/course"
	"coursepilot/internal/ingest"
)

// RepairResult carries repaired videos plus a human readable note per fix.
type RepairResult struct {
	Videos []course.VideoMetadata
	Notes  []string
}

// RepairVideos reconstructs damaged video metadata loaded from storage. It
// never fails: damage it cannot repair is patched with placeholders so the
// course stays usable for display, and every fix is reported.
func RepairVideos(videos []course.VideoMetadata, rawTitles []string) RepairResult {
	result := RepairResult{Videos: videos}
	note := func(format string, args ...any) {
		result.Notes = append(result.Notes, fmt.Sprintf(format, args...))
	}

	// A course whose videos were lost but whose raw titles survive gets
	// placeholder entries so counts line up again.
	for len(result.Videos) < len(rawTitles) {
		i := len(result.Videos)
		placeholder := course.PlaceholderIDPrefix + fmt.Sprintf("%d", i)
		v := course.NewRemoteVideo(rawTitles[i], placeholder, "", i)
		result.Videos = append(result.Videos, v)
		note("padded missing video %d from raw title %q", i, rawTitles[i])
	}

	for i := range result.Videos {
		v := &result.Videos[i]

		if v.OriginalIndex != i {
			note("video %d original index corrected from %d", i, v.OriginalIndex)
			v.OriginalIndex = i
		}

		if v.IsLocal {
			if v.SourceURL == nil || strings.TrimSpace(*v.SourceURL) == "" {
				path := v.Title
				v.SourceURL = &path
				note("local video %d source path defaulted to title", i)
			}
			continue
		}

		hasID := v.VideoID != nil && strings.TrimSpace(*v.VideoID) != ""
		hasURL := v.SourceURL != nil && strings.TrimSpace(*v.SourceURL) != ""

		switch {
		case hasID && !hasURL:
			url := ingest.CanonicalWatchURL(*v.VideoID)
			v.SourceURL = &url
			note("video %d url rebuilt from id %s", i, *v.VideoID)
		case !hasID && hasURL:
			if id, ok := ingest.ExtractVideoID(*v.SourceURL); ok {
				v.VideoID = &id
				note("video %d id extracted from url", i)
			} else {
				placeholder := course.PlaceholderIDPrefix + fmt.Sprintf("%d", i)
				v.VideoID = &placeholder
				note("video %d id unrecoverable, placeholder assigned", i)
			}
		case !hasID && !hasURL:
			if id, ok := ingest.ExtractVideoID(v.Title); ok {
				url := ingest.CanonicalWatchURL(id)
				v.VideoID = &id
				v.SourceURL = &url
				note("video %d recovered id %s from title", i, id)
			} else {
				placeholder := course.PlaceholderIDPrefix + fmt.Sprintf("%d", i)
				empty := ""
				v.VideoID = &placeholder
				v.SourceURL = &empty
				note("video %d unrecoverable, placeholder assigned", i)
			}
		}

		if (v.PlaylistID == nil || *v.PlaylistID == "") && v.SourceURL != nil {
			if pid, err := ingest.ExtractPlaylistID(*v.SourceURL); err == nil {
				v.PlaylistID = &pid
				note("video %d playlist id recovered from url", i)
			}
		}
	}
	return result
}

package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"coursepilot/internal/course"
	"coursepilot/internal/logging"
	"coursepilot/internal/services"
)

// FetchPlaylist drains every page of the playlist and normalizes the items
// into remote video metadata, positions assigned in playlist order.
func FetchPlaylist(ctx context.Context, fetcher Fetcher, playlistID string, logger *slog.Logger) ([]course.VideoMetadata, error) {
	log := logging.NewComponentLogger(logger, "ingest")

	var items []PlaylistItem
	pageToken := ""
	pages := 0
	for {
		page, err := fetcher.FetchPage(ctx, playlistID, pageToken)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
		pages++
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}
	log.Info("playlist fetched",
		logging.String("playlist_id", playlistID),
		logging.Int("pages", pages),
		logging.Int("items", len(items)))

	return NormalizePlaylist(items, playlistID)
}

// NormalizePlaylist validates raw playlist entries and converts them into
// course metadata. Positions in errors are 1-based to match how playlists
// display.
func NormalizePlaylist(items []PlaylistItem, playlistID string) ([]course.VideoMetadata, error) {
	videos := make([]course.VideoMetadata, 0, len(items))
	for i, item := range items {
		title := CleanRemoteTitle(item.Title)
		if title == "" {
			return nil, &services.IncompleteMetadata{Position: i + 1, Reason: "missing title"}
		}
		if strings.TrimSpace(item.VideoID) == "" {
			return nil, &services.IncompleteMetadata{Position: i + 1, Reason: fmt.Sprintf("video %q has no id", title)}
		}

		video := course.NewRemoteVideo(title, item.VideoID, CanonicalWatchURL(item.VideoID), i)
		if playlistID != "" {
			pid := playlistID
			video.PlaylistID = &pid
		}
		if item.DurationSeconds != nil {
			d := *item.DurationSeconds
			video.DurationSeconds = &d
		}
		if item.Description != "" {
			desc := item.Description
			video.Description = &desc
		}
		if item.ThumbnailURL != "" {
			thumb := item.ThumbnailURL
			video.ThumbnailURL = &thumb
		}
		if item.Author != "" {
			author := item.Author
			video.Author = &author
		}
		if item.UploadDate != "" {
			date := item.UploadDate
			video.UploadDate = &date
		}
		videos = append(videos, video)
	}
	return videos, nil
}

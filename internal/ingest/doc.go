// Package ingest turns raw video sources into normalized course metadata.
// It scans local folders for video files and fetches remote playlists
// page by page, producing ordered VideoMetadata slices ready for analysis.
package ingest

package api

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"coursepilot/internal/config"
	"coursepilot/internal/course"
	"coursepilot/internal/ingest"
	"coursepilot/internal/logging"
	"coursepilot/internal/services"
	"coursepilot/internal/store"
	"coursepilot/internal/structure"
	"coursepilot/internal/textutil"
)

// IngestFolderRequest describes a local folder ingestion.
type IngestFolderRequest struct {
	Config *config.Config
	Logger *slog.Logger

	// Path is the root folder to scan for video files.
	Path string
	// Name overrides the course name. Empty derives it from the folder name.
	Name string
	// AutoStructure runs the structuring pipeline immediately after ingest.
	AutoStructure bool
	// StructureOptions apply when AutoStructure is set.
	StructureOptions structure.Options
}

// IngestFolder scans a local folder, normalizes the videos found there into a
// new course, and persists it. With AutoStructure set the course is also
// structured before it is saved.
func IngestFolder(ctx context.Context, req IngestFolderRequest) (*course.Course, error) {
	if req.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if strings.TrimSpace(req.Path) == "" {
		return nil, services.Wrap(services.ErrValidation, "api", "ingest_folder", "folder path is required", nil)
	}

	scanner := ingest.NewScanner(req.Config.Ingest, req.Logger)
	videos, err := scanner.ScanFolder(ctx, req.Path)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = filepath.Base(filepath.Clean(req.Path))
	}
	c := newCourseFrom(name, videos)

	return saveIngested(ctx, req.Config, req.Logger, &c, req.AutoStructure, req.StructureOptions)
}

// IngestPlaylistRequest describes a YouTube playlist ingestion.
type IngestPlaylistRequest struct {
	Config *config.Config
	Logger *slog.Logger

	// Playlist is a playlist URL or a bare playlist identifier.
	Playlist string
	// Name overrides the course name. Empty derives it from the playlist ID.
	Name string
	// Fetcher overrides the metadata source. Nil uses the YouTube Data API
	// with the configured key.
	Fetcher ingest.Fetcher
	// AutoStructure runs the structuring pipeline immediately after ingest.
	AutoStructure bool
	// StructureOptions apply when AutoStructure is set.
	StructureOptions structure.Options
}

// IngestPlaylist fetches a playlist's items, normalizes them into a new
// course, and persists it.
func IngestPlaylist(ctx context.Context, req IngestPlaylistRequest) (*course.Course, error) {
	if req.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	playlistID := strings.TrimSpace(req.Playlist)
	if playlistID == "" {
		return nil, services.Wrap(services.ErrValidation, "api", "ingest_playlist", "playlist URL or ID is required", nil)
	}
	if ingest.IsPlaylistURL(playlistID) {
		id, err := ingest.ExtractPlaylistID(playlistID)
		if err != nil {
			return nil, err
		}
		playlistID = id
	}

	fetcher := req.Fetcher
	if fetcher == nil {
		fetcher = ingest.NewAPIFetcher(req.Config.YouTube)
	}
	videos, err := ingest.FetchPlaylist(ctx, fetcher, playlistID, req.Logger)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Playlist " + playlistID
	}
	c := newCourseFrom(name, videos)

	return saveIngested(ctx, req.Config, req.Logger, &c, req.AutoStructure, req.StructureOptions)
}

func newCourseFrom(name string, videos []course.VideoMetadata) course.Course {
	c := course.New(name)
	c.Videos = videos
	c.RawTitles = make([]string, len(videos))
	for i := range videos {
		c.RawTitles[i] = videos[i].Title
	}
	return c
}

func saveIngested(ctx context.Context, cfg *config.Config, logger *slog.Logger, c *course.Course, autoStructure bool, opts structure.Options) (*course.Course, error) {
	if autoStructure {
		builder := structure.NewBuilder(cfg.Clustering, logger)
		st, err := builder.Build(c.Videos, opts)
		if err != nil {
			return nil, err
		}
		c.Structure = st
	}

	db, err := store.Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if dupes, err := similarCourses(ctx, db, c); err == nil && len(dupes) > 0 {
		logging.NewComponentLogger(logger, "api").Warn("ingested titles closely match existing courses",
			logging.String("course", c.Name),
			logging.String("matches", strings.Join(dupes, ", ")))
	}

	if err := db.SaveCourse(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// similarCourses names stored courses whose video titles closely match the
// candidate's. A strong match usually means the same source was ingested
// twice under a different name. Titles are compared as IDF-weighted term
// vectors so boilerplate shared by every course does not inflate the score.
func similarCourses(ctx context.Context, db *store.Store, c *course.Course) ([]string, error) {
	incoming := textutil.NewFingerprint(strings.Join(c.RawTitles, " "))
	if incoming == nil {
		return nil, nil
	}
	summaries, err := db.ListCourses(ctx)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		name string
		fp   *textutil.Fingerprint
	}
	corpus := textutil.NewCorpus()
	corpus.Add(incoming)
	var candidates []candidate
	for i := range summaries {
		if summaries[i].ID == c.ID {
			continue
		}
		existing, err := db.GetCourse(ctx, summaries[i].ID)
		if err != nil {
			return nil, err
		}
		fp := textutil.NewFingerprint(strings.Join(existing.RawTitles, " "))
		if fp == nil {
			continue
		}
		corpus.Add(fp)
		candidates = append(candidates, candidate{name: existing.Name, fp: fp})
	}

	idf := corpus.IDF()
	weighted := incoming.WithIDF(idf)
	var names []string
	for _, cand := range candidates {
		if textutil.CosineSimilarity(weighted, cand.fp.WithIDF(idf)) > duplicateTitleThreshold {
			names = append(names, cand.name)
		}
	}
	return names, nil
}

// duplicateTitleThreshold is the cosine similarity above which two courses'
// title sets are reported as a likely re-ingest.
const duplicateTitleThreshold = 0.85

package ingest

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"coursepilot/internal/config"
	"coursepilot/internal/course"
	"coursepilot/internal/logging"
	"coursepilot/internal/services"
	"coursepilot/internal/textutil"
)

// videoExtensions are the container formats recognized as course videos.
var videoExtensions = map[string]struct{}{
	".mp4": {}, ".avi": {}, ".mkv": {}, ".mov": {}, ".wmv": {},
	".flv": {}, ".webm": {}, ".m4v": {}, ".mpg": {}, ".mpeg": {},
}

// ignoredDirs are directory names never descended into, compared lowercase.
var ignoredDirs = map[string]struct{}{
	".git": {}, ".svn": {}, ".hg": {}, ".idea": {}, "node_modules": {},
	"__macosx": {}, "system volume information": {}, "$recycle.bin": {},
	".trash": {}, ".trashes": {},
}

// systemFiles are metadata droppings from desktop environments.
var systemFiles = map[string]struct{}{
	"thumbs.db": {}, "desktop.ini": {}, ".ds_store": {},
}

// Scanner walks local folders for video files.
type Scanner struct {
	followSymlinks bool
	extraExts      map[string]struct{}
	logger         *slog.Logger
}

// NewScanner builds a folder scanner from the ingest configuration.
func NewScanner(cfg config.Ingest, logger *slog.Logger) *Scanner {
	extra := make(map[string]struct{}, len(cfg.ExtraExtensions))
	for _, ext := range cfg.ExtraExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extra[ext] = struct{}{}
	}
	return &Scanner{
		followSymlinks: cfg.FollowSymlinks,
		extraExts:      extra,
		logger:         logging.NewComponentLogger(logger, "ingest"),
	}
}

// IsVideoFile reports whether the file name carries a recognized video
// extension.
func (s *Scanner) IsVideoFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := videoExtensions[ext]; ok {
		return true
	}
	_, ok := s.extraExts[ext]
	return ok
}

// ScanFolder finds every video file under root, skipping hidden and system
// entries, and returns local video metadata in natural title order.
func (s *Scanner) ScanFolder(ctx context.Context, root string) ([]course.VideoMetadata, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, services.Wrap(services.ErrFileSystem, "ingest", "scan", "cannot access folder", err)
	}
	if !info.IsDir() {
		return nil, services.Wrap(services.ErrFileSystem, "ingest", "scan", "not a directory", nil)
	}

	var paths []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		name := d.Name()
		lowered := strings.ToLower(name)

		if d.IsDir() {
			if path == root {
				return nil
			}
			if strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if _, skip := ignoredDirs[lowered]; skip {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}
		if _, skip := systemFiles[lowered]; skip {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			if !s.followSymlinks {
				return nil
			}
			target, statErr := os.Stat(path)
			if statErr != nil || target.IsDir() {
				return nil
			}
		}

		if s.IsVideoFile(name) {
			paths = append(paths, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, services.Wrap(services.ErrFileSystem, "ingest", "scan", "folder walk failed", walkErr)
	}

	sort.SliceStable(paths, func(i, j int) bool {
		return textutil.NaturalLess(filepath.Base(paths[i]), filepath.Base(paths[j]))
	})

	videos := make([]course.VideoMetadata, 0, len(paths))
	for i, path := range paths {
		videos = append(videos, course.NewLocalVideo(titleFromFileName(filepath.Base(path)), path, i))
	}
	s.logger.Info("folder scan complete",
		logging.String("root", root),
		logging.Int("videos", len(videos)))
	return videos, nil
}

// titleFromFileName strips the extension and normalizes separators without
// dropping any words.
func titleFromFileName(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return textutil.CleanTitle(base)
}

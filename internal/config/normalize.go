package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeYouTube()
	c.normalizeIngest()
	c.normalizeClustering()
	c.normalizePlanner()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DatabasePath) == "" {
		c.Paths.DatabasePath = filepath.Join(c.Paths.DataDir, defaultDatabaseFile)
	}
	if c.Paths.DatabasePath, err = expandPath(c.Paths.DatabasePath); err != nil {
		return fmt.Errorf("paths.database_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ExportDir) == "" {
		c.Paths.ExportDir = defaultExportDir
	}
	if c.Paths.ExportDir, err = expandPath(c.Paths.ExportDir); err != nil {
		return fmt.Errorf("paths.export_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeYouTube() {
	if c.YouTube.APIKey == "" {
		if value, ok := os.LookupEnv("YOUTUBE_API_KEY"); ok {
			c.YouTube.APIKey = strings.TrimSpace(value)
		}
	}
	c.YouTube.BaseURL = strings.TrimSpace(c.YouTube.BaseURL)
	if c.YouTube.BaseURL == "" {
		c.YouTube.BaseURL = defaultYouTubeBaseURL
	}
	if c.YouTube.RequestTimeout <= 0 {
		c.YouTube.RequestTimeout = defaultYouTubeTimeout
	}
	if c.YouTube.PageSize <= 0 || c.YouTube.PageSize > 50 {
		c.YouTube.PageSize = defaultYouTubePageSize
	}
}

func (c *Config) normalizeIngest() {
	if len(c.Ingest.ExtraExtensions) == 0 {
		return
	}
	exts := make([]string, 0, len(c.Ingest.ExtraExtensions))
	seen := make(map[string]struct{}, len(c.Ingest.ExtraExtensions))
	for _, ext := range c.Ingest.ExtraExtensions {
		normalized := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	c.Ingest.ExtraExtensions = exts
}

func (c *Config) normalizeClustering() {
	if c.Clustering.SimilarityThreshold <= 0 {
		c.Clustering.SimilarityThreshold = defaultSimilarityThreshold
	}
	if c.Clustering.MaxClusters <= 0 {
		c.Clustering.MaxClusters = defaultMaxClusters
	}
	if c.Clustering.MinClusterSize <= 0 {
		c.Clustering.MinClusterSize = defaultMinClusterSize
	}
	if c.Clustering.MaxFeatures <= 0 {
		c.Clustering.MaxFeatures = defaultMaxFeatures
	}
}

func (c *Config) normalizePlanner() {
	if c.Planner.SessionsPerWeek <= 0 {
		c.Planner.SessionsPerWeek = defaultSessionsPerWeek
	}
	if c.Planner.SessionLengthMinutes <= 0 {
		c.Planner.SessionLengthMinutes = defaultSessionLengthMinutes
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	c.LogDir = c.Paths.LogDir
	c.LogLevel = c.Logging.Level
	c.LogFormat = c.Logging.Format
}

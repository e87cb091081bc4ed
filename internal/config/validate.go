package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateYouTube(); err != nil {
		return err
	}
	if err := c.validateClustering(); err != nil {
		return err
	}
	if err := c.validatePlanner(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.DatabasePath) == "" {
		return errors.New("paths.database_path must be set")
	}
	return nil
}

func (c *Config) validateYouTube() error {
	if strings.TrimSpace(c.YouTube.BaseURL) == "" {
		return errors.New("youtube.base_url must be set")
	}
	if c.YouTube.RequestTimeout <= 0 {
		return errors.New("youtube.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateClustering() error {
	if c.Clustering.SimilarityThreshold < 0.1 || c.Clustering.SimilarityThreshold > 0.95 {
		return errors.New("clustering.similarity_threshold must be between 0.1 and 0.95")
	}
	if c.Clustering.MaxClusters < 2 || c.Clustering.MaxClusters > 20 {
		return errors.New("clustering.max_clusters must be between 2 and 20")
	}
	if c.Clustering.MinClusterSize < 1 {
		return errors.New("clustering.min_cluster_size must be at least 1")
	}
	if c.Clustering.MinClusterSize > c.Clustering.MaxClusters {
		return errors.New("clustering.min_cluster_size must not exceed clustering.max_clusters")
	}
	if c.Clustering.MaxFeatures < 10 {
		return errors.New("clustering.max_features must be at least 10")
	}
	return nil
}

func (c *Config) validatePlanner() error {
	if c.Planner.SessionsPerWeek < 1 || c.Planner.SessionsPerWeek > 7 {
		return errors.New("planner.sessions_per_week must be between 1 and 7")
	}
	if c.Planner.SessionLengthMinutes < 5 || c.Planner.SessionLengthMinutes > 240 {
		return errors.New("planner.session_length_minutes must be between 5 and 240")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

package config

const (
	defaultDataDir              = "~/.local/share/coursepilot"
	defaultLogDir               = "~/.local/share/coursepilot/logs"
	defaultExportDir            = "~/.local/share/coursepilot/exports"
	defaultDatabaseFile         = "courses.db"
	defaultYouTubeBaseURL       = "https://www.googleapis.com/youtube/v3"
	defaultYouTubeTimeout       = 30
	defaultYouTubePageSize      = 50
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultSimilarityThreshold  = 0.6
	defaultMaxClusters          = 8
	defaultMinClusterSize       = 2
	defaultMaxFeatures          = 1000
	defaultSessionsPerWeek      = 3
	defaultSessionLengthMinutes = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			LogDir:    defaultLogDir,
			ExportDir: defaultExportDir,
		},
		YouTube: YouTube{
			BaseURL:        defaultYouTubeBaseURL,
			RequestTimeout: defaultYouTubeTimeout,
			PageSize:       defaultYouTubePageSize,
		},
		Clustering: Clustering{
			SimilarityThreshold: defaultSimilarityThreshold,
			MaxClusters:         defaultMaxClusters,
			MinClusterSize:      defaultMinClusterSize,
			MaxFeatures:         defaultMaxFeatures,
		},
		Planner: Planner{
			SessionsPerWeek:      defaultSessionsPerWeek,
			SessionLengthMinutes: defaultSessionLengthMinutes,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

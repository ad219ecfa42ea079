package config

const (
	defaultDataDir            = "~/.local/share/animehub"
	defaultLogDir             = "~/.local/share/animehub/logs"
	defaultLogRetentionDays   = 30
	defaultLogMaxSizeMB       = 50
	defaultLogMaxBackups      = 5
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultAniListBaseURL     = "https://graphql.anilist.co"
	defaultAniListPerPage     = 50
	defaultAniListTimeout     = 10
	defaultAniListUserAgent   = "animehub/dev"
	defaultAniListPerMinute   = 90
	defaultRecencyDays        = 7
	defaultMaxRetries         = 3
	defaultBackoffBaseMS      = 2000
	defaultInterPageDelayMS   = 1000
	defaultMaxPages           = 50
	defaultStoreConcurrency   = 8
	defaultNewSeriesGraceDays = 30
	defaultRefreshGraceDays   = 2
	defaultMediaType          = "ANIME"
	defaultIngestInterval     = 5
	defaultSweepInterval      = 24
	defaultNotifyTimeout      = 10
)

// Store driver identifiers.
const (
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		AniList: AniList{
			BaseURL:           defaultAniListBaseURL,
			PerPage:           defaultAniListPerPage,
			RequestTimeout:    defaultAniListTimeout,
			UserAgent:         defaultAniListUserAgent,
			RequestsPerMinute: defaultAniListPerMinute,
		},
		Ingest: Ingest{
			RecencyDays:      defaultRecencyDays,
			MaxRetries:       defaultMaxRetries,
			BackoffBaseMS:    defaultBackoffBaseMS,
			InterPageDelayMS: defaultInterPageDelayMS,
			MaxPages:         defaultMaxPages,
			StoreConcurrency: defaultStoreConcurrency,
		},
		Policy: Policy{
			BlockedGenres:    []string{"Hentai", "Ecchi"},
			BlockedTags:      []string{"Nudity", "Sexual Content", "Fan Service"},
			MediaType:        defaultMediaType,
			AllowedFormats:   []string{"TV", "TV_SHORT", "ONA"},
			AllowedCountries: []string{"JP", "CN", "KR"},
		},
		Retention: Retention{
			NewSeriesGraceDays: defaultNewSeriesGraceDays,
			RefreshGraceDays:   defaultRefreshGraceDays,
		},
		Store: Store{
			Driver: StoreDriverSQLite,
		},
		Schedule: Schedule{
			IngestInterval: defaultIngestInterval,
			SweepInterval:  defaultSweepInterval,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			NewEpisodes:    true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
			MaxSizeMB:     defaultLogMaxSizeMB,
			MaxBackups:    defaultLogMaxBackups,
		},
	}
}

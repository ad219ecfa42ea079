package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// AniList contains configuration for the upstream schedule API.
type AniList struct {
	BaseURL        string `toml:"base_url"`
	PerPage        int    `toml:"per_page"`
	RequestTimeout int    `toml:"request_timeout"`
	UserAgent      string `toml:"user_agent"`

	// RequestsPerMinute caps request starts; 0 disables the cap.
	RequestsPerMinute int `toml:"requests_per_minute"`
}

// Ingest contains the fetch window and retry bounds of one ingestion cycle.
type Ingest struct {
	RecencyDays      int `toml:"recency_days"`
	MaxRetries       int `toml:"max_retries"`
	BackoffBaseMS    int `toml:"backoff_base_ms"`
	InterPageDelayMS int `toml:"inter_page_delay_ms"`
	MaxPages         int `toml:"max_pages"`
	StoreConcurrency int `toml:"store_concurrency"`
}

// Policy contains the content-policy block lists and allow-lists.
type Policy struct {
	BlockedGenres    []string `toml:"blocked_genres"`
	BlockedTags      []string `toml:"blocked_tags"`
	MediaType        string   `toml:"media_type"`
	AllowedFormats   []string `toml:"allowed_formats"`
	AllowedCountries []string `toml:"allowed_countries"`
}

// Retention contains the grace windows and denylist used by the sweeper.
type Retention struct {
	NewSeriesGraceDays int      `toml:"new_series_grace_days"`
	RefreshGraceDays   int      `toml:"refresh_grace_days"`
	DenylistIDs        []string `toml:"denylist_ids"`
}

// Store selects the catalog persistence backend.
type Store struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

// Schedule contains the daemon cadence. Ingest is in minutes, sweep in hours.
type Schedule struct {
	IngestInterval int  `toml:"ingest_interval"`
	SweepInterval  int  `toml:"sweep_interval"`
	SweepOnStart   bool `toml:"sweep_on_start"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	NewEpisodes    bool   `toml:"new_episodes"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
	MaxSizeMB     int    `toml:"max_size_mb"`
	MaxBackups    int    `toml:"max_backups"`
}

// Config encapsulates all configuration values for animehub.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - AniList: upstream GraphQL endpoint and request shape
//   - Ingest: recency window, retries, backoff, inter-page delay
//   - Policy: content filter lists
//   - Retention: sweep grace windows and stale-id denylist
//   - Store: sqlite or postgres backend
//   - Schedule: daemon ingest/sweep cadence
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and rotation
type Config struct {
	Paths         Paths         `toml:"paths"`
	AniList       AniList       `toml:"anilist"`
	Ingest        Ingest        `toml:"ingest"`
	Policy        Policy        `toml:"policy"`
	Retention     Retention     `toml:"retention"`
	Store         Store         `toml:"store"`
	Schedule      Schedule      `toml:"schedule"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// ConfigEnvVar overrides the config file location when no --config flag is given.
const ConfigEnvVar = "ANIMEHUB_CONFIG"

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/animehub/config.toml")
}

// Load locates, parses, and validates a configuration file. Unknown keys are
// rejected so typos in policy or retention settings do not silently fall back
// to defaults. It returns the config, the path consulted, and whether that
// file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}
	if exists {
		if err := decodeFile(resolvedPath, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file).DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("parse config %s: unknown keys:\n%s", path, strict.String())
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// resolveConfigPath picks the config file: an explicit path wins, then
// $ANIMEHUB_CONFIG, then the first existing of the user default and
// ./animehub.toml. With nothing found the user default is reported as missing.
func resolveConfigPath(explicit string) (string, bool, error) {
	if explicit == "" {
		explicit = strings.TrimSpace(os.Getenv(ConfigEnvVar))
	}
	if explicit != "" {
		expanded, err := expandPath(explicit)
		if err != nil {
			return "", false, err
		}
		exists, err := fileExists(expanded)
		return expanded, exists, err
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("animehub.toml")
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{defaultPath, projectPath} {
		if ok, _ := fileExists(candidate); ok {
			return candidate, true, nil
		}
	}
	return defaultPath, false, nil
}

func fileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat config: %w", err)
	case info.IsDir():
		return false, fmt.Errorf("config path %s is a directory", path)
	}
	return true, nil
}

// EnsureDirectories creates required directories for engine operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SQLitePath returns the catalog database location used by the sqlite driver.
func (c *Config) SQLitePath() string {
	if c.Store.DSN != "" && c.Store.Driver == StoreDriverSQLite {
		return c.Store.DSN
	}
	return filepath.Join(c.Paths.DataDir, "catalog.db")
}

// LockPath returns the single-instance lock file shared by the daemon and one-shot runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "animehub.lock")
}

// RecencyWindow returns the sliding window used for fetch cutoffs and retention.
func (c *Config) RecencyWindow() time.Duration {
	return days(c.Ingest.RecencyDays)
}

// BackoffBase returns the linear retry backoff unit.
func (c *Config) BackoffBase() time.Duration {
	return time.Duration(c.Ingest.BackoffBaseMS) * time.Millisecond
}

// InterPageDelay returns the fixed delay separating page requests.
func (c *Config) InterPageDelay() time.Duration {
	return time.Duration(c.Ingest.InterPageDelayMS) * time.Millisecond
}

// NewSeriesGrace returns the retention window protecting newly premiered series.
func (c *Config) NewSeriesGrace() time.Duration {
	return days(c.Retention.NewSeriesGraceDays)
}

// RefreshGrace returns the retention window protecting recently refreshed records.
func (c *Config) RefreshGrace() time.Duration {
	return days(c.Retention.RefreshGraceDays)
}

// IngestInterval returns the daemon ingestion cadence.
func (c *Config) IngestInterval() time.Duration {
	return time.Duration(c.Schedule.IngestInterval) * time.Minute
}

// SweepInterval returns the daemon retention cadence.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Schedule.SweepInterval) * time.Hour
}

// RequestTimeout returns the per-request AniList timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.AniList.RequestTimeout) * time.Second
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes the embedded sample configuration to path.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

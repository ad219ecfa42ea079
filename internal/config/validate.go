package config

import (
	"errors"
	"fmt"
	"net/url"

	"animehub/internal/services"
)

// Validate ensures the configuration is usable. Failures carry
// services.ErrValidation.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return services.Wrap(services.ErrValidation, "config", "validate", "", err)
	}
	return nil
}

func (c *Config) validate() error {
	if err := c.validateAniList(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validatePolicy(); err != nil {
		return err
	}
	if err := c.validateRetention(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateSchedule(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAniList() error {
	parsed, err := url.Parse(c.AniList.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("anilist.base_url must be an absolute URL, got %q", c.AniList.BaseURL)
	}
	if c.AniList.PerPage <= 0 || c.AniList.PerPage > 50 {
		return errors.New("anilist.per_page must be between 1 and 50")
	}
	if c.AniList.RequestTimeout <= 0 {
		return errors.New("anilist.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateIngest() error {
	if c.Ingest.RecencyDays <= 0 {
		return errors.New("ingest.recency_days must be positive")
	}
	if c.Ingest.MaxRetries <= 0 {
		return errors.New("ingest.max_retries must be positive")
	}
	if c.Ingest.BackoffBaseMS < 0 {
		return errors.New("ingest.backoff_base_ms must be non-negative")
	}
	if c.Ingest.InterPageDelayMS < 0 {
		return errors.New("ingest.inter_page_delay_ms must be non-negative")
	}
	if c.Ingest.MaxPages <= 0 {
		return errors.New("ingest.max_pages must be positive")
	}
	if c.Ingest.StoreConcurrency <= 0 {
		return errors.New("ingest.store_concurrency must be positive")
	}
	return nil
}

func (c *Config) validatePolicy() error {
	if c.Policy.MediaType == "" {
		return errors.New("policy.media_type must be set")
	}
	if len(c.Policy.AllowedFormats) == 0 {
		return errors.New("policy.allowed_formats must list at least one format")
	}
	if len(c.Policy.AllowedCountries) == 0 {
		return errors.New("policy.allowed_countries must list at least one country")
	}
	return nil
}

func (c *Config) validateRetention() error {
	if c.Retention.NewSeriesGraceDays < 0 {
		return errors.New("retention.new_series_grace_days must be non-negative")
	}
	if c.Retention.RefreshGraceDays < 0 {
		return errors.New("retention.refresh_grace_days must be non-negative")
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Driver {
	case StoreDriverSQLite:
		return nil
	case StoreDriverPostgres:
		if c.Store.DSN == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = "~/.config/animehub/config.toml"
			}
			return fmt.Errorf("store.dsn is required for postgres. Set ANIMEHUB_DATABASE_URL env var or edit %s", defaultPath)
		}
		return nil
	default:
		return fmt.Errorf("store.driver must be %q or %q, got %q", StoreDriverSQLite, StoreDriverPostgres, c.Store.Driver)
	}
}

func (c *Config) validateSchedule() error {
	if c.Schedule.IngestInterval <= 0 {
		return errors.New("schedule.ingest_interval must be positive")
	}
	if c.Schedule.SweepInterval <= 0 {
		return errors.New("schedule.sweep_interval must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be non-negative")
	}
	if c.Logging.MaxBackups < 0 {
		return errors.New("logging.max_backups must be non-negative")
	}
	return nil
}

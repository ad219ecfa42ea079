package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAniList()
	c.normalizePolicy()
	c.normalizeRetention()
	if err := c.normalizeStore(); err != nil {
		return err
	}
	c.normalizeNotifications()
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
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAniList() {
	c.AniList.BaseURL = strings.TrimRight(strings.TrimSpace(c.AniList.BaseURL), "/")
	if c.AniList.BaseURL == "" {
		c.AniList.BaseURL = defaultAniListBaseURL
	}
	c.AniList.UserAgent = strings.TrimSpace(c.AniList.UserAgent)
	if c.AniList.UserAgent == "" {
		c.AniList.UserAgent = defaultAniListUserAgent
	}
	if c.AniList.RequestsPerMinute < 0 {
		c.AniList.RequestsPerMinute = 0
	}
}

func (c *Config) normalizePolicy() {
	c.Policy.BlockedGenres = trimList(c.Policy.BlockedGenres)
	c.Policy.BlockedTags = trimList(c.Policy.BlockedTags)
	c.Policy.MediaType = strings.ToUpper(strings.TrimSpace(c.Policy.MediaType))
	c.Policy.AllowedFormats = upperList(c.Policy.AllowedFormats)
	c.Policy.AllowedCountries = upperList(c.Policy.AllowedCountries)
}

func (c *Config) normalizeRetention() {
	c.Retention.DenylistIDs = trimList(c.Retention.DenylistIDs)
}

func (c *Config) normalizeStore() error {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	if c.Store.Driver == "" {
		c.Store.Driver = StoreDriverSQLite
	}
	c.Store.DSN = strings.TrimSpace(c.Store.DSN)
	if c.Store.Driver == StoreDriverPostgres && c.Store.DSN == "" {
		if value, ok := os.LookupEnv("ANIMEHUB_DATABASE_URL"); ok {
			c.Store.DSN = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("DATABASE_URL"); ok {
			c.Store.DSN = strings.TrimSpace(value)
		}
	}
	if c.Store.Driver == StoreDriverSQLite && c.Store.DSN != "" {
		expanded, err := expandPath(c.Store.DSN)
		if err != nil {
			return fmt.Errorf("store.dsn: %w", err)
		}
		c.Store.DSN = expanded
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
}

func trimList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func upperList(values []string) []string {
	out := trimList(values)
	for i := range out {
		out[i] = strings.ToUpper(out[i])
	}
	return trimList(out)
}

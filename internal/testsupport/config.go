package testsupport

import (
	"path/filepath"
	"testing"

	"animehub/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Retry backoff and inter-page delay are zeroed so tests never sleep.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.AniList.BaseURL = "http://127.0.0.1:0"
	cfgVal.Ingest.BackoffBaseMS = 0
	cfgVal.Ingest.InterPageDelayMS = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithAniListURL points the AniList client at a test server.
func WithAniListURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.AniList.BaseURL = url
	}
}

// WithDenylist sets the retention denylist.
func WithDenylist(ids ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Retention.DenylistIDs = ids
	}
}

// WithNtfyTopic enables notifications against the given topic URL.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}

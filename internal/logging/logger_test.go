package logging_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"animehub/internal/config"
	"animehub/internal/logging"
	"animehub/internal/services"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestNewFromConfigWritesRotatingFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello from config")

	content := readLog(t, filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if !strings.Contains(content, "hello from config") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "fetcher").Info("page fetched", logging.Int("page", 2))

	content := readLog(t, logPath)
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
	if !strings.Contains(content, "INFO fetcher: page fetched page=2") {
		t.Fatalf("unexpected console layout: %q", content)
	}
}

func TestConsoleLoggerHoistsRunContext(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-run.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithCycle(services.WithRunID(context.Background(), "0123456789abcdef"), "sweep")
	scoped := logging.NewComponentLogger(logging.WithContext(ctx, logger), "retention")
	scoped.Info("sweep complete", logging.Int("deleted", 3))

	content := readLog(t, logPath)
	if !strings.Contains(content, "INFO [sweep 01234567] retention: sweep complete deleted=3") {
		t.Fatalf("unexpected console layout: %q", content)
	}
	if strings.Contains(content, "run_id=") {
		t.Fatalf("run id should be hoisted into the header: %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with caller")

	if content := readLog(t, logPath); !strings.Contains(content, ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleLoggerQuotesValues(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "quote.log")
	logger, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Warn("rejected", logging.String("title", "Frieren: Beyond Journey's End"), logging.Error(errors.New("boom")))

	content := readLog(t, logPath)
	if !strings.Contains(content, `title="Frieren: Beyond Journey's End"`) {
		t.Fatalf("expected quoted title, got %q", content)
	}
	if !strings.Contains(content, "error=boom") {
		t.Fatalf("expected error value, got %q", content)
	}
}

func TestJSONLoggerRenamesKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("json message", logging.String("k", "v"))

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, logPath))), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload["ts"] == nil || payload["level"] != "info" || payload["msg"] != "json message" || payload["k"] != "v" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestInvalidLevelDefaultsToInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "level.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "invalid", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("visible")

	content := readLog(t, logPath)
	if strings.Contains(content, "hidden") || !strings.Contains(content, "visible") {
		t.Fatalf("expected info level filtering, got %q", content)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "ctx.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRunID(context.Background(), "run-xyz")
	ctx = services.WithCycle(ctx, "ingest")
	ctx = services.WithStage(ctx, "reconciling")
	logging.WithContext(ctx, logger).Info("contextual log")

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, logPath))), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	for key, want := range map[string]string{
		logging.FieldRunID: "run-xyz",
		logging.FieldCycle: "ingest",
		logging.FieldStage: "reconciling",
	} {
		if payload[key] != want {
			t.Fatalf("field %s = %v, want %q", key, payload[key], want)
		}
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(logger, "page failed", "page_fetch_failed", logging.String(logging.FieldImpact, "partial results"))

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, logPath))), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload[logging.FieldEventType] != "page_fetch_failed" {
		t.Fatalf("unexpected event type: %v", payload[logging.FieldEventType])
	}
	if payload[logging.FieldErrorHint] != "check logs for details" {
		t.Fatalf("expected default hint, got %v", payload[logging.FieldErrorHint])
	}
	if payload[logging.FieldImpact] != "partial results" {
		t.Fatalf("expected caller impact preserved, got %v", payload[logging.FieldImpact])
	}
}

func TestErrorWithContextDerivesErrorKind(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "error.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	cause := services.Wrap(services.ErrBatchCommit, "reconciling", "commit", "3 writes", errors.New("disk full"))
	logging.ErrorWithContext(logger, "batch failed", "batch_commit_failed", logging.Error(cause), logging.Series("100"))

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, logPath))), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload[logging.FieldErrorKind] != "batch_commit" {
		t.Fatalf("expected derived error kind, got %v", payload[logging.FieldErrorKind])
	}
	if payload[logging.FieldSeriesID] != "100" {
		t.Fatalf("expected series id, got %v", payload[logging.FieldSeriesID])
	}
}

func TestFormatRelative(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	cases := map[time.Duration]string{
		30 * time.Second: "just now",
		5 * time.Minute:  "5m ago",
		3 * time.Hour:    "3h ago",
		72 * time.Hour:   "3d ago",
	}
	for age, want := range cases {
		if got := logging.FormatRelative(now.Add(-age), now); got != want {
			t.Fatalf("FormatRelative(%s) = %q, want %q", age, got, want)
		}
	}
	if got := logging.FormatRelative(time.Time{}, now); got != "-" {
		t.Fatalf("expected dash for zero time, got %q", got)
	}
}

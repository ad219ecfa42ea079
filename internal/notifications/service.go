package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"animehub/internal/catalog"
	"animehub/internal/config"
)

const userAgent = "animehub/0.1.0"

// maxListedEpisodes bounds the lines included in one episode notification.
const maxListedEpisodes = 10

// Service defines the notification surface used by ingest and the daemon.
type Service interface {
	NotifyEpisodesAdded(ctx context.Context, records []catalog.Record) error
	NotifyRunFailed(ctx context.Context, cycle string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint:    topic,
		client:      &http.Client{Timeout: timeout},
		newEpisodes: cfg.Notifications.NewEpisodes,
		errors:      cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	newEpisodes bool
	errors      bool
}

func (n *ntfyService) NotifyEpisodesAdded(ctx context.Context, records []catalog.Record) error {
	if !n.newEpisodes || len(records) == 0 {
		return nil
	}
	lines := make([]string, 0, min(len(records), maxListedEpisodes)+1)
	for i, r := range records {
		if i == maxListedEpisodes {
			lines = append(lines, fmt.Sprintf("…and %d more", len(records)-maxListedEpisodes))
			break
		}
		lines = append(lines, fmt.Sprintf("📺 %s: episode %d", r.Title(), r.LatestEpisode))
	}
	title := "animehub - New Episode"
	if len(records) > 1 {
		title = fmt.Sprintf("animehub - %d New Episodes", len(records))
	}
	return n.send(ctx, payload{
		title:   title,
		message: strings.Join(lines, "\n"),
		tags:    []string{"animehub", "episode", "added"},
	})
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, cycle string, err error) error {
	if !n.errors {
		return nil
	}
	cycle = strings.TrimSpace(cycle)
	if cycle == "" {
		cycle = "cycle"
	}
	message := fmt.Sprintf("❌ %s failed", cycle)
	if err != nil {
		message = fmt.Sprintf("%s: %v", message, err)
	}
	return n.send(ctx, payload{
		title:    "animehub - Error",
		message:  message,
		tags:     []string{"animehub", "error"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "animehub - Test",
		message:  "🔔 Test notification from animehub",
		tags:     []string{"animehub", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyEpisodesAdded(context.Context, []catalog.Record) error { return nil }
func (noopService) NotifyRunFailed(context.Context, string, error) error        { return nil }
func (noopService) TestNotification(context.Context) error                      { return nil }

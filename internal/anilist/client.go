package anilist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"animehub/internal/fetcher"
	"animehub/internal/logging"
	"animehub/internal/services"
)

// DefaultBaseURL is the public AniList GraphQL endpoint.
const DefaultBaseURL = "https://graphql.anilist.co"

// Client fetches airing schedule pages from AniList.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

var _ fetcher.PageSource = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		if agent = strings.TrimSpace(agent); agent != "" {
			c.userAgent = agent
		}
	}
}

// WithRequestsPerMinute caps request starts, retries included, to AniList's
// per-minute budget. Zero or less leaves requests unthrottled.
func WithRequestsPerMinute(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
		}
	}
}

// WithLogger attaches a logger for conversion diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "anilist")
	}
}

// New creates an AniList client.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("anilist base url required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  "animehub",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// FetchPage posts the airing schedule query for one page.
func (c *Client) FetchPage(ctx context.Context, req fetcher.PageRequest) (fetcher.Page, error) {
	variables := map[string]any{
		"page":    req.Page,
		"perPage": req.PerPage,
	}
	if !req.Before.IsZero() {
		variables["airingBefore"] = req.Before.Unix()
	}
	body, err := json.Marshal(graphQLRequest{Query: airingSchedulesQuery, Variables: variables})
	if err != nil {
		return fetcher.Page{}, fmt.Errorf("encode anilist query: %w", err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fetcher.Page{}, fmt.Errorf("wait for request budget: %w", err)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return fetcher.Page{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	latency := time.Since(requestStart)
	if err != nil {
		return fetcher.Page{}, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fetcher.Page{}, &StatusError{
			Code:       resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	var payload pageResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fetcher.Page{}, services.Wrap(services.ErrUpstreamData, "fetching", "decode page",
			fmt.Sprintf("page %d", req.Page), fmt.Errorf("%w: %w", errDecode, err))
	}
	if len(payload.Errors) > 0 {
		first := payload.Errors[0]
		if first.Status != 0 && first.Status != http.StatusOK {
			return fetcher.Page{}, &StatusError{Code: first.Status, Body: first.Message}
		}
		return fetcher.Page{}, services.Wrap(services.ErrUpstreamData, "fetching", "graphql",
			first.Message, errDecode)
	}

	return c.convertPage(ctx, req, payload), nil
}

func (c *Client) convertPage(ctx context.Context, req fetcher.PageRequest, payload pageResponse) fetcher.Page {
	page := fetcher.Page{
		Info: fetcher.PageInfo{
			HasNextPage: payload.Data.Page.PageInfo.HasNextPage,
			CurrentPage: payload.Data.Page.PageInfo.CurrentPage,
		},
	}
	if page.Info.CurrentPage == 0 {
		page.Info.CurrentPage = req.Page
	}
	logger := logging.WithContext(ctx, c.logger)
	for _, item := range payload.Data.Page.AiringSchedules {
		entry, err := toEntry(item)
		if err != nil {
			page.Rejected++
			logger.Debug("schedule item dropped",
				logging.Int("schedule_id", item.ID),
				logging.Int("page", req.Page),
				logging.Error(err),
				logging.String(logging.FieldErrorKind, services.Kind(err)),
			)
			continue
		}
		page.Entries = append(page.Entries, entry)
	}
	return page
}

func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

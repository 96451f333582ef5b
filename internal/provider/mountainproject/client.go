// Package mountainproject fetches and normalizes a climber's tick list from
// Mountain Project.
//
// Mountain Project exposes each user's ticks as a CSV export under the
// public profile URL, so no credentials beyond the profile URL are needed.
// Requests go through a token bucket limiter shared by every sync.
package mountainproject

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/albapepper/cruxlog/internal/pipeline"
)

// DefaultBaseURL is the public Mountain Project site.
const DefaultBaseURL = "https://www.mountainproject.com"

// Client is the HTTP gateway for Mountain Project tick exports.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a Mountain Project client with rate limiting.
func NewClient(baseURL string, requestsPerMinute int, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 30
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// Fetch downloads the tick export for the profile in creds.
func (c *Client) Fetch(ctx context.Context, creds pipeline.Credentials) (pipeline.RawBatch, error) {
	exportURL, err := c.ExportURL(creds.ProfileURL)
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, exportURL)
	if err != nil {
		return nil, err
	}

	export, err := ParseExport(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	export.ProfileURL = creds.ProfileURL
	c.logger.Info("Mountain Project ticks fetched", "rows", export.Len())
	return export, nil
}

// ExportURL derives the tick export URL from a profile URL of the form
// https://www.mountainproject.com/user/<id>/<slug>.
func (c *Client) ExportURL(profileURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(profileURL))
	if err != nil || u.Path == "" {
		return "", fmt.Errorf("invalid profile url %q", profileURL)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 3 || parts[0] != "user" {
		return "", fmt.Errorf("invalid profile url %q: want /user/<id>/<name>", profileURL)
	}
	return fmt.Sprintf("%s/user/%s/%s/tick-export", c.baseURL, parts[1], parts[2]), nil
}

// get performs a rate-limited GET request.
func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request %s: %w", u, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mountain project %s returned %d: %s", u, resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}

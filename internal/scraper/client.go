// Package scraper fetches listing pages and extracts feed items from them.
package scraper

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"feedmill/internal/config"
)

// ErrUnexpectedStatusCode indicates an HTTP response with a non-2xx status.
var ErrUnexpectedStatusCode = errors.New("unexpected status code")

// Client fetches pages with config-driven retry logic.
type Client struct {
	httpClient  *http.Client
	retryPolicy *config.RetryPolicy
	userAgent   string
}

// NewClient creates a fetch client from the scrape configuration.
func NewClient(cfg *config.ScrapeConfig) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Retry.GetTimeout(),
		},
		retryPolicy: &cfg.Retry,
		userAgent:   cfg.UserAgent,
	}
}

// Fetch retrieves the page at url, retrying with exponential backoff
// per the configured policy.
func (c *Client) Fetch(url string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= c.retryPolicy.MaxAttempts; attempt++ {
		if delay := c.retryPolicy.GetRetryDelay(attempt); delay > 0 {
			time.Sleep(delay)
		}

		body, err := c.fetchOnce(url)
		if err == nil {
			return body, nil
		}

		lastErr = err
	}

	return "", fmt.Errorf("all %d attempts failed for %s: %w", c.retryPolicy.MaxAttempts, url, lastErr)
}

func (c *Client) fetchOnce(url string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	// Some listing pages block default Go user agents.
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %d for %s", ErrUnexpectedStatusCode, resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(body), nil
}

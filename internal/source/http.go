package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pfrederiksen/museum-events/internal/logger"
)

const (
	DefaultUserAgent      = "museum-events/1.0 (github.com/pfrederiksen/museum-events)"
	DefaultTimeout        = 30 * time.Second
	DefaultMaxRetries     = 3
	DefaultInitialBackoff = 500 * time.Millisecond

	maxBodyBytes = 10 << 20
)

// FetchOptions configures a Fetcher
type FetchOptions struct {
	Timeout        time.Duration
	UserAgent      string
	MaxRetries     int
	InitialBackoff time.Duration
}

// Fetcher performs GET requests with retries on network errors and 5xx/429
// responses
type Fetcher struct {
	client         *http.Client
	userAgent      string
	maxRetries     uint64
	initialBackoff time.Duration
}

// NewFetcher creates a Fetcher, filling unset options with defaults
func NewFetcher(opts FetchOptions) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = DefaultInitialBackoff
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
		},
		userAgent:      opts.UserAgent,
		maxRetries:     uint64(opts.MaxRetries),
		initialBackoff: opts.InitialBackoff,
	}
}

// Get fetches url and returns the response body
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	var body []byte

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		req.Header.Set("User-Agent", f.userAgent)
		req.Header.Set("Accept", "text/html,application/json;q=0.9,*/*;q=0.8")

		resp, err := f.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(fmt.Errorf("fetching %s: %w", url, err))
			}
			return fmt.Errorf("fetching %s: %w", url, err)
		}
		defer resp.Body.Close() // nolint:errcheck

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("fetching %s: unexpected status code: %d", url, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("fetching %s: unexpected status code: %d", url, resp.StatusCode))
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return fmt.Errorf("reading %s: %w", url, err)
		}
		body = data
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.initialBackoff
	b.MaxElapsedTime = 0

	notify := func(err error, wait time.Duration) {
		logger.Debug("Retrying request", logger.Fields{
			"url":  url,
			"wait": wait.String(),
			"err":  err.Error(),
		})
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, f.maxRetries), ctx)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, err
	}
	return body, nil
}

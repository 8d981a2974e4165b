package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"ttmusic/internal/config"
	"ttmusic/pkg/utils"
)

// ErrUnexpectedStatusCode indicates an HTTP response with unexpected status.
var ErrUnexpectedStatusCode = errors.New("unexpected status code")

// Scraper performs GET requests with config-driven retry logic.
type Scraper struct {
	client       *http.Client
	retryPolicy  *config.RetryPolicy
	headers      http.Header
	text         *utils.StringHelper
	bufferSizeKb int
}

// NewScraper creates a new scraper instance with default config.
func NewScraper() *Scraper {
	return NewScraperWithConfig(config.Default())
}

// NewScraperWithConfig creates a scraper from the http, retry and advanced sections.
func NewScraperWithConfig(cfg *config.Config) *Scraper {
	return &Scraper{
		client: &http.Client{
			Timeout: cfg.HTTP.GetTimeout(),
		},
		retryPolicy:  &cfg.Retry,
		headers:      utils.NewHTTPHelper().BuildHeaders(cfg.HTTP.UserAgent, nil),
		text:         utils.NewStringHelper(),
		bufferSizeKb: cfg.Advanced.BufferSizeKb,
	}
}

// ScrapeWithMetrics returns (body, statusCode, duration, error). Transport
// errors and retryable statuses are retried with exponential backoff; any
// other non-2xx status is returned at once.
func (s *Scraper) ScrapeWithMetrics(ctx context.Context, url string) ([]byte, int, time.Duration, error) {
	var lastErr error

	var lastStatusCode int

	totalDuration := time.Duration(0)

	for attempt := 1; attempt <= s.retryPolicy.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, s.retryPolicy.GetRetryDelay(attempt-1)); err != nil {
				return nil, lastStatusCode, totalDuration, err
			}
		}

		startTime := time.Now()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return nil, 0, totalDuration, fmt.Errorf("failed to create request: %w", err)
		}

		for key, values := range s.headers {
			for _, v := range values {
				req.Header.Add(key, v)
			}
		}

		resp, err := s.client.Do(req)
		totalDuration += time.Since(startTime)

		if err != nil {
			lastErr = fmt.Errorf("request failed (attempt %d/%d): %w", attempt, s.retryPolicy.MaxAttempts, err)
			if ctx.Err() != nil {
				return nil, 0, totalDuration, lastErr
			}

			continue
		}

		lastStatusCode = resp.StatusCode

		body, readErr := s.readBody(resp)
		if readErr != nil {
			lastErr = readErr

			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			lastErr = fmt.Errorf("%w: %d: %s", ErrUnexpectedStatusCode, resp.StatusCode,
				s.text.TruncateString(s.text.NormalizeWhitespace(string(body)), 120))

			if s.retryPolicy.IsRetryableStatus(resp.StatusCode) {
				continue
			}

			return body, resp.StatusCode, totalDuration, lastErr
		}

		return body, resp.StatusCode, totalDuration, nil
	}

	return nil, lastStatusCode, totalDuration, lastErr
}

// ReadLocalFile reads content from a local file path.
func (s *Scraper) ReadLocalFile(filePath string) ([]byte, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read local file %s: %w", filePath, err)
	}

	return content, nil
}

// readBody reads at most bufferSizeKb of the body and closes it.
func (s *Scraper) readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	limit := int64(s.bufferSizeKb) * 1024
	reader := io.LimitReader(resp.Body, limit)

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

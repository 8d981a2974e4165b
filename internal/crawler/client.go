// Package crawler fetches raw trending-music records from a live endpoint or a mock file.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"ttmusic/internal/logger"
	"ttmusic/internal/metrics"
	"ttmusic/pkg/utils"
)

// ErrMockPayload is returned when the mock file holds neither a list nor an object.
var ErrMockPayload = errors.New("mock payload must be a JSON list or object")

// Source names where a batch came from.
const (
	SourceLive     = "live"
	SourceMock     = "mock"
	SourceFallback = "fallback"
)

// SourceOptions selects between live and mock data.
type SourceOptions struct {
	Endpoint string
	MockPath string
	Mock     bool
}

// FetchResult is a fetched batch of raw items.
type FetchResult struct {
	Items  []any
	Source string
	Reason FallbackReason
}

// Client manages HTTP communications and data flow for crawling.
type Client struct {
	scraper *Scraper
	http    *utils.HTTPHelper
	log     *logger.Logger
	opts    SourceOptions
}

// NewClient creates a mock-mode client reading mockPath.
func NewClient(mockPath string) *Client {
	return NewClientWithDeps(NewScraper(), nil, SourceOptions{MockPath: mockPath, Mock: true})
}

// NewClientWithDeps creates a new crawler client with injected dependencies.
func NewClientWithDeps(scraper *Scraper, log *logger.Logger, opts SourceOptions) *Client {
	if log == nil {
		log = logger.NewNop()
	}

	return &Client{
		scraper: scraper,
		http:    utils.NewHTTPHelper(),
		log:     log,
		opts:    opts,
	}
}

// FetchTrendingMusic returns up to limit raw items for region.
func (c *Client) FetchTrendingMusic(ctx context.Context, region string, limit int) ([]any, error) {
	res, err := c.Fetch(ctx, region, limit)
	if err != nil {
		return nil, err
	}

	return res.Items, nil
}

// Fetch reads the mock file in mock mode. In live mode it calls
// {endpoint}?region=R&limit=N and falls back to the mock file whenever
// ShouldFallback says so. An unreadable mock file or a cancelled context is
// an error.
func (c *Client) Fetch(ctx context.Context, region string, limit int) (*FetchResult, error) {
	if c.opts.Mock {
		items, err := c.loadMock(limit)
		if err != nil {
			return nil, err
		}

		return &FetchResult{Items: items, Source: SourceMock}, nil
	}

	live := c.fetchLive(ctx, region, limit)

	// A cancelled run aborts instead of falling back.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("live fetch aborted: %w", err)
	}

	if reason, fallback := ShouldFallback(live); fallback {
		c.log.Warn("live source unusable; falling back to mock data",
			"reason", string(reason),
			"endpoint", live.Endpoint,
			"status", live.StatusCode,
			"error", errors.Join(live.Err, live.DecodeErr),
		)
		metrics.SourceFallbackTotal.WithLabelValues(string(reason)).Inc()

		items, err := c.loadMock(limit)
		if err != nil {
			return nil, fmt.Errorf("fallback after %s: %w", reason, err)
		}

		return &FetchResult{Items: items, Source: SourceFallback, Reason: reason}, nil
	}

	items, _ := live.Payload.([]any)

	return &FetchResult{Items: sliceLimit(items, limit), Source: SourceLive}, nil
}

func (c *Client) fetchLive(ctx context.Context, region string, limit int) *LiveResponse {
	live := &LiveResponse{Endpoint: c.opts.Endpoint}
	if !c.http.IsValidURL(c.opts.Endpoint) {
		return live
	}

	target, err := c.http.WithQuery(c.opts.Endpoint, url.Values{
		"region": {region},
		"limit":  {strconv.Itoa(limit)},
	})
	if err != nil {
		live.Err = err

		return live
	}

	c.log.Debug("fetching live endpoint", "url", target)

	body, status, duration, err := c.scraper.ScrapeWithMetrics(ctx, target)
	live.StatusCode = status
	live.Err = err

	c.log.Debug("live endpoint responded", "status", status, "bytes", len(body), "duration", duration)

	if err != nil {
		return live
	}

	live.Payload, live.DecodeErr = DecodeJSON(body)

	return live
}

// loadMock reads the mock file. A top-level object counts as a one-item list.
func (c *Client) loadMock(limit int) ([]any, error) {
	content, err := c.scraper.ReadLocalFile(c.opts.MockPath)
	if err != nil {
		return nil, fmt.Errorf("mock file missing: %w", err)
	}

	payload, err := DecodeJSON(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mock file %s: %w", c.opts.MockPath, err)
	}

	switch v := payload.(type) {
	case []any:
		return sliceLimit(v, limit), nil
	case map[string]any:
		return sliceLimit([]any{v}, limit), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrMockPayload, c.opts.MockPath)
	}
}

func sliceLimit(items []any, limit int) []any {
	if items == nil {
		items = []any{}
	}

	limit = max(0, limit)
	if limit < len(items) {
		return items[:limit]
	}

	return items
}

package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"golang.org/x/time/rate"

	"github.com/feral-file/drips-indexer/internal/adapter"
)

// Config holds the per-host request rate
type Config struct {
	// RequestsPerSecond is the sustained rate per host, zero disables limiting
	RequestsPerSecond float64
	Burst             int
}

// httpClient throttles requests per host, so one slow job cannot get a public gateway to ban the indexer
type httpClient struct {
	inner  adapter.HTTPClient
	config Config

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHTTPClient wraps inner with a token bucket per host
func NewHTTPClient(inner adapter.HTTPClient, cfg Config) adapter.HTTPClient {
	if cfg.RequestsPerSecond <= 0 {
		return inner
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	return &httpClient{
		inner:    inner,
		config:   cfg,
		limiters: make(map[string]*rate.Limiter),
	}
}

// GetBytes waits for a token of the url's host, then performs the request
func (c *httpClient) GetBytes(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.acquireToken(ctx, rawURL); err != nil {
		return nil, err
	}
	return c.inner.GetBytes(ctx, rawURL)
}

// Head waits for a token of the url's host, then performs the request
func (c *httpClient) Head(ctx context.Context, rawURL string) (int, error) {
	if err := c.acquireToken(ctx, rawURL); err != nil {
		return 0, err
	}
	return c.inner.Head(ctx, rawURL)
}

// acquireToken blocks until the host's limiter allows a request or ctx ends
func (c *httpClient) acquireToken(ctx context.Context, rawURL string) error {
	host := hostOf(rawURL)

	c.mu.Lock()
	limiter, ok := c.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(c.config.RequestsPerSecond), c.config.Burst)
		c.limiters[host] = limiter
	}
	c.mu.Unlock()

	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit for %s: %w", host, err)
	}
	return nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}

package adapter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/feral-file/drips-indexer/internal/logger"
)

// ErrResponseTooLarge is returned when a response body exceeds the configured limit
var ErrResponseTooLarge = errors.New("response body too large")

// HTTPStatusError is returned for non-2xx responses
type HTTPStatusError struct {
	StatusCode int
	URL        string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.StatusCode, e.URL)
}

// HTTPClient defines an interface for HTTP client operations to enable mocking
//
//go:generate mockgen -source=http.go -destination=../mocks/http.go -package=mocks -mock_names=HTTPClient=MockHTTPClient
type HTTPClient interface {
	// GetBytes performs a GET request and returns the response body
	GetBytes(ctx context.Context, url string) ([]byte, error)

	// Head performs a HEAD request and returns the status code
	Head(ctx context.Context, url string) (int, error)
}

// RealHTTPClient implements HTTPClient using the standard http package
type RealHTTPClient struct {
	client       *http.Client
	maxBodyBytes int64
	retryPolicy  func() backoff.BackOff
}

// NewHTTPClient creates a new real HTTP client
func NewHTTPClient(timeout time.Duration, maxBodyBytes int64) HTTPClient {
	return &RealHTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		maxBodyBytes: maxBodyBytes,
		retryPolicy: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 2 * time.Second
			b.MaxInterval = 30 * time.Second
			b.MaxElapsedTime = 1 * time.Minute
			b.Multiplier = 2.0
			b.RandomizationFactor = 0.5
			return b
		},
	}
}

// doRequestWithRetry executes an HTTP request, retrying network errors, 429 and 5xx with backoff
func (c *RealHTTPClient) doRequestWithRetry(ctx context.Context, method, url string) ([]byte, error) {
	var respBody []byte

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to perform request: %w", err)
		}
		defer func() {
			if err := resp.Body.Close(); err != nil {
				logger.WarnCtx(ctx, "failed to close response body", zap.Error(err), zap.String("url", url))
			}
		}()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
			logger.WarnCtx(ctx, "retryable response, retrying with backoff",
				zap.String("url", url),
				zap.Int("status", resp.StatusCode))
			return &HTTPStatusError{StatusCode: resp.StatusCode, URL: url}
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			return backoff.Permanent(&HTTPStatusError{StatusCode: resp.StatusCode, URL: url})
		}

		reader := io.Reader(resp.Body)
		if c.maxBodyBytes > 0 {
			reader = io.LimitReader(resp.Body, c.maxBodyBytes+1)
		}
		respBody, err = io.ReadAll(reader)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
		if c.maxBodyBytes > 0 && int64(len(respBody)) > c.maxBodyBytes {
			return backoff.Permanent(fmt.Errorf("%w: limit %d bytes", ErrResponseTooLarge, c.maxBodyBytes))
		}

		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(c.retryPolicy(), ctx)); err != nil {
		return nil, fmt.Errorf("request failed after retries: %w", err)
	}

	return respBody, nil
}

// GetBytes performs a GET request and returns the response body
func (c *RealHTTPClient) GetBytes(ctx context.Context, url string) ([]byte, error) {
	return c.doRequestWithRetry(ctx, http.MethodGet, url)
}

// Head performs a single HEAD request without retries
func (c *RealHTTPClient) Head(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to perform request: %w", err)
	}
	_ = resp.Body.Close()

	return resp.StatusCode, nil
}

// Package httpclient provides cache-bypassing HTTP retrieval of catalog feeds
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/stacklok/toolhive-catalog-browser/internal/catalog"
)

const (
	// DefaultTimeout is the default timeout for HTTP requests
	DefaultTimeout = 10 * time.Second

	// DefaultRetries is the number of additional attempts made after a transient failure
	DefaultRetries = 2

	// MaxResponseSize is the maximum allowed response size (100MB)
	MaxResponseSize = 100 * 1024 * 1024

	// UserAgent is the user agent string for HTTP requests
	UserAgent = "thv-catalog/1.0"
)

// Client is an interface for HTTP operations
type Client interface {
	// Get performs an HTTP GET request that bypasses every cache layer and
	// returns the response body
	Get(ctx context.Context, url string) ([]byte, error)
}

// DefaultClient is the default HTTP client implementation
type DefaultClient struct {
	client  *http.Client
	retries uint
	// initialInterval overrides the first backoff step when non-zero
	initialInterval time.Duration
}

// Option configures a DefaultClient
type Option func(*DefaultClient)

// WithRetries sets how many times a transient failure is retried
func WithRetries(retries uint) Option {
	return func(c *DefaultClient) {
		c.retries = retries
	}
}

// WithRetryInterval sets the initial wait between retries
func WithRetryInterval(interval time.Duration) Option {
	return func(c *DefaultClient) {
		c.initialInterval = interval
	}
}

// NewDefaultClient creates a new default HTTP client with the specified timeout
// If timeout is 0, uses DefaultTimeout
func NewDefaultClient(timeout time.Duration, opts ...Option) Client {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	c := &DefaultClient{
		client: &http.Client{
			Timeout: timeout,
		},
		retries: DefaultRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs an HTTP GET request, retrying transport errors and 5xx/429
// responses with exponential backoff
func (c *DefaultClient) Get(ctx context.Context, rawURL string) ([]byte, error) {
	expBackoff := backoff.NewExponentialBackOff()
	if c.initialInterval > 0 {
		expBackoff.InitialInterval = c.initialInterval
	}

	attempt := 0
	operation := func() ([]byte, error) {
		attempt++
		body, err := c.get(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		if !isRetryable(err) {
			return nil, backoff.Permanent(err)
		}
		slog.Debug("Retrying catalog request",
			"url", catalog.RedactURL(rawURL),
			"attempt", attempt,
			"error", err)
		return nil, err
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(c.retries+1),
	)
}

func (c *DefaultClient) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &requestError{err: fmt.Errorf("failed to create request: %w", redactURLError(err))}
	}

	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache, no-store")
	req.Header.Set("Pragma", "no-cache")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", redactURLError(err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, NewHTTPError(resp.StatusCode, catalog.RedactURL(rawURL), resp.Status)
	}

	if resp.ContentLength > MaxResponseSize {
		return nil, &requestError{err: fmt.Errorf(
			"response size %d bytes exceeds maximum allowed size of %d bytes (%.2f MB)",
			resp.ContentLength, MaxResponseSize, float64(MaxResponseSize)/(1024*1024))}
	}

	// +1 to detect if limit exceeded
	limitedReader := io.LimitReader(resp.Body, MaxResponseSize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if int64(len(body)) > MaxResponseSize {
		return nil, &requestError{err: fmt.Errorf("response size exceeds maximum allowed size of %d bytes (%.2f MB)",
			MaxResponseSize, float64(MaxResponseSize)/(1024*1024))}
	}

	return body, nil
}

// redactURLError strips user info from the URL a *url.Error carries.
// net/http masks only the password, so a token given as the user name would
// otherwise end up in the message.
func redactURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = catalog.RedactURL(urlErr.URL)
	}
	return err
}

// requestError marks failures that a retry cannot fix
type requestError struct {
	err error
}

func (e *requestError) Error() string { return e.err.Error() }

func (e *requestError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Retryable()
	}
	return true
}

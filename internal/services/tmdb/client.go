package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amaumene/moviebrowser/internal/config"
	"github.com/amaumene/moviebrowser/internal/metrics"
	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// StatusError is returned when the API answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

// Client handles communication with the TMDB API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      ResponseCache
	maxRetries int
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     *logrus.Logger

	// newBackOff is replaced in tests to avoid real sleeps
	newBackOff func() backoff.BackOff
}

// NewClient creates a new TMDB API client. cache may be nil.
func NewClient(cfg *config.Config, cache ResponseCache, logger *logrus.Logger) *Client {
	limit := rate.Inf
	if cfg.TMDBRateLimit > 0 {
		limit = rate.Limit(cfg.TMDBRateLimit)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.TMDBBaseURL, "/"),
		apiKey:     cfg.TMDBAPIKey,
		httpClient: &http.Client{Timeout: cfg.TMDBTimeout},
		cache:      cache,
		maxRetries: cfg.TMDBMaxRetries,
		limiter:    rate.NewLimiter(limit, 1),
		breaker:    newBreaker(cfg.TMDBBreakAfter, 30*time.Second, logger),
		logger:     logger,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 250 * time.Millisecond
			b.MaxElapsedTime = 30 * time.Second
			return b
		},
	}
}

// doRequest performs a GET against the API and decodes the JSON body into result.
// endpoint is a low-cardinality label used for metrics and logs.
func (c *Client) doRequest(ctx context.Context, endpoint, path string, query url.Values, result interface{}) error {
	if query == nil {
		query = url.Values{}
	}

	// Cache key excludes the API key
	cacheKey := path
	if encoded := query.Encode(); encoded != "" {
		cacheKey += "?" + encoded
	}

	if c.cache != nil {
		if body, ok := c.cache.Get(ctx, cacheKey); ok {
			metrics.ResponseCacheLookups.WithLabelValues("hit").Inc()
			c.logger.WithField("key", cacheKey).Debug("TMDB response served from cache")
			return decode(body, result)
		}
		metrics.ResponseCacheLookups.WithLabelValues("miss").Inc()
	}

	query.Set("api_key", c.apiKey)
	fullURL := c.baseURL + path + "?" + query.Encode()

	c.logger.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"path":     cacheKey,
	}).Debug("Making TMDB API request")

	var body []byte
	attempt := 0
	operation := func() error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		var err error
		body, err = c.breaker.Execute(func() ([]byte, error) {
			return c.fetch(ctx, endpoint, fullURL)
		})
		if err == nil {
			return nil
		}
		if isBreakerRejection(err) {
			return backoff.Permanent(err)
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 &&
			statusErr.StatusCode != http.StatusTooManyRequests {
			return backoff.Permanent(err)
		}

		c.logger.WithError(err).WithFields(logrus.Fields{
			"endpoint": endpoint,
			"attempt":  attempt,
		}).Warn("TMDB request failed, retrying")
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), uint64(c.maxRetries)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		metrics.TMDBRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("tmdb %s: %w", endpoint, err)
	}
	metrics.TMDBRequests.WithLabelValues(endpoint, "success").Inc()

	if err := decode(body, result); err != nil {
		return err
	}

	if c.cache != nil {
		c.cache.Set(ctx, cacheKey, body)
	}
	return nil
}

// fetch performs a single HTTP round trip
func (c *Client) fetch(ctx context.Context, endpoint, fullURL string) ([]byte, error) {
	start := time.Now()
	defer func() {
		metrics.TMDBRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

// ClearCache drops every cached response
func (c *Client) ClearCache(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	if err := c.cache.Flush(ctx); err != nil {
		return fmt.Errorf("failed to flush response cache: %w", err)
	}
	c.logger.Info("TMDB response cache cleared")
	return nil
}

func decode(body []byte, result interface{}) error {
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

package scrape

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// HTTPClient wraps net/http with the discipline every adapter needs against
// a free-tier upstream: a token-bucket rate limit, a circuit breaker, and
// bounded exponential-backoff retries for idempotent GETs.
type HTTPClient struct {
	http      *http.Client
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
	userAgent string

	maxRetries   int
	retryBackoff time.Duration
}

// HTTPClientConfig configures the shared adapter HTTP client.
type HTTPClientConfig struct {
	Name           string // breaker name, usually the adapter name
	RequestTimeout time.Duration
	RateLimitRPS   float64
	MaxRetries     int
	RetryBackoff   time.Duration
	UserAgent      string
}

// NewHTTPClient builds a client, filling zero fields with safe free-tier
// defaults (30s timeout, 1 rps, 3 retries).
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 1.0
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = 1 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "SignalHound/1.0 (+https://github.com/signalhound/signalhound)"
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    cfg.Name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("Circuit breaker state change")
		},
	})

	return &HTTPClient{
		http: &http.Client{
			Timeout: cfg.RequestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		limiter:      rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burstFor(cfg.RateLimitRPS)),
		breaker:      breaker,
		userAgent:    cfg.UserAgent,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
	}
}

func burstFor(rps float64) int {
	if rps < 1 {
		return 1
	}
	return int(rps * 2)
}

// Get issues a rate-limited GET with retries and returns the response body.
// HTTP 429 maps to ErrRateLimited and is not retried; transient transport
// errors and 5xx responses are retried up to the configured budget.
func (c *HTTPClient) Get(ctx context.Context, url string, header http.Header) ([]byte, error) {
	return c.do(ctx, http.MethodGet, url, header, nil, true)
}

// Post issues a rate-limited POST. POSTs are retried too: every upstream
// this module talks to treats its POST search/query endpoints as reads.
func (c *HTTPClient) Post(ctx context.Context, url string, header http.Header, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, url, header, body, true)
}

func (c *HTTPClient) do(ctx context.Context, method, url string, header http.Header, body []byte, retryable bool) ([]byte, error) {
	var lastErr error

	attempts := 1
	if retryable {
		attempts = c.maxRetries
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := c.retryBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		result, err := c.breaker.Execute(func() (any, error) {
			return c.roundTrip(ctx, method, url, header, body)
		})
		if err == nil {
			return result.([]byte), nil
		}

		// Hard failures are not worth retrying.
		var httpErr *StatusError
		if errors.As(err, &httpErr) {
			if httpErr.Code == http.StatusTooManyRequests {
				return nil, fmt.Errorf("%w: %s %s", ErrRateLimited, method, url)
			}
			if httpErr.Code >= 400 && httpErr.Code < 500 {
				return nil, err
			}
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", attempts, lastErr)
}

func (c *HTTPClient) roundTrip(ctx context.Context, method, url string, header http.Header, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: truncate(string(payload), 256)}
	}
	return payload, nil
}

// StatusError is a non-200 upstream reply.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Body)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

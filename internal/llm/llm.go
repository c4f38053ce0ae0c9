// Package llm provides the chat-completion oracle behind pain analysis and
// intent extraction. Backends share one contract: a paced, retried Complete
// call that can guarantee JSON-shaped replies.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotConfigured is returned by a client used before Configure succeeded.
var ErrNotConfigured = errors.New("llm client not configured")

// Options tune one completion request. Zero values select backend defaults
// (temperature 0.1, 1024 max tokens, free-form text).
type Options struct {
	SystemPrompt string
	// ResponseFormat "json_object" asks the backend for structured output;
	// the returned string is then guaranteed to parse as JSON.
	ResponseFormat string
	Temperature    float64
	MaxTokens      int
}

// Client is a chat-completion backend.
type Client interface {
	Name() string
	Configure(config map[string]string) error
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
}

const (
	maxAttempts = 5
	minBackoff  = 2 * time.Second
	maxBackoff  = 60 * time.Second
)

// withRetry runs fn with exponential backoff on transient errors. Permanent
// errors (bad credentials, malformed requests) abort immediately.
func withRetry(ctx context.Context, fn func() (string, error)) (string, error) {
	var lastErr error
	backoff := minBackoff

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}

		reply, err := fn()
		if err == nil {
			return reply, nil
		}
		var permanent *permanentError
		if errors.As(err, &permanent) {
			return "", permanent.err
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
	}

	return "", fmt.Errorf("completion failed after %d attempts: %w", maxAttempts, lastErr)
}

// permanentError marks a failure retrying cannot fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func permanent(err error) error { return &permanentError{err: err} }

func orDefault(v, fallback float64) float64 {
	if v == 0 {
		return fallback
	}
	return v
}

func orDefaultInt(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry_FirstSuccessReturns(t *testing.T) {
	calls := 0
	reply, err := withRetry(context.Background(), func() (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_PermanentErrorAbortsImmediately(t *testing.T) {
	calls := 0
	sentinel := errors.New("bad credentials")
	_, err := withRetry(context.Background(), func() (string, error) {
		calls++
		return "", permanent(sentinel)
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls, "permanent errors must not be retried")
}

func TestWithRetry_CancelledContextStopsBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := withRetry(ctx, func() (string, error) {
			calls++
			return "", errors.New("transient")
		})
		assert.ErrorIs(t, err, context.Canceled)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("retry loop did not observe cancellation")
	}
	assert.Equal(t, 1, calls, "cancel during the first backoff window")
}

func TestPacer_SpacesConsecutiveCalls(t *testing.T) {
	p := NewPacer(80 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, p.Wait(ctx)) // first call is free
	require.NoError(t, p.Wait(ctx))
	require.NoError(t, p.Wait(ctx))
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 160*time.Millisecond)
}

func TestPacer_ConcurrentWaitersQueue(t *testing.T) {
	p := NewPacer(60 * time.Millisecond)
	var wg sync.WaitGroup

	start := time.Now()
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.Wait(context.Background()))
		}()
	}
	wg.Wait()
	// Four waiters claim slots at 0, 60, 120, 180ms.
	assert.GreaterOrEqual(t, time.Since(start), 180*time.Millisecond)
}

func TestPacer_CancelledWhileWaiting(t *testing.T) {
	p := NewPacer(time.Hour)
	require.NoError(t, p.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Wait(ctx), context.DeadlineExceeded)
}

func TestPacer_DisabledAndNil(t *testing.T) {
	assert.NoError(t, NewPacer(0).Wait(context.Background()))
	var p *Pacer
	assert.NoError(t, p.Wait(context.Background()))
}

func TestMock_CannedRepliesAreJSON(t *testing.T) {
	m := NewMock()
	ctx := context.Background()

	prompts := map[string]string{
		"pain":    "Analyze this pain point for founders",
		"intent":  "Does this show buying intent?",
		"persona": "Build a persona from these posts",
		"other":   "anything else",
	}
	for name, prompt := range prompts {
		reply, err := m.Complete(ctx, prompt, Options{})
		require.NoError(t, err, name)
		assert.True(t, json.Valid([]byte(reply)), "%s reply must be JSON", name)
	}

	reply, err := m.Complete(ctx, "Analyze this pain point", Options{})
	require.NoError(t, err)
	var parsed struct {
		Score          float64 `json:"score"`
		SentimentLabel string  `json:"sentiment_label"`
	}
	require.NoError(t, json.Unmarshal([]byte(reply), &parsed))
	assert.InDelta(t, 0.85, parsed.Score, 1e-9)
	assert.Equal(t, "frustrated", parsed.SentimentLabel)
}

func TestMock_RespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMock().Complete(ctx, "anything", Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

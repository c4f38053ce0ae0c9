package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatReply(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
}

func newTestHosted(t *testing.T, apiURL string) *Hosted {
	t.Helper()
	h := NewHosted(nil)
	require.NoError(t, h.Configure(map[string]string{
		"api_key": "sk-test",
		"api_url": apiURL,
		"model":   "test-model",
	}))
	return h
}

func TestHostedConfigure_RequiresKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	assert.Error(t, NewHosted(nil).Configure(map[string]string{}))

	t.Setenv("GROQ_API_KEY", "sk-env")
	assert.NoError(t, NewHosted(nil).Configure(map[string]string{}))
}

func TestHostedComplete_SendsChatRequest(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(chatReply(`{"score": 0.9}`))
	}))
	defer server.Close()

	h := newTestHosted(t, server.URL)
	reply, err := h.Complete(context.Background(), "rate this pain point", Options{
		SystemPrompt:   "You are a researcher.",
		ResponseFormat: "json_object",
		Temperature:    0.3,
		MaxTokens:      512,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"score": 0.9}`, reply)

	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "You are a researcher.", got.Messages[0].Content)
	assert.Equal(t, "rate this pain point", got.Messages[1].Content)
	assert.InDelta(t, 0.3, got.Temperature, 1e-9)
	assert.Equal(t, 512, got.MaxTokens)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
}

func TestHostedComplete_DefaultsFillZeroOptions(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(chatReply("ok"))
	}))
	defer server.Close()

	_, err := newTestHosted(t, server.URL).Complete(context.Background(), "hi", Options{})
	require.NoError(t, err)
	assert.InDelta(t, 0.1, got.Temperature, 1e-9)
	assert.Equal(t, 1024, got.MaxTokens)
	assert.Nil(t, got.ResponseFormat, "free-form replies omit response_format")
	assert.Equal(t, "You are a helpful assistant.", got.Messages[0].Content)
}

func TestHostedComplete_UnauthorizedIsNotRetried(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestHosted(t, server.URL).Complete(context.Background(), "hi", Options{})
	require.Error(t, err)
	assert.Equal(t, int64(1), atomic.LoadInt64(&hits), "credential failures must not burn the retry budget")
}

func TestHostedComplete_NotConfigured(t *testing.T) {
	_, err := NewHosted(nil).Complete(context.Background(), "hi", Options{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

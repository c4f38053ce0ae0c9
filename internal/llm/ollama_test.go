package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaComplete_SendsChatRequest(t *testing.T) {
	var got ollamaRequest
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]any{"content": `{"ok": true}`},
		})
	}))
	defer server.Close()

	o := NewOllama(nil)
	require.NoError(t, o.Configure(map[string]string{"host": server.URL, "model": "phi3"}))

	reply, err := o.Complete(context.Background(), "classify this", Options{
		ResponseFormat: "json_object",
		MaxTokens:      256,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok": true}`, reply)

	assert.Equal(t, "/api/chat", gotPath)
	assert.Equal(t, "phi3", got.Model)
	assert.False(t, got.Stream)
	assert.Equal(t, "json", got.Format, "json_object maps to the daemon's format knob")
	assert.Equal(t, 256, got.Options.NumPredict)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "classify this", got.Messages[1].Content)
}

func TestOllamaComplete_PlainTextOmitsFormat(t *testing.T) {
	var got ollamaRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]any{"message": map[string]any{"content": "hello"}})
	}))
	defer server.Close()

	o := NewOllama(nil)
	require.NoError(t, o.Configure(map[string]string{"host": server.URL}))
	_, err := o.Complete(context.Background(), "hi", Options{})
	require.NoError(t, err)
	assert.Empty(t, got.Format)
	assert.Equal(t, defaultOllamaModel, got.Model)
}

func TestOllamaComplete_NotConfigured(t *testing.T) {
	_, err := NewOllama(nil).Complete(context.Background(), "hi", Options{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

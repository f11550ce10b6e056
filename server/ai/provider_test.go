package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pluginai "github.com/hrygo/botgpt/plugin/ai"
	"github.com/hrygo/botgpt/server/internal/errors"
)

type capturedRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	Messages  []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewProvider(&Config{
		BaseURL:   srv.URL + "/v1",
		APIKey:    "test-key",
		Model:     "test-model",
		MaxTokens: 1000,
		Timeout:   2 * time.Second,
	})
}

func TestProvider_CallSuccess(t *testing.T) {
	var captured capturedRequest
	var auth string
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "test-model",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Hi there"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 3, "completion_tokens": 2, "total_tokens": 5}
		}`))
	})

	completion, err := provider.Call(context.Background(), []pluginai.Message{
		pluginai.SystemPrompt("Relevant context: docs"),
		pluginai.UserMessage("Hello"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Hi there", completion.Content)
	assert.Equal(t, 5, completion.TokensUsed)
	assert.Equal(t, "Bearer test-key", auth)
	assert.Equal(t, "test-model", captured.Model)
	assert.Equal(t, 1000, captured.MaxTokens)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Equal(t, "Hello", captured.Messages[1].Content)
}

func TestProvider_MissingUsage(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": [{"index": 0, "message": {"role": "assistant", "content": "ok"}}]}`))
	})

	completion, err := provider.Call(context.Background(), []pluginai.Message{pluginai.UserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, "ok", completion.Content)
	assert.Equal(t, 0, completion.TokensUsed)
}

func TestProvider_EmptyChoices(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": []}`))
	})

	_, err := provider.Call(context.Background(), []pluginai.Message{pluginai.UserMessage("hi")})
	require.Error(t, err)
	assert.True(t, errors.IsProvider(err))
}

func TestProvider_ErrorStatus(t *testing.T) {
	t.Run("JSON error body", func(t *testing.T) {
		provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error": {"message": "rate limited", "type": "rate_limit_error"}}`))
		})

		_, err := provider.Call(context.Background(), []pluginai.Message{pluginai.UserMessage("hi")})
		pe, ok := errors.AsProvider(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusTooManyRequests, pe.StatusCode)
		assert.Equal(t, "rate limited", pe.Body)
	})

	t.Run("Plain text body", func(t *testing.T) {
		provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("upstream down"))
		})

		_, err := provider.Call(context.Background(), []pluginai.Message{pluginai.UserMessage("hi")})
		pe, ok := errors.AsProvider(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusServiceUnavailable, pe.StatusCode)
		assert.Equal(t, "upstream down", pe.Body)
	})
}

func TestProvider_NoRetry(t *testing.T) {
	var calls atomic.Int32
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := provider.Call(context.Background(), []pluginai.Message{pluginai.UserMessage("hi")})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestProvider_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)

	provider := NewProvider(&Config{BaseURL: srv.URL, APIKey: "k", Timeout: 50 * time.Millisecond})

	_, err := provider.Call(context.Background(), []pluginai.Message{pluginai.UserMessage("hi")})
	pe, ok := errors.AsProvider(err)
	require.True(t, ok)
	assert.Equal(t, 0, pe.StatusCode)
}

func TestProvider_Cancelled(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the server")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := provider.Call(ctx, []pluginai.Message{pluginai.UserMessage("hi")})
	require.Error(t, err)
	assert.True(t, errors.IsProvider(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewProvider_Defaults(t *testing.T) {
	provider := NewProvider(nil)
	assert.Equal(t, "llama-3.1-8b-instant", provider.Model())
	assert.Equal(t, 1000, provider.config.MaxTokens)

	custom := NewProvider(&Config{APIKey: "k"})
	assert.Equal(t, DefaultConfig().Model, custom.Model())
	assert.Equal(t, 60*time.Second, custom.config.Timeout)
}

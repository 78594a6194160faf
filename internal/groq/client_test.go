package groq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id": "chatcmpl-1",
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return string(b)
}

func TestChat_ReturnsAssistantContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)

		w.Write([]byte(chatBody("hello")))
	}))
	defer srv.Close()

	c := NewClient("test-key", "test-model", 5*time.Second, WithBaseURL(srv.URL))
	got, err := c.Chat(context.Background(), ChatRequest{
		Messages: []map[string]string{{"role": "user", "content": "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestChat_RetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(chatBody("recovered")))
	}))
	defer srv.Close()

	c := NewClient("k", "m", 5*time.Second, WithBaseURL(srv.URL), WithRetry(2, 0))
	got, err := c.Chat(context.Background(), ChatRequest{})
	require.NoError(t, err)
	assert.Equal(t, "recovered", got)
	assert.Equal(t, 3, calls)
}

func TestChat_DoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"message": "bad request"}}`))
	}))
	defer srv.Close()

	c := NewClient("k", "m", 5*time.Second, WithBaseURL(srv.URL), WithRetry(3, 0))
	_, err := c.Chat(context.Background(), ChatRequest{})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestChat_RetryBudgetExhausted(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("k", "m", 5*time.Second, WithBaseURL(srv.URL), WithRetry(2, 0))
	_, err := c.Chat(context.Background(), ChatRequest{})
	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

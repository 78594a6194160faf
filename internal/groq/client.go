package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	apiKey     string
	model      string
	base       string
	http       *http.Client
	maxRetries int
	retryDelay time.Duration
}

type Option func(*Client)

// WithBaseURL points the client at a different OpenAI-compatible endpoint.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.base = base }
}

// WithRetry sets the bounded retry policy for transient failures. Attempts
// are spaced by a fixed delay; exhaustion surfaces as an error to the caller.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.retryDelay = delay
	}
}

func NewClient(apiKey, model string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		model:      model,
		base:       "https://api.groq.com/openai/v1",
		http:       &http.Client{Timeout: timeout},
		maxRetries: 2,
		retryDelay: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Model() string { return c.model }

type ChatRequest struct {
	Model       string              `json:"model"`
	Messages    []map[string]string `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float32             `json:"temperature,omitempty"`
}

type ChatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Chat sends one chat-completion request and returns the raw assistant
// content. Transport errors, 5xx and 429 responses are retried up to the
// configured attempt budget with a fixed inter-attempt delay.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (string, error) {
	if req.Model == "" {
		req.Model = c.model
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		content, retryable, err := c.chatOnce(ctx, req)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if !retryable {
			return "", err
		}
	}
	return "", fmt.Errorf("chat completion failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) chatOnce(ctx context.Context, req ChatRequest) (content string, retryable bool, err error) {
	b, _ := json.Marshal(req)
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", false, err
	}
	r.Header.Set("Authorization", "Bearer "+c.apiKey)
	r.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(r)
	if err != nil {
		return "", true, err
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", retryable, fmt.Errorf("groq api error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var ch ChatResponse
	if err := json.Unmarshal(bodyBytes, &ch); err != nil {
		return "", false, fmt.Errorf("decode error: %w, body: %s", err, string(bodyBytes))
	}
	if ch.Error != nil {
		return "", false, fmt.Errorf("api error: %s", ch.Error.Message)
	}
	if len(ch.Choices) == 0 {
		return "", false, fmt.Errorf("no choices returned")
	}
	return ch.Choices[0].Message.Content, false, nil
}

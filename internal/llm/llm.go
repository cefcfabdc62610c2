// Package llm wraps chat completion behind a text-in/text-out client with a
// candidate-model fallback chain.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Completer is the text-in/text-out completion capability consumed by the
// pipeline stages.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Client implements Completer over the OpenAI-compatible chat API. If the
// primary model fails, each candidate model is tried in order.
type Client struct {
	api        *openai.Client
	model      string
	candidates []string
	timeout    time.Duration
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithCandidates sets the fallback model chain tried after the primary model.
func WithCandidates(models []string) Option {
	return func(c *Client) { c.candidates = models }
}

// WithTimeout overrides the default 60-second per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a Client. baseURL may be empty for the default OpenAI endpoint.
func New(apiKey, baseURL, model string, log *slog.Logger, opts ...Option) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	c := &Client{
		api:     openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: 60 * time.Second,
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete sends one chat completion request and returns the response text.
// The primary model is tried first, then each candidate in order; the last
// error is returned if all fail.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	models := append([]string{c.model}, c.candidates...)

	var lastErr error
	for _, m := range models {
		text, err := c.completeOnce(ctx, m, systemPrompt, userPrompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		c.log.Warn("completion failed, trying next candidate", "model", m, "error", err)
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("all completion candidates failed: %w", lastErr)
}

func (c *Client) completeOnce(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := []openai.ChatCompletionMessage{}
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userPrompt,
	})

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion: empty choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// ExtractJSONArray returns the first bracketed JSON-array-shaped substring of
// raw, or "" if none is present. Completion responses often wrap JSON in
// prose, so parsers take the substring between the first '[' and the last ']'.
func ExtractJSONArray(raw string) string {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}

// ExtractJSONObject returns the first brace-delimited JSON-object-shaped
// substring of raw, or "" if none is present.
func ExtractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

const resendAPI = "https://api.resend.com/emails"

// HTTPClient issues HTTP requests. *http.Client satisfies it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Email pushes digests through the Resend HTTP API as plain text.
type Email struct {
	client HTTPClient
	apiKey string
	from   string
	to     string
	log    *slog.Logger
}

// NewEmail creates an Email notifier. Any empty credential field makes Send
// skip delivery.
func NewEmail(client HTTPClient, apiKey, from, to string, log *slog.Logger) *Email {
	return &Email{
		client: client,
		apiKey: apiKey,
		from:   from,
		to:     to,
		log:    log,
	}
}

// Name implements Notifier.
func (e *Email) Name() string { return "email" }

// Send delivers the digest as a plain-text email.
func (e *Email) Send(ctx context.Context, subject, body string) error {
	if e.apiKey == "" || e.from == "" || e.to == "" {
		e.log.Info("email not configured, skipping push")
		return nil
	}

	payload, err := json.Marshal(map[string]any{
		"from":    e.from,
		"to":      []string{e.to},
		"subject": subject,
		"text":    body,
	})
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resendAPI, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("resend api status %d: %s", resp.StatusCode, detail)
	}
	return nil
}

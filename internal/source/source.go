// Package source fetches raw items from the upstream systems and normalizes
// them into articles.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"news_digest/internal/model"
)

const userAgent = "NewsDigestBot/1.0"

// maxBodySize caps response bodies read from upstream APIs.
const maxBodySize = 5 * 1024 * 1024

// Source retrieves and normalizes articles from one upstream system. Fetch
// returns already time-windowed articles of bounded length.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]model.Article, error)
}

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// getJSON fetches url with up to maxRetries attempts and exponential backoff,
// returning the response body.
func getJSON(ctx context.Context, client HTTPClient, url string, headers map[string]string, maxRetries int) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(1<<(attempt-1)) * time.Second):
			}
		}
		body, err := getOnce(ctx, client, url, headers)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func getOnce(ctx context.Context, client HTTPClient, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// withinWindow reports whether t falls inside the last `days` days before now.
func withinWindow(t, now time.Time, days int) bool {
	return now.Sub(t) <= time.Duration(days)*24*time.Hour
}

// truncate shortens s to at most n bytes, appending an ellipsis when cut.
// The cut lands on a rune boundary so multi-byte text stays valid UTF-8.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

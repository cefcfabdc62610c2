package source

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"news_digest/internal/model"
)

// mockTransport serves canned responses keyed by URL substring; unmatched
// requests get the fallback response.
type mockTransport struct {
	responses map[string]mockResponse
	fallback  mockResponse
	requests  []string
}

type mockResponse struct {
	body       string
	statusCode int
	err        error
}

func (m *mockTransport) Do(req *http.Request) (*http.Response, error) {
	m.requests = append(m.requests, req.URL.String())
	resp := m.fallback
	for substr, r := range m.responses {
		if strings.Contains(req.URL.String(), substr) {
			resp = r
			break
		}
	}
	if resp.err != nil {
		return nil, resp.err
	}
	code := resp.statusCode
	if code == 0 {
		code = http.StatusOK
	}
	return &http.Response{
		StatusCode: code,
		Body:       io.NopCloser(bytes.NewBufferString(resp.body)),
	}, nil
}

func loadFixture(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture %s: %v", path, err)
	}
	return string(data)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRSSFetch(t *testing.T) {
	xml := loadFixture(t, "testdata/sample.xml")
	transport := &mockTransport{fallback: mockResponse{body: xml}}

	feeds := []FeedConfig{{
		Name:       "AI Weekly",
		URL:        "https://example.com/rss",
		SourceType: model.SourceRSS,
		Language:   model.LangEN,
	}}
	r := NewRSS(transport, feeds, 20, 7, testLogger())
	r.now = func() time.Time { return time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC) }

	articles, err := r.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The linkless item and the out-of-window item are dropped.
	if len(articles) != 2 {
		t.Fatalf("got %d articles, want 2", len(articles))
	}

	first := articles[0]
	if first.Title != "New open LLM released" {
		t.Errorf("Title = %q", first.Title)
	}
	if first.Source != "AI Weekly" || first.SourceType != model.SourceRSS {
		t.Errorf("source fields = %q/%q", first.Source, first.SourceType)
	}
	if strings.Contains(first.Summary, "<p>") {
		t.Errorf("summary should have HTML stripped, got %q", first.Summary)
	}
	if len(first.Tags) != 2 {
		t.Errorf("Tags = %v, want the two categories", first.Tags)
	}
	if first.PublishedAt != time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC) {
		t.Errorf("PublishedAt = %v", first.PublishedAt)
	}
}

func TestRSSFetchLimitsItems(t *testing.T) {
	xml := loadFixture(t, "testdata/sample.xml")
	transport := &mockTransport{fallback: mockResponse{body: xml}}

	feeds := []FeedConfig{{Name: "AI Weekly", URL: "https://example.com/rss", SourceType: model.SourceRSS, Language: model.LangEN}}
	r := NewRSS(transport, feeds, 1, 7, testLogger())
	r.now = func() time.Time { return time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC) }

	articles, err := r.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(articles) != 1 {
		t.Errorf("got %d articles, want 1", len(articles))
	}
}

func TestRSSFetchFailingFeedContributesNothing(t *testing.T) {
	xml := loadFixture(t, "testdata/sample.xml")
	transport := &mockTransport{
		responses: map[string]mockResponse{
			"bad.example":  {statusCode: http.StatusInternalServerError, body: "boom"},
			"good.example": {body: xml},
		},
	}

	feeds := []FeedConfig{
		{Name: "Broken", URL: "https://bad.example/rss", SourceType: model.SourceRSS, Language: model.LangEN},
		{Name: "Good", URL: "https://good.example/rss", SourceType: model.SourceRSS, Language: model.LangEN},
	}
	r := NewRSS(transport, feeds, 20, 7, testLogger())
	r.now = func() time.Time { return time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC) }

	articles, err := r.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(articles) != 2 {
		t.Errorf("got %d articles, want 2 from the healthy feed", len(articles))
	}
	for _, a := range articles {
		if a.Source != "Good" {
			t.Errorf("unexpected source %q", a.Source)
		}
	}
}

func TestRSSFetchInvalidXML(t *testing.T) {
	transport := &mockTransport{fallback: mockResponse{body: "not xml at all"}}
	feeds := []FeedConfig{{Name: "Bad", URL: "https://example.com/rss", SourceType: model.SourceRSS, Language: model.LangEN}}
	r := NewRSS(transport, feeds, 20, 7, testLogger())

	articles, err := r.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(articles) != 0 {
		t.Errorf("invalid feed should contribute nothing, got %d", len(articles))
	}
}

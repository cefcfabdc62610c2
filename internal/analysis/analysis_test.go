package analysis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"news_digest/internal/model"
)

type fakeCompleter struct {
	response string
	err      error
}

func (f *fakeCompleter) Complete(_ context.Context, _, _ string) (string, error) {
	return f.response, f.err
}

func newTestService(completer *fakeCompleter) *Service {
	var s *Service
	if completer == nil {
		s = NewService(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	} else {
		s = NewService(completer, slog.New(slog.NewTextHandler(io.Discard, nil)))
	}
	s.now = func() time.Time { return time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC) }
	return s
}

func sampleArticles(n int) []model.Article {
	articles := make([]model.Article, 0, n)
	for i := 0; i < n; i++ {
		articles = append(articles, model.Article{
			ID:    "a" + string(rune('1'+i)),
			Title: "Story " + string(rune('A'+i)),
			URL:   "https://example.com/" + string(rune('a'+i)),
		})
	}
	return articles
}

func TestAnalyzeParsesWellFormedResponse(t *testing.T) {
	completer := &fakeCompleter{
		response: `{"title":"AI Weekly","overview":"Lots happened.","highlights":["one","two"],"keywords":["ai"]}`,
	}
	s := newTestService(completer)

	got := s.Analyze(context.Background(), sampleArticles(2), []string{"ai"})

	if got.Title != "AI Weekly" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.Overview != "Lots happened." {
		t.Errorf("Overview = %q", got.Overview)
	}
	if diff := cmp.Diff([]string{"one", "two"}, got.Highlights); diff != "" {
		t.Errorf("Highlights mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"ai"}, got.Keywords); diff != "" {
		t.Errorf("Keywords mismatch (-want +got):\n%s", diff)
	}
	if got.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not set")
	}
}

func TestAnalyzeExtractsEmbeddedJSON(t *testing.T) {
	completer := &fakeCompleter{
		response: "Sure, here is the digest:\n{\"title\":\"Embedded\",\"overview\":\"ok\",\"highlights\":[],\"keywords\":[]}\nEnjoy!",
	}
	s := newTestService(completer)

	got := s.Analyze(context.Background(), sampleArticles(1), nil)
	if got.Title != "Embedded" {
		t.Errorf("Title = %q, want Embedded", got.Title)
	}
}

func TestAnalyzePlainTextBecomesOverview(t *testing.T) {
	completer := &fakeCompleter{response: "just some prose, no json here"}
	s := newTestService(completer)

	got := s.Analyze(context.Background(), sampleArticles(1), []string{"ai", "llm"})

	if got.Title != fallbackTitle {
		t.Errorf("Title = %q, want fallback title", got.Title)
	}
	if got.Overview != "just some prose, no json here" {
		t.Errorf("Overview = %q", got.Overview)
	}
	if len(got.Highlights) != 0 {
		t.Errorf("Highlights = %v, want empty", got.Highlights)
	}
	if diff := cmp.Diff([]string{"ai", "llm"}, got.Keywords); diff != "" {
		t.Errorf("Keywords should fall back to query keywords (-want +got):\n%s", diff)
	}
}

func TestAnalyzeMissingFieldsGetDefaults(t *testing.T) {
	completer := &fakeCompleter{response: `{"overview":"partial"}`}
	s := newTestService(completer)

	got := s.Analyze(context.Background(), sampleArticles(1), nil)
	if got.Title != fallbackTitle {
		t.Errorf("Title = %q, want fallback", got.Title)
	}
	if got.Overview != "partial" {
		t.Errorf("Overview = %q", got.Overview)
	}
	if got.Highlights == nil || len(got.Highlights) != 0 {
		t.Errorf("Highlights = %v, want empty slice", got.Highlights)
	}
}

func TestAnalyzeBoundsHighlights(t *testing.T) {
	many := make([]string, 20)
	for i := range many {
		many[i] = "point"
	}
	quoted := `"` + strings.Join(many, `","`) + `"`
	completer := &fakeCompleter{
		response: `{"title":"t","overview":"o","highlights":[` + quoted + `]}`,
	}
	s := newTestService(completer)

	got := s.Analyze(context.Background(), sampleArticles(1), nil)
	if len(got.Highlights) != maxHighlights {
		t.Errorf("Highlights length = %d, want %d", len(got.Highlights), maxHighlights)
	}
}

func TestAnalyzeFallsBackOnProviderFailure(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("all providers exhausted")}
	s := newTestService(completer)

	articles := sampleArticles(3)
	got := s.Analyze(context.Background(), articles, nil)

	if got.Title != fallbackTitle {
		t.Errorf("Title = %q, want fallback", got.Title)
	}
	if !strings.Contains(got.Overview, "3 articles") {
		t.Errorf("Overview should state article count, got %q", got.Overview)
	}
	if len(got.Highlights) != 3 {
		t.Errorf("Highlights = %v, want the 3 titles", got.Highlights)
	}
}

func TestAnalyzeNilCompleter(t *testing.T) {
	s := newTestService(nil)
	got := s.Analyze(context.Background(), sampleArticles(2), nil)
	if got.Title != fallbackTitle || len(got.Highlights) != 2 {
		t.Errorf("nil completer should synthesize fallback, got %+v", got)
	}
}

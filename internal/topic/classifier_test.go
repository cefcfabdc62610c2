package topic

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"

	"news_digest/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeCompleter struct {
	response string
	err      error
}

func (f *fakeCompleter) Complete(_ context.Context, _, _ string) (string, error) {
	return f.response, f.err
}

func TestHeuristicTopic(t *testing.T) {
	tests := []struct {
		name    string
		article model.Article
		want    model.Topic
	}{
		{
			name:    "ai keyword in title",
			article: model.Article{Title: "New LLM beats benchmarks"},
			want:    model.TopicAI,
		},
		{
			name:    "security keyword in summary",
			article: model.Article{Title: "Urgent", Summary: "A critical CVE was published"},
			want:    model.TopicSecurity,
		},
		{
			name:    "keyword in tags",
			article: model.Article{Title: "Weekly roundup", Tags: []string{"kubernetes"}},
			want:    model.TopicDevOps,
		},
		{
			name:    "first matching table entry wins",
			article: model.Article{Title: "AI startup raises funding"},
			want:    model.TopicAI,
		},
		{
			name:    "no match falls back to Other",
			article: model.Article{Title: "Cooking tips", Summary: "Pasta recipes"},
			want:    model.TopicOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HeuristicTopic(tt.article); got != tt.want {
				t.Errorf("HeuristicTopic() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseClassifications(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []model.TopicClassification
	}{
		{
			name: "json embedded in prose",
			raw:  `Here you go: [{"articleId":"a1","topic":"AI","confidence":0.9}] thanks`,
			want: []model.TopicClassification{
				{ArticleID: "a1", Topic: model.TopicAI, Confidence: 0.9},
			},
		},
		{
			name: "unknown topic coerced to Other",
			raw:  `[{"articleId":"a1","topic":"Gardening","confidence":0.8}]`,
			want: []model.TopicClassification{
				{ArticleID: "a1", Topic: model.TopicOther, Confidence: 0.8},
			},
		},
		{
			name: "missing confidence gets default",
			raw:  `[{"articleId":"a1","topic":"Cloud"}]`,
			want: []model.TopicClassification{
				{ArticleID: "a1", Topic: model.TopicCloud, Confidence: 0.6},
			},
		},
		{
			name: "entries without id or topic dropped",
			raw:  `[{"topic":"AI"},{"articleId":"a2"},{"articleId":"a3","topic":"Data","confidence":0.7}]`,
			want: []model.TopicClassification{
				{ArticleID: "a3", Topic: model.TopicData, Confidence: 0.7},
			},
		},
		{
			name: "confidence above one clamped",
			raw:  `[{"articleId":"a1","topic":"AI","confidence":1.7}]`,
			want: []model.TopicClassification{
				{ArticleID: "a1", Topic: model.TopicAI, Confidence: 1},
			},
		},
		{
			name: "negative confidence clamped",
			raw:  `[{"articleId":"a1","topic":"AI","confidence":-0.3}]`,
			want: []model.TopicClassification{
				{ArticleID: "a1", Topic: model.TopicAI, Confidence: 0},
			},
		},
		{
			name: "no array at all",
			raw:  "I cannot classify these items.",
			want: nil,
		},
		{
			name: "invalid json",
			raw:  `[{"articleId": nope}]`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseClassifications(tt.raw)
			if tt.want == nil {
				if len(got) != 0 {
					t.Fatalf("expected no classifications, got %+v", got)
				}
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClassifyUsesLLMResult(t *testing.T) {
	articles := []model.Article{
		{ID: "a1", Title: "Some story"},
		{ID: "a2", Title: "Another story"},
	}
	completer := &fakeCompleter{
		response: `[{"articleId":"a1","topic":"Cloud","confidence":0.8}]`,
	}

	c := NewClassifier(completer, discardLogger())
	got := c.Classify(context.Background(), articles)

	if len(got) != len(articles) {
		t.Fatalf("got %d classifications, want %d", len(got), len(articles))
	}
	byID := make(map[string]model.Topic)
	for _, cl := range got {
		byID[cl.ArticleID] = cl.Topic
	}
	if byID["a1"] != model.TopicCloud {
		t.Errorf("a1 = %s, want Cloud", byID["a1"])
	}
	// a2 was skipped by the LLM and must be topped up heuristically.
	if _, ok := byID["a2"]; !ok {
		t.Error("a2 has no classification")
	}
}

func TestClassifyDropsUnknownAndDuplicateIDs(t *testing.T) {
	articles := []model.Article{
		{ID: "a1", Title: "Some story"},
		{ID: "a2", Title: "Another story"},
	}
	// The model repeats a1, invents an ID, and covers a2 correctly.
	completer := &fakeCompleter{
		response: `[
			{"articleId":"a1","topic":"Cloud","confidence":0.8},
			{"articleId":"a1","topic":"Data","confidence":0.9},
			{"articleId":"ghost","topic":"AI","confidence":0.9},
			{"articleId":"a2","topic":"Security","confidence":0.7}
		]`,
	}

	c := NewClassifier(completer, discardLogger())
	got := c.Classify(context.Background(), articles)

	want := []model.TopicClassification{
		{ArticleID: "a1", Topic: model.TopicCloud, Confidence: 0.8},
		{ArticleID: "a2", Topic: model.TopicSecurity, Confidence: 0.7},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifyFallsBackOnError(t *testing.T) {
	articles := []model.Article{
		{ID: "a1", Title: "New LLM released"},
		{ID: "a2", Title: "Cooking tips"},
	}
	completer := &fakeCompleter{err: errors.New("all providers down")}

	c := NewClassifier(completer, discardLogger())
	got := c.Classify(context.Background(), articles)

	want := []model.TopicClassification{
		{ArticleID: "a1", Topic: model.TopicAI, Confidence: heuristicConfidence},
		{ArticleID: "a2", Topic: model.TopicOther, Confidence: heuristicConfidence},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifyNilCompleter(t *testing.T) {
	articles := []model.Article{{ID: "a1", Title: "CVE disclosed"}}

	c := NewClassifier(nil, discardLogger())
	got := c.Classify(context.Background(), articles)

	if len(got) != 1 || got[0].Topic != model.TopicSecurity {
		t.Errorf("got %+v, want one Security classification", got)
	}
}

func TestClassifyEmptyInput(t *testing.T) {
	c := NewClassifier(nil, discardLogger())
	if got := c.Classify(context.Background(), nil); len(got) != 0 {
		t.Errorf("expected no classifications, got %+v", got)
	}
}

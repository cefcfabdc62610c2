// Package analysis produces the LLM-backed structured digest of a run's
// articles, degrading to a synthesized summary when no provider answers.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"news_digest/internal/llm"
	"news_digest/internal/model"
)

const (
	fallbackTitle = "Tech News Digest"
	maxHighlights = 8
	maxKeywords   = 20
)

// Service asks the completion collaborator for a structured analysis of the
// deduped article set.
type Service struct {
	completer llm.Completer
	log       *slog.Logger
	now       func() time.Time
}

// NewService creates a Service. completer may be nil, in which case every
// call returns the synthesized fallback.
func NewService(completer llm.Completer, log *slog.Logger) *Service {
	return &Service{completer: completer, log: log, now: time.Now}
}

type compactArticle struct {
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	Source      string `json:"source"`
	SourceType  string `json:"sourceType"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

// Analyze returns a DigestAnalysis for the articles. LLM failure or malformed
// output never surfaces as an error: missing fields get documented defaults
// and a dead provider chain yields the synthesized fallback analysis.
func (s *Service) Analyze(ctx context.Context, articles []model.Article, keywords []string) model.DigestAnalysis {
	if s.completer == nil {
		return s.Fallback(articles)
	}

	raw, err := s.completer.Complete(ctx, systemPrompt, s.buildPrompt(articles, keywords))
	if err != nil {
		s.log.Warn("digest analysis call failed, synthesizing fallback", "error", err)
		return s.Fallback(articles)
	}
	return s.parse(raw, keywords)
}

const systemPrompt = "You are a news editor and industry analyst who extracts facts and summarizes trends from multi-source tech news."

func (s *Service) buildPrompt(articles []model.Article, keywords []string) string {
	compact := make([]compactArticle, 0, len(articles))
	for _, a := range articles {
		compact = append(compact, compactArticle{
			Title:       a.Title,
			Summary:     a.Summary,
			Source:      a.Source,
			SourceType:  string(a.SourceType),
			URL:         a.URL,
			PublishedAt: a.PublishedAt.Format(time.RFC3339),
		})
	}
	data, _ := json.Marshal(compact)

	return strings.Join([]string{
		"Analyze the following news items.",
		"Focus keywords: " + strings.Join(keywords, ", "),
		"Answer with JSON only, no extra explanation:",
		"{",
		`  "title": "digest title, at most 30 words",`,
		`  "overview": "100-200 word overview",`,
		`  "highlights": ["point 1", "point 2", "point 3"],`,
		`  "keywords": ["keyword 1", "keyword 2"]`,
		"}",
		"News items: " + string(data),
	}, "\n")
}

// parse extracts the analysis from free text field by field. A response with
// no JSON at all becomes the whole-text overview under the fallback title.
func (s *Service) parse(raw string, queryKeywords []string) model.DigestAnalysis {
	analysis := model.DigestAnalysis{
		Title:       fallbackTitle,
		Overview:    raw,
		Highlights:  []string{},
		Keywords:    queryKeywords,
		GeneratedAt: s.now(),
	}

	target := llm.ExtractJSONObject(raw)
	if target == "" {
		return analysis
	}

	var parsed struct {
		Title      string   `json:"title"`
		Overview   string   `json:"overview"`
		Highlights []string `json:"highlights"`
		Keywords   []string `json:"keywords"`
	}
	if err := json.Unmarshal([]byte(target), &parsed); err != nil {
		s.log.Warn("analysis response is not valid JSON, keeping raw text", "error", err)
		return analysis
	}

	if parsed.Title != "" {
		analysis.Title = parsed.Title
	}
	if parsed.Overview != "" {
		analysis.Overview = parsed.Overview
	}
	if len(parsed.Highlights) > 0 {
		if len(parsed.Highlights) > maxHighlights {
			parsed.Highlights = parsed.Highlights[:maxHighlights]
		}
		analysis.Highlights = parsed.Highlights
	}
	if len(parsed.Keywords) > 0 {
		if len(parsed.Keywords) > maxKeywords {
			parsed.Keywords = parsed.Keywords[:maxKeywords]
		}
		analysis.Keywords = parsed.Keywords
	}
	return analysis
}

// Fallback synthesizes a minimal analysis from the articles themselves: an
// overview stating the article count and a trimmed list of titles as
// highlights.
func (s *Service) Fallback(articles []model.Article) model.DigestAnalysis {
	highlights := make([]string, 0, maxHighlights)
	for _, a := range articles {
		if len(highlights) == maxHighlights {
			break
		}
		highlights = append(highlights, a.Title)
	}
	return model.DigestAnalysis{
		Title:       fallbackTitle,
		Overview:    fmt.Sprintf("Collected %d articles across sources. Automatic analysis was unavailable for this run.", len(articles)),
		Highlights:  highlights,
		Keywords:    []string{},
		GeneratedAt: s.now(),
	}
}

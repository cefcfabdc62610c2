// Package topic assigns articles to the fixed topic taxonomy and aggregates
// per-day topic counts.
package topic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"news_digest/internal/llm"
	"news_digest/internal/model"
)

// heuristicConfidence is the fixed confidence assigned by the keyword
// fallback; it is a baseline, not a measured score.
const heuristicConfidence = 0.55

// Ordered keyword table for the heuristic fallback. The first topic whose any
// keyword matches wins.
var topicKeywords = []struct {
	topic    model.Topic
	keywords []string
}{
	{model.TopicAI, []string{"ai", "llm", "model", "agent", "machine learning", "deep learning", "prompt"}},
	{model.TopicFrontend, []string{"react", "vue", "frontend", "css", "ui", "ux", "next.js"}},
	{model.TopicBackend, []string{"backend", "api", "server", "database", "microservice", "node.js"}},
	{model.TopicDevOps, []string{"devops", "ci/cd", "kubernetes", "docker", "infra", "sre"}},
	{model.TopicData, []string{"data", "analytics", "etl", "warehouse", "bi"}},
	{model.TopicSecurity, []string{"security", "vulnerability", "cve", "auth", "encryption"}},
	{model.TopicCloud, []string{"cloud", "aws", "azure", "gcp", "serverless"}},
	{model.TopicMobile, []string{"ios", "android", "mobile", "react native", "flutter"}},
	{model.TopicStartup, []string{"startup", "funding", "growth", "saas", "product"}},
	{model.TopicOpenSource, []string{"open source", "github", "repository", "oss"}},
}

// HeuristicTopic classifies a single article by keyword match. Deterministic
// and side-effect-free; articles matching nothing get Other.
func HeuristicTopic(a model.Article) model.Topic {
	text := strings.ToLower(a.Title + " " + a.Summary + " " + strings.Join(a.Tags, " "))
	for _, entry := range topicKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				return entry.topic
			}
		}
	}
	return model.TopicOther
}

// Classifier assigns every article exactly one topic, preferring a single
// batched LLM call and falling back to the keyword heuristic.
type Classifier struct {
	completer llm.Completer
	log       *slog.Logger
}

// NewClassifier creates a Classifier. completer may be nil, in which case only
// the heuristic is used.
func NewClassifier(completer llm.Completer, log *slog.Logger) *Classifier {
	return &Classifier{completer: completer, log: log}
}

type compactArticle struct {
	ArticleID string `json:"articleId"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Source    string `json:"source"`
}

// Classify returns one classification per input article. Order is not
// guaranteed but cardinality is: every article gets exactly one entry, falling
// back to the heuristic per article when the LLM path yields nothing.
func (c *Classifier) Classify(ctx context.Context, articles []model.Article) []model.TopicClassification {
	if len(articles) == 0 {
		return nil
	}

	if c.completer != nil {
		if parsed := c.classifyViaLLM(ctx, articles); len(parsed) > 0 {
			return fillMissing(articles, parsed)
		}
	}

	out := make([]model.TopicClassification, 0, len(articles))
	for _, a := range articles {
		out = append(out, model.TopicClassification{
			ArticleID:  a.ID,
			Topic:      HeuristicTopic(a),
			Confidence: heuristicConfidence,
		})
	}
	return out
}

func (c *Classifier) classifyViaLLM(ctx context.Context, articles []model.Article) []model.TopicClassification {
	compact := make([]compactArticle, 0, len(articles))
	for _, a := range articles {
		compact = append(compact, compactArticle{
			ArticleID: a.ID,
			Title:     a.Title,
			Summary:   a.Summary,
			Source:    a.Source,
		})
	}
	data, err := json.Marshal(compact)
	if err != nil {
		c.log.Error("marshal compact articles", "error", err)
		return nil
	}

	topicNames := make([]string, 0, len(model.Topics))
	for _, t := range model.Topics {
		topicNames = append(topicNames, string(t))
	}

	prompt := strings.Join([]string{
		"Classify each news item into exactly one topic.",
		fmt.Sprintf("Allowed topics: %s", strings.Join(topicNames, ", ")),
		"Answer with a JSON array only, no extra explanation.",
		`[{"articleId":"...", "topic":"AI", "confidence":0.0}]`,
		"Items: " + string(data),
	}, "\n")

	raw, err := c.completer.Complete(ctx, "You are a tech media editor who classifies news by topic.", prompt)
	if err != nil {
		c.log.Warn("topic classification call failed, using heuristic", "error", err)
		return nil
	}
	return ParseClassifications(raw)
}

// ParseClassifications tolerantly parses the LLM response: the first
// array-shaped substring is extracted and unmarshalled, entries missing an
// article ID or topic are dropped, topics outside the taxonomy are coerced
// to Other, and confidence is clamped to [0, 1].
func ParseClassifications(raw string) []model.TopicClassification {
	target := llm.ExtractJSONArray(raw)
	if target == "" {
		return nil
	}

	var entries []struct {
		ArticleID  string   `json:"articleId"`
		Topic      string   `json:"topic"`
		Confidence *float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(target), &entries); err != nil {
		return nil
	}

	out := make([]model.TopicClassification, 0, len(entries))
	for _, e := range entries {
		if e.ArticleID == "" || e.Topic == "" {
			continue
		}
		topic := model.Topic(e.Topic)
		if !model.IsValidTopic(topic) {
			topic = model.TopicOther
		}
		confidence := 0.6
		if e.Confidence != nil {
			confidence = *e.Confidence
		}
		if confidence < 0 {
			confidence = 0
		}
		if confidence > 1 {
			confidence = 1
		}
		out = append(out, model.TopicClassification{
			ArticleID:  e.ArticleID,
			Topic:      topic,
			Confidence: confidence,
		})
	}
	return out
}

// fillMissing reconciles LLM classifications against the batch so every
// article ends up with exactly one entry, in article order. Entries for IDs
// not in the batch are dropped, the first entry wins when the LLM repeats an
// ID, and articles the LLM skipped get the heuristic.
func fillMissing(articles []model.Article, parsed []model.TopicClassification) []model.TopicClassification {
	byID := make(map[string]model.TopicClassification, len(parsed))
	for _, c := range parsed {
		if _, ok := byID[c.ArticleID]; ok {
			continue
		}
		byID[c.ArticleID] = c
	}
	out := make([]model.TopicClassification, 0, len(articles))
	for _, a := range articles {
		if c, ok := byID[a.ID]; ok {
			out = append(out, c)
			continue
		}
		out = append(out, model.TopicClassification{
			ArticleID:  a.ID,
			Topic:      HeuristicTopic(a),
			Confidence: heuristicConfidence,
		})
	}
	return out
}

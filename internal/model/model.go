// Package model defines the domain types used across the application.
package model

import "time"

// SourceType identifies which upstream system an article came from.
type SourceType string

// Supported source types.
const (
	SourceHackerNews  SourceType = "hacker-news"
	SourceRSS         SourceType = "rss"
	SourceTwitter     SourceType = "twitter"
	SourceGitHub      SourceType = "github"
	SourceReddit      SourceType = "reddit"
	SourceProductHunt SourceType = "product-hunt"
)

// Language identifies the language of an article's text.
type Language string

// Supported languages.
const (
	LangEN Language = "en"
	LangZH Language = "zh"
)

// CategoryAll is the catch-all content category used when a source does not
// provide one.
const CategoryAll = "all"

// Article is one ingested news item, normalized from a source-specific record.
//
// ID is stable for a given source item within one run and is source-prefixed
// to avoid cross-source collisions. It is never used for cross-run identity;
// cross-run identity is based on normalized title and URL.
type Article struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Summary      string     `json:"summary"`
	URL          string     `json:"url"`
	Source       string     `json:"source"`
	SourceType   SourceType `json:"sourceType"`
	Author       string     `json:"author,omitempty"`
	PublishedAt  time.Time  `json:"publishedAt"`
	Category     string     `json:"category"`
	Language     Language   `json:"language"`
	Score        int        `json:"score,omitempty"`
	CommentCount int        `json:"commentCount,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
}

// Topic is one label from the fixed topic taxonomy.
type Topic string

// The fixed topic taxonomy.
const (
	TopicAI         Topic = "AI"
	TopicFrontend   Topic = "Frontend"
	TopicBackend    Topic = "Backend"
	TopicDevOps     Topic = "DevOps"
	TopicData       Topic = "Data"
	TopicSecurity   Topic = "Security"
	TopicCloud      Topic = "Cloud"
	TopicMobile     Topic = "Mobile"
	TopicStartup    Topic = "Startup"
	TopicOpenSource Topic = "OpenSource"
	TopicOther      Topic = "Other"
)

// Topics lists every topic in the taxonomy, in display order.
var Topics = []Topic{
	TopicAI,
	TopicFrontend,
	TopicBackend,
	TopicDevOps,
	TopicData,
	TopicSecurity,
	TopicCloud,
	TopicMobile,
	TopicStartup,
	TopicOpenSource,
	TopicOther,
}

// IsValidTopic reports whether t belongs to the fixed taxonomy.
func IsValidTopic(t Topic) bool {
	for _, known := range Topics {
		if t == known {
			return true
		}
	}
	return false
}

// TopicClassification maps one article to one topic with a confidence in [0,1].
type TopicClassification struct {
	ArticleID  string  `json:"articleId"`
	Topic      Topic   `json:"topic"`
	Confidence float64 `json:"confidence"`
}

// TopicStatsDay is one calendar day's aggregate topic counts.
// ByTopic always contains every topic in the taxonomy, zero-filled.
type TopicStatsDay struct {
	Date    string        `json:"date"`
	Total   int           `json:"total"`
	ByTopic map[Topic]int `json:"byTopic"`
}

// TopicTrendSummary is the rolling per-topic count derived from the history
// ledger. Trend7d holds per-day counts for the last 7 calendar days, oldest
// first.
type TopicTrendSummary struct {
	Topic    Topic `json:"topic"`
	Count7d  int   `json:"count7d"`
	Count30d int   `json:"count30d"`
	Trend7d  []int `json:"trend7d"`
}

// DigestAnalysis is the LLM-backed structured analysis of one run's articles.
type DigestAnalysis struct {
	Title       string    `json:"title"`
	Overview    string    `json:"overview"`
	Highlights  []string  `json:"highlights"`
	Keywords    []string  `json:"keywords"`
	GeneratedAt time.Time `json:"generatedAt"`
}

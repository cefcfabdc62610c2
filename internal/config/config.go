// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Defaults applied when the corresponding environment variable is unset.
var (
	defaultRSSFeeds = []string{
		"https://www.jiqizhixin.com/rss",
		"https://www.technologyreview.com/feed/",
		"https://hnrss.org/frontpage",
	}
	defaultRedditFeeds = []string{
		"https://www.reddit.com/r/artificial/.rss",
		"https://www.reddit.com/r/MachineLearning/.rss",
		"https://www.reddit.com/r/LocalLLaMA/.rss",
	}
	defaultProductHuntFeeds = []string{
		"https://www.producthunt.com/feed",
	}
	defaultGitHubLanguages = []string{"go", "python", "rust", "typescript"}
)

// Config holds the application configuration.
type Config struct {
	Keywords []string

	RSSFeeds         []string
	RedditFeeds      []string
	ProductHuntFeeds []string

	IncludeGitHubTrending bool
	IncludeReddit         bool
	IncludeProductHunt    bool
	IncludeTwitter        bool

	GitHubToken     string
	GitHubLanguages []string
	XBearerToken    string
	XKeywords       []string

	MaxItemsPerSource int
	TimeRangeDays     int

	OpenAIAPIKey  string
	OpenAIBaseURL string
	LLMModel      string
	LLMCandidates []string

	TelegramBotToken string
	TelegramChatID   int64

	EmailEnabled bool
	ResendAPIKey string
	EmailFrom    string
	EmailTo      string

	DatabasePath   string
	TopicStatsPath string
	OutputRSSPath  string
	OutputDailyDir string
	ReadmePath     string
	UpdateReadme   bool

	LogLevel string
	LogFile  string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Keywords:              splitCSV(os.Getenv("NEWS_KEYWORDS")),
		RSSFeeds:              csvOrDefault("RSS_FEEDS", defaultRSSFeeds),
		RedditFeeds:           csvOrDefault("REDDIT_FEEDS", defaultRedditFeeds),
		ProductHuntFeeds:      csvOrDefault("PRODUCT_HUNT_FEEDS", defaultProductHuntFeeds),
		IncludeGitHubTrending: boolOrDefault("INCLUDE_GITHUB_TRENDING", true),
		IncludeReddit:         boolOrDefault("INCLUDE_REDDIT", true),
		IncludeProductHunt:    boolOrDefault("INCLUDE_PRODUCT_HUNT", true),
		IncludeTwitter:        boolOrDefault("INCLUDE_TWITTER", false),
		GitHubToken:           os.Getenv("GITHUB_TOKEN"),
		GitHubLanguages:       csvOrDefault("GITHUB_TRENDING_LANGUAGES", defaultGitHubLanguages),
		XBearerToken:          os.Getenv("X_BEARER_TOKEN"),
		MaxItemsPerSource:     intOrDefault("MAX_ITEMS_PER_SOURCE", 20),
		TimeRangeDays:         parseTimeRange(os.Getenv("NEWS_TIME_RANGE")),
		OpenAIAPIKey:          os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:         os.Getenv("OPENAI_BASE_URL"),
		LLMModel:              envOrDefault("LLM_MODEL", "gpt-4o-mini"),
		LLMCandidates:         splitCSV(os.Getenv("LLM_CANDIDATES")),
		TelegramBotToken:      os.Getenv("TELEGRAM_BOT_TOKEN"),
		EmailEnabled:          boolOrDefault("EMAIL_ENABLED", false),
		ResendAPIKey:          os.Getenv("RESEND_API_KEY"),
		EmailFrom:             os.Getenv("EMAIL_FROM"),
		EmailTo:               os.Getenv("EMAIL_TO"),
		DatabasePath:          envOrDefault("DATABASE_PATH", "./data/digest.db"),
		TopicStatsPath:        envOrDefault("TOPIC_STATS_PATH", "./data/topic-stats-history.json"),
		OutputRSSPath:         envOrDefault("OUTPUT_RSS_PATH", "./output/news-digest.xml"),
		OutputDailyDir:        envOrDefault("OUTPUT_DAILY_DIR", "./docs/daily"),
		ReadmePath:            envOrDefault("README_PATH", "./README.md"),
		UpdateReadme:          boolOrDefault("UPDATE_README", true),
		LogLevel:              envOrDefault("LOG_LEVEL", "info"),
		LogFile:               os.Getenv("LOG_FILE"),
	}

	cfg.XKeywords = splitCSV(os.Getenv("X_KEYWORDS"))
	if len(cfg.XKeywords) == 0 {
		cfg.XKeywords = cfg.Keywords
	}

	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", raw, err)
		}
		cfg.TelegramChatID = id
	}

	return cfg, nil
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

func csvOrDefault(key string, def []string) []string {
	if v := splitCSV(os.Getenv(key)); len(v) > 0 {
		return v
	}
	return def
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intOrDefault(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func boolOrDefault(key string, def bool) bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch raw {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

// parseTimeRange converts a "1d" / "3d" / "7d" range to days, defaulting to 7.
func parseTimeRange(raw string) int {
	switch raw {
	case "1d":
		return 1
	case "3d":
		return 3
	case "7d", "":
		return 7
	default:
		return 7
	}
}

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"news_digest/internal/model"
)

const xSearchAPI = "https://api.x.com/2/tweets/search/recent"

type xTweet struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	AuthorID      string `json:"author_id"`
	CreatedAt     string `json:"created_at"`
	Lang          string `json:"lang"`
	PublicMetrics struct {
		RetweetCount int `json:"retweet_count"`
		ReplyCount   int `json:"reply_count"`
		LikeCount    int `json:"like_count"`
	} `json:"public_metrics"`
}

type xSearchResponse struct {
	Data []xTweet `json:"data"`
}

// Twitter fetches recent popular posts from the X search API.
type Twitter struct {
	client      HTTPClient
	bearerToken string
	keywords    []string
	limit       int
	windowDays  int
	log         *slog.Logger
	now         func() time.Time
}

// NewTwitter creates a Twitter source.
func NewTwitter(client HTTPClient, bearerToken string, keywords []string, limit, windowDays int, log *slog.Logger) *Twitter {
	return &Twitter{
		client:      client,
		bearerToken: bearerToken,
		keywords:    keywords,
		limit:       limit,
		windowDays:  windowDays,
		log:         log,
		now:         time.Now,
	}
}

// Name implements Source.
func (t *Twitter) Name() string { return "X" }

// Fetch searches recent posts matching the configured keywords, ranked by
// engagement. An unset bearer token yields no results rather than an error.
func (t *Twitter) Fetch(ctx context.Context) ([]model.Article, error) {
	if t.bearerToken == "" {
		t.log.Info("X bearer token not configured, skipping")
		return nil, nil
	}

	maxResults := t.limit
	if maxResults < 10 {
		maxResults = 10
	}
	if maxResults > 100 {
		maxResults = 100
	}

	q := url.Values{}
	q.Set("query", t.buildQuery())
	q.Set("max_results", fmt.Sprintf("%d", maxResults))
	q.Set("tweet.fields", "created_at,lang,author_id,public_metrics")
	q.Set("start_time", t.now().AddDate(0, 0, -t.windowDays).UTC().Format(time.RFC3339))

	headers := map[string]string{"Authorization": "Bearer " + t.bearerToken}
	body, err := getJSON(ctx, t.client, xSearchAPI+"?"+q.Encode(), headers, 2)
	if err != nil {
		return nil, fmt.Errorf("search recent tweets: %w", err)
	}

	var parsed xSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}

	articles := make([]model.Article, 0, len(parsed.Data))
	for _, tweet := range parsed.Data {
		article, ok := t.toArticle(tweet)
		if !ok {
			continue
		}
		articles = append(articles, article)
	}

	sort.SliceStable(articles, func(i, j int) bool { return articles[i].Score > articles[j].Score })
	if len(articles) > t.limit {
		articles = articles[:t.limit]
	}
	return articles, nil
}

func (t *Twitter) buildQuery() string {
	var quoted []string
	for _, kw := range t.keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		quoted = append(quoted, `"`+kw+`"`)
	}
	keywordsQuery := "(AI OR LLM)"
	if len(quoted) > 0 {
		keywordsQuery = "(" + strings.Join(quoted, " OR ") + ")"
	}
	return keywordsQuery + " -is:retweet -is:reply lang:en OR lang:zh"
}

func (t *Twitter) toArticle(tweet xTweet) (model.Article, bool) {
	text := strings.Join(strings.Fields(tweet.Text), " ")
	if tweet.ID == "" || text == "" {
		return model.Article{}, false
	}

	title := truncate(text, 90)

	publishedAt := t.now()
	if parsed, err := time.Parse(time.RFC3339, tweet.CreatedAt); err == nil {
		publishedAt = parsed.UTC()
	}

	lang := model.LangEN
	if tweet.Lang == "zh" {
		lang = model.LangZH
	}

	return model.Article{
		ID:           "x-" + tweet.ID,
		Title:        title,
		Summary:      text,
		URL:          "https://x.com/i/web/status/" + tweet.ID,
		Source:       "X",
		SourceType:   model.SourceTwitter,
		Author:       tweet.AuthorID,
		PublishedAt:  publishedAt,
		Category:     model.CategoryAll,
		Language:     lang,
		Score:        tweet.PublicMetrics.LikeCount + tweet.PublicMetrics.RetweetCount*2,
		CommentCount: tweet.PublicMetrics.ReplyCount,
		Tags:         t.keywords,
	}, true
}

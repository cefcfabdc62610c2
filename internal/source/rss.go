package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"news_digest/internal/model"
)

// FeedConfig describes one RSS feed to pull.
type FeedConfig struct {
	Name       string
	URL        string
	SourceType model.SourceType
	Language   model.Language
}

// RSS fetches and normalizes articles from a set of RSS feeds.
type RSS struct {
	client     HTTPClient
	feeds      []FeedConfig
	limit      int
	windowDays int
	log        *slog.Logger
	now        func() time.Time
}

// NewRSS creates an RSS source over the given feeds.
func NewRSS(client HTTPClient, feeds []FeedConfig, limit, windowDays int, log *slog.Logger) *RSS {
	return &RSS{
		client:     client,
		feeds:      feeds,
		limit:      limit,
		windowDays: windowDays,
		log:        log,
		now:        time.Now,
	}
}

// Name implements Source.
func (r *RSS) Name() string {
	if len(r.feeds) == 1 {
		return r.feeds[0].Name
	}
	return "RSS"
}

// Fetch downloads every configured feed; a failing feed contributes nothing.
func (r *RSS) Fetch(ctx context.Context) ([]model.Article, error) {
	var all []model.Article
	for _, feed := range r.feeds {
		articles, err := r.fetchFeed(ctx, feed)
		if err != nil {
			r.log.Warn("fetch feed failed", "feed", feed.Name, "url", feed.URL, "error", err)
			continue
		}
		all = append(all, articles...)
	}
	return all, nil
}

func (r *RSS) fetchFeed(ctx context.Context, cfg FeedConfig) ([]model.Article, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	now := r.now()
	articles := make([]model.Article, 0, len(feed.Items))
	for i, item := range feed.Items {
		if len(articles) == r.limit {
			break
		}
		article, ok := r.toArticle(item, cfg, i, now)
		if !ok {
			continue
		}
		if !withinWindow(article.PublishedAt, now, r.windowDays) {
			continue
		}
		articles = append(articles, article)
	}
	return articles, nil
}

// toArticle normalizes one feed item. Items with no title or link are not
// articles; malformed optional fields get safe defaults.
func (r *RSS) toArticle(item *gofeed.Item, cfg FeedConfig, index int, now time.Time) (model.Article, bool) {
	if item == nil || item.Title == "" || item.Link == "" {
		return model.Article{}, false
	}

	summary := item.Title
	if snippet := strings.TrimSpace(item.Description); snippet != "" {
		summary = truncate(htmlTagRe.ReplaceAllString(snippet, ""), 200)
	}

	publishedAt := now
	if item.PublishedParsed != nil {
		publishedAt = item.PublishedParsed.UTC()
	} else if item.UpdatedParsed != nil {
		publishedAt = item.UpdatedParsed.UTC()
	}

	author := ""
	if len(item.Authors) > 0 && item.Authors[0] != nil {
		author = item.Authors[0].Name
	}

	return model.Article{
		ID:          fmt.Sprintf("%s-%s-%d", cfg.SourceType, cfg.Name, index),
		Title:       item.Title,
		Summary:     summary,
		URL:         item.Link,
		Source:      cfg.Name,
		SourceType:  cfg.SourceType,
		Author:      author,
		PublishedAt: publishedAt,
		Category:    model.CategoryAll,
		Language:    cfg.Language,
		Tags:        item.Categories,
	}, true
}

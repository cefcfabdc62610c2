package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"news_digest/internal/model"
)

const githubSearchAPI = "https://api.github.com/search/repositories"

type githubSearchItem struct {
	ID          int64    `json:"id"`
	FullName    string   `json:"full_name"`
	HTMLURL     string   `json:"html_url"`
	Description string   `json:"description"`
	Stars       int      `json:"stargazers_count"`
	Language    string   `json:"language"`
	CreatedAt   string   `json:"created_at"`
	Topics      []string `json:"topics"`
	Owner       struct {
		Login string `json:"login"`
	} `json:"owner"`
}

type githubSearchResponse struct {
	Items []githubSearchItem `json:"items"`
}

// GitHubTrending lists recently created popular repositories. GitHub has no
// official trending API; the Search API sorted by stars approximates it, with
// a scrape of the trending page as fallback.
type GitHubTrending struct {
	client     HTTPClient
	token      string
	languages  []string
	limit      int
	windowDays int
	log        *slog.Logger
	now        func() time.Time
}

// NewGitHubTrending creates a GitHubTrending source. token may be empty
// (unauthenticated requests have a much lower rate limit).
func NewGitHubTrending(client HTTPClient, token string, languages []string, limit, windowDays int, log *slog.Logger) *GitHubTrending {
	return &GitHubTrending{
		client:     client,
		token:      token,
		languages:  languages,
		limit:      limit,
		windowDays: windowDays,
		log:        log,
		now:        time.Now,
	}
}

// Name implements Source.
func (g *GitHubTrending) Name() string { return "GitHub Trending" }

// Fetch returns trending repositories across the configured languages.
func (g *GitHubTrending) Fetch(ctx context.Context) ([]model.Article, error) {
	languages := g.languages
	if len(languages) == 0 {
		languages = []string{""}
	}
	perLanguage := g.limit/len(languages) + 1

	var all []model.Article
	for _, lang := range languages {
		items, err := g.search(ctx, lang, perLanguage)
		if err != nil {
			g.log.Warn("github search failed, falling back to trending page", "language", lang, "error", err)
			items, err = g.scrapeTrending(ctx, lang, perLanguage)
			if err != nil {
				g.log.Warn("github trending scrape failed", "language", lang, "error", err)
				continue
			}
		}
		all = append(all, items...)
	}
	if len(all) > g.limit {
		all = all[:g.limit]
	}
	return all, nil
}

func (g *GitHubTrending) search(ctx context.Context, language string, limit int) ([]model.Article, error) {
	since := g.now().AddDate(0, 0, -g.windowDays).Format("2006-01-02")
	query := []string{"created:>=" + since, "fork:false", "stars:>=10"}
	if language != "" {
		query = append(query, "language:"+language)
	}

	q := url.Values{}
	q.Set("q", strings.Join(query, " "))
	q.Set("sort", "stars")
	q.Set("order", "desc")
	q.Set("per_page", fmt.Sprintf("%d", limit))

	headers := map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": "2022-11-28",
	}
	if g.token != "" {
		headers["Authorization"] = "Bearer " + g.token
	}

	body, err := getJSON(ctx, g.client, githubSearchAPI+"?"+q.Encode(), headers, 2)
	if err != nil {
		return nil, err
	}

	var parsed githubSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}

	articles := make([]model.Article, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.FullName == "" || item.HTMLURL == "" {
			continue
		}
		publishedAt := g.now()
		if t, err := time.Parse(time.RFC3339, item.CreatedAt); err == nil {
			publishedAt = t.UTC()
		}
		summary := item.Description
		if summary == "" {
			summary = item.FullName
		}
		articles = append(articles, model.Article{
			ID:          fmt.Sprintf("gh-%d", item.ID),
			Title:       fmt.Sprintf("%s (%d stars)", item.FullName, item.Stars),
			Summary:     truncate(summary, 200),
			URL:         item.HTMLURL,
			Source:      "GitHub Trending",
			SourceType:  model.SourceGitHub,
			Author:      item.Owner.Login,
			PublishedAt: publishedAt,
			Category:    model.CategoryAll,
			Language:    model.LangEN,
			Score:       item.Stars,
			Tags:        append([]string{item.Language}, item.Topics...),
		})
	}
	return articles, nil
}

// scrapeTrending parses the public trending page when the Search API is
// unavailable (rate-limited or down).
func (g *GitHubTrending) scrapeTrending(ctx context.Context, language string, limit int) ([]model.Article, error) {
	pageURL := "https://github.com/trending"
	if language != "" {
		pageURL += "/" + url.PathEscape(language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse trending page: %w", err)
	}

	now := g.now()
	var articles []model.Article
	doc.Find("article.Box-row").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if len(articles) == limit {
			return false
		}
		href, ok := sel.Find("h2 a").Attr("href")
		if !ok {
			return true
		}
		fullName := strings.TrimPrefix(strings.TrimSpace(href), "/")
		description := strings.TrimSpace(sel.Find("p").First().Text())
		if description == "" {
			description = fullName
		}
		articles = append(articles, model.Article{
			ID:          fmt.Sprintf("gh-trending-%s", strings.ReplaceAll(fullName, "/", "-")),
			Title:       fullName,
			Summary:     truncate(description, 200),
			URL:         "https://github.com/" + fullName,
			Source:      "GitHub Trending",
			SourceType:  model.SourceGitHub,
			PublishedAt: now,
			Category:    model.CategoryAll,
			Language:    model.LangEN,
			Tags:        []string{language},
		})
		return true
	})
	return articles, nil
}

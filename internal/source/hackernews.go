package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"news_digest/internal/model"
)

const hnAPIBase = "https://hacker-news.firebaseio.com/v0"

// hnItemBatchSize bounds concurrent item requests against the Firebase API.
const hnItemBatchSize = 20

// Keywords marking a story as AI-related.
var hnAIKeywords = []string{
	"ai", "artificial intelligence", "machine learning", "deep learning",
	"neural network", "transformer", "llm", "large language model",
	"gpt", "chatgpt", "claude", "gemini", "llama", "mistral",
	"stable diffusion", "diffusion model",
	"nlp", "natural language processing", "embedding",
	"computer vision", "object detection", "ocr", "image generation",
	"reinforcement learning", "fine-tuning", "rag", "retrieval augmented",
	"pytorch", "tensorflow", "huggingface", "langchain", "openai",
	"anthropic", "deepmind",
	"robotics", "autonomous", "self-driving",
	"人工智能", "机器学习", "深度学习", "大模型", "智能体", "agent",
}

type hnItem struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	By          string `json:"by"`
	Time        int64  `json:"time"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Text        string `json:"text"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
}

// HackerNews fetches AI-related stories from the Hacker News Firebase API.
type HackerNews struct {
	client     HTTPClient
	limit      int
	windowDays int
	log        *slog.Logger
	now        func() time.Time
}

// NewHackerNews creates a HackerNews source.
func NewHackerNews(client HTTPClient, limit, windowDays int, log *slog.Logger) *HackerNews {
	return &HackerNews{
		client:     client,
		limit:      limit,
		windowDays: windowDays,
		log:        log,
		now:        time.Now,
	}
}

// Name implements Source.
func (h *HackerNews) Name() string { return "HackerNews" }

// Fetch returns AI-related stories from the top and best listings, sorted by
// score, limited and time-windowed.
func (h *HackerNews) Fetch(ctx context.Context) ([]model.Article, error) {
	// Over-fetch so the keyword filter still leaves enough stories.
	fetchLimit := h.limit * 5
	if fetchLimit > 200 {
		fetchLimit = 200
	}

	topIDs, err := h.fetchStoryIDs(ctx, "topstories", fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch top stories: %w", err)
	}
	bestIDs, err := h.fetchStoryIDs(ctx, "beststories", fetchLimit)
	if err != nil {
		h.log.Warn("fetch best stories failed, continuing with top only", "error", err)
	}

	seen := make(map[int]struct{})
	var ids []int
	for _, id := range append(topIDs, bestIDs...) {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	items := h.fetchItems(ctx, ids)

	now := h.now()
	var stories []hnItem
	for _, item := range items {
		if item.Type != "story" || item.Title == "" {
			continue
		}
		if !h.isAIRelated(item) {
			continue
		}
		if !withinWindow(time.Unix(item.Time, 0), now, h.windowDays) {
			continue
		}
		stories = append(stories, item)
	}

	sort.SliceStable(stories, func(i, j int) bool { return stories[i].Score > stories[j].Score })
	if len(stories) > h.limit {
		stories = stories[:h.limit]
	}

	articles := make([]model.Article, 0, len(stories))
	for _, item := range stories {
		articles = append(articles, h.toArticle(item))
	}
	return articles, nil
}

func (h *HackerNews) fetchStoryIDs(ctx context.Context, listing string, limit int) ([]int, error) {
	body, err := getJSON(ctx, h.client, fmt.Sprintf("%s/%s.json", hnAPIBase, listing), nil, 3)
	if err != nil {
		return nil, err
	}
	var ids []int
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, fmt.Errorf("parse story ids: %w", err)
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// fetchItems retrieves item details in bounded concurrent batches. A failing
// item is skipped, never fatal.
func (h *HackerNews) fetchItems(ctx context.Context, ids []int) []hnItem {
	var items []hnItem
	for start := 0; start < len(ids); start += hnItemBatchSize {
		end := start + hnItemBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		results := make([]*hnItem, len(batch))
		var wg sync.WaitGroup
		for i, id := range batch {
			wg.Add(1)
			go func(i, id int) {
				defer wg.Done()
				item, err := h.fetchItem(ctx, id)
				if err != nil {
					return
				}
				results[i] = item
			}(i, id)
		}
		wg.Wait()

		for _, item := range results {
			if item != nil {
				items = append(items, *item)
			}
		}
		if ctx.Err() != nil {
			break
		}
	}
	return items
}

func (h *HackerNews) fetchItem(ctx context.Context, id int) (*hnItem, error) {
	body, err := getJSON(ctx, h.client, fmt.Sprintf("%s/item/%d.json", hnAPIBase, id), nil, 1)
	if err != nil {
		return nil, err
	}
	var item hnItem
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, fmt.Errorf("parse item %d: %w", id, err)
	}
	return &item, nil
}

func (h *HackerNews) isAIRelated(item hnItem) bool {
	text := strings.ToLower(item.Title + " " + item.Text)
	for _, kw := range hnAIKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

func (h *HackerNews) toArticle(item hnItem) model.Article {
	summary := item.Title
	if item.Text != "" {
		summary = truncate(htmlTagRe.ReplaceAllString(item.Text, ""), 200)
	}
	url := item.URL
	if url == "" {
		url = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", item.ID)
	}
	return model.Article{
		ID:           fmt.Sprintf("hn-%d", item.ID),
		Title:        item.Title,
		Summary:      summary,
		URL:          url,
		Source:       "HackerNews",
		SourceType:   model.SourceHackerNews,
		Author:       item.By,
		PublishedAt:  time.Unix(item.Time, 0).UTC(),
		Category:     model.CategoryAll,
		Language:     model.LangEN,
		Score:        item.Score,
		CommentCount: item.Descendants,
	}
}

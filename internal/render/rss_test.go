package render

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"news_digest/internal/model"
)

func testAnalysis() model.DigestAnalysis {
	return model.DigestAnalysis{
		Title:       "Daily Tech Digest",
		Overview:    "Models & tools: <new> releases",
		Highlights:  []string{"First", "Second"},
		GeneratedAt: time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC),
	}
}

func TestFeedXML(t *testing.T) {
	articles := []model.Article{
		{
			ID:          "hn-1",
			Title:       `Ben & Jerry's "AI" <strategy>`,
			Summary:     "It's complicated",
			URL:         "https://example.com/a?x=1&y=2",
			Source:      "Hacker News",
			SourceType:  model.SourceHackerNews,
			PublishedAt: time.Date(2024, 6, 2, 10, 30, 0, 0, time.UTC),
		},
	}

	xml := FeedXML(FeedOptions{
		Analysis:     testAnalysis(),
		Articles:     articles,
		ChannelTitle: "News Digest",
		ChannelLink:  "https://example.com/feed",
		Now:          time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC),
	})

	for _, want := range []string{
		`<rss version="2.0">`,
		"<title>News Digest</title>",
		"<description>Models &amp; tools: &lt;new&gt; releases</description>",
		"<title>Ben &amp; Jerry&apos;s &quot;AI&quot; &lt;strategy&gt;</title>",
		"<description>It&apos;s complicated</description>",
		"<link>https://example.com/a?x=1&amp;y=2</link>",
		`<guid isPermaLink="false">digest-2024-06-03T08:00:00Z</guid>`,
		`<guid isPermaLink="false">hn-1</guid>`,
		"<pubDate>Sun, 02 Jun 2024 10:30:00 +0000</pubDate>",
		"<lastBuildDate>Mon, 03 Jun 2024 09:00:00 +0000</lastBuildDate>",
		"<category>hacker-news</category>",
		"<author>Hacker News</author>",
	} {
		if !strings.Contains(xml, want) {
			t.Errorf("feed missing %q", want)
		}
	}

	for _, raw := range []string{"Ben & Jerry", "<strategy>", `"AI"`} {
		if strings.Contains(xml, raw) {
			t.Errorf("feed contains unescaped %q", raw)
		}
	}
}

func TestFeedXMLSummaryItemFirst(t *testing.T) {
	xml := FeedXML(FeedOptions{
		Analysis: testAnalysis(),
		Articles: []model.Article{{ID: "hn-1", Title: "A Story", URL: "https://example.com/a"}},
	})

	summary := strings.Index(xml, "<title>Daily Tech Digest</title>")
	article := strings.Index(xml, "<title>A Story</title>")
	if summary < 0 || article < 0 || summary > article {
		t.Errorf("summary item at %d, article item at %d; summary must come first", summary, article)
	}
}

func TestFeedXMLCapsItems(t *testing.T) {
	var articles []model.Article
	for i := 0; i < 40; i++ {
		articles = append(articles, model.Article{
			ID:    fmt.Sprintf("hn-%d", i),
			Title: fmt.Sprintf("Story %d", i),
			URL:   fmt.Sprintf("https://example.com/%d", i),
		})
	}

	xml := FeedXML(FeedOptions{Analysis: testAnalysis(), Articles: articles})

	// 30 article items plus the summary item.
	if got := strings.Count(xml, "<item>"); got != 31 {
		t.Errorf("got %d items, want 31", got)
	}
}

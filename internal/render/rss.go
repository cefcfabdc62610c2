package render

import (
	"fmt"
	"strings"
	"time"

	"news_digest/internal/model"
)

const feedMaxItems = 30

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string { return xmlEscaper.Replace(s) }

// FeedOptions configures the generated RSS feed.
type FeedOptions struct {
	Analysis     model.DigestAnalysis
	Articles     []model.Article
	ChannelTitle string
	ChannelLink  string
	Now          time.Time
}

// FeedXML renders an RSS 2.0 document: one channel-level summary item built
// from the analysis, followed by the article items. Every text field is
// XML-escaped.
func FeedXML(opts FeedOptions) string {
	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	channelTitle := opts.ChannelTitle
	if channelTitle == "" {
		channelTitle = "News Digest"
	}
	channelLink := opts.ChannelLink
	if channelLink == "" {
		channelLink = "https://example.com/news-digest"
	}

	articles := opts.Articles
	if len(articles) > feedMaxItems {
		articles = articles[:feedMaxItems]
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString("<rss version=\"2.0\">\n")
	b.WriteString("  <channel>\n")
	fmt.Fprintf(&b, "    <title>%s</title>\n", escapeXML(channelTitle))
	fmt.Fprintf(&b, "    <link>%s</link>\n", escapeXML(channelLink))
	fmt.Fprintf(&b, "    <description>%s</description>\n", escapeXML(opts.Analysis.Overview))
	b.WriteString("    <language>en</language>\n")
	fmt.Fprintf(&b, "    <lastBuildDate>%s</lastBuildDate>\n", now.Format(time.RFC1123Z))

	b.WriteString("    <item>\n")
	fmt.Fprintf(&b, "      <title>%s</title>\n", escapeXML(opts.Analysis.Title))
	fmt.Fprintf(&b, "      <link>%s</link>\n", escapeXML(channelLink))
	fmt.Fprintf(&b, "      <description>%s</description>\n", escapeXML(opts.Analysis.Overview))
	fmt.Fprintf(&b, "      <pubDate>%s</pubDate>\n", now.Format(time.RFC1123Z))
	fmt.Fprintf(&b, "      <guid isPermaLink=\"false\">digest-%s</guid>\n", escapeXML(opts.Analysis.GeneratedAt.UTC().Format(time.RFC3339)))
	b.WriteString("    </item>\n")

	for _, a := range articles {
		author := a.Author
		if author == "" {
			author = a.Source
		}
		pubDate := a.PublishedAt
		if pubDate.IsZero() {
			pubDate = now
		}
		b.WriteString("    <item>\n")
		fmt.Fprintf(&b, "      <title>%s</title>\n", escapeXML(a.Title))
		fmt.Fprintf(&b, "      <link>%s</link>\n", escapeXML(a.URL))
		fmt.Fprintf(&b, "      <description>%s</description>\n", escapeXML(a.Summary))
		fmt.Fprintf(&b, "      <author>%s</author>\n", escapeXML(author))
		fmt.Fprintf(&b, "      <category>%s</category>\n", escapeXML(string(a.SourceType)))
		fmt.Fprintf(&b, "      <pubDate>%s</pubDate>\n", pubDate.Format(time.RFC1123Z))
		fmt.Fprintf(&b, "      <guid isPermaLink=\"false\">%s</guid>\n", escapeXML(a.ID))
		b.WriteString("    </item>\n")
	}

	b.WriteString("  </channel>\n")
	b.WriteString("</rss>\n")
	return b.String()
}

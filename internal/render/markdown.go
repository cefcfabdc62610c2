package render

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"news_digest/internal/model"
)

const (
	markdownTopTopics      = 10
	markdownItemsPerSource = 15
)

// DailyDoc holds everything the daily Markdown document is built from.
type DailyDoc struct {
	Date     string
	Analysis model.DigestAnalysis
	Articles []model.Article
	Stats    model.TopicStatsDay
}

// DailyMarkdown renders a day's digest as a Markdown document with sections
// for the overview, highlights, topic distribution and per-source listings.
func DailyMarkdown(doc DailyDoc) string {
	var sections []string
	sections = append(sections,
		fmt.Sprintf("# %s - %s", doc.Analysis.Title, doc.Date),
		"",
		"Generated: "+doc.Analysis.GeneratedAt.UTC().Format(time.RFC3339),
		"",
	)

	if doc.Analysis.Overview != "" {
		sections = append(sections, "## Overview", "", doc.Analysis.Overview, "")
	}

	if len(doc.Analysis.Highlights) > 0 {
		sections = append(sections, "## Highlights", "")
		for i, h := range doc.Analysis.Highlights {
			sections = append(sections, fmt.Sprintf("%d. %s", i+1, h))
		}
		sections = append(sections, "")
	}

	sections = append(sections, "---", "", "## Topic Distribution", "", topicDistribution(doc.Stats), "")
	sections = append(sections, "## Articles by Source", "", sourceSections(doc.Articles))
	return strings.Join(sections, "\n")
}

// topicDistribution lists nonzero topic counts, largest first, capped to the
// top ten.
func topicDistribution(stats model.TopicStatsDay) string {
	type entry struct {
		topic model.Topic
		count int
	}
	var entries []entry
	for topic, count := range stats.ByTopic {
		if count > 0 {
			entries = append(entries, entry{topic, count})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].topic < entries[j].topic
	})
	if len(entries) > markdownTopTopics {
		entries = entries[:markdownTopTopics]
	}
	if len(entries) == 0 {
		return fmt.Sprintf("- %s: 0", model.TopicOther)
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("- %s: %d", e.topic, e.count))
	}
	return strings.Join(lines, "\n")
}

// sourceSections groups articles by source, largest group first, and lists up
// to fifteen articles per source.
func sourceSections(articles []model.Article) string {
	grouped := make(map[string][]model.Article)
	var order []string
	for _, a := range articles {
		if _, ok := grouped[a.Source]; !ok {
			order = append(order, a.Source)
		}
		grouped[a.Source] = append(grouped[a.Source], a)
	}
	sort.SliceStable(order, func(i, j int) bool {
		return len(grouped[order[i]]) > len(grouped[order[j]])
	})

	sections := make([]string, 0, len(order))
	for _, source := range order {
		items := grouped[source]
		var b strings.Builder
		fmt.Fprintf(&b, "### %s (%d)\n\n", source, len(items))
		shown := items
		if len(shown) > markdownItemsPerSource {
			shown = shown[:markdownItemsPerSource]
		}
		for i, item := range shown {
			fmt.Fprintf(&b, "%d. [%s](%s)\n", i+1, item.Title, item.URL)
			if item.Summary != "" {
				fmt.Fprintf(&b, "   - %s\n", item.Summary)
			}
			if !item.PublishedAt.IsZero() {
				fmt.Fprintf(&b, "   - %s\n", item.PublishedAt.UTC().Format(time.RFC3339))
			}
		}
		sections = append(sections, strings.TrimRight(b.String(), "\n"))
	}
	return strings.Join(sections, "\n\n")
}

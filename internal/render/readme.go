package render

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"news_digest/internal/model"
)

const (
	latestStart = "<!-- digest:latest:start -->"
	latestEnd   = "<!-- digest:latest:end -->"
	trendStart  = "<!-- digest:trend:start -->"
	trendEnd    = "<!-- digest:trend:end -->"

	readmeMaxHighlights = 5
	readmeMaxTrendRows  = 10
)

// ReadmeUpdate holds the inputs for refreshing the README marker blocks.
type ReadmeUpdate struct {
	Path     string
	Date     string
	Analysis model.DigestAnalysis
	DocPath  string
	Stats    model.TopicStatsDay
	Trend    []model.TopicTrendSummary
}

// UpdateReadme rewrites the latest-digest and topic-trend blocks in the README,
// keeping everything outside the marker comments untouched. A missing README
// is created with just the two blocks.
func UpdateReadme(u ReadmeUpdate) error {
	content := "# News Digest\n\n"
	if raw, err := os.ReadFile(u.Path); err == nil {
		content = string(raw)
	}

	content = replaceBlock(content, latestStart, latestEnd, latestBlock(u))
	content = replaceBlock(content, trendStart, trendEnd, trendBlock(u.Date, u.Trend))

	if err := os.WriteFile(u.Path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write readme: %w", err)
	}
	return nil
}

func latestBlock(u ReadmeUpdate) string {
	highlights := u.Analysis.Highlights
	if len(highlights) > readmeMaxHighlights {
		highlights = highlights[:readmeMaxHighlights]
	}
	numbered := make([]string, 0, len(highlights))
	for i, h := range highlights {
		numbered = append(numbered, fmt.Sprintf("%d. %s", i+1, h))
	}

	lines := []string{
		latestStart,
		fmt.Sprintf("## Latest Digest (%s)", u.Date),
		"",
		u.Analysis.Overview,
		"",
		"Highlights:",
		strings.Join(numbered, "\n"),
		"",
		fmt.Sprintf("Full report: [%s](%s)", u.DocPath, u.DocPath),
		latestEnd,
	}
	return strings.Join(lines, "\n")
}

func trendBlock(date string, trend []model.TopicTrendSummary) string {
	if len(trend) > readmeMaxTrendRows {
		trend = trend[:readmeMaxTrendRows]
	}
	rows := make([]string, 0, len(trend))
	for _, t := range trend {
		daily := make([]string, 0, len(t.Trend7d))
		for _, n := range t.Trend7d {
			daily = append(daily, strconv.Itoa(n))
		}
		rows = append(rows, fmt.Sprintf("| %s | %d | %d | %s |", t.Topic, t.Count7d, t.Count30d, strings.Join(daily, ", ")))
	}
	table := strings.Join(rows, "\n")
	if table == "" {
		table = fmt.Sprintf("| %s | 0 | 0 | 0, 0, 0, 0, 0, 0, 0 |", model.TopicOther)
	}

	lines := []string{
		trendStart,
		fmt.Sprintf("## Topic Trends (%s)", date),
		"",
		"| Topic | 7d | 30d | Last 7 days |",
		"| --- | --- | --- | --- |",
		table,
		trendEnd,
	}
	return strings.Join(lines, "\n")
}

// replaceBlock swaps the text between start and end markers (inclusive) for
// block. When the markers are absent the block is prepended instead.
func replaceBlock(content, start, end, block string) string {
	startIdx := strings.Index(content, start)
	endIdx := strings.Index(content, end)
	if startIdx >= 0 && endIdx > startIdx {
		return content[:startIdx] + block + content[endIdx+len(end):]
	}
	return block + "\n\n" + content
}

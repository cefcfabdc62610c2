// Package merge combines normalized articles from all sources, filters them by
// keyword relevance, removes duplicates, and sorts by recency.
package merge

import (
	"regexp"
	"sort"
	"strings"

	"news_digest/internal/model"
)

// Strips everything that is not a word character, whitespace, or a CJK
// ideograph. Titles differing only in punctuation normalize identically.
var titleStripRe = regexp.MustCompile(`[^\w\s\p{Han}]`)

// NormalizeTitle lowercases a title and strips punctuation so that near-equal
// titles produce the same dedup key.
func NormalizeTitle(title string) string {
	lowered := strings.ToLower(title)
	return strings.TrimSpace(titleStripRe.ReplaceAllString(lowered, ""))
}

// NormalizeURL strips the query string, trims, and lowercases a URL.
func NormalizeURL(rawURL string) string {
	if i := strings.Index(rawURL, "?"); i >= 0 {
		rawURL = rawURL[:i]
	}
	return strings.ToLower(strings.TrimSpace(rawURL))
}

// MatchesKeywords reports whether the article's title, summary, or tags
// contain any of the keywords as a case-folded substring. An empty keyword
// list matches everything.
func MatchesKeywords(a model.Article, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	text := strings.ToLower(a.Title + " " + a.Summary + " " + strings.Join(a.Tags, " "))
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// dedupKey conjoins normalized title and normalized URL. Two articles are the
// same only if both parts match.
func dedupKey(a model.Article) string {
	return NormalizeTitle(a.Title) + "|" + NormalizeURL(a.URL)
}

// Merge concatenates the input lists, drops articles matching none of the
// keywords, removes duplicates (first occurrence wins), and sorts the
// survivors descending by publish time. Relative input order is kept as the
// tiebreak for equal timestamps.
func Merge(lists [][]model.Article, keywords []string) []model.Article {
	seen := make(map[string]struct{})
	result := make([]model.Article, 0)

	for _, list := range lists {
		for _, a := range list {
			if !MatchesKeywords(a, keywords) {
				continue
			}
			key := dedupKey(a)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			result = append(result, a)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].PublishedAt.After(result[j].PublishedAt)
	})
	return result
}

// SeenChecker reports whether a normalized title or normalized URL was already
// published in an earlier run.
type SeenChecker interface {
	SeenURL(url string) bool
	SeenTitle(title string) bool
}

// WithoutSeen drops articles whose normalized URL or normalized title was
// already published in an earlier run. Unlike the in-batch dedup key this is a
// disjunction: matching either part is enough to call it a repeat. Returns the
// surviving articles and the number filtered out.
func WithoutSeen(articles []model.Article, history SeenChecker) ([]model.Article, int) {
	kept := make([]model.Article, 0, len(articles))
	filtered := 0
	for _, a := range articles {
		if history.SeenURL(NormalizeURL(a.URL)) || history.SeenTitle(NormalizeTitle(a.Title)) {
			filtered++
			continue
		}
		kept = append(kept, a)
	}
	return kept, filtered
}

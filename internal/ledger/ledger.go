// Package ledger persists per-day topic counts across runs and computes
// rolling trend summaries.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"news_digest/internal/model"
)

const dateLayout = "2006-01-02"

// Store is a keyed read/write of the raw history document.
type Store interface {
	Read() ([]byte, error)
	Write(data []byte) error
}

// FileStore implements Store over a single JSON file. The parent directory is
// created on first write.
type FileStore struct {
	Path string
}

// Read returns the file contents; a missing file is an error for the caller
// to treat as empty history.
func (s FileStore) Read() ([]byte, error) {
	return os.ReadFile(s.Path)
}

// Write rewrites the file in full.
func (s FileStore) Write(data []byte) error {
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create ledger directory: %w", err)
		}
	}
	if err := os.WriteFile(s.Path, data, 0o644); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	return nil
}

// ReadHistory returns all recorded days sorted ascending by date. Missing or
// corrupt storage yields an empty history, never an error.
func ReadHistory(store Store) []model.TopicStatsDay {
	raw, err := store.Read()
	if err != nil {
		return nil
	}
	var history []model.TopicStatsDay
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil
	}
	sortByDate(history)
	return history
}

// UpsertDay replaces any existing entry for day.Date, appends the new one,
// re-sorts, rewrites the full history, and returns it.
func UpsertDay(store Store, day model.TopicStatsDay) ([]model.TopicStatsDay, error) {
	history := ReadHistory(store)

	kept := history[:0]
	for _, entry := range history {
		if entry.Date != day.Date {
			kept = append(kept, entry)
		}
	}
	kept = append(kept, day)
	sortByDate(kept)

	data, err := json.MarshalIndent(kept, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal history: %w", err)
	}
	if err := store.Write(data); err != nil {
		return nil, err
	}
	return kept, nil
}

// BuildTrendSummary computes rolling 7-day and 30-day per-topic counts ending
// today (wall clock). A stale history produces trailing zeros rather than an
// error.
func BuildTrendSummary(history []model.TopicStatsDay) []model.TopicTrendSummary {
	return BuildTrendSummaryAt(history, time.Now())
}

// BuildTrendSummaryAt is BuildTrendSummary with an explicit "today", oldest
// day first in each Trend7d.
func BuildTrendSummaryAt(history []model.TopicStatsDay, today time.Time) []model.TopicTrendSummary {
	byDate := make(map[string]model.TopicStatsDay, len(history))
	topics := make(map[model.Topic]struct{})
	for _, day := range history {
		byDate[day.Date] = day
		for topic := range day.ByTopic {
			topics[topic] = struct{}{}
		}
	}

	dates7 := lastNDates(today, 7)
	dates30 := lastNDates(today, 30)

	result := make([]model.TopicTrendSummary, 0, len(topics))
	for topic := range topics {
		trend7d := make([]int, 0, len(dates7))
		count7d := 0
		for _, date := range dates7 {
			n := byDate[date].ByTopic[topic]
			trend7d = append(trend7d, n)
			count7d += n
		}
		count30d := 0
		for _, date := range dates30 {
			count30d += byDate[date].ByTopic[topic]
		}
		result = append(result, model.TopicTrendSummary{
			Topic:    topic,
			Count7d:  count7d,
			Count30d: count30d,
			Trend7d:  trend7d,
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Count7d != result[j].Count7d {
			return result[i].Count7d > result[j].Count7d
		}
		return result[i].Topic < result[j].Topic
	})
	return result
}

// lastNDates returns the last n calendar days ending at today, oldest first.
func lastNDates(today time.Time, n int) []string {
	dates := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		dates = append(dates, today.AddDate(0, 0, -i).Format(dateLayout))
	}
	return dates
}

func sortByDate(history []model.TopicStatsDay) {
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Date < history[j].Date
	})
}

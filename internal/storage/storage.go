// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"time"

	"news_digest/internal/model"
)

// Storage is the interface for all persistence operations.
type Storage interface {
	MarkSeen(ctx context.Context, articles []model.Article) error
	RecentSeen(ctx context.Context, since time.Time) (*SeenSet, error)
	Prune(ctx context.Context, before time.Time) (int64, error)

	Close() error
}

// SeenSet holds the normalized titles and URLs of previously published
// articles, loaded once per run so duplicate checks stay in memory.
type SeenSet struct {
	urls   map[string]struct{}
	titles map[string]struct{}
}

// NewSeenSet returns an empty SeenSet.
func NewSeenSet() *SeenSet {
	return &SeenSet{
		urls:   make(map[string]struct{}),
		titles: make(map[string]struct{}),
	}
}

// Add records a normalized title and URL pair. Empty values are ignored so a
// missing URL never matches every other missing URL.
func (s *SeenSet) Add(normalizedTitle, normalizedURL string) {
	if normalizedTitle != "" {
		s.titles[normalizedTitle] = struct{}{}
	}
	if normalizedURL != "" {
		s.urls[normalizedURL] = struct{}{}
	}
}

// SeenURL reports whether the normalized URL was published before.
func (s *SeenSet) SeenURL(normalizedURL string) bool {
	if normalizedURL == "" {
		return false
	}
	_, ok := s.urls[normalizedURL]
	return ok
}

// SeenTitle reports whether the normalized title was published before.
func (s *SeenSet) SeenTitle(normalizedTitle string) bool {
	if normalizedTitle == "" {
		return false
	}
	_, ok := s.titles[normalizedTitle]
	return ok
}

// Len returns the number of distinct titles and URLs tracked.
func (s *SeenSet) Len() int {
	return len(s.titles) + len(s.urls)
}

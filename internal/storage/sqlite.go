package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"news_digest/internal/merge"
	"news_digest/internal/model"
	"news_digest/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// MarkSeen records the given articles as published. Articles whose normalized
// title and URL pair is already recorded are left untouched.
func (s *SQLite) MarkSeen(ctx context.Context, articles []model.Article) error {
	if len(articles) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(timeLayout)
	for _, a := range articles {
		var publishedAt *string
		if !a.PublishedAt.IsZero() {
			v := a.PublishedAt.UTC().Format(timeLayout)
			publishedAt = &v
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO seen_articles (article_id, normalized_title, normalized_url, source, published_at, seen_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT (normalized_title, normalized_url) DO NOTHING`,
			a.ID, merge.NormalizeTitle(a.Title), merge.NormalizeURL(a.URL), a.Source, publishedAt, now,
		)
		if err != nil {
			return fmt.Errorf("insert seen article: %w", err)
		}
	}
	return tx.Commit()
}

// RecentSeen loads the normalized titles and URLs of articles seen at or after
// since.
func (s *SQLite) RecentSeen(ctx context.Context, since time.Time) (*SeenSet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT normalized_title, normalized_url FROM seen_articles WHERE seen_at >= ?`,
		since.UTC().Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("query seen articles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	set := NewSeenSet()
	for rows.Next() {
		var title, url string
		if err := rows.Scan(&title, &url); err != nil {
			return nil, fmt.Errorf("scan seen article: %w", err)
		}
		set.Add(title, url)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seen articles: %w", err)
	}
	return set, nil
}

// Prune deletes records seen before the given time and reports how many rows
// were removed.
func (s *SQLite) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM seen_articles WHERE seen_at < ?`,
		before.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("delete seen articles: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

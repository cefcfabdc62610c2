// Package migrations holds the embedded goose migrations for the
// seen-articles database and applies them at startup.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

// FS carries the *.sql migration files compiled into the binary.
//
//go:embed *.sql
var FS embed.FS

// Run brings the schema of db up to date, applying any migrations that
// have not been run yet.
func Run(db *sql.DB) error {
	goose.SetBaseFS(FS)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

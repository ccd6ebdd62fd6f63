package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var fs embed.FS

// goose dialect and base FS are process globals, so concurrent Run calls
// against separate databases must not interleave.
var mu sync.Mutex

// Run applies all pending migrations against db.
func Run(db *sql.DB) error {
	mu.Lock()
	defer mu.Unlock()

	goose.SetBaseFS(fs)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

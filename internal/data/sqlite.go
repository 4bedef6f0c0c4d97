package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"
)

const memoryPath = ":memory:"

// Per-connection pragmas. They ride on the DSN so that every connection the
// pool opens gets them, not only the first one.
var (
	sqlitePragmas     = []string{"foreign_keys(1)", "busy_timeout(10000)"}
	sqliteFilePragmas = []string{"journal_mode(WAL)", "synchronous(NORMAL)"}
)

// SQLiteDSN builds the modernc DSN for path with the connection pragmas applied.
func SQLiteDSN(path string) string {
	pragmas := sqlitePragmas
	if path != memoryPath {
		pragmas = append(append([]string{}, sqliteFilePragmas...), sqlitePragmas...)
	}
	params := make([]string, 0, len(pragmas))
	for _, p := range pragmas {
		params = append(params, "_pragma="+p)
	}
	return path + "?" + strings.Join(params, "&")
}

// OpenSQLite opens the SQLite database at path with WAL journaling, a busy
// timeout and foreign keys enabled on every connection. ":memory:" opens a
// private in-memory database pinned to a single connection.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		path = memoryPath
	}
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", SQLiteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if path == memoryPath {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return db, nil
}

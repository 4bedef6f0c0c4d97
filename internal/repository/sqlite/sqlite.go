// Package sqlite provides SQLite-backed implementations of the snippet and
// misuse repositories for single-node deployments and tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roguepikachu/reviewsite/internal/repository"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const schema = `
CREATE TABLE IF NOT EXISTS misuses (
    misuse_muid TEXT PRIMARY KEY,
    project_muid TEXT NOT NULL,
    version_muid TEXT NOT NULL,
    file TEXT NOT NULL,
    method TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS snippets (
    id TEXT PRIMARY KEY,
    project_muid TEXT NOT NULL,
    version_muid TEXT NOT NULL,
    file TEXT NOT NULL,
    line INTEGER NOT NULL,
    snippet TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    UNIQUE (project_muid, version_muid, file, line)
);
`

// EnsureSchema creates required tables if they don't exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Timestamps are stored as unix nanoseconds.
func toUnix(t time.Time) int64 { return t.UTC().UnixNano() }

func fromUnix(n int64) time.Time { return time.Unix(0, n).UTC() }

// translate maps driver errors onto repository sentinels.
func translate(op string, err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_CONSTRAINT:
			return fmt.Errorf("%s: %w: %s", op, repository.ErrConflict, se.Error())
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

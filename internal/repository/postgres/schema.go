// Package postgres provides Postgres-backed implementations of the snippet and misuse repositories.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/roguepikachu/reviewsite/internal/repository"
	"github.com/roguepikachu/reviewsite/pkg/logger"
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
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    CONSTRAINT snippets_business_key UNIQUE (project_muid, version_muid, file, line)
);
`

// EnsureSchema creates required tables if they don't exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	logger.Info(ctx, "postgres schema ensured")
	return nil
}

// Postgres error codes that mean "another writer won, try again".
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// translate maps driver errors onto repository sentinels.
func translate(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation, codeSerializationFailure, codeDeadlockDetected:
			return fmt.Errorf("%s: %w: %s", op, repository.ErrConflict, pgErr.Message)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

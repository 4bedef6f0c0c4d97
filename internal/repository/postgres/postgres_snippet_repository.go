package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/roguepikachu/reviewsite/internal/domain"
	"github.com/roguepikachu/reviewsite/internal/repository"
)

const snippetColumns = `id, project_muid, version_muid, file, line, snippet, created_at, updated_at`

// SnippetRepository implements repository.SnippetRepository using Postgres.
type SnippetRepository struct {
	pool *pgxpool.Pool
}

// NewSnippetRepository creates a new Postgres-backed snippet repository.
func NewSnippetRepository(pool *pgxpool.Pool) *SnippetRepository {
	return &SnippetRepository{pool: pool}
}

// EnsureSchema creates required tables if they don't exist.
func (r *SnippetRepository) EnsureSchema(ctx context.Context) error {
	return EnsureSchema(ctx, r.pool)
}

// Upsert inserts the snippet or overwrites the code of the row holding its business key.
// The unique constraint on the key makes the statement the arbiter between racing writers.
func (r *SnippetRepository) Upsert(ctx context.Context, s domain.Snippet) (domain.Snippet, error) {
	const q = `
INSERT INTO snippets (` + snippetColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (project_muid, version_muid, file, line)
DO UPDATE SET snippet = EXCLUDED.snippet, updated_at = EXCLUDED.updated_at
RETURNING ` + snippetColumns
	row := r.pool.QueryRow(ctx, q, s.ID, s.ProjectID, s.VersionID, s.File, s.Line, s.Code, s.CreatedAt, s.UpdatedAt)
	out, err := scanSnippet(row)
	if err != nil {
		return domain.Snippet{}, translate("upsert snippet", err)
	}
	return out, nil
}

// FindByID retrieves a snippet by its ID from Postgres.
func (r *SnippetRepository) FindByID(ctx context.Context, id string) (domain.Snippet, error) {
	const q = `SELECT ` + snippetColumns + ` FROM snippets WHERE id = $1`
	s, err := scanSnippet(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Snippet{}, repository.ErrNotFound
		}
		return domain.Snippet{}, fmt.Errorf("query snippet: %w", err)
	}
	return s, nil
}

// FindByKey retrieves a snippet by its business key.
func (r *SnippetRepository) FindByKey(ctx context.Context, key domain.SnippetKey) (domain.Snippet, error) {
	const q = `SELECT ` + snippetColumns + ` FROM snippets
WHERE project_muid = $1 AND version_muid = $2 AND file = $3 AND line = $4`
	s, err := scanSnippet(r.pool.QueryRow(ctx, q, key.ProjectID, key.VersionID, key.File, key.Line))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Snippet{}, repository.ErrNotFound
		}
		return domain.Snippet{}, fmt.Errorf("query snippet by key: %w", err)
	}
	return s, nil
}

// ListByFile returns the snippets of one file ordered by line.
func (r *SnippetRepository) ListByFile(ctx context.Context, projectID, versionID, file string) ([]domain.Snippet, error) {
	const q = `SELECT ` + snippetColumns + ` FROM snippets
WHERE project_muid = $1 AND version_muid = $2 AND file = $3
ORDER BY line ASC`
	rows, err := r.pool.Query(ctx, q, projectID, versionID, file)
	if err != nil {
		return nil, fmt.Errorf("list snippets: %w", err)
	}
	defer rows.Close()
	res := make([]domain.Snippet, 0)
	for rows.Next() {
		s, err := scanSnippet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snippet: %w", err)
		}
		res = append(res, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return res, nil
}

// Delete removes the snippet with the given ID and returns the removed row.
func (r *SnippetRepository) Delete(ctx context.Context, id string) (domain.Snippet, error) {
	const q = `DELETE FROM snippets WHERE id = $1 RETURNING ` + snippetColumns
	s, err := scanSnippet(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Snippet{}, repository.ErrNotFound
		}
		return domain.Snippet{}, translate("delete snippet", err)
	}
	return s, nil
}

func scanSnippet(row pgx.Row) (domain.Snippet, error) {
	var s domain.Snippet
	err := row.Scan(&s.ID, &s.ProjectID, &s.VersionID, &s.File, &s.Line, &s.Code, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

var _ repository.SnippetRepository = (*SnippetRepository)(nil)

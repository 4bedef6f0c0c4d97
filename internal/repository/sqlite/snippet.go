package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roguepikachu/reviewsite/internal/domain"
	"github.com/roguepikachu/reviewsite/internal/repository"
)

const snippetColumns = `id, project_muid, version_muid, file, line, snippet, created_at, updated_at`

// SnippetRepository implements repository.SnippetRepository on SQLite.
type SnippetRepository struct {
	db *sql.DB
}

// NewSnippetRepository creates a SQLite-backed snippet repository.
func NewSnippetRepository(db *sql.DB) *SnippetRepository {
	return &SnippetRepository{db: db}
}

func (r *SnippetRepository) Upsert(ctx context.Context, s domain.Snippet) (domain.Snippet, error) {
	const q = `
INSERT INTO snippets (` + snippetColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (project_muid, version_muid, file, line)
DO UPDATE SET snippet = excluded.snippet, updated_at = excluded.updated_at
RETURNING ` + snippetColumns
	row := r.db.QueryRowContext(ctx, q, s.ID, s.ProjectID, s.VersionID, s.File, s.Line, s.Code, toUnix(s.CreatedAt), toUnix(s.UpdatedAt))
	out, err := scanSnippet(row)
	if err != nil {
		return domain.Snippet{}, translate("upsert snippet", err)
	}
	return out, nil
}

func (r *SnippetRepository) FindByID(ctx context.Context, id string) (domain.Snippet, error) {
	const q = `SELECT ` + snippetColumns + ` FROM snippets WHERE id = ?`
	s, err := scanSnippet(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Snippet{}, repository.ErrNotFound
		}
		return domain.Snippet{}, fmt.Errorf("query snippet: %w", err)
	}
	return s, nil
}

func (r *SnippetRepository) FindByKey(ctx context.Context, key domain.SnippetKey) (domain.Snippet, error) {
	const q = `SELECT ` + snippetColumns + ` FROM snippets
WHERE project_muid = ? AND version_muid = ? AND file = ? AND line = ?`
	s, err := scanSnippet(r.db.QueryRowContext(ctx, q, key.ProjectID, key.VersionID, key.File, key.Line))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Snippet{}, repository.ErrNotFound
		}
		return domain.Snippet{}, fmt.Errorf("query snippet by key: %w", err)
	}
	return s, nil
}

func (r *SnippetRepository) ListByFile(ctx context.Context, projectID, versionID, file string) ([]domain.Snippet, error) {
	const q = `SELECT ` + snippetColumns + ` FROM snippets
WHERE project_muid = ? AND version_muid = ? AND file = ?
ORDER BY line ASC`
	rows, err := r.db.QueryContext(ctx, q, projectID, versionID, file)
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
	return res, rows.Err()
}

func (r *SnippetRepository) Delete(ctx context.Context, id string) (domain.Snippet, error) {
	const q = `DELETE FROM snippets WHERE id = ? RETURNING ` + snippetColumns
	s, err := scanSnippet(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Snippet{}, repository.ErrNotFound
		}
		return domain.Snippet{}, translate("delete snippet", err)
	}
	return s, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnippet(row scanner) (domain.Snippet, error) {
	var (
		s                domain.Snippet
		created, updated int64
	)
	if err := row.Scan(&s.ID, &s.ProjectID, &s.VersionID, &s.File, &s.Line, &s.Code, &created, &updated); err != nil {
		return domain.Snippet{}, err
	}
	s.CreatedAt = fromUnix(created)
	s.UpdatedAt = fromUnix(updated)
	return s, nil
}

var _ repository.SnippetRepository = (*SnippetRepository)(nil)

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

// MisuseRepository implements repository.MisuseRepository using Postgres.
type MisuseRepository struct {
	pool *pgxpool.Pool
}

// NewMisuseRepository creates a new Postgres-backed misuse repository.
func NewMisuseRepository(pool *pgxpool.Pool) *MisuseRepository {
	return &MisuseRepository{pool: pool}
}

func (r *MisuseRepository) FindByID(ctx context.Context, id string) (domain.Misuse, error) {
	const q = `
SELECT misuse_muid, project_muid, version_muid, file, method, description
FROM misuses
WHERE misuse_muid = $1
`
	var m domain.Misuse
	err := r.pool.QueryRow(ctx, q, id).Scan(&m.ID, &m.ProjectID, &m.VersionID, &m.File, &m.Method, &m.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Misuse{}, repository.ErrNotFound
		}
		return domain.Misuse{}, fmt.Errorf("query misuse: %w", err)
	}
	return m, nil
}

func (r *MisuseRepository) Upsert(ctx context.Context, m domain.Misuse) error {
	const q = `
INSERT INTO misuses (misuse_muid, project_muid, version_muid, file, method, description)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (misuse_muid) DO UPDATE SET
    project_muid = EXCLUDED.project_muid,
    version_muid = EXCLUDED.version_muid,
    file = EXCLUDED.file,
    method = EXCLUDED.method,
    description = EXCLUDED.description
`
	if _, err := r.pool.Exec(ctx, q, m.ID, m.ProjectID, m.VersionID, m.File, m.Method, m.Description); err != nil {
		return translate("upsert misuse", err)
	}
	return nil
}

var _ repository.MisuseRepository = (*MisuseRepository)(nil)

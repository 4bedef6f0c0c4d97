package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roguepikachu/reviewsite/internal/domain"
	"github.com/roguepikachu/reviewsite/internal/repository"
)

// MisuseRepository implements repository.MisuseRepository on SQLite.
type MisuseRepository struct {
	db *sql.DB
}

// NewMisuseRepository creates a SQLite-backed misuse repository.
func NewMisuseRepository(db *sql.DB) *MisuseRepository {
	return &MisuseRepository{db: db}
}

func (r *MisuseRepository) FindByID(ctx context.Context, id string) (domain.Misuse, error) {
	const q = `SELECT misuse_muid, project_muid, version_muid, file, method, description FROM misuses WHERE misuse_muid = ?`
	var m domain.Misuse
	err := r.db.QueryRowContext(ctx, q, id).Scan(&m.ID, &m.ProjectID, &m.VersionID, &m.File, &m.Method, &m.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Misuse{}, repository.ErrNotFound
		}
		return domain.Misuse{}, fmt.Errorf("query misuse: %w", err)
	}
	return m, nil
}

func (r *MisuseRepository) Upsert(ctx context.Context, m domain.Misuse) error {
	const q = `
INSERT INTO misuses (misuse_muid, project_muid, version_muid, file, method, description)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (misuse_muid) DO UPDATE SET
    project_muid = excluded.project_muid,
    version_muid = excluded.version_muid,
    file = excluded.file,
    method = excluded.method,
    description = excluded.description`
	if _, err := r.db.ExecContext(ctx, q, m.ID, m.ProjectID, m.VersionID, m.File, m.Method, m.Description); err != nil {
		return translate("upsert misuse", err)
	}
	return nil
}

var _ repository.MisuseRepository = (*MisuseRepository)(nil)

// Package repository defines the storage contracts for snippets and misuses.
package repository

import (
	"context"
	"errors"

	"github.com/roguepikachu/reviewsite/internal/domain"
)

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write lost a race the store could not settle.
	ErrConflict = errors.New("write conflict")
)

// SnippetRepository stores snippets keyed by ID and unique on their business key.
type SnippetRepository interface {
	// Upsert atomically inserts s or, when a row with the same business key
	// exists, overwrites its code and UpdatedAt. The returned snippet carries
	// the durable ID and CreatedAt of the stored row.
	Upsert(ctx context.Context, s domain.Snippet) (domain.Snippet, error)
	FindByID(ctx context.Context, id string) (domain.Snippet, error)
	// FindByKey returns the row holding a business key. The request path
	// never needs it; store tests use it to check key uniqueness.
	FindByKey(ctx context.Context, key domain.SnippetKey) (domain.Snippet, error)
	// ListByFile returns the snippets of one file ordered by line.
	ListByFile(ctx context.Context, projectID, versionID, file string) ([]domain.Snippet, error)
	// Delete removes the row with the given ID and returns it.
	Delete(ctx context.Context, id string) (domain.Snippet, error)
}

// MisuseRepository stores the misuses snippets are attached to.
type MisuseRepository interface {
	FindByID(ctx context.Context, id string) (domain.Misuse, error)
	Upsert(ctx context.Context, m domain.Misuse) error
}

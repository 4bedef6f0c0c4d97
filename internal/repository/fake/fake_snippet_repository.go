// Package fake provides in-memory fakes for repository interfaces for testing.
package fake

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/roguepikachu/reviewsite/internal/domain"
	"github.com/roguepikachu/reviewsite/internal/repository"
)

// SnippetRepository is an in-memory fake implementing repository.SnippetRepository.
// A single mutex makes Upsert atomic so it can stand in for the database in race tests.
type SnippetRepository struct {
	mu    sync.Mutex
	byID  map[string]domain.Snippet
	byKey map[domain.SnippetKey]string
	newID func() string
	// UpsertErr, when set, is returned by Upsert before touching state.
	UpsertErr error
}

// Option configures the fake repository.
type Option func(*SnippetRepository)

// WithIDs overrides the ID source used for new rows.
func WithIDs(f func() string) Option { return func(r *SnippetRepository) { r.newID = f } }

// WithItems seeds the repository with the provided snippets.
func WithItems(items ...domain.Snippet) Option {
	return func(r *SnippetRepository) {
		for _, s := range items {
			r.byID[s.ID] = s
			r.byKey[s.Key()] = s.ID
		}
	}
}

// NewSnippetRepository creates a new in-memory fake repo.
func NewSnippetRepository(opts ...Option) *SnippetRepository {
	r := &SnippetRepository{
		byID:  make(map[string]domain.Snippet),
		byKey: make(map[domain.SnippetKey]string),
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *SnippetRepository) Upsert(_ context.Context, s domain.Snippet) (domain.Snippet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.UpsertErr != nil {
		return domain.Snippet{}, r.UpsertErr
	}
	if id, ok := r.byKey[s.Key()]; ok {
		existing := r.byID[id]
		existing.Code = s.Code
		existing.UpdatedAt = s.UpdatedAt
		r.byID[id] = existing
		return existing, nil
	}
	if s.ID == "" {
		s.ID = r.newID()
	}
	r.byID[s.ID] = s
	r.byKey[s.Key()] = s.ID
	return s, nil
}

func (r *SnippetRepository) FindByID(_ context.Context, id string) (domain.Snippet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byID[id]; ok {
		return s, nil
	}
	return domain.Snippet{}, repository.ErrNotFound
}

func (r *SnippetRepository) FindByKey(_ context.Context, key domain.SnippetKey) (domain.Snippet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byKey[key]; ok {
		return r.byID[id], nil
	}
	return domain.Snippet{}, repository.ErrNotFound
}

func (r *SnippetRepository) ListByFile(_ context.Context, projectID, versionID, file string) ([]domain.Snippet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]domain.Snippet, 0)
	for _, s := range r.byID {
		if s.ProjectID == projectID && s.VersionID == versionID && s.File == file {
			items = append(items, s)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Line < items[j].Line })
	return items, nil
}

func (r *SnippetRepository) Delete(_ context.Context, id string) (domain.Snippet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return domain.Snippet{}, repository.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byKey, s.Key())
	return s, nil
}

// Len reports the number of stored snippets.
func (r *SnippetRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

var _ repository.SnippetRepository = (*SnippetRepository)(nil)

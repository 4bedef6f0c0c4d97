package fake

import (
	"context"
	"sync"

	"github.com/roguepikachu/reviewsite/internal/domain"
	"github.com/roguepikachu/reviewsite/internal/repository"
)

// MisuseRepository is an in-memory fake implementing repository.MisuseRepository.
type MisuseRepository struct {
	mu    sync.Mutex
	byID  map[string]domain.Misuse
	reads int
}

// NewMisuseRepository creates a fake seeded with items.
func NewMisuseRepository(items ...domain.Misuse) *MisuseRepository {
	r := &MisuseRepository{byID: make(map[string]domain.Misuse)}
	for _, m := range items {
		r.byID[m.ID] = m
	}
	return r
}

func (r *MisuseRepository) FindByID(_ context.Context, id string) (domain.Misuse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	if m, ok := r.byID[id]; ok {
		return m, nil
	}
	return domain.Misuse{}, repository.ErrNotFound
}

func (r *MisuseRepository) Upsert(_ context.Context, m domain.Misuse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[m.ID] = m
	return nil
}

// ReadCount reports how many FindByID calls reached the fake.
func (r *MisuseRepository) ReadCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reads
}

var _ repository.MisuseRepository = (*MisuseRepository)(nil)

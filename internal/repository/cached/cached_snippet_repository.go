// Package cached provides cache-aside wrappers over the primary repositories using Redis.
package cached

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/roguepikachu/reviewsite/internal/domain"
	"github.com/roguepikachu/reviewsite/internal/repository"
	"github.com/roguepikachu/reviewsite/pkg/logger"
)

// key helpers
func keySnippet(id string) string { return "cache:snippet:" + id }
func keyFileList(projectID, versionID, file string) string {
	b, _ := json.Marshal([]string{projectID, versionID, file})
	return "cache:snippets:" + string(b)
}

// invalidationHold is how long a write blocks refills of the keys it touched.
// Reads that loaded the primary before the write finished cannot put their
// stale copy back during that window.
const invalidationHold = 2 * time.Second

// tombstone marks an invalidated entry. It is never valid JSON for a snippet.
const tombstone = "-"

// SnippetRepository is a cache-aside repository combining Redis with a primary store.
// Writes go to the primary first and then invalidate; only reads fill the
// cache, with SET NX. Cache failures never fail a request.
type SnippetRepository struct {
	primary repository.SnippetRepository
	redis   *redis.Client
	ttl     time.Duration
}

// NewSnippetRepository creates a new cached repository.
func NewSnippetRepository(primary repository.SnippetRepository, redis *redis.Client, ttl time.Duration) *SnippetRepository {
	return &SnippetRepository{primary: primary, redis: redis, ttl: ttl}
}

// Upsert writes through to primary and invalidates the snippet entry and the file listing.
func (r *SnippetRepository) Upsert(ctx context.Context, s domain.Snippet) (domain.Snippet, error) {
	out, err := r.primary.Upsert(ctx, s)
	if err != nil {
		return domain.Snippet{}, err
	}
	r.invalidate(ctx, keySnippet(out.ID), keyFileList(out.ProjectID, out.VersionID, out.File))
	return out, nil
}

// FindByID attempts Redis then falls back to primary.
func (r *SnippetRepository) FindByID(ctx context.Context, id string) (domain.Snippet, error) {
	var s domain.Snippet
	if r.load(ctx, keySnippet(id), &s) {
		return s, nil
	}
	s, err := r.primary.FindByID(ctx, id)
	if err != nil {
		return domain.Snippet{}, err
	}
	r.fill(ctx, keySnippet(s.ID), s)
	return s, nil
}

// FindByKey is not cached; key lookups only happen on the write path.
func (r *SnippetRepository) FindByKey(ctx context.Context, key domain.SnippetKey) (domain.Snippet, error) {
	return r.primary.FindByKey(ctx, key)
}

// ListByFile caches the listing of one file.
func (r *SnippetRepository) ListByFile(ctx context.Context, projectID, versionID, file string) ([]domain.Snippet, error) {
	k := keyFileList(projectID, versionID, file)
	var items []domain.Snippet
	if r.load(ctx, k, &items) {
		return items, nil
	}
	items, err := r.primary.ListByFile(ctx, projectID, versionID, file)
	if err != nil {
		return nil, err
	}
	r.fill(ctx, k, items)
	return items, nil
}

// Delete removes from primary and invalidates both cache entries.
func (r *SnippetRepository) Delete(ctx context.Context, id string) (domain.Snippet, error) {
	s, err := r.primary.Delete(ctx, id)
	if err != nil {
		return domain.Snippet{}, err
	}
	r.invalidate(ctx, keySnippet(id), keyFileList(s.ProjectID, s.VersionID, s.File))
	return s, nil
}

func (r *SnippetRepository) load(ctx context.Context, key string, dst any) bool {
	val, err := r.redis.Get(ctx, key).Result()
	if err != nil || val == "" || val == tombstone {
		return false
	}
	return json.Unmarshal([]byte(val), dst) == nil
}

func (r *SnippetRepository) fill(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	// NX: never overwrite a tombstone left by a write
	if err := r.redis.SetNX(ctx, key, data, r.ttl).Err(); err != nil {
		logger.Warn(ctx, "cache set %s failed: %v", key, err)
	}
}

func (r *SnippetRepository) invalidate(ctx context.Context, keys ...string) {
	_, err := r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			pipe.Set(ctx, k, tombstone, invalidationHold)
		}
		return nil
	})
	if err != nil {
		logger.Warn(ctx, "cache invalidate %v failed: %v", keys, err)
	}
}

var _ repository.SnippetRepository = (*SnippetRepository)(nil)

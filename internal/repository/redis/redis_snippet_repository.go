// Package redis provides a Redis-backed implementation of the snippet and misuse repositories.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/roguepikachu/reviewsite/internal/domain"
	"github.com/roguepikachu/reviewsite/internal/repository"
)

// key helpers
func keySnippet(id string) string { return "snippet:" + id }

// keyIndex maps a business key to the snippet ID holding it. The parts are
// JSON-encoded so separators inside file paths cannot collide.
func keyIndex(k domain.SnippetKey) string {
	b, _ := json.Marshal([]any{k.ProjectID, k.VersionID, k.File, k.Line})
	return "snippet:key:" + string(b)
}

// keyFile is a sorted set of snippet IDs of one file, scored by line.
func keyFile(projectID, versionID, file string) string {
	b, _ := json.Marshal([]string{projectID, versionID, file})
	return "snippet:file:" + string(b)
}

// SnippetRepository implements repository.SnippetRepository using Redis as backend.
// Writes run in WATCH/MULTI transactions; a transaction that loses a race
// reports repository.ErrConflict.
type SnippetRepository struct {
	client *redis.Client
}

// NewSnippetRepository creates a new Redis-backed snippet repository.
func NewSnippetRepository(client *redis.Client) *SnippetRepository {
	return &SnippetRepository{client: client}
}

// Upsert stores s, or overwrites the code of the snippet already holding its key.
func (r *SnippetRepository) Upsert(ctx context.Context, s domain.Snippet) (domain.Snippet, error) {
	idx := keyIndex(s.Key())
	var out domain.Snippet
	txf := func(tx *redis.Tx) error {
		out = s
		id, err := tx.Get(ctx, idx).Result()
		switch {
		case err == nil:
			existing, err := getSnippet(ctx, tx, id)
			if err != nil {
				return err
			}
			existing.Code = s.Code
			existing.UpdatedAt = s.UpdatedAt
			out = existing
		case !errors.Is(err, redis.Nil):
			return err
		}
		data, err := json.Marshal(out)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, idx, out.ID, 0)
			pipe.Set(ctx, keySnippet(out.ID), data, 0)
			pipe.ZAdd(ctx, keyFile(out.ProjectID, out.VersionID, out.File), &redis.Z{Score: float64(out.Line), Member: out.ID})
			return nil
		})
		return err
	}
	if err := r.client.Watch(ctx, txf, idx); err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return domain.Snippet{}, fmt.Errorf("upsert snippet: %w", repository.ErrConflict)
		}
		return domain.Snippet{}, fmt.Errorf("upsert snippet: %w", err)
	}
	return out, nil
}

// FindByID retrieves a snippet by its ID from Redis.
func (r *SnippetRepository) FindByID(ctx context.Context, id string) (domain.Snippet, error) {
	return getSnippet(ctx, r.client, id)
}

// FindByKey resolves the key index then loads the snippet.
func (r *SnippetRepository) FindByKey(ctx context.Context, key domain.SnippetKey) (domain.Snippet, error) {
	id, err := r.client.Get(ctx, keyIndex(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Snippet{}, repository.ErrNotFound
		}
		return domain.Snippet{}, fmt.Errorf("redis get: %w", err)
	}
	return getSnippet(ctx, r.client, id)
}

// ListByFile returns the snippets of one file ordered by line.
func (r *SnippetRepository) ListByFile(ctx context.Context, projectID, versionID, file string) ([]domain.Snippet, error) {
	ids, err := r.client.ZRange(ctx, keyFile(projectID, versionID, file), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis zrange: %w", err)
	}
	res := make([]domain.Snippet, 0, len(ids))
	if len(ids) == 0 {
		return res, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keySnippet(id)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			// deleted between ZRANGE and MGET
			continue
		}
		var s domain.Snippet
		if err := json.Unmarshal([]byte(str), &s); err != nil {
			return nil, fmt.Errorf("unmarshal: %w", err)
		}
		res = append(res, s)
	}
	return res, nil
}

// Delete removes the snippet, its key index entry and its file set membership.
func (r *SnippetRepository) Delete(ctx context.Context, id string) (domain.Snippet, error) {
	var removed domain.Snippet
	txf := func(tx *redis.Tx) error {
		s, err := getSnippet(ctx, tx, id)
		if err != nil {
			return err
		}
		removed = s
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, keySnippet(id), keyIndex(s.Key()))
			pipe.ZRem(ctx, keyFile(s.ProjectID, s.VersionID, s.File), id)
			return nil
		})
		return err
	}
	if err := r.client.Watch(ctx, txf, keySnippet(id)); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return domain.Snippet{}, repository.ErrNotFound
		case errors.Is(err, redis.TxFailedErr):
			return domain.Snippet{}, fmt.Errorf("delete snippet: %w", repository.ErrConflict)
		}
		return domain.Snippet{}, fmt.Errorf("delete snippet: %w", err)
	}
	return removed, nil
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getSnippet(ctx context.Context, c getter, id string) (domain.Snippet, error) {
	val, err := c.Get(ctx, keySnippet(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Snippet{}, repository.ErrNotFound
		}
		return domain.Snippet{}, fmt.Errorf("redis get: %w", err)
	}
	var s domain.Snippet
	if err := json.Unmarshal([]byte(val), &s); err != nil {
		return domain.Snippet{}, fmt.Errorf("unmarshal: %w", err)
	}
	return s, nil
}

var _ repository.SnippetRepository = (*SnippetRepository)(nil)

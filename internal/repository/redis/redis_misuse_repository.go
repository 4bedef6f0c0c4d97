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

func keyMisuse(id string) string { return "misuse:" + id }

// MisuseRepository implements repository.MisuseRepository using Redis.
type MisuseRepository struct {
	client *redis.Client
}

// NewMisuseRepository creates a new Redis-backed misuse repository.
func NewMisuseRepository(client *redis.Client) *MisuseRepository {
	return &MisuseRepository{client: client}
}

func (r *MisuseRepository) FindByID(ctx context.Context, id string) (domain.Misuse, error) {
	val, err := r.client.Get(ctx, keyMisuse(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Misuse{}, repository.ErrNotFound
		}
		return domain.Misuse{}, fmt.Errorf("redis get: %w", err)
	}
	var m domain.Misuse
	if err := json.Unmarshal([]byte(val), &m); err != nil {
		return domain.Misuse{}, fmt.Errorf("unmarshal: %w", err)
	}
	return m, nil
}

func (r *MisuseRepository) Upsert(ctx context.Context, m domain.Misuse) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, keyMisuse(m.ID), data, 0).Err()
}

var _ repository.MisuseRepository = (*MisuseRepository)(nil)

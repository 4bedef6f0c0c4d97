package cached

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/roguepikachu/reviewsite/internal/domain"
	"github.com/roguepikachu/reviewsite/internal/repository"
	"github.com/roguepikachu/reviewsite/pkg/logger"
	"golang.org/x/sync/singleflight"
)

func keyMisuse(id string) string { return "cache:misuse:" + id }

// MisuseRepository caches misuse lookups. Concurrent misses for the same ID
// share one primary read.
type MisuseRepository struct {
	primary repository.MisuseRepository
	redis   *redis.Client
	ttl     time.Duration
	group   singleflight.Group
}

// NewMisuseRepository creates a new cached misuse repository.
func NewMisuseRepository(primary repository.MisuseRepository, redis *redis.Client, ttl time.Duration) *MisuseRepository {
	return &MisuseRepository{primary: primary, redis: redis, ttl: ttl}
}

func (r *MisuseRepository) FindByID(ctx context.Context, id string) (domain.Misuse, error) {
	if val, err := r.redis.Get(ctx, keyMisuse(id)).Result(); err == nil && val != "" {
		var m domain.Misuse
		if jsonErr := json.Unmarshal([]byte(val), &m); jsonErr == nil {
			return m, nil
		}
	}
	v, err, _ := r.group.Do(id, func() (any, error) {
		m, err := r.primary.FindByID(ctx, id)
		if err != nil {
			return domain.Misuse{}, err
		}
		data, _ := json.Marshal(m)
		if err := r.redis.Set(ctx, keyMisuse(id), data, r.ttl).Err(); err != nil {
			logger.Warn(ctx, "cache set misuse %s failed: %v", id, err)
		}
		return m, nil
	})
	if err != nil {
		return domain.Misuse{}, err
	}
	return v.(domain.Misuse), nil
}

// Upsert writes through to primary and evicts the cached copy.
func (r *MisuseRepository) Upsert(ctx context.Context, m domain.Misuse) error {
	if err := r.primary.Upsert(ctx, m); err != nil {
		return err
	}
	if err := r.redis.Del(ctx, keyMisuse(m.ID)).Err(); err != nil {
		logger.Warn(ctx, "cache evict misuse %s failed: %v", m.ID, err)
	}
	return nil
}

var _ repository.MisuseRepository = (*MisuseRepository)(nil)

// Package app assembles the stores, service and router from configuration.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roguepikachu/reviewsite/internal/config"
	"github.com/roguepikachu/reviewsite/internal/data"
	"github.com/roguepikachu/reviewsite/internal/http/handler"
	"github.com/roguepikachu/reviewsite/internal/http/router"
	"github.com/roguepikachu/reviewsite/internal/repository"
	"github.com/roguepikachu/reviewsite/internal/repository/cached"
	"github.com/roguepikachu/reviewsite/internal/repository/postgres"
	redisrepo "github.com/roguepikachu/reviewsite/internal/repository/redis"
	"github.com/roguepikachu/reviewsite/internal/repository/sqlite"
	"github.com/roguepikachu/reviewsite/internal/service"
	"github.com/roguepikachu/reviewsite/pkg/logger"
)

// Stores holds the repositories selected by STORE_DRIVER and the clients behind them.
type Stores struct {
	Snippets repository.SnippetRepository
	Misuses  repository.MisuseRepository

	pg    *pgxpool.Pool
	db    *sql.DB
	redis *redis.Client
}

// OpenStores connects to the configured primary store and, for SQL stores
// with caching enabled, wraps it with the Redis cache.
func OpenStores(ctx context.Context, cfg config.Config) (*Stores, error) {
	s := &Stores{}
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := data.NewPostgresPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		s.pg = pool
		s.Snippets = postgres.NewSnippetRepository(pool)
		s.Misuses = postgres.NewMisuseRepository(pool)
	case config.StoreSQLite:
		db, err := data.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		s.db = db
		s.Snippets = sqlite.NewSnippetRepository(db)
		s.Misuses = sqlite.NewMisuseRepository(db)
	case config.StoreRedis:
		s.redis = data.NewRedisClient(cfg)
		s.Snippets = redisrepo.NewSnippetRepository(s.redis)
		s.Misuses = redisrepo.NewMisuseRepository(s.redis)
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}

	if cfg.CacheEnabled {
		s.redis = data.NewRedisClient(cfg)
		s.Snippets = cached.NewSnippetRepository(s.Snippets, s.redis, cfg.CacheTTL())
		s.Misuses = cached.NewMisuseRepository(s.Misuses, s.redis, cfg.CacheTTL())
		logger.Info(ctx, "redis cache enabled in front of %s, ttl %s", cfg.StoreDriver, cfg.CacheTTL())
	}
	return s, nil
}

// Migrate creates the SQL schema. It is a no-op for the Redis store.
func (s *Stores) Migrate(ctx context.Context) error {
	switch {
	case s.pg != nil:
		return postgres.EnsureSchema(ctx, s.pg)
	case s.db != nil:
		return sqlite.EnsureSchema(ctx, s.db)
	}
	return nil
}

// HealthOptions returns readiness checks for every open client.
func (s *Stores) HealthOptions() []handler.HealthOption {
	var opts []handler.HealthOption
	if s.pg != nil {
		opts = append(opts, handler.WithPostgres(s.pg))
	}
	if s.db != nil {
		opts = append(opts, handler.WithSQLite(s.db))
	}
	if s.redis != nil {
		opts = append(opts, handler.WithRedis(s.redis))
	}
	return opts
}

// Close releases every client.
func (s *Stores) Close() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.pg != nil {
		s.pg.Close()
	}
}

// NewRouter builds the HTTP engine serving the snippet service on top of s.
func NewRouter(cfg config.Config, s *Stores) *gin.Engine {
	svc := service.NewService(s.Snippets, s.Misuses, service.RealClock{})
	return router.NewRouter(handler.NewHandler(svc, cfg.SiteBaseURL), handler.NewHealthHandler(s.HealthOptions()...))
}

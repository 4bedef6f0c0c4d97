// Package handler provides the HTTP handlers of the review site.
package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roguepikachu/reviewsite/pkg"
	"github.com/roguepikachu/reviewsite/pkg/logger"
)

// Health is the simple health endpoint.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, pkg.NewResponse(http.StatusOK, gin.H{"ok": true}, "ok"))
}

// Pinger is a downstream dependency that can be pinged.
type Pinger interface {
	Ping(ctx context.Context) error
}

type namedPinger struct {
	name string
	p    Pinger
}

// HealthHandler provides liveness and readiness checks checking downstream deps.
type HealthHandler struct {
	deps        []namedPinger
	pingTimeout time.Duration
}

// HealthOption registers a dependency on a HealthHandler.
type HealthOption func(*HealthHandler)

// WithPostgres pings the Postgres pool.
func WithPostgres(pool *pgxpool.Pool) HealthOption {
	return WithPinger("postgres", pgPingerAdapter{pool})
}

// WithRedis pings the Redis client.
func WithRedis(c *redis.Client) HealthOption {
	return WithPinger("redis", redisPingerAdapter{c})
}

// WithSQLite pings the SQLite handle.
func WithSQLite(db *sql.DB) HealthOption {
	return WithPinger("sqlite", sqlPingerAdapter{db})
}

// WithPinger registers an arbitrary named dependency.
func WithPinger(name string, p Pinger) HealthOption {
	return func(h *HealthHandler) {
		h.deps = append(h.deps, namedPinger{name: name, p: p})
	}
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(opts ...HealthOption) *HealthHandler {
	h := &HealthHandler{pingTimeout: time.Second}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type pgPingerAdapter struct{ pool *pgxpool.Pool }

func (p pgPingerAdapter) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

type redisPingerAdapter struct{ c *redis.Client }

func (r redisPingerAdapter) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }

type sqlPingerAdapter struct{ db *sql.DB }

func (s sqlPingerAdapter) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Liveness reports that the process is up. Do not check external deps here.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, pkg.NewResponse(http.StatusOK, gin.H{"status": "alive"}, "ok"))
}

type check struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Readiness checks external dependencies to decide if we can serve traffic.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.pingTimeout)
	defer cancel()

	results := make([]check, 0, len(h.deps))
	ready := true
	for _, d := range h.deps {
		if err := d.p.Ping(ctx); err != nil {
			ready = false
			results = append(results, check{Name: d.name, Status: "down", Error: err.Error()})
			continue
		}
		results = append(results, check{Name: d.name, Status: "up"})
	}

	if ready {
		c.JSON(http.StatusOK, pkg.NewResponse(http.StatusOK, gin.H{"ready": true, "checks": results}, "ready"))
		return
	}
	logger.Warn(c.Request.Context(), "readiness failed: %+v", results)
	c.JSON(http.StatusServiceUnavailable, pkg.NewResponse(http.StatusServiceUnavailable, gin.H{"ready": false, "checks": results}, "not ready"))
}

// Package data provides low-level data clients and connection factories.
package data

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/roguepikachu/reviewsite/internal/config"
)

// PostgresDSN builds the connection string from cfg. POSTGRES_URL wins over the discrete fields.
func PostgresDSN(cfg config.Config) string {
	if cfg.PostgresURL != "" {
		return cfg.PostgresURL
	}
	host := cfg.PostgresHost
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.PostgresPort
	if port == "" {
		port = "5432"
	}
	user := cfg.PostgresUser
	if user == "" {
		user = "postgres"
	}
	db := cfg.PostgresDB
	if db == "" {
		db = "reviewsite"
	}
	sslmode := cfg.PostgresSSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, cfg.PostgresPassword, host, port, db, sslmode)
}

// NewPostgresPool creates a new pgx connection pool based on configuration.
func NewPostgresPool(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(PostgresDSN(cfg))
	if err != nil {
		return nil, err
	}
	pcfg.MaxConnIdleTime = 30 * time.Second
	pcfg.MaxConnLifetime = 30 * time.Minute
	return pgxpool.NewWithConfig(ctx, pcfg)
}

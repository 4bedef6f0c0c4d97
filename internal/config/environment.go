// Package config provides configuration loading and management for the review site.
package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
	"github.com/roguepikachu/reviewsite/pkg/logger"
)

// Supported values of STORE_DRIVER.
const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreRedis    = "redis"
)

// Config holds environment configuration for the review site.
type Config struct {
	// Port is the port on which the HTTP server listens.
	Port string `env:"REVIEWSITE_PORT" envDefault:"8080"`
	// SiteBaseURL is prefixed to the form's path when redirecting after a write.
	SiteBaseURL string `env:"SITE_BASE_URL"`

	// StoreDriver selects the primary store: postgres, sqlite or redis.
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`

	PostgresURL      string `env:"POSTGRES_URL"`
	PostgresHost     string `env:"POSTGRES_HOST"`
	PostgresPort     string `env:"POSTGRES_PORT"`
	PostgresUser     string `env:"POSTGRES_USER"`
	PostgresPassword string `env:"POSTGRES_PASSWORD"`
	PostgresDB       string `env:"POSTGRES_DB"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE"`

	SQLitePath string `env:"SQLITE_PATH" envDefault:"data/reviewsite.db"`

	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB   int    `env:"REDIS_DB"`

	// CacheEnabled puts Redis in front of a SQL store.
	CacheEnabled    bool `env:"CACHE_ENABLED" envDefault:"true"`
	CacheTTLSeconds int  `env:"CACHE_TTL_SECONDS" envDefault:"300"`
}

// CacheTTL returns the cache entry lifetime.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Conf holds the global configuration for the review site.
var Conf Config

func loadDotEnv() error {
	// Does not override existing environ variables.
	path := os.Getenv("DOTENV_PATHS")
	if path == "" {
		return nil
	}
	return godotenv.Load(strings.Split(path, ",")...)
}

// Load reads .env files and the environment into a Config.
func Load() (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, fmt.Errorf("load dotenv: %w", err)
	}
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	c.SiteBaseURL = strings.TrimRight(c.SiteBaseURL, "/")
	switch c.StoreDriver {
	case StorePostgres, StoreSQLite, StoreRedis:
	default:
		return Config{}, fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}
	if c.CacheTTLSeconds < 0 {
		return Config{}, fmt.Errorf("CACHE_TTL_SECONDS must not be negative")
	}
	return c, nil
}

// InitConf initializes the global configuration by loading environment variables and .env files.
func InitConf() {
	c, err := Load()
	if err != nil {
		logger.Fatal(context.Background(), err.Error())
	}
	Conf = c
}

package data

import (
	"github.com/go-redis/redis/v8"
	"github.com/roguepikachu/reviewsite/internal/config"
)

// NewRedisClient creates and returns a new Redis client from configuration.
func NewRedisClient(cfg config.Config) *redis.Client {
	addr := cfg.RedisAddr
	if addr == "" {
		addr = "localhost:6379"
	}
	return redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   cfg.RedisDB,
	})
}

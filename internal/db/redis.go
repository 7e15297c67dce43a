package db

import (
	"backend-dtg/internal/config"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns a client for the stream hub's cross-instance pub/sub,
// or nil when no address is configured (single-instance mode).
func ConnectRedis(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
}

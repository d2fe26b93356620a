package db

import (
	"github.com/Rayane-45/Horsly-sub001/internal/config"
	"github.com/redis/go-redis/v9"
)

// ConnectRedis builds the client used for live-session fanout. Redis is
// optional: without an address the hub falls back to in-process delivery.
func ConnectRedis(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	return redis.NewClient(&redis.Options{
		Addr:       cfg.RedisAddr,
		Password:   cfg.RedisPassword,
		ClientName: "horsly-api",
	})
}

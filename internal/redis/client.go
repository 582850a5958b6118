package redis

import (
	"context"

	"iwled/internal/config"

	"github.com/go-redis/redis/v8"
)

// Client Redis client alias
type Client = redis.Client

func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func Ping(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}

func Close(client *redis.Client) error {
	return client.Close()
}

package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"iwled/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ErrCacheMiss is returned by KVStore.Get for an absent or expired key.
var ErrCacheMiss = errors.New("cache miss")

// KVStore is the subset of Redis the sink needs; tests swap in miniredis or a fake.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// RedisKVStore is a KVStore backed by go-redis.
type RedisKVStore struct {
	client *redis.Client
}

func NewRedisKVStore(client *redis.Client) *RedisKVStore {
	return &RedisKVStore{client: client}
}

func (r *RedisKVStore) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrCacheMiss
		}
		return "", err
	}
	return val, nil
}

func (r *RedisKVStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// RedisSink keeps the latest state of each client under <prefix><address>:state.
// Keys expire after ttl.
type RedisSink struct {
	kv     KVStore
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisSink(kv KVStore, prefix string, ttl time.Duration, logger *zap.Logger) *RedisSink {
	return &RedisSink{
		kv:     kv,
		prefix: prefix,
		ttl:    ttl,
		logger: logger,
	}
}

func (s *RedisSink) Name() string {
	return "redis"
}

// Key returns the state key for a station address.
func (s *RedisSink) Key(address string) string {
	return s.prefix + address + ":state"
}

func (s *RedisSink) Publish(ctx context.Context, results []models.EvaluationResult) error {
	for _, r := range results {
		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal state for %s: %w", r.Client, err)
		}

		key := s.Key(r.Address)
		if err := s.kv.Set(ctx, key, string(payload), s.ttl); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}

		s.logger.Debug("Updated client state cache",
			zap.String("key", key),
			zap.String("state", string(r.State)),
		)
	}
	return nil
}

// State reads back the cached result for address.
func (s *RedisSink) State(ctx context.Context, address string) (*models.EvaluationResult, error) {
	raw, err := s.kv.Get(ctx, s.Key(address))
	if err != nil {
		return nil, err
	}

	var r models.EvaluationResult
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return &r, nil
}

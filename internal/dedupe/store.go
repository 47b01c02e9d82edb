// Package dedupe remembers which webhook deliveries were already applied so provider
// redeliveries can be acknowledged without touching the profile store again.
package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "webhook:delivery:"

// Store records applied delivery ids.
type Store interface {
	Seen(ctx context.Context, deliveryID string) (bool, error)
	Mark(ctx context.Context, deliveryID string) error
}

type redisClient interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisStore keeps delivery ids as expiring keys.
type RedisStore struct {
	client redisClient
	ttl    time.Duration
}

// NewRedisStore wraps client. ttl should exceed the provider's retry window.
func NewRedisStore(client redisClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Connect dials Redis and verifies it answers.
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (s *RedisStore) Seen(ctx context.Context, deliveryID string) (bool, error) {
	n, err := s.client.Exists(ctx, keyPrefix+deliveryID).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) Mark(ctx context.Context, deliveryID string) error {
	if err := s.client.Set(ctx, keyPrefix+deliveryID, time.Now().UTC().Format(time.RFC3339), s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

package runstate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long a cancellation flag outlives its run.
const DefaultTTL = 24 * time.Hour

// RedisStore shares cancellation flags between processes through Redis.
type RedisStore struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

// NewRedisStore creates a RedisStore. An empty namespace defaults to "scenarios".
func NewRedisStore(client *redis.Client, namespace string, ttl time.Duration) *RedisStore {
	if namespace == "" {
		namespace = "scenarios"
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &RedisStore{client: client, namespace: namespace, ttl: ttl}
}

// NewRedisStoreFromURL connects to Redis and verifies the connection.
func NewRedisStoreFromURL(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	err = client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewRedisStore(client, "", DefaultTTL), nil
}

func (s *RedisStore) key(runID string) string {
	return fmt.Sprintf("%s:run:cancelled:%s", s.namespace, runID)
}

func (s *RedisStore) Cancel(ctx context.Context, runID string) error {
	err := s.client.Set(ctx, s.key(runID), "1", s.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to cancel run %s: %w", runID, err)
	}

	return nil
}

func (s *RedisStore) IsCancelled(ctx context.Context, runID string) (bool, error) {
	val, err := s.client.Get(ctx, s.key(runID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to read cancellation of run %s: %w", runID, err)
	}

	return val == "1", nil
}

func (s *RedisStore) Clear(ctx context.Context, runID string) error {
	err := s.client.Del(ctx, s.key(runID)).Err()
	if err != nil {
		return fmt.Errorf("failed to clear cancellation of run %s: %w", runID, err)
	}

	return nil
}

// Close releases the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redisclient "garage-backend/pkg/redis"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps blobs as plain Redis strings under a key prefix.
type RedisStore struct {
	client *redisclient.Client
	prefix string
}

func NewRedisStore(client *redisclient.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(k string) string {
	return s.prefix + k
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.GetClient().Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	err := s.client.GetClient().Set(ctx, s.key(key), value, 0).Err()
	if err == nil {
		return nil
	}
	if strings.HasPrefix(err.Error(), "OOM") {
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	return fmt.Errorf("redis set %s: %w", key, err)
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.GetClient().Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	status := s.client.HealthCheck(ctx)
	if !status.IsConnected {
		return fmt.Errorf("redis unavailable: %s", status.Error)
	}
	return nil
}

// Client exposes the connection so other components can share it.
func (s *RedisStore) Client() *redisclient.Client {
	return s.client
}

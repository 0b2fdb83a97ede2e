package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

// RedisKeyToken is where RedisStore keeps the shared token.
const RedisKeyToken = "registry:auth:token"

var registryTokenStoreErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "registry_token_store_errors_total",
	Help: "Total number of token store operation errors",
}, []string{"operation"}) // "get", "set", "delete"

// RedisStore shares the token between dashboard replicas through Redis.
// Expiry is delegated to the Redis key TTL.
type RedisStore struct {
	redis *redis.Client
	key   string
}

// NewRedisStore creates a Redis-backed Store.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{
		redis: redisClient,
		key:   RedisKeyToken,
	}
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context) (Token, error) {
	val, err := s.redis.Get(ctx, s.key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrNoToken
		}
		registryTokenStoreErrorsTotal.WithLabelValues("get").Inc()
		return "", fmt.Errorf("redis get: %w", err)
	}
	if val == "" {
		return "", ErrNoToken
	}
	return Token(val), nil
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, token Token, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.redis.Set(ctx, s.key, string(token), ttl).Err(); err != nil {
		registryTokenStoreErrorsTotal.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key).Err(); err != nil {
		registryTokenStoreErrorsTotal.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)

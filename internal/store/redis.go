package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tallyworks/orderstats/internal/models"
)

// RedisStore implements Store on a Redis client. Redis hashes back the
// counter views and Redis sorted sets back the leaderboards, so every
// primitive maps to a single atomic command.
type RedisStore struct {
	client *redis.Client
}

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// NewRedis connects to Redis and verifies the connection before returning.
func NewRedis(ctx context.Context, opts Options) (*RedisStore, error) {
	if opts.PoolSize == 0 {
		opts.PoolSize = 10
	}
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// NewRedisFromClient wraps an existing client. Tests use this with redismock.
func NewRedisFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Client exposes the underlying connection so the stream queue can share
// the same pool.
func (s *RedisStore) Client() *redis.Client { return s.client }

func (s *RedisStore) HIncrBy(ctx context.Context, key, field string, n int64) error {
	if err := s.client.HIncrBy(ctx, key, field, n).Err(); err != nil {
		return fmt.Errorf("redis hincrby %s.%s: %w", key, field, err)
	}
	return nil
}

func (s *RedisStore) HIncrByFloat(ctx context.Context, key, field string, v float64) error {
	if err := s.client.HIncrByFloat(ctx, key, field, v).Err(); err != nil {
		return fmt.Errorf("redis hincrbyfloat %s.%s: %w", key, field, err)
	}
	return nil
}

func (s *RedisStore) ZIncrBy(ctx context.Context, key string, delta float64, member string) error {
	if err := s.client.ZIncrBy(ctx, key, delta, member).Err(); err != nil {
		return fmt.Errorf("redis zincrby %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", key, err)
	}
	return fields, nil
}

func (s *RedisStore) TopN(ctx context.Context, key string, n int64) ([]models.RankedUser, error) {
	if n <= 0 {
		return nil, nil
	}
	entries, err := s.client.ZRevRangeWithScores(ctx, key, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis zrevrange %s: %w", key, err)
	}
	ranked := make([]models.RankedUser, 0, len(entries))
	for _, entry := range entries {
		member, ok := entry.Member.(string)
		if !ok {
			member = fmt.Sprint(entry.Member)
		}
		ranked = append(ranked, models.RankedUser{UserID: member, Score: entry.Score})
	}
	return ranked, nil
}

func (s *RedisStore) ZCard(ctx context.Context, key string) (int64, error) {
	count, err := s.client.ZCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis zcard %s: %w", key, err)
	}
	return count, nil
}

// Ping probes the store and measures round-trip latency.
func (s *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.client.Ping(ctx).Err(); err != nil {
		return 0, fmt.Errorf("redis ping: %w", err)
	}
	return time.Since(start), nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

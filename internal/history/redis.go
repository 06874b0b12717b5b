package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/expedit/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisCache stores version lists as JSON values with a TTL.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects to redisURL and verifies the connection.
func NewRedisCache(redisURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisCacheWithClient(client, ttl), nil
}

// NewRedisCacheWithClient wraps an existing client.
func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisCache{client: client, prefix: "history:", ttl: ttl}
}

func (c *RedisCache) key(k Key) string {
	return c.prefix + k.String()
}

func (c *RedisCache) Get(ctx context.Context, key Key) ([]domain.VersionInfo, bool, error) {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read history cache: %w", err)
	}
	var versions []domain.VersionInfo
	if err := json.Unmarshal(raw, &versions); err != nil {
		return nil, false, fmt.Errorf("decode history cache: %w", err)
	}
	return versions, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key Key, versions []domain.VersionInfo) error {
	raw, err := json.Marshal(versions)
	if err != nil {
		return fmt.Errorf("encode history cache: %w", err)
	}
	if err := c.client.Set(ctx, c.key(key), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("write history cache: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, key Key) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("invalidate history cache: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

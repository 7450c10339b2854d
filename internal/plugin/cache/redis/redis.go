package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/memementor/embedding-service/internal/config"
	registrycache "github.com/memementor/embedding-service/internal/registry/cache"
	goredis "github.com/redis/go-redis/v9"
)

const defaultTTL = 10 * time.Minute

func init() {
	registrycache.Register(registrycache.Plugin{
		Name:   "redis",
		Loader: load,
	})
}

func load(ctx context.Context) (registrycache.VectorCache, error) {
	cfg := config.FromContext(ctx)
	if cfg == nil || cfg.RedisURL == "" {
		return nil, fmt.Errorf("redis cache: EMBEDDING_SERVICE_REDIS_HOSTS is required")
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return LoadFromURL(ctx, cfg.RedisURL, ttl)
}

// LoadFromURL creates a VectorCache from a Redis-compatible URL.
func LoadFromURL(ctx context.Context, redisURL string, ttl time.Duration) (registrycache.VectorCache, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis cache: invalid URL: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis cache: ping failed: %w", err)
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &redisVectorCache{client: client, ttl: ttl}, nil
}

type redisVectorCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func vectorKey(model, text string) string {
	return fmt.Sprintf("embed:%s:%s", model, text)
}

func (c *redisVectorCache) Available() bool {
	return true
}

func (c *redisVectorCache) Get(ctx context.Context, model, text string) ([]float32, bool, error) {
	data, err := c.client.Get(ctx, vectorKey(model, text)).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var vector []float32
	if err := json.Unmarshal(data, &vector); err != nil {
		return nil, false, err
	}
	return vector, true, nil
}

func (c *redisVectorCache) Set(ctx context.Context, model, text string, vector []float32) error {
	data, err := json.Marshal(vector)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, vectorKey(model, text), data, c.ttl).Err()
}

var _ registrycache.VectorCache = (*redisVectorCache)(nil)

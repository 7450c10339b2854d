package memory

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/memementor/embedding-service/internal/config"
	registrycache "github.com/memementor/embedding-service/internal/registry/cache"
)

const defaultMaxBytes = 256 * 1024 * 1024

func init() {
	registrycache.Register(registrycache.Plugin{
		Name:   "memory",
		Loader: load,
	})
}

func load(ctx context.Context) (registrycache.VectorCache, error) {
	maxBytes := int64(defaultMaxBytes)
	if cfg := config.FromContext(ctx); cfg != nil && cfg.CacheMaxBytes > 0 {
		maxBytes = cfg.CacheMaxBytes
	}
	return New(maxBytes)
}

// New creates an in-process vector cache bounded to roughly maxBytes of vector data.
func New(maxBytes int64) (registrycache.VectorCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, []float32]{
		NumCounters: maxBytes / 64, // ~10x expected entries at small vector sizes
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("memory cache: %w", err)
	}
	return &memoryCache{cache: c}, nil
}

type memoryCache struct {
	cache *ristretto.Cache[string, []float32]
}

func cacheKey(model, text string) string {
	return model + "\x00" + text
}

func (c *memoryCache) Available() bool {
	return true
}

func (c *memoryCache) Get(_ context.Context, model, text string) ([]float32, bool, error) {
	v, ok := c.cache.Get(cacheKey(model, text))
	return v, ok, nil
}

func (c *memoryCache) Set(_ context.Context, model, text string, vector []float32) error {
	cost := int64(len(vector)) * 4
	c.cache.Set(cacheKey(model, text), vector, cost)
	return nil
}

// Wait blocks until buffered writes are applied. Only used by tests.
func (c *memoryCache) Wait() {
	c.cache.Wait()
}

var _ registrycache.VectorCache = (*memoryCache)(nil)

package noop

import (
	"context"

	"github.com/memementor/embedding-service/internal/registry/cache"
)

func init() {
	cache.Register(cache.Plugin{
		Name: "none",
		Loader: func(ctx context.Context) (cache.VectorCache, error) {
			return &noopVectorCache{}, nil
		},
	})
}

type noopVectorCache struct{}

func (n *noopVectorCache) Available() bool { return false }
func (n *noopVectorCache) Get(_ context.Context, _, _ string) ([]float32, bool, error) {
	return nil, false, nil
}
func (n *noopVectorCache) Set(_ context.Context, _, _ string, _ []float32) error { return nil }

var _ cache.VectorCache = (*noopVectorCache)(nil)

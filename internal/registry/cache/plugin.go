package cache

import (
	"context"
	"fmt"
)

// VectorCache caches embedding vectors keyed by (model, text). Implementations
// must be safe for concurrent use. Cache errors are soft: callers log them and
// fall through to the embedder.
type VectorCache interface {
	Available() bool
	Get(ctx context.Context, model, text string) ([]float32, bool, error)
	Set(ctx context.Context, model, text string, vector []float32) error
}

// Loader creates a cache from config.
type Loader func(ctx context.Context) (VectorCache, error)

// Plugin represents a cache plugin.
type Plugin struct {
	Name   string
	Loader Loader
}

var plugins []Plugin

// Register adds a cache plugin.
func Register(p Plugin) {
	plugins = append(plugins, p)
}

// Names returns all registered cache plugin names.
func Names() []string {
	names := make([]string, len(plugins))
	for i, p := range plugins {
		names[i] = p.Name
	}
	return names
}

// Select returns the loader for the named cache plugin.
func Select(name string) (Loader, error) {
	for _, p := range plugins {
		if p.Name == name {
			return p.Loader, nil
		}
	}
	return nil, fmt.Errorf("unknown cache %q; valid: %v", name, Names())
}

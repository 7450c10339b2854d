package models

import (
	"context"
	"sync"

	registryembed "github.com/memementor/embedding-service/internal/registry/embed"
)

// serialize wraps an embedder so that concurrent EmbedTexts calls on it are
// executed one at a time. Used when the backing model library does not
// document thread-safety for concurrent encode calls.
func serialize(e registryembed.Embedder) registryembed.Embedder {
	return &serialEmbedder{inner: e}
}

type serialEmbedder struct {
	mu    sync.Mutex
	inner registryembed.Embedder
}

func (s *serialEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.EmbedTexts(ctx, texts)
}

func (s *serialEmbedder) ModelName() string { return s.inner.ModelName() }
func (s *serialEmbedder) Dimension() int    { return s.inner.Dimension() }

var _ registryembed.Embedder = (*serialEmbedder)(nil)

package local

import (
	"context"
	"testing"

	"github.com/memementor/embedding-service/internal/config"
	registryembed "github.com/memementor/embedding-service/internal/registry/embed"
	"github.com/stretchr/testify/require"
)

func loadEmbedder(t *testing.T, model string) registryembed.Embedder {
	t.Helper()
	cfg := config.DefaultConfig()
	ctx := config.WithContext(context.Background(), &cfg)
	e, err := load(ctx, model)
	require.NoError(t, err)
	return e
}

func TestLocalEmbedder_KnownModelDimensions(t *testing.T) {
	require.Equal(t, 1024, loadEmbedder(t, "BAAI/bge-m3").Dimension())
	require.Equal(t, 384, loadEmbedder(t, "sentence-transformers/all-MiniLM-L6-v2").Dimension())
}

func TestLocalEmbedder_UnknownModelFallsBackToDefault(t *testing.T) {
	require.Equal(t, defaultDimension, loadEmbedder(t, "some/other-model").Dimension())
}

func TestLocalEmbedder_Deterministic(t *testing.T) {
	e := loadEmbedder(t, "BAAI/bge-m3")

	a, err := e.EmbedTexts(context.Background(), []string{"the quick brown fox"})
	require.NoError(t, err)
	b, err := e.EmbedTexts(context.Background(), []string{"the quick brown fox"})
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Len(t, a[0], 1024)
}

func TestLocalEmbedder_OrderMatchesInputs(t *testing.T) {
	e := loadEmbedder(t, "all-minilm-l6-v2")

	vectors, err := e.EmbedTexts(context.Background(), []string{"alpha", "beta", "alpha"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	require.Equal(t, vectors[0], vectors[2])
	require.NotEqual(t, vectors[0], vectors[1])
}

func TestLocalEmbedder_WhitespaceOnlyTextYieldsZeroVector(t *testing.T) {
	e := loadEmbedder(t, "all-minilm-l6-v2")

	vectors, err := e.EmbedTexts(context.Background(), []string{"   "})
	require.NoError(t, err)
	for _, v := range vectors[0] {
		require.Zero(t, v)
	}
}

package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/memementor/embedding-service/internal/config"
	"github.com/stretchr/testify/require"
)

func upstreamEmbedder(t *testing.T, handler http.HandlerFunc) *OpenAIEmbedder {
	t.Helper()
	upstream := httptest.NewServer(handler)
	t.Cleanup(upstream.Close)

	cfg := config.DefaultConfig()
	cfg.OpenAIAPIKey = "sk-test"
	cfg.OpenAIBaseURL = upstream.URL
	ctx := config.WithContext(context.Background(), &cfg)

	e, err := load(ctx, "text-embedding-3-small")
	require.NoError(t, err)
	return e.(*OpenAIEmbedder)
}

func TestLoad_RequiresAPIKey(t *testing.T) {
	cfg := config.DefaultConfig()
	ctx := config.WithContext(context.Background(), &cfg)

	_, err := load(ctx, "text-embedding-3-small")
	require.Error(t, err)
}

func TestEmbedTexts_SortsByUpstreamIndex(t *testing.T) {
	e := upstreamEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, []string{"a", "b"}, req.Input)

		// Reply out of order; the client must reassemble by index.
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"index": 1, "embedding": []float32{2}},
				{"index": 0, "embedding": []float32{1}},
			},
		})
	})

	vectors, err := e.EmbedTexts(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Equal(t, [][]float32{{1}, {2}}, vectors)
}

func TestEmbedTexts_UpstreamErrorIsWrapped(t *testing.T) {
	e := upstreamEmbedder(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limited"},
		})
	})

	_, err := e.EmbedTexts(context.Background(), []string{"a"})
	require.ErrorContains(t, err, "rate limited")
}

func TestEmbedTexts_CountMismatchFails(t *testing.T) {
	e := upstreamEmbedder(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"index": 0, "embedding": []float32{1}}},
		})
	})

	_, err := e.EmbedTexts(context.Background(), []string{"a", "b"})
	require.ErrorContains(t, err, "expected 2 embeddings")
}

package openaiapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/memementor/embedding-service/internal/config"
	"github.com/memementor/embedding-service/internal/dispatch"
	"github.com/memementor/embedding-service/internal/models"
	registryembed "github.com/memementor/embedding-service/internal/registry/embed"
	"github.com/memementor/embedding-service/internal/security"
	"github.com/stretchr/testify/require"
)

type fixedEmbedder struct {
	name string
	dim  int
}

func (f *fixedEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = make([]float32, f.dim)
	}
	return vectors, nil
}

func (f *fixedEmbedder) ModelName() string { return f.name }
func (f *fixedEmbedder) Dimension() int    { return f.dim }

func setupRouter(t *testing.T, cfg *config.Config, embedders ...*fixedEmbedder) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if cfg == nil {
		defaults := config.DefaultConfig()
		cfg = &defaults
	}

	pool := dispatch.NewPool(2, 8)
	t.Cleanup(pool.Close)

	all := make([]registryembed.Embedder, len(embedders))
	for i, e := range embedders {
		all[i] = e
	}

	router := gin.New()
	MountRoutes(router, dispatch.New(models.NewRegistry(all...), pool, nil), security.BearerAuthMiddleware(cfg))
	return router
}

func doPost(router *gin.Engine, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/openai/v1/embeddings", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type responseBody struct {
	Object string `json:"object"`
	Data   []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
	Error map[string]any `json:"error"`
}

func parse(t *testing.T, rec *httptest.ResponseRecorder) responseBody {
	t.Helper()
	var body responseBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestOpenAICreateEmbeddings_AliasEchoesOriginalName(t *testing.T) {
	router := setupRouter(t, nil, &fixedEmbedder{name: "BAAI/bge-m3", dim: 4})

	rec := doPost(router, `{"input":"hello","model":"text-embedding-3-small"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := parse(t, rec)
	require.Equal(t, "text-embedding-3-small", body.Model)
	require.Len(t, body.Data, 1)
	require.Len(t, body.Data[0].Embedding, 4)
}

func TestOpenAICreateEmbeddings_ApproximateUsage(t *testing.T) {
	router := setupRouter(t, nil, &fixedEmbedder{name: "m1", dim: 2})

	body := parse(t, doPost(router, `{"input":"abcd","model":"m1"}`))
	require.Equal(t, 1, body.Usage.PromptTokens)
	require.Equal(t, 1, body.Usage.TotalTokens)

	body = parse(t, doPost(router, `{"input":"ab","model":"m1"}`))
	require.Equal(t, 0, body.Usage.PromptTokens)
	require.Equal(t, 0, body.Usage.TotalTokens)
}

func TestOpenAICreateEmbeddings_ModelNotFound(t *testing.T) {
	router := setupRouter(t, nil, &fixedEmbedder{name: "m1", dim: 2})

	rec := doPost(router, `{"input":"hello","model":"nope"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	body := parse(t, rec)
	require.Equal(t, "model_not_found", body.Error["code"])
	require.Equal(t, "invalid_request_error", body.Error["type"])
	require.Equal(t, "The model 'nope' does not exist", body.Error["message"])
}

func TestOpenAICreateEmbeddings_RejectsNonFloatEncoding(t *testing.T) {
	router := setupRouter(t, nil, &fixedEmbedder{name: "m1", dim: 2})

	rec := doPost(router, `{"input":"hello","model":"m1","encoding_format":"base64"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := parse(t, rec)
	require.Equal(t, "invalid_request_error", body.Error["type"])
	require.Contains(t, body.Error["message"], "float")
}

func TestOpenAICreateEmbeddings_ValidationUsesOpenAIEnvelope(t *testing.T) {
	router := setupRouter(t, nil, &fixedEmbedder{name: "m1", dim: 2})

	rec := doPost(router, `{"input":"","model":"m1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := parse(t, rec)
	require.Equal(t, "input", body.Error["param"])
	require.Equal(t, "Input string cannot be empty", body.Error["message"])
}

func TestOpenAICreateEmbeddings_AuthRequired(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.RequireAuth = true
	cfg.APIKey = "secret-key"
	router := setupRouter(t, &cfg, &fixedEmbedder{name: "m1", dim: 2})

	rec := doPost(router, `{"input":"hello","model":"m1"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

	rec = doPost(router, `{"input":"hello","model":"m1"}`, "Authorization", "Bearer wrong")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doPost(router, `{"input":"hello","model":"m1"}`, "Authorization", "Bearer secret-key")
	require.Equal(t, http.StatusOK, rec.Code)
}

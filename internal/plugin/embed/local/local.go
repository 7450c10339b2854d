package local

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/memementor/embedding-service/internal/config"
	registryembed "github.com/memementor/embedding-service/internal/registry/embed"
)

const defaultDimension = 384

// dimensions maps known model identifiers to their embedding dimensionality.
// Unknown models fall back to defaultDimension.
var dimensions = map[string]int{
	"BAAI/bge-m3": 1024,
	"sentence-transformers/all-MiniLM-L6-v2": 384,
	"all-minilm-l6-v2":                       384,
}

func init() {
	registryembed.Register(registryembed.Plugin{
		Name:   "local",
		Loader: load,
	})
}

func load(ctx context.Context, model string) (registryembed.Embedder, error) {
	dim, ok := dimensions[model]
	if !ok {
		dim = defaultDimension
	}
	if cfg := config.FromContext(ctx); cfg != nil && strings.EqualFold(cfg.Device, "gpu") {
		log.Warn("Local embedder is CPU-only; ignoring device setting", "model", model, "device", cfg.Device)
	}
	return &LocalEmbedder{model: model, dimension: dim}, nil
}

// LocalEmbedder is a deterministic in-process encoder. It hashes word tokens
// into a fixed-size bag-of-words vector and L2-normalizes it. Safe for
// concurrent EmbedTexts calls.
type LocalEmbedder struct {
	model     string
	dimension int
}

func (e *LocalEmbedder) ModelName() string {
	return e.model
}

func (e *LocalEmbedder) Dimension() int {
	return e.dimension
}

func (e *LocalEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		results[i] = e.embedOne(text)
	}
	return results, nil
}

func (e *LocalEmbedder) embedOne(text string) []float32 {
	vector := make([]float32, e.dimension)
	for _, tok := range tokenize(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(tok))
		i := int(h.Sum64() % uint64(e.dimension))
		vector[i] += 1
	}
	norm := float32(0)
	for _, v := range vector {
		norm += v * v
	}
	if norm == 0 {
		return vector
	}
	inv := 1 / float32(math.Sqrt(float64(norm)))
	for i := range vector {
		vector[i] *= inv
	}
	return vector
}

func tokenize(text string) []string {
	text = strings.TrimSpace(strings.ToLower(text))
	if text == "" {
		return nil
	}
	return strings.FieldsFunc(text, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsNumber(r))
	})
}

var _ registryembed.Embedder = (*LocalEmbedder)(nil)

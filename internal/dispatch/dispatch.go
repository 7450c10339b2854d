package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/memementor/embedding-service/internal/models"
	registrycache "github.com/memementor/embedding-service/internal/registry/cache"
	"github.com/memementor/embedding-service/internal/security"
)

// Dispatcher resolves a model against the registry and runs the encode call on
// the worker pool, consulting the vector cache around it.
type Dispatcher struct {
	registry *models.Registry
	pool     *Pool
	cache    registrycache.VectorCache
}

// New creates a Dispatcher. cache may be nil or unavailable; it is then skipped.
func New(registry *models.Registry, pool *Pool, cache registrycache.VectorCache) *Dispatcher {
	return &Dispatcher{registry: registry, pool: pool, cache: cache}
}

type encodeResult struct {
	vectors [][]float32
	err     error
}

// Dispatch embeds the ordered input batch with the named model. The returned
// vectors are in input order: vectors[i] is the embedding of inputs[i].
//
// Errors: *ModelNotFoundError when the model is not loaded, ErrPoolSaturated
// under backpressure, *InferenceError for backend failures.
func (d *Dispatcher) Dispatch(ctx context.Context, model string, inputs []string) ([][]float32, error) {
	embedder, ok := d.registry.Lookup(model)
	if !ok {
		return nil, &ModelNotFoundError{Model: model, Available: d.registry.Names()}
	}

	vectors := make([][]float32, len(inputs))
	missIdx := d.consultCache(ctx, model, inputs, vectors)
	if len(missIdx) == 0 {
		return vectors, nil
	}

	missTexts := make([]string, len(missIdx))
	for i, idx := range missIdx {
		missTexts[i] = inputs[idx]
	}

	// The encode call is detached from the request context: a client
	// disconnect does not interrupt an in-flight encode, its result is
	// simply discarded.
	encodeCtx := context.WithoutCancel(ctx)
	done := make(chan encodeResult, 1)
	start := time.Now()
	err := d.pool.Submit(func() {
		v, err := embedder.EmbedTexts(encodeCtx, missTexts)
		if err == nil && len(v) != len(missTexts) {
			err = fmt.Errorf("embedder returned %d vectors for %d inputs", len(v), len(missTexts))
		}
		done <- encodeResult{vectors: v, err: err}
	})
	if err != nil {
		return nil, err
	}

	var res encodeResult
	select {
	case res = <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	security.ObserveEmbedLatency(model, time.Since(start))

	if res.err != nil {
		return nil, &InferenceError{Model: model, Err: res.err}
	}

	for i, idx := range missIdx {
		vectors[idx] = res.vectors[i]
	}
	d.fillCache(ctx, model, missTexts, res.vectors)
	return vectors, nil
}

// consultCache fills vectors with cache hits and returns the indexes of inputs
// that still need encoding. Cache errors are treated as misses.
func (d *Dispatcher) consultCache(ctx context.Context, model string, inputs []string, vectors [][]float32) []int {
	if d.cache == nil || !d.cache.Available() {
		missIdx := make([]int, len(inputs))
		for i := range inputs {
			missIdx[i] = i
		}
		return missIdx
	}

	var missIdx []int
	for i, text := range inputs {
		v, ok, err := d.cache.Get(ctx, model, text)
		if err != nil {
			log.Warn("Vector cache get failed", "model", model, "err", err)
		}
		if ok && err == nil {
			vectors[i] = v
			security.RecordCacheHit()
			continue
		}
		security.RecordCacheMiss()
		missIdx = append(missIdx, i)
	}
	return missIdx
}

func (d *Dispatcher) fillCache(ctx context.Context, model string, texts []string, vectors [][]float32) {
	if d.cache == nil || !d.cache.Available() {
		return
	}
	for i, text := range texts {
		if err := d.cache.Set(ctx, model, text, vectors[i]); err != nil {
			log.Warn("Vector cache set failed", "model", model, "err", err)
		}
	}
}

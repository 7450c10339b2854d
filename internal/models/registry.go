package models

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/memementor/embedding-service/internal/config"
	registryembed "github.com/memementor/embedding-service/internal/registry/embed"
)

// Registry maps model identifiers to loaded embedders. It is populated once by
// Load and never mutated afterwards, so lookups need no locking.
type Registry struct {
	embedders map[string]registryembed.Embedder
	names     []string
}

// NewRegistry builds a registry from already-loaded embedders, keyed by their
// model name in the given order.
func NewRegistry(embedders ...registryembed.Embedder) *Registry {
	r := &Registry{embedders: make(map[string]registryembed.Embedder, len(embedders))}
	for _, e := range embedders {
		r.embedders[e.ModelName()] = e
		r.names = append(r.names, e.ModelName())
	}
	return r
}

// Load attempts to load every configured model, sequentially and in list
// order. A model that fails to load is logged and skipped; it never aborts
// startup of the others. The returned registry holds every model that
// succeeded, possibly none.
func Load(ctx context.Context, cfg *config.Config) *Registry {
	entries := cfg.ModelList()
	r := &Registry{embedders: make(map[string]registryembed.Embedder, len(entries))}

	if len(entries) == 0 {
		log.Warn("No models configured")
		return r
	}
	log.Info("Loading models", "count", len(entries), "models", strings.Join(entries, ", "))

	var failed []string
	for _, entry := range entries {
		provider, model := splitModelSpec(entry, cfg.DefaultProvider)
		start := time.Now()

		embedder, err := loadOne(ctx, provider, model)
		if err != nil {
			failed = append(failed, model)
			log.Error("Failed to load model", "model", model, "provider", provider, "err", err)
			continue
		}
		if cfg.SerializeEncode {
			embedder = serialize(embedder)
		}
		r.embedders[model] = embedder
		r.names = append(r.names, model)
		log.Info("Loaded model",
			"model", model,
			"provider", provider,
			"dimension", embedder.Dimension(),
			"duration", time.Since(start),
		)
	}

	switch {
	case len(r.names) == 0:
		log.Warn("No models were successfully loaded; every request will report model_not_found")
	case len(failed) > 0:
		log.Warn("Some models failed to load", "failed", strings.Join(failed, ", "))
	}
	log.Info("Model loading complete", "loaded", len(r.names), "configured", len(entries))
	return r
}

func loadOne(ctx context.Context, provider, model string) (registryembed.Embedder, error) {
	loader, err := registryembed.Select(provider)
	if err != nil {
		return nil, err
	}
	return loader(ctx, model)
}

// splitModelSpec splits a configured model entry into provider and model name.
// An entry like "openai:text-embedding-3-small" names its provider explicitly;
// bare entries use the default provider.
func splitModelSpec(entry, defaultProvider string) (provider, model string) {
	if idx := strings.Index(entry, ":"); idx > 0 {
		return entry[:idx], entry[idx+1:]
	}
	return defaultProvider, entry
}

// Lookup returns the embedder for the given model identifier. Absence is a
// normal outcome; callers branch to their model-not-found path.
func (r *Registry) Lookup(model string) (registryembed.Embedder, bool) {
	e, ok := r.embedders[model]
	return e, ok
}

// Names returns the loaded model identifiers in load order.
func (r *Registry) Names() []string {
	return r.names
}

package config

import (
	"context"
	"runtime"
	"strings"
	"time"
)

// ServiceName and ServiceVersion identify the service in health responses and logs.
const (
	ServiceName    = "embedding-service"
	ServiceVersion = "0.1.0"
)

// ListenerConfig holds the network/TLS settings for a single listener (main or management).
type ListenerConfig struct {
	Port              int
	EnablePlainText   bool
	EnableTLS         bool
	TLSCertFile       string
	TLSKeyFile        string
	ReadHeaderTimeout time.Duration
}

type contextKey struct{}

// WithContext returns a new context carrying the given Config.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, contextKey{}, cfg)
}

// FromContext retrieves the Config from the context.
func FromContext(ctx context.Context) *Config {
	cfg, _ := ctx.Value(contextKey{}).(*Config)
	return cfg
}

// Config holds all configuration for the embedding service.
type Config struct {
	// Models is a comma-separated list of model identifiers to preload.
	// Each entry may carry an explicit provider prefix ("openai:text-embedding-3-small");
	// bare names use DefaultProvider.
	Models string

	// DefaultProvider is the embedding provider used for model entries without
	// an explicit provider prefix. "local" or "openai".
	DefaultProvider string

	// Device selects the compute device for in-process providers ("cpu" or "gpu").
	// The local provider is CPU-only and logs when a GPU is requested.
	Device string

	// SerializeEncode wraps every loaded model in a per-model mutex so that
	// concurrent requests never invoke EmbedTexts on the same instance at once.
	// Enable when the embedding backend does not document thread-safety.
	SerializeEncode bool

	// Log verbosity: debug, info, warn, or error.
	LogLevel string

	// APIKey is the static bearer token for the OpenAI-compatible surface.
	APIKey string
	// RequireAuth enables bearer token checks on the OpenAI-compatible surface.
	RequireAuth bool

	// OpenAI upstream (used by the "openai" embedding provider).
	OpenAIAPIKey  string
	OpenAIBaseURL string

	// Cache backend type: "none", "memory", or "redis".
	CacheType string
	// RedisURL is the connection URL for the redis cache plugin.
	RedisURL string
	// CacheTTL bounds how long cached vectors live (redis plugin).
	CacheTTL time.Duration
	// CacheMaxBytes bounds the in-process cache size (memory plugin).
	CacheMaxBytes int64

	// Worker pool for CPU-bound encode calls.
	PoolWorkers int
	// PoolQueue bounds how many dispatches may wait for a worker before the
	// service starts rejecting with 503.
	PoolQueue int

	// Server
	Listener           ListenerConfig
	ManagementListener ListenerConfig
	// ManagementListenerEnabled is true when --management-port was explicitly provided.
	// When false, management endpoints are served on the main port.
	ManagementListenerEnabled bool
	// ManagementAccessLog enables HTTP access logging for management endpoints
	// (/health, /ready, /metrics). Disabled by default to suppress probe noise.
	ManagementAccessLog bool

	// Body size limit (bytes)
	MaxBodySize int64

	// Graceful shutdown drain timeout (seconds)
	DrainTimeout int

	// MetricsLabels is a comma-separated list of key=value pairs added as
	// constant labels to all Prometheus metrics. Values support ${VAR} expansion.
	MetricsLabels string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Models:          "BAAI/bge-m3,sentence-transformers/all-MiniLM-L6-v2",
		DefaultProvider: "local",
		Device:          "cpu",
		LogLevel:        "info",
		OpenAIBaseURL:   "https://api.openai.com/v1",
		CacheType:       "none",
		CacheTTL:        10 * time.Minute,
		CacheMaxBytes:   256 * 1024 * 1024, // 256 MB
		PoolWorkers:     runtime.NumCPU(),
		PoolQueue:       64,
		Listener: ListenerConfig{
			Port:              8080,
			EnablePlainText:   true,
			EnableTLS:         true,
			ReadHeaderTimeout: 5 * time.Second,
		},
		ManagementListener: ListenerConfig{
			EnablePlainText: true,
			EnableTLS:       true,
		},
		MaxBodySize:  4 * 1024 * 1024, // 4 MB
		DrainTimeout: 30,
	}
}

// ModelList splits the configured Models value into trimmed, non-empty entries,
// preserving order.
func (c *Config) ModelList() []string {
	var models []string
	for _, m := range strings.Split(c.Models, ",") {
		if m = strings.TrimSpace(m); m != "" {
			models = append(models, m)
		}
	}
	return models
}

package serve

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/memementor/embedding-service/internal/config"
	registrycache "github.com/memementor/embedding-service/internal/registry/cache"
	registryembed "github.com/memementor/embedding-service/internal/registry/embed"
	"github.com/urfave/cli/v3"

	// Import all plugins to trigger init() registration
	_ "github.com/memementor/embedding-service/internal/plugin/cache/memory"
	_ "github.com/memementor/embedding-service/internal/plugin/cache/noop"
	_ "github.com/memementor/embedding-service/internal/plugin/cache/redis"
	_ "github.com/memementor/embedding-service/internal/plugin/embed/local"
	_ "github.com/memementor/embedding-service/internal/plugin/embed/openai"
)

// Command returns the serve sub-command.
func Command() *cli.Command {
	cfg := config.DefaultConfig()
	var readHeaderTimeoutSecs int = 5
	var cacheTTLSecs int = int(cfg.CacheTTL / time.Second)
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the embedding service HTTP server",
		Flags: flags(&cfg, &readHeaderTimeoutSecs, &cacheTTLSecs),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg.Listener.ReadHeaderTimeout = time.Duration(readHeaderTimeoutSecs) * time.Second
			cfg.ManagementListener.ReadHeaderTimeout = cfg.Listener.ReadHeaderTimeout
			cfg.ManagementListenerEnabled = cmd.IsSet("management-port")
			cfg.CacheTTL = time.Duration(cacheTTLSecs) * time.Second
			cfg.RequireAuth = cfg.APIKey != ""
			return run(config.WithContext(ctx, &cfg), cfg)
		},
	}
}

func flags(cfg *config.Config, readHeaderTimeoutSecs *int, cacheTTLSecs *int) []cli.Flag {
	return []cli.Flag{

		// ── Server ────────────────────────────────────────────────
		&cli.StringFlag{
			Name:        "tls-cert-file",
			Category:    "Server:",
			Sources:     cli.EnvVars("EMBEDDING_SERVICE_TLS_CERT_FILE"),
			Destination: &cfg.Listener.TLSCertFile,
			Usage:       "TLS certificate file for single-port TLS mode",
		},
		&cli.StringFlag{
			Name:        "tls-key-file",
			Category:    "Server:",
			Sources:     cli.EnvVars("EMBEDDING_SERVICE_TLS_KEY_FILE"),
			Destination: &cfg.Listener.TLSKeyFile,
			Usage:       "TLS private key file for single-port TLS mode",
		},
		&cli.IntFlag{
			Name:        "read-header-timeout-seconds",
			Category:    "Server:",
			Sources:     cli.EnvVars("EMBEDDING_SERVICE_READ_HEADER_TIMEOUT_SECONDS"),
			Destination: readHeaderTimeoutSecs,
			Value:       *readHeaderTimeoutSecs,
			Usage:       "HTTP read header timeout in seconds",
		},
		&cli.IntFlag{
			Name:        "drain-timeout-seconds",
			Category:    "Server:",
			Sources:     cli.EnvVars("EMBEDDING_SERVICE_DRAIN_TIMEOUT_SECONDS"),
			Destination: &cfg.DrainTimeout,
			Value:       cfg.DrainTimeout,
			Usage:       "Graceful shutdown drain timeout in seconds",
		},
		&cli.BoolFlag{
			Name:        "management-access-log",
			Category:    "Server:",
			Sources:     cli.EnvVars("EMBEDDING_SERVICE_MANAGEMENT_ACCESS_LOG"),
			Destination: &cfg.ManagementAccessLog,
			Usage:       "Enable HTTP access logging for management endpoints (/health, /ready, /metrics)",
		},
		&cli.StringFlag{
			Name:        "log-level",
			Category:    "Server:",
			Sources:     cli.EnvVars("EMBEDDING_SERVICE_LOG_LEVEL", "LOG_LEVEL"),
			Destination: &cfg.LogLevel,
			Value:       cfg.LogLevel,
			Usage:       "Log verbosity (debug|info|warn|error)",
		},

		// ── Network Listener ──────────────────────────────────────
		&cli.IntFlag{
			Name:        "port",
			Category:    "Network Listener:",
			Sources:     cli.EnvVars("EMBEDDING_SERVICE_PORT", "PORT"),
			Destination: &cfg.Listener.Port,
			Value:       cfg.Listener.Port,
			Usage:       "HTTP server port",
		},
		&cli.BoolFlag{
			Name:        "plain-text",
			Category:    "Network Listener:",
			Sources:     cli.EnvVars("EMBEDDING_SERVICE_PLAIN_TEXT"),
			Destination: &cfg.Listener.EnablePlainText,
			Value:       cfg.Listener.EnablePlainText,
			Usage:       "Enable plaintext HTTP/1.1 + h2c",
		},
		&cli.BoolFlag{
			Name:        "tls",
			Category:    "Network Listener:",
			Sources:     cli.EnvVars("EMBEDDING_SERVICE_TLS"),
			Destination: &cfg.Listener.EnableTLS,
			Value:       cfg.Listener.EnableTLS,
			Usage:       "Enable TLS HTTP/1.1 + HTTP/2",
		},

		// ── Management Network Listener ───────────────────────────
		&cli.IntFlag{
			Name:        "management-port",
			Category:    "Management Network Listener:",
			Sources:     cli.EnvVars("EMBEDDING_SERVICE_MANAGEMENT_PORT"),
			Destination: &cfg.ManagementListener.Port,
			Value:       cfg.ManagementListener.Port,
			Usage:       "Dedicated port for health and metrics (0 = OS-assigned random port); when unset, served on the main port",
		},
		&cli.BoolFlag{
			Name:        "management-plain-text",
			Category:    "Management Network Listener:",
			Sources:     cli.EnvVars("EMBEDDING_SERVICE_MANAGEMENT_PLAIN_TEXT"),
			Destination: &cfg.ManagementListener.EnablePlainText,
			Value:       cfg.ManagementListener.EnablePlainText,
			Usage:       "Enable plaintext HTTP for management server",
		},
		&cli.BoolFlag{
			Name:        "management-tls",
			Category:    "Management Network Listener:",
			Sources:     cli.EnvVars("EMBEDDING_SERVICE_MANAGEMENT_TLS"),
			Destination: &cfg.ManagementListener.EnableTLS,
			Value:       cfg.ManagementListener.EnableTLS,
			Usage:       "Enable TLS for management server",
		},

		// ── Models ────────────────────────────────────────────────
		&cli.StringFlag{
			Name:        "models",
			Category:    "Models:",
			Sources:     cli.EnvVars("EMBEDDING_SERVICE_MODELS"),
			Destination: &cfg.Models,
			Value:       cfg.Models,
			Usage:       "Comma-separated model identifiers to preload; entries may carry a provider prefix (e.g. openai:text-embedding-3-small)",
		},
		&cli.StringFlag{
			Name:        "default-provider",
			Category:    "Models:",
			Sources:     cli.EnvVars("EMBEDDING_SERVICE_DEFAULT_PROVIDER"),
			Destination: &cfg.DefaultProvider,
			Value:       cfg.DefaultProvider,
			Usage:       "Provider for model entries without a prefix (" + strings.Join(registryembed.Names(), "|") + ")",
		},
		&cli.StringFlag{
			Name:        "device",
			Category:    "Models:",
			Sources:     cli.EnvVars("EMBEDDING_SERVICE_DEVICE"),
			Destination: &cfg.Device,
			Value:       cfg.Device,
			Usage:       "Compute device for in-process providers (cpu|gpu)",
		},
		&cli.BoolFlag{
			Name:        "serialize-encode",
			Category:    "Models:",
			Sources:     cli.EnvVars("EMBEDDING_SERVICE_SERIALIZE_ENCODE"),
			Destination: &cfg.SerializeEncode,
			Usage:       "Serialize encode calls per model instance; enable for backends without documented thread-safety",
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Category:    "Models:",
			Sources:     cli.EnvVars("EMBEDDING_SERVICE_OPENAI_API_KEY", "OPENAI_API_KEY"),
			Destination: &cfg.OpenAIAPIKey,
			Usage:       "API key for the openai embedding provider",
		},
		&cli.StringFlag{
			Name:        "openai-base-url",
			Category:    "Models:",
			Sources:     cli.EnvVars("EMBEDDING_SERVICE_OPENAI_BASE_URL"),
			Destination: &cfg.OpenAIBaseURL,
			Value:       cfg.OpenAIBaseURL,
			Usage:       "Base URL for the openai embedding provider",
		},

		// ── Dispatch ──────────────────────────────────────────────
		&cli.IntFlag{
			Name:        "pool-workers",
			Category:    "Dispatch:",
			Sources:     cli.EnvVars("EMBEDDING_SERVICE_POOL_WORKERS"),
			Destination: &cfg.PoolWorkers,
			Value:       cfg.PoolWorkers,
			Usage:       "Number of workers for CPU-bound encode calls (defaults to GOMAXPROCS)",
		},
		&cli.IntFlag{
			Name:        "pool-queue",
			Category:    "Dispatch:",
			Sources:     cli.EnvVars("EMBEDDING_SERVICE_POOL_QUEUE"),
			Destination: &cfg.PoolQueue,
			Value:       cfg.PoolQueue,
			Usage:       "Queued dispatches allowed before requests are rejected with 503",
		},
		&cli.Int64Flag{
			Name:        "max-body-size",
			Category:    "Dispatch:",
			Sources:     cli.EnvVars("EMBEDDING_SERVICE_MAX_BODY_SIZE"),
			Destination: &cfg.MaxBodySize,
			Value:       cfg.MaxBodySize,
			Usage:       "Maximum request body size in bytes",
		},

		// ── Cache ─────────────────────────────────────────────────
		&cli.StringFlag{
			Name:        "cache-kind",
			Category:    "Cache:",
			Sources:     cli.EnvVars("EMBEDDING_SERVICE_CACHE_KIND"),
			Destination: &cfg.CacheType,
			Value:       cfg.CacheType,
			Usage:       "Vector cache backend (" + strings.Join(registrycache.Names(), "|") + ")",
		},
		&cli.StringFlag{
			Name:        "redis-hosts",
			Category:    "Cache:",
			Sources:     cli.EnvVars("EMBEDDING_SERVICE_REDIS_HOSTS"),
			Destination: &cfg.RedisURL,
			Usage:       "Redis connection URL",
		},
		&cli.IntFlag{
			Name:        "cache-ttl-seconds",
			Category:    "Cache:",
			Sources:     cli.EnvVars("EMBEDDING_SERVICE_CACHE_TTL_SECONDS"),
			Destination: cacheTTLSecs,
			Value:       *cacheTTLSecs,
			Usage:       "Cached vector lifetime in seconds (redis backend)",
		},
		&cli.Int64Flag{
			Name:        "cache-max-bytes",
			Category:    "Cache:",
			Sources:     cli.EnvVars("EMBEDDING_SERVICE_CACHE_MAX_BYTES"),
			Destination: &cfg.CacheMaxBytes,
			Value:       cfg.CacheMaxBytes,
			Usage:       "In-process cache size limit in bytes (memory backend)",
		},

		// ── Authorization ─────────────────────────────────────────
		&cli.StringFlag{
			Name:        "api-key",
			Category:    "Authorization:",
			Sources:     cli.EnvVars("EMBEDDING_SERVICE_API_KEY"),
			Destination: &cfg.APIKey,
			Usage:       "Static bearer token for the OpenAI-compatible surface; when set, requests without it are rejected",
		},

		// ── Monitoring ────────────────────────────────────────────
		&cli.StringFlag{
			Name:        "metrics-labels",
			Category:    "Monitoring:",
			Sources:     cli.EnvVars("EMBEDDING_SERVICE_METRICS_LABELS"),
			Destination: &cfg.MetricsLabels,
			Value:       "service=embedding-service",
			Usage:       "Comma-separated key=value pairs added as constant labels to all Prometheus metrics. Supports ${VAR} expansion.",
		},
	}
}

func run(ctx context.Context, cfg config.Config) error {
	srv, err := StartServer(ctx, &cfg)
	if err != nil {
		return err
	}

	<-ctx.Done()
	log.Info("Shutting down...")

	drainCtx, drainCancel := context.WithTimeout(context.Background(), time.Duration(cfg.DrainTimeout)*time.Second)
	defer drainCancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		log.Error("Shutdown error", "err", err)
	}
	log.Info("Server stopped")
	return nil
}

func maxBodySizeMiddleware(maxBodySize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)
		c.Next()
	}
}

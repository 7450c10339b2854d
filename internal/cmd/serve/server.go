package serve

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/memementor/embedding-service/internal/config"
	"github.com/memementor/embedding-service/internal/dispatch"
	"github.com/memementor/embedding-service/internal/models"
	"github.com/memementor/embedding-service/internal/plugin/route/native"
	"github.com/memementor/embedding-service/internal/plugin/route/openaiapi"
	routesystem "github.com/memementor/embedding-service/internal/plugin/route/system"
	registrycache "github.com/memementor/embedding-service/internal/registry/cache"
	"github.com/memementor/embedding-service/internal/security"
)

// Server holds the running server and its subsystems.
type Server struct {
	Config          *config.Config
	Registry        *models.Registry
	Router          *gin.Engine
	Pool            *dispatch.Pool
	Running         *RunningServers
	closeManagement func(context.Context) error
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.closeManagement != nil {
		_ = s.closeManagement(ctx)
	}
	err := s.Running.Close(ctx)
	s.Pool.Close()
	return err
}

// StartServer loads the configured models and starts the HTTP server.
// Use cfg.Listener.Port=0 for a random port. Actual port: Server.Running.Port.
func StartServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	ctx = config.WithContext(ctx, cfg)

	if level, err := log.ParseLevel(cfg.LogLevel); err != nil {
		log.Warn("Unknown log level, using info", "level", cfg.LogLevel)
	} else {
		log.SetLevel(level)
	}

	log.Info("Starting embedding service",
		"httpPort", cfg.Listener.Port,
		"models", cfg.Models,
		"defaultProvider", cfg.DefaultProvider,
		"cache", cfg.CacheType,
		"device", cfg.Device,
	)

	// Initialize Prometheus metrics with configured constant labels.
	metricsLabels, err := security.ParseMetricsLabels(cfg.MetricsLabels)
	if err != nil {
		return nil, fmt.Errorf("invalid --metrics-labels: %w", err)
	}
	security.InitMetrics(metricsLabels)

	// Initialize the vector cache. Cache failures are soft: the service runs
	// without caching rather than refusing to start.
	var vectorCache registrycache.VectorCache
	if cacheLoader, err := registrycache.Select(cfg.CacheType); err != nil {
		log.Warn("Cache not available", "cache", cfg.CacheType, "err", err)
	} else if c, err := cacheLoader(ctx); err != nil {
		log.Warn("Failed to initialize cache", "cache", cfg.CacheType, "err", err)
	} else {
		vectorCache = c
	}

	// Load all configured models up front. Individual load failures are logged
	// and skipped so the service comes up with whatever loaded successfully.
	registry := models.Load(ctx, cfg)
	security.SetModelsLoaded(len(registry.Names()))

	pool := dispatch.NewPool(cfg.PoolWorkers, cfg.PoolQueue)
	dispatcher := dispatch.New(registry, pool, vectorCache)

	// Set up gin
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.ManagementAccessLog {
		router.Use(security.AccessLogMiddleware())
	} else {
		router.Use(security.AccessLogMiddleware("/health", "/ready", "/metrics"))
	}
	router.Use(security.MetricsMiddleware())
	router.Use(maxBodySizeMiddleware(cfg.MaxBodySize))

	auth := security.BearerAuthMiddleware(cfg)
	native.MountRoutes(router, dispatcher)
	openaiapi.MountRoutes(router, dispatcher, auth)
	routesystem.MountRoutes(router, registry)

	// Management endpoints run on a dedicated port when one is configured,
	// otherwise on the main router.
	var closeManagement func(context.Context) error
	if cfg.ManagementListenerEnabled {
		mgmtRouter := gin.New()
		mgmtRouter.Use(gin.Recovery())
		if cfg.ManagementAccessLog {
			mgmtRouter.Use(security.AccessLogMiddleware())
		}
		routesystem.MountManagementRoutes(mgmtRouter)
		// Management listener shares TLS cert/key with the main listener.
		mgmtCfg := cfg.ManagementListener
		mgmtCfg.TLSCertFile = cfg.Listener.TLSCertFile
		mgmtCfg.TLSKeyFile = cfg.Listener.TLSKeyFile
		_, closeManagement, err = startManagementServer(mgmtCfg, mgmtRouter)
		if err != nil {
			return nil, fmt.Errorf("failed to start management server: %w", err)
		}
	} else {
		routesystem.MountManagementRoutes(router)
	}

	running, err := StartSinglePortHTTP(ctx, cfg.Listener, router)
	if err != nil {
		pool.Close()
		return nil, err
	}

	log.Info("Server listening",
		"port", running.Port,
		"plaintext", cfg.Listener.EnablePlainText,
		"tls", cfg.Listener.EnableTLS,
		"models", registry.Names(),
	)

	routesystem.MarkReady()
	return &Server{
		Config:          cfg,
		Registry:        registry,
		Router:          router,
		Pool:            pool,
		Running:         running,
		closeManagement: closeManagement,
	}, nil
}

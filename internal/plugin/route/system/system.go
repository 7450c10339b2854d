package system

import (
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/memementor/embedding-service/internal/config"
	"github.com/memementor/embedding-service/internal/models"
)

var ready atomic.Bool

// MarkReady signals that the service has finished initializing and is ready to
// serve traffic. Call this once StartServer has completed successfully.
func MarkReady() {
	ready.Store(true)
}

// MountRoutes mounts the root service-info endpoint on the main router.
func MountRoutes(r *gin.Engine, registry *models.Registry) {
	r.GET("/", func(c *gin.Context) {
		available := registry.Names()
		if available == nil {
			available = []string{}
		}
		c.JSON(http.StatusOK, gin.H{
			"service":          config.ServiceName,
			"status":           "healthy",
			"version":          config.ServiceVersion,
			"available_models": available,
		})
	})
}

// MountManagementRoutes mounts liveness, readiness, and metrics endpoints.
// They live on the dedicated management server when one is configured,
// otherwise on the main router.
func MountManagementRoutes(r *gin.Engine) {
	// Liveness: process is up
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness: service has finished initializing
	r.GET("/ready", func(c *gin.Context) {
		if ready.Load() {
			c.JSON(http.StatusOK, gin.H{"status": "ready"})
		} else {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "starting"})
		}
	})

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

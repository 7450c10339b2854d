package security

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	embedLatency *prometheus.HistogramVec

	cacheHitsTotal   prometheus.Counter
	cacheMissesTotal prometheus.Counter

	poolQueueDepth prometheus.Gauge

	modelsLoaded prometheus.Gauge
)

var validLabelKey = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ParseMetricsLabels parses a comma-separated list of key=value pairs into
// Prometheus labels. Values support ${VAR} / $VAR environment variable expansion.
// Label values may not contain commas. Returns nil for an empty string.
func ParseMetricsLabels(s string) (prometheus.Labels, error) {
	s = os.Expand(s, os.Getenv)
	if s == "" {
		return nil, nil
	}
	labels := prometheus.Labels{}
	for _, pair := range strings.Split(s, ",") {
		idx := strings.IndexByte(pair, '=')
		if idx < 0 {
			return nil, fmt.Errorf("invalid label %q: expected key=value", pair)
		}
		k, v := pair[:idx], pair[idx+1:]
		if !validLabelKey.MatchString(k) {
			return nil, fmt.Errorf("invalid label key %q: must match [a-zA-Z_][a-zA-Z0-9_]*", k)
		}
		labels[k] = v
	}
	return labels, nil
}

var initMetricsOnce sync.Once

// InitMetrics registers all Prometheus metrics with the given constant labels.
// Must be called before starting the HTTP server. Safe to call multiple times;
// only the first call registers.
func InitMetrics(constLabels prometheus.Labels) {
	initMetricsOnce.Do(func() {
		initMetricsInner(constLabels)
	})
}

func initMetricsInner(constLabels prometheus.Labels) {
	reg := prometheus.WrapRegistererWith(constLabels, prometheus.DefaultRegisterer)
	f := promauto.With(reg)

	httpRequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_service_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)

	httpRequestDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "embedding_service_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	embedLatency = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "embedding_service_embed_latency_seconds",
			Help:    "Embedding encode latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)

	cacheHitsTotal = f.NewCounter(prometheus.CounterOpts{
		Name: "embedding_service_cache_hits_total",
		Help: "Total vector cache hits",
	})

	cacheMissesTotal = f.NewCounter(prometheus.CounterOpts{
		Name: "embedding_service_cache_misses_total",
		Help: "Total vector cache misses",
	})

	poolQueueDepth = f.NewGauge(prometheus.GaugeOpts{
		Name: "embedding_service_pool_queue_depth",
		Help: "Number of encode jobs waiting for a worker",
	})

	modelsLoaded = f.NewGauge(prometheus.GaugeOpts{
		Name: "embedding_service_models_loaded",
		Help: "Number of models loaded into the registry",
	})
}

// ObserveEmbedLatency records how long an encode call took for a model.
func ObserveEmbedLatency(model string, d time.Duration) {
	if embedLatency != nil {
		embedLatency.WithLabelValues(model).Observe(d.Seconds())
	}
}

// RecordCacheHit increments the vector cache hit counter.
func RecordCacheHit() {
	if cacheHitsTotal != nil {
		cacheHitsTotal.Inc()
	}
}

// RecordCacheMiss increments the vector cache miss counter.
func RecordCacheMiss() {
	if cacheMissesTotal != nil {
		cacheMissesTotal.Inc()
	}
}

// SetPoolQueueDepth reports the current worker pool queue depth.
func SetPoolQueueDepth(n int) {
	if poolQueueDepth != nil {
		poolQueueDepth.Set(float64(n))
	}
}

// SetModelsLoaded reports the registry size after startup loading.
func SetModelsLoaded(n int) {
	if modelsLoaded != nil {
		modelsLoaded.Set(float64(n))
	}
}

// MetricsMiddleware records HTTP request metrics for Prometheus.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if httpRequestsTotal == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		httpRequestsTotal.WithLabelValues(c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

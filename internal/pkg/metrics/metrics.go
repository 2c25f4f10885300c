package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fleetpulse",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fleetpulse",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fleetpulse",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Fleet-specific metrics
	PositionsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fleetpulse",
		Subsystem: "tracking",
		Name:      "positions_ingested_total",
		Help:      "Total vehicle positions ingested from GP51",
	})

	GP51PollDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fleetpulse",
		Subsystem: "tracking",
		Name:      "gp51_poll_duration_seconds",
		Help:      "Duration of GP51 position polling",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	GP51PollErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fleetpulse",
		Subsystem: "tracking",
		Name:      "gp51_poll_errors_total",
		Help:      "Total GP51 poll errors",
	})

	GeofenceAlerts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fleetpulse",
		Subsystem: "geofence",
		Name:      "alerts_total",
		Help:      "Total geofence entry/exit alerts emitted",
	}, []string{"event"})

	// Map pipeline metrics
	ViewportCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fleetpulse",
		Subsystem: "map",
		Name:      "viewport_cache_hits_total",
		Help:      "Viewport results served from cache or throttle window",
	}, []string{"path"})

	ViewportCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fleetpulse",
		Subsystem: "map",
		Name:      "viewport_cache_misses_total",
		Help:      "Viewport results that required a fresh compute",
	})

	VirtualizePassDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fleetpulse",
		Subsystem: "map",
		Name:      "virtualize_pass_duration_seconds",
		Help:      "Duration of one viewport filter/cluster pass",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fleetpulse",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fleetpulse",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fleetpulse",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fleetpulse",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// UpdateDBPoolMetrics updates database pool metrics from pgx pool stats.
// Accepts the stat through a small interface so this package stays free of a
// pgxpool import.
func UpdateDBPoolMetrics(stat interface{}) {
	type poolStat interface {
		AcquiredConns() int32
		IdleConns() int32
		TotalConns() int32
	}

	if s, ok := stat.(poolStat); ok {
		DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
		DBPoolConnsIdle.Set(float64(s.IdleConns()))
		DBPoolConnsOpen.Set(float64(s.TotalConns()))
	}
}

package middleware

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linli_http_requests_total",
			Help: "HTTP requests served, labelled by API area",
		},
		[]string{"method", "path", "area", "status"},
	)

	// Submits can hold a request for the full moderation provider timeout
	// (8s default), so the upper buckets run well past CRUD latencies.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "linli_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
		[]string{"method", "area"},
	)

	activeRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "linli_http_active_requests",
			Help: "Number of in-flight HTTP requests",
		},
	)

	dbConnectionsInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "linli_db_connections_in_use",
			Help: "Database connections currently in use",
		},
	)

	dbConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "linli_db_connections_idle",
			Help: "Idle database connections in the pool",
		},
	)
)

// Metrics returns a gin middleware that records request metrics per API area.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/metrics" || path == "/health" {
			c.Next()
			return
		}

		start := time.Now()
		activeRequests.Inc()

		c.Next()

		activeRequests.Dec()

		// Record against the route template so path params don't explode
		// label cardinality.
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		area := apiArea(route)
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, area, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, area).Observe(time.Since(start).Seconds())
	}
}

// apiArea maps a route template to the functional area it belongs to,
// so dashboards can slice latency by workflow instead of raw path.
func apiArea(route string) string {
	rest, ok := strings.CutPrefix(route, "/api/v1/")
	if !ok {
		return "system"
	}
	segment, _, _ := strings.Cut(rest, "/")
	switch segment {
	case "posts":
		return "content"
	case "reports":
		return "reports"
	case "moderation":
		return "moderation"
	case "decryption-requests":
		return "decryption"
	case "audit-logs":
		return "audit"
	default:
		return "other"
	}
}

// CollectDBStats samples the connection pool gauges at the given interval
// until the returned channel is closed.
func CollectDBStats(db *sql.DB, interval time.Duration) chan<- struct{} {
	stop := make(chan struct{})
	sample := func() {
		s := db.Stats()
		dbConnectionsInUse.Set(float64(s.InUse))
		dbConnectionsIdle.Set(float64(s.Idle))
	}
	sample()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				sample()
			}
		}
	}()
	return stop
}

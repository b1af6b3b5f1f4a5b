// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file exposes Prometheus instrumentation for HTTP traffic. Labels are
// kept coarse (method, registered route, status) so cardinality stays
// bounded while the portal's dashboards remain actionable. All collectors
// are safe for concurrent use.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// httpReqs counts requests by method, route path, and status code.
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// httpLat records request duration in seconds by method and route path.
	// Status is omitted to keep histogram cardinality lower.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// httpInflight gauges the number of in-flight requests.
	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// sessionsLive gauges the number of authenticated sessions held in
	// memory. Set by the session middleware owner via SetSessionGauge.
	sessionsLive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "portal_sessions_live",
			Help: "Number of live authenticated sessions.",
		},
	)

	// chatFallbacks counts assistant answers that fell back to canned text,
	// split by cause ("not_configured" or "unavailable").
	chatFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_chat_fallbacks_total",
			Help: "Chat answers served from fallback text instead of the model.",
		},
		[]string{"cause"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, sessionsLive, chatFallbacks)
}

// SetSessionGauge records the live session count.
func SetSessionGauge(n int) { sessionsLive.Set(float64(n)) }

// CountChatFallback increments the fallback counter for the given cause.
func CountChatFallback(cause string) { chatFallbacks.WithLabelValues(cause).Inc() }

// Metrics returns a Gin middleware that instruments requests with
// Prometheus. The "path" label uses the registered route (c.FullPath()) to
// avoid unbounded label cardinality from raw URLs; for unmatched routes it
// falls back to the raw path.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		dur := time.Since(start).Seconds()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		httpReqs.WithLabelValues(method, path, status).Inc()
		httpLat.WithLabelValues(method, path).Observe(dur)
	}
}

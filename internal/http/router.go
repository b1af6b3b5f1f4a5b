// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, route handlers, and the server-rendered portal pages. It
// centralizes cross-cutting concerns such as tracing, correlation IDs,
// logging/redaction, panic recovery, metrics, CORS, security headers, and
// rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Joshua-Garn/real-education-backend/internal/auth"
	"github.com/Joshua-Garn/real-education-backend/internal/chat"
	"github.com/Joshua-Garn/real-education-backend/internal/config"
	"github.com/Joshua-Garn/real-education-backend/internal/http/handlers"
	"github.com/Joshua-Garn/real-education-backend/internal/http/middleware"
)

// sessionResolver adapts the account manager to the middleware's
// SessionResolver contract. This keeps the middleware package decoupled from
// the auth package while reusing Manager.Resolve (including its restore
// path for valid tokens whose session is no longer in memory).
type sessionResolver struct {
	mgr *auth.Manager
}

// ResolveToken proxies auth.Manager.Resolve.
func (r sessionResolver) ResolveToken(ctx context.Context, token string) (sessionID, userID string, ok bool) {
	sess := r.mgr.Resolve(ctx, token)
	if sess == nil {
		return "", "", false
	}
	return sess.ID, sess.Principal.UID, true
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), session resolution
// and rate limiting, CORS and security headers, health and metrics endpoints,
// the server-rendered portal pages, and then mounts the public API under the
// configured base path.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Response compression
//  7. Metrics
//  8. Session resolution (before rate limiter so buckets key by user)
//  9. Rate limiter (per user/IP)
//  10. CORS and Security headers
func RegisterRoutes(r *gin.Engine, mgr *auth.Manager, chats *chat.Registry, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key",
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Compress page and API responses
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Resolve the session token (cookie or bearer) into request identity
	r.Use(middleware.ResolveSession(sessionResolver{mgr: mgr}))

	// 9) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 10) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Server-rendered portal pages
	pages := NewPages(mgr)
	pages.Register(r)

	// Public API
	h := handlers.New(mgr, chats, int(cfg.Session.TTL.Seconds()), cfg.Security.EnableHSTS)
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Accounts
		api.POST("/auth/signup", h.Signup)
		api.POST("/auth/login", h.Login)
		api.POST("/auth/logout", h.Logout)
		api.POST("/auth/reset-password", h.ResetPassword)
		api.POST("/auth/reset-password/confirm", h.ConfirmResetPassword)
		api.GET("/auth/me", middleware.RequireSession(), h.Me)
		api.PATCH("/auth/me", middleware.RequireSession(), h.UpdateMe)

		// Chat assistant
		api.POST("/chat/messages", middleware.RequireSession(), h.SendMessage)
		api.GET("/chat/messages", middleware.RequireSession(), h.ChatHistory)
		api.DELETE("/chat/messages", middleware.RequireSession(), h.ClearChat)

		// Courses and progress
		api.GET("/courses", h.ListCourses)
		api.GET("/profile/:id", h.GetProfile)
		api.PUT("/progress", middleware.RequireSession(), h.UpdateProgress)
		api.POST("/courses/:id/complete", middleware.RequireSession(), h.CompleteCourse)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

// Command server runs the Real Education portal: the server-rendered pages,
// the JSON API for accounts, courses, and the learning assistant, and the
// operational endpoints (/health, /metrics).
//
// Startup order:
//  1. Load .env (best effort) and environment configuration
//  2. Configure zerolog (level, optional pretty console)
//  3. Open SQLite and run migrations
//  4. Set up OpenTelemetry tracing (no-op when disabled)
//  5. Build the account manager and conversation registry
//  6. Wire session events to conversation cleanup and the sessions gauge
//  7. Serve HTTP until SIGINT/SIGTERM, then drain gracefully
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Joshua-Garn/real-education-backend/internal/auth"
	"github.com/Joshua-Garn/real-education-backend/internal/chat"
	"github.com/Joshua-Garn/real-education-backend/internal/config"
	httpapi "github.com/Joshua-Garn/real-education-backend/internal/http"
	"github.com/Joshua-Garn/real-education-backend/internal/http/middleware"
	"github.com/Joshua-Garn/real-education-backend/internal/observability"
	"github.com/Joshua-Garn/real-education-backend/internal/repo"
	"github.com/Joshua-Garn/real-education-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	gin.SetMode(cfg.GinMode)

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("run migrations")
	}
	log.Info().Str("path", cfg.DBPath).Msg("database ready")

	ctx := context.Background()
	serviceName := sysutil.FirstNonEmpty(cfg.OTEL.ServiceName, "real-education-backend")
	cfg.OTEL.ServiceName = serviceName
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("setup tracing")
	}

	sessions := auth.NewStore(cfg.Session.TTL)
	tokens := auth.NewTokenIssuer(cfg.Session.Secret, cfg.Session.TTL)
	mgr := auth.NewManager(db, sessions, tokens, nil)

	completer := chat.NewOpenAIClient(cfg.Chat.APIKey, cfg.Chat.BaseURL, cfg.Chat.Model, nil)
	registry := chat.NewRegistry(completer, cfg.Chat.IdleTTL)

	// A signed-out session takes its conversation with it; every event also
	// refreshes the live-sessions gauge.
	unsubscribe := sessions.Subscribe(func(ev auth.Event) {
		if ev.Kind == auth.EventSignedOut {
			registry.Drop(ev.SessionID)
		}
		middleware.SetSessionGauge(sessions.Len())
	})
	defer unsubscribe()

	engine := gin.New()
	httpapi.RegisterRoutes(engine, mgr, registry, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	mgr.Close()
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown")
	}
	log.Info().Msg("bye")
}

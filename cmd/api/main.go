// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Onnanoko HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Open the media store and load site settings.
//  7. Wire HTTP handlers.
//  8. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/onnanoko/internal/admin"
	"github.com/taibuivan/onnanoko/internal/api"
	"github.com/taibuivan/onnanoko/internal/core/character"
	"github.com/taibuivan/onnanoko/internal/core/explore"
	"github.com/taibuivan/onnanoko/internal/core/image"
	"github.com/taibuivan/onnanoko/internal/core/taxonomy"
	"github.com/taibuivan/onnanoko/internal/platform/blob"
	"github.com/taibuivan/onnanoko/internal/platform/config"
	"github.com/taibuivan/onnanoko/internal/platform/constants"
	"github.com/taibuivan/onnanoko/internal/platform/migration"
	pgstore "github.com/taibuivan/onnanoko/internal/platform/postgres"
	redisstore "github.com/taibuivan/onnanoko/internal/platform/redis"
	"github.com/taibuivan/onnanoko/internal/platform/sec"
	"github.com/taibuivan/onnanoko/internal/system/settings"
	"github.com/taibuivan/onnanoko/internal/users/account"
	"github.com/taibuivan/onnanoko/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log := rawLog.With(slog.String("app", "onnanoko"))
	slog.SetDefault(log)

	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "onnanoko"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Startup gets a 30s deadline so a bad DSN fails fast.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Media & Settings ───────────────────────────────────────────────
	media, err := blob.NewLocalStore(cfg.MediaRoot, cfg.MediaBaseURL)
	must(log, err, "open media store")

	settingsService := settings.NewService(settings.NewPostgresRepository(pool), log)
	must(log, settingsService.Load(startupCtx), "load site settings")

	jwtSvc, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	// ── 7. Health handlers ────────────────────────────────────────────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		},
		CheckCache: func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	taxonomyService := taxonomy.NewService(taxonomy.NewPostgresRepository(pool), log)
	characterService := character.NewService(character.NewPostgresRepository(pool), taxonomyService, media, log)
	imageService := image.NewService(image.NewPostgresRepository(pool), characterService, taxonomyService, media, log)
	exploreService := explore.NewService(taxonomyService, characterService, imageService)

	userRepository := auth.NewUserRepository(pool)
	authService := auth.NewService(userRepository, auth.NewSessionRepository(rdb), jwtSvc, settingsService, log)
	accountService := account.NewService(userRepository, authService, imageService, log)
	adminService := admin.NewService(admin.NewPostgresRepository(pool), userRepository, authService, imageService, taxonomyService, log)

	imageHandler := image.NewHandler(imageService)

	handlers := api.Handlers{
		Liveness:   liveness,
		Readiness:  readiness,
		Series:     taxonomy.NewHandler(taxonomyService, taxonomy.KindSeries),
		Groups:     taxonomy.NewHandler(taxonomyService, taxonomy.KindGroup),
		Tags:       taxonomy.NewHandler(taxonomyService, taxonomy.KindTag),
		Characters: character.NewHandler(characterService),
		Images:     imageHandler,
		Explore:    explore.NewHandler(exploreService),
		Auth:       auth.NewHandler(authService, !cfg.IsDevelopment()),
		Account:    account.NewHandler(accountService),
		Admin:      admin.NewHandler(adminService, imageHandler.ModerationRoutes(), settings.NewHandler(settingsService).Routes()),
		Media:      media.Handler(),
	}

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, api.Options{
		Port:         cfg.ServerPort,
		MediaBaseURL: cfg.MediaBaseURL,
		CORS:         cfg,
	}, log, jwtSvc, handlers)

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// Only used during startup wiring. After startup, errors are returned.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}

// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost presentation boundary and the composition
    root of the chi router.
  - Handlers are constructed in cmd/api and injected through [Handlers].
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/onnanoko/internal/admin"
	"github.com/taibuivan/onnanoko/internal/core/character"
	"github.com/taibuivan/onnanoko/internal/core/explore"
	"github.com/taibuivan/onnanoko/internal/core/image"
	"github.com/taibuivan/onnanoko/internal/core/taxonomy"
	"github.com/taibuivan/onnanoko/internal/platform/constants"
	"github.com/taibuivan/onnanoko/internal/platform/middleware"
	"github.com/taibuivan/onnanoko/internal/users/account"
	"github.com/taibuivan/onnanoko/internal/users/auth"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
type Handlers struct {
	// Liveness is the /health handler, 200 while the process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler, 200 when Postgres and Redis answer.
	Readiness http.HandlerFunc

	// Series, Groups and Tags serve the three taxonomy collections.
	Series *taxonomy.Handler
	Groups *taxonomy.Handler
	Tags   *taxonomy.Handler

	Characters *character.Handler
	Images     *image.Handler
	Explore    *explore.Handler

	Auth    *auth.Handler
	Account *account.Handler
	Admin   *admin.Handler

	// Media serves stored blobs; nil when another server fronts them.
	Media http.Handler
}

// Options carries the settings the router needs from configuration.
type Options struct {
	Port         string
	MediaBaseURL string
	CORS         middleware.OriginPolicy
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(ctx context.Context, opts Options, log *slog.Logger, verifier middleware.TokenVerifier, h Handlers) *Server {
	r := NewRouter(ctx, opts, log, verifier, h)

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + opts.Port,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// NewRouter builds the routing tree. It is separate from [NewServer] so tests
// can drive it with httptest.
func NewRouter(ctx context.Context, opts Options, log *slog.Logger, verifier middleware.TokenVerifier, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	// # Middleware Chain
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(ctx))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.Authenticate(verifier))
	if opts.CORS != nil {
		r.Use(middleware.CORS(opts.CORS))
	}
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	if h.Media != nil {
		prefix := "/" + strings.Trim(opts.MediaBaseURL, "/")
		r.Handle(prefix+"/*", http.StripPrefix(prefix, h.Media))
	}

	// # Application API
	r.Route("/api/v1", func(api chi.Router) {
		api.Mount("/series", h.Series.Routes())
		api.Mount("/groups", h.Groups.Routes())
		api.Mount("/tags", h.Tags.Routes())
		api.Mount("/characters", h.Characters.Routes())
		api.Mount("/images", h.Images.Routes())
		api.Mount("/gallery", h.Images.GalleryRoutes())
		api.Mount("/explore", h.Explore.Routes())
		api.Mount("/auth", h.Auth.Routes())
		api.Mount("/me", h.Account.Routes())
		api.Mount("/admin", h.Admin.Routes())
	})

	return r
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server_starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

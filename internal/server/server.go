// Package server exposes the listing catalog over HTTP. Every request filters
// its own copy of the catalog; per-user favorites and search history live in
// the Redis preferences store.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rsilvagit/tutorfind/internal/cache"
	"github.com/rsilvagit/tutorfind/internal/model"
)

// Options configures a Server. Preferences may be nil, in which case the
// favorites and history routes answer 503.
type Options struct {
	Addr         string
	NearLocation string
	CORSOrigins  []string
	Preferences  *cache.Preferences
	Logger       *zap.Logger
}

// Server is the REST API server.
type Server struct {
	httpServer   *http.Server
	catalog      []model.Listing
	prefs        *cache.Preferences
	nearLocation string
	corsOrigins  []string
	log          *zap.Logger
}

// New builds a server over catalog. The catalog is never modified.
func New(catalog []model.Listing, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &Server{
		catalog:      catalog,
		prefs:        opts.Preferences,
		nearLocation: opts.NearLocation,
		corsOrigins:  opts.CORSOrigins,
		log:          opts.Logger.Named("server"),
	}
	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(loggerMiddleware(s.log))
	r.Use(middleware.Recoverer)
	if len(s.corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.corsOrigins,
			AllowedMethods: []string{"GET", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", UserHeader},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.SetHeader("Content-Type", "application/json"))

		r.Get("/listings", s.listListings)

		r.Group(func(r chi.Router) {
			r.Use(s.requirePreferences)
			r.Use(requireUser)

			r.Put("/favorites/{id}", s.addFavorite)
			r.Delete("/favorites/{id}", s.removeFavorite)
			r.Get("/history", s.getHistory)
			r.Delete("/history", s.clearHistory)
		})
	})

	return r
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start runs the HTTP server until it is stopped.
func (s *Server) Start() error {
	s.log.Info("starting REST API server",
		zap.String("addr", s.httpServer.Addr),
		zap.Int("listings", len(s.catalog)),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("stopping REST API server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) requirePreferences(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.prefs == nil {
			writeJSONError(w, http.StatusServiceUnavailable, "preferences store is not configured")
			return
		}
		next.ServeHTTP(w, r)
	})
}

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/amaumene/moviebrowser/internal/api/handlers"
	"github.com/amaumene/moviebrowser/internal/api/middleware"
	"github.com/amaumene/moviebrowser/internal/catalog"
	"github.com/amaumene/moviebrowser/internal/config"
	"github.com/amaumene/moviebrowser/internal/controllers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Dependencies groups what the HTTP handlers serve
type Dependencies struct {
	Entities    *catalog.EntityStore
	NowPlaying  *catalog.MovieCollection
	Favorites   *catalog.FavoriteCollection
	ImageConfig *catalog.ImageConfig
	Source      catalog.MovieSource
	Cleaner     *controllers.DataCleaner
	Counter     handlers.FavoriteCounter
	Cache       handlers.CacheSizer
}

// Server represents the HTTP server
type Server struct {
	server *http.Server
	deps   Dependencies
	logger *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, deps Dependencies, logger *logrus.Logger) *Server {
	s := &Server{
		deps:   deps,
		logger: logger,
	}

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      middleware.Logging(middleware.Recover(s.routes(), logger), logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// routes configures all HTTP routes
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Health check
	mux.Handle("/health", handlers.NewHealthHandler(s.logger))

	// Status endpoint
	mux.Handle("/status", handlers.NewStatusHandler(s.deps.Entities, s.deps.NowPlaying, s.deps.Counter, s.deps.Cache, s.logger))

	// Prometheus metrics
	mux.Handle("GET /metrics", promhttp.Handler())

	// Movies
	movies := handlers.NewMoviesHandler(s.deps.Entities, s.deps.NowPlaying, s.deps.Source, s.deps.ImageConfig, s.logger)
	mux.HandleFunc("GET /api/movies/now-playing", movies.NowPlaying)
	mux.HandleFunc("POST /api/movies/now-playing/next", movies.NowPlayingNext)
	mux.HandleFunc("GET /api/movies/{id}", movies.Movie)
	mux.HandleFunc("GET /api/movies/{id}/similar", movies.Similar)

	// Favorites
	favorites := handlers.NewFavoritesHandler(s.deps.Favorites, movies, s.deps.ImageConfig, s.logger)
	mux.HandleFunc("GET /api/favorites", favorites.List)
	mux.HandleFunc("GET /api/favorites/{id}", favorites.Get)
	mux.HandleFunc("POST /api/favorites/{id}", favorites.Add)
	mux.HandleFunc("DELETE /api/favorites/{id}", favorites.Remove)

	// Maintenance
	admin := handlers.NewAdminHandler(s.deps.Cleaner, s.deps.Entities, s.logger)
	mux.HandleFunc("POST /api/admin/clear", admin.Clear)
	mux.HandleFunc("POST /api/admin/compact", admin.Compact)

	return mux
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("port", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/amaumene/moviebrowser/internal/api"
	"github.com/amaumene/moviebrowser/internal/catalog"
	"github.com/amaumene/moviebrowser/internal/config"
	"github.com/amaumene/moviebrowser/internal/controllers"
	"github.com/amaumene/moviebrowser/internal/models"
	"github.com/amaumene/moviebrowser/internal/scheduler"
	"github.com/amaumene/moviebrowser/internal/services/tmdb"
	"github.com/amaumene/moviebrowser/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "moviebrowser",
		Short:         "Browse TMDB now playing movies and keep a list of favorites",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the refresh scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}

	var clearFavorites bool
	clearData := &cobra.Command{
		Use:   "clear-data",
		Short: "Clear the TMDB response cache and optionally the favorites",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runClearData(cmd.Context(), clearFavorites)
		},
	}
	clearData.Flags().BoolVar(&clearFavorites, "favorites", false, "also delete all favorites")

	root.AddCommand(serve, clearData)
	root.RunE = serve.RunE
	return root
}

// app holds the components shared by every command
type app struct {
	cfg      *config.Config
	logger   *logrus.Logger
	db       *models.Database
	memory   *tmdb.MemoryCache
	redis    *tmdb.RedisCache
	client   *tmdb.Client
	entities *catalog.EntityStore
	store    *controllers.FavoriteStore
}

func setup(ctx context.Context) (*app, error) {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger
	logger := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)
	logger.WithField("config_dir", filepath.Dir(cfg.DatabaseFile)).Info("Configuration loaded")

	// 3. Initialize database
	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	logger.Info("Database initialized")

	// 4. Initialize response caches
	a := &app{cfg: cfg, logger: logger, db: db, memory: tmdb.NewMemoryCache(cfg.TMDBCacheTTL)}
	var cache tmdb.ResponseCache = a.memory
	if cfg.RedisAddr != "" {
		a.redis, err = tmdb.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.TMDBCacheTTL, logger)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, continuing with the in-memory cache only")
		} else {
			cache = tmdb.TieredCache{a.memory, a.redis}
		}
	}

	// 5. Initialize services
	a.client = tmdb.NewClient(cfg, cache, logger)
	a.entities = catalog.NewEntityStore(a.client, logger)
	a.store = controllers.NewFavoriteStore(db, logger)
	logger.Info("TMDB client initialized")

	return a, nil
}

func (a *app) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.WithError(err).Warn("Failed to close Redis connection")
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Warn("Failed to close database")
	}
}

func run(ctx context.Context) error {
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	logger := a.logger
	logger.Info("Starting moviebrowser")

	// 6. Initialize collections
	nowPlaying := catalog.NewNowPlayingCollection(a.client, a.entities, logger)
	favorites := catalog.NewFavoriteCollection(a.store, a.entities, logger)
	imageConfig := catalog.NewImageConfig(a.db, logger)
	cleaner := controllers.NewDataCleaner(favorites, a.store, a.client, logger)
	watches := []*catalog.CollectionSubscription{
		catalog.WatchCollection(catalog.NowPlayingName, nowPlaying, logger),
		catalog.WatchCollection("favorites", favorites, logger),
	}
	defer func() {
		for _, w := range watches {
			w.Unsubscribe()
		}
	}()
	logger.Info("Collections initialized")

	// 7. Initialize scheduler
	sched := scheduler.NewScheduler(a.cfg, nowPlaying, favorites, imageConfig, a.client, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// 8. Initialize HTTP server
	server := api.NewServer(a.cfg, api.Dependencies{
		Entities:    a.entities,
		NowPlaying:  nowPlaying,
		Favorites:   favorites,
		ImageConfig: imageConfig,
		Source:      a.client,
		Cleaner:     cleaner,
		Counter:     a.db,
		Cache:       a.memory,
	}, logger)

	// 9. Serve until a shutdown signal arrives
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("moviebrowser is running")
	if err := server.Start(ctx); err != nil {
		return err
	}

	logger.Info("moviebrowser stopped")
	return nil
}

func runClearData(ctx context.Context, clearFavorites bool) error {
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	favorites := catalog.NewFavoriteCollection(a.store, a.entities, a.logger)
	cleaner := controllers.NewDataCleaner(favorites, a.store, a.client, a.logger)
	return cleaner.ClearData(ctx, clearFavorites, func(stage controllers.Stage) {
		fmt.Println(stage)
	})
}

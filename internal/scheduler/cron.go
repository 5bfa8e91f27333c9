package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amaumene/moviebrowser/internal/catalog"
	"github.com/amaumene/moviebrowser/internal/config"
	"github.com/amaumene/moviebrowser/internal/metrics"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const jobTimeout = 2 * time.Minute

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron        *cron.Cron
	nowPlaying  *catalog.MovieCollection
	favorites   *catalog.FavoriteCollection
	imageConfig *catalog.ImageConfig
	source      catalog.MovieSource
	refreshSpec string
	configSpec  string
	logger      *logrus.Logger

	// warm-up started by Start, cancelled and awaited by Stop
	cancelWarmUp context.CancelFunc
	warmUp       sync.WaitGroup
}

// NewScheduler creates a new scheduler
func NewScheduler(
	cfg *config.Config,
	nowPlaying *catalog.MovieCollection,
	favorites *catalog.FavoriteCollection,
	imageConfig *catalog.ImageConfig,
	source catalog.MovieSource,
	logger *logrus.Logger,
) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		nowPlaying:  nowPlaying,
		favorites:   favorites,
		imageConfig: imageConfig,
		source:      source,
		refreshSpec: cfg.RefreshCron,
		configSpec:  cfg.ConfigRefreshCron,
		logger:      logger,
	}
}

// Start registers the jobs, starts the scheduler and warms up the catalog
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler")

	// Refresh the now playing list
	_, err := s.cron.AddFunc(s.refreshSpec, func() {
		s.runRefreshNowPlaying()
	})
	if err != nil {
		return fmt.Errorf("failed to add now playing refresh job: %w", err)
	}

	// Refresh the TMDB image configuration
	_, err = s.cron.AddFunc(s.configSpec, func() {
		s.runRefreshConfig()
	})
	if err != nil {
		return fmt.Errorf("failed to add configuration refresh job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")

	ctx, cancel := context.WithCancel(context.Background())
	s.cancelWarmUp = cancel
	s.warmUp.Add(1)
	go func() {
		defer s.warmUp.Done()
		if err := s.WarmUp(ctx); err != nil {
			s.logger.WithError(err).Warn("Initial warm-up incomplete")
		}
	}()

	return nil
}

// Stop cancels the warm-up and stops the scheduler, waiting for both
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	if s.cancelWarmUp != nil {
		s.cancelWarmUp()
	}
	s.warmUp.Wait()
	<-s.cron.Stop().Done()
}

// WarmUp loads the image configuration, the first now playing page and the
// favorites concurrently
func (s *Scheduler) WarmUp(ctx context.Context) error {
	s.logger.Info("Running initial warm-up")

	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.record("config_refresh", s.imageConfig.Refresh(ctx, s.source))
	})
	g.Go(func() error {
		return s.record("now_playing_load", s.nowPlaying.Load(ctx).Wait(ctx))
	})
	g.Go(func() error {
		return s.record("favorites_load", s.favorites.Load(ctx).Wait(ctx))
	})

	if err := g.Wait(); err != nil {
		return err
	}
	s.logger.Info("Initial warm-up completed")
	return nil
}

// runRefreshNowPlaying executes the now playing refresh job
func (s *Scheduler) runRefreshNowPlaying() {
	s.logger.Info("Running scheduled now playing refresh")
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.record("now_playing_refresh", s.nowPlaying.Refresh(ctx).Wait(ctx)); err != nil {
		s.logger.WithError(err).Error("Now playing refresh failed")
	} else {
		s.logger.WithField("movies", len(s.nowPlaying.Movies())).Info("Now playing refresh completed successfully")
	}
}

// runRefreshConfig executes the configuration refresh job
func (s *Scheduler) runRefreshConfig() {
	s.logger.Info("Running scheduled configuration refresh")
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.record("config_refresh", s.imageConfig.Refresh(ctx, s.source)); err != nil {
		s.logger.WithError(err).Error("Configuration refresh failed")
	} else {
		s.logger.Info("Configuration refresh completed successfully")
	}
}

func (s *Scheduler) record(job string, err error) error {
	metrics.ScheduledJobs.WithLabelValues(job, metrics.Outcome(err)).Inc()
	if err != nil {
		return fmt.Errorf("%s: %w", job, err)
	}
	return nil
}

package controllers

import (
	"context"
	"fmt"

	"github.com/amaumene/moviebrowser/internal/catalog"
	"github.com/sirupsen/logrus"
)

// Stage is a step of a data wipe
type Stage string

const (
	StageFavorites Stage = "FAVORITES"
	StageHTTPCache Stage = "HTTP_CACHE"
	StageComplete  Stage = "COMPLETE"
)

// CacheClearer drops cached remote responses
type CacheClearer interface {
	ClearCache(ctx context.Context) error
}

// DataCleaner wipes locally held user data and caches
type DataCleaner struct {
	favorites *catalog.FavoriteCollection
	store     catalog.FavoriteStore
	cache     CacheClearer
	logger    *logrus.Logger
}

// NewDataCleaner creates a new data cleaner
func NewDataCleaner(favorites *catalog.FavoriteCollection, store catalog.FavoriteStore, cache CacheClearer, logger *logrus.Logger) *DataCleaner {
	return &DataCleaner{
		favorites: favorites,
		store:     store,
		cache:     cache,
		logger:    logger,
	}
}

// ClearData clears the response cache and, if clearFavorites is set, the
// favorites. report is called as each stage starts and may be nil.
func (c *DataCleaner) ClearData(ctx context.Context, clearFavorites bool, report func(Stage)) error {
	if report == nil {
		report = func(Stage) {}
	}

	c.logger.WithField("favorites", clearFavorites).Info("Starting data cleanup")

	if clearFavorites {
		report(StageFavorites)
		// Memory first so no model stays flagged for a wiped record
		c.favorites.Clear()
		if err := c.store.Wipe(ctx); err != nil {
			return fmt.Errorf("failed to wipe favorites: %w", err)
		}
	}

	report(StageHTTPCache)
	if err := c.cache.ClearCache(ctx); err != nil {
		return fmt.Errorf("failed to clear HTTP cache: %w", err)
	}

	report(StageComplete)
	c.logger.Info("Data cleanup completed")
	return nil
}

package controllers

import (
	"context"
	"errors"
	"fmt"

	"github.com/amaumene/moviebrowser/internal/models"
	"github.com/sirupsen/logrus"
)

// FavoriteStore persists favorite movies in the local database
type FavoriteStore struct {
	db     *models.Database
	logger *logrus.Logger
}

// NewFavoriteStore creates a new favorite store
func NewFavoriteStore(db *models.Database, logger *logrus.Logger) *FavoriteStore {
	return &FavoriteStore{
		db:     db,
		logger: logger,
	}
}

// AddFavorite stores movie. It reports false if it was already stored.
func (s *FavoriteStore) AddFavorite(ctx context.Context, movie models.MovieData) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	ok, err := s.db.InsertFavorite(movie)
	if err != nil {
		return false, fmt.Errorf("failed to insert favorite: %w", err)
	}
	if !ok {
		s.logger.WithField("movie_id", movie.ID).Warn("Favorite already stored")
	}
	return ok, nil
}

// DeleteFavorite removes a movie. It reports false if it was not stored.
func (s *FavoriteStore) DeleteFavorite(ctx context.Context, movieID int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	ok, err := s.db.DeleteFavorite(movieID)
	if err != nil {
		return false, fmt.Errorf("failed to delete favorite: %w", err)
	}
	if !ok {
		s.logger.WithField("movie_id", movieID).Warn("Favorite not stored")
	}
	return ok, nil
}

// GetAllFavorites returns every stored movie, most recently added first
func (s *FavoriteStore) GetAllFavorites(ctx context.Context) ([]models.MovieData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	favs, err := s.db.GetAllFavorites()
	if err != nil {
		return nil, fmt.Errorf("failed to get favorites: %w", err)
	}

	movies := make([]models.MovieData, 0, len(favs))
	for _, fav := range favs {
		movies = append(movies, fav.Movie)
	}
	return movies, nil
}

// GetFavorite returns a stored movie, or nil if it is not a favorite
func (s *FavoriteStore) GetFavorite(ctx context.Context, movieID int) (*models.MovieData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fav, err := s.db.GetFavorite(movieID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get favorite: %w", err)
	}
	return &fav.Movie, nil
}

// Wipe deletes every stored favorite
func (s *FavoriteStore) Wipe(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	deleted, err := s.db.DeleteAllFavorites()
	if err != nil {
		return fmt.Errorf("failed to wipe favorites: %w", err)
	}
	s.logger.WithField("deleted", deleted).Info("Favorites wiped")
	return nil
}

package catalog

import (
	"context"

	"github.com/amaumene/moviebrowser/internal/models"
)

// MovieSource is the remote movie catalog
type MovieSource interface {
	NowPlaying(ctx context.Context, page int) (*models.PagingEnvelope, error)
	SimilarMovies(ctx context.Context, movieID, page int) (*models.PagingEnvelope, error)
	MovieDetails(ctx context.Context, movieID int) (*models.MovieDetailsData, error)
	Configuration(ctx context.Context) (*models.Configuration, error)
}

// FavoriteStore persists favorite movies. Add and Delete report false when
// the store did not change.
type FavoriteStore interface {
	AddFavorite(ctx context.Context, movie models.MovieData) (bool, error)
	DeleteFavorite(ctx context.Context, movieID int) (bool, error)
	GetAllFavorites(ctx context.Context) ([]models.MovieData, error)
	GetFavorite(ctx context.Context, movieID int) (*models.MovieData, error)
	Wipe(ctx context.Context) error
}

// ConfigStore persists small configuration values
type ConfigStore interface {
	GetConfigItem(key string) (string, bool)
	SaveConfigItem(key, value string) error
}

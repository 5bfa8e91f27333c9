package catalog

import (
	"github.com/amaumene/moviebrowser/internal/models"
	"github.com/amaumene/moviebrowser/internal/objstore"
	"github.com/sirupsen/logrus"
)

// EntityStore guarantees at most one live Movie per TMDB identity
type EntityStore struct {
	source MovieSource
	logger logrus.FieldLogger
	movies *objstore.ModelStore[Movie, models.MovieData]
}

// NewEntityStore creates an entity store whose movies load from source
func NewEntityStore(source MovieSource, logger logrus.FieldLogger) *EntityStore {
	s := &EntityStore{
		source: source,
		logger: logger,
	}
	// The creator runs under the store's write lock and must not call back
	// into s.movies.
	s.movies = objstore.NewModelStore(func(data models.MovieData) *Movie {
		return newMovie(data, s.source, s, s.logger)
	})
	return s
}

// GetMovieModel returns the live Movie for data's identity, building it from
// data on first sight
func (s *EntityStore) GetMovieModel(data models.MovieData) *Movie {
	return s.movies.GetOrCreate(data)
}

// FindMovieByID returns the live Movie for id, or nil
func (s *EntityStore) FindMovieByID(id int) *Movie {
	return s.movies.Find(id)
}

// CachedCount returns the number of live movies
func (s *EntityStore) CachedCount() int {
	return s.movies.Live()
}

// Compact drops cache slots whose movie was collected and returns how many
func (s *EntityStore) Compact() int {
	return s.movies.Compact()
}

package catalog

import (
	"context"

	"github.com/amaumene/moviebrowser/internal/models"
	"github.com/sirupsen/logrus"
)

// NowPlayingName labels the now playing collection
const NowPlayingName = "now_playing"

// NewNowPlayingCollection creates the collection of movies in theatres
func NewNowPlayingCollection(source MovieSource, store *EntityStore, logger logrus.FieldLogger) *MovieCollection {
	return NewMovieCollection(NowPlayingName, func(ctx context.Context, page int) (*models.PagingEnvelope, error) {
		return source.NowPlaying(ctx, page)
	}, store, logger)
}

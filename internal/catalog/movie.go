package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/amaumene/moviebrowser/internal/models"
	"github.com/amaumene/moviebrowser/internal/observable"
	"github.com/sirupsen/logrus"
)

// Movie is the single in-process model of one TMDB movie. Observers are
// notified when the favorite flag flips or details arrive.
type Movie struct {
	observable.ObjectObservable

	data         models.MovieData
	posterPath   string
	backdropPath string
	source       MovieSource
	similar      *MovieCollection
	logger       logrus.FieldLogger

	mu          sync.Mutex
	favorite    bool
	details     *Details
	detailsTask *Task
}

// Details holds the extra fields of the /movie/{id} endpoint
type Details struct {
	Tagline     string
	Runtime     int
	Genres      []string
	Homepage    string
	IMDBID      string
	Status      string
	ReleaseDate string
	Budget      int64
	Revenue     int64
}

func newDetails(data *models.MovieDetailsData) *Details {
	genres := make([]string, 0, len(data.Genres))
	for _, g := range data.Genres {
		genres = append(genres, g.Name)
	}
	return &Details{
		Tagline:     data.Tagline,
		Runtime:     data.Runtime,
		Genres:      genres,
		Homepage:    data.Homepage,
		IMDBID:      data.IMDBID,
		Status:      data.Status,
		ReleaseDate: data.ReleaseDate,
		Budget:      data.Budget,
		Revenue:     data.Revenue,
	}
}

func newMovie(data models.MovieData, source MovieSource, store *EntityStore, logger logrus.FieldLogger) *Movie {
	m := &Movie{
		data:         data,
		posterPath:   trimImagePath(data.PosterPath),
		backdropPath: trimImagePath(data.BackdropPath),
		source:       source,
		logger:       logger.WithField("movie_id", data.ID),
	}
	m.SetLogger(m.logger)

	id := data.ID
	m.similar = NewMovieCollection(fmt.Sprintf("similar:%d", id), func(ctx context.Context, page int) (*models.PagingEnvelope, error) {
		return source.SimilarMovies(ctx, id, page)
	}, store, logger)
	return m
}

// ID returns the TMDB identity
func (m *Movie) ID() int { return m.data.ID }

// Title returns the movie title
func (m *Movie) Title() string { return m.data.Title }

// Overview returns the plot summary
func (m *Movie) Overview() string { return m.data.Overview }

// PosterPath returns the poster path without its leading slash
func (m *Movie) PosterPath() string { return m.posterPath }

// BackdropPath returns the backdrop path without its leading slash
func (m *Movie) BackdropPath() string { return m.backdropPath }

// VoteAverage returns the average vote (0-10)
func (m *Movie) VoteAverage() float32 { return m.data.VoteAverage }

// Data returns the record the model was built from
func (m *Movie) Data() models.MovieData { return m.data }

// SimilarMovies returns the paged list of movies similar to this one
func (m *Movie) SimilarMovies() *MovieCollection { return m.similar }

// IsFavorite reports whether the movie is in the favorites collection
func (m *Movie) IsFavorite() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.favorite
}

// Details returns the loaded details, or nil before LoadDetails completed
func (m *Movie) Details() *Details {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.details
}

// LoadDetails fetches the movie details. Calls made while a fetch is running
// share its Task.
func (m *Movie) LoadDetails(ctx context.Context) *Task {
	m.mu.Lock()
	if m.detailsTask != nil {
		task := m.detailsTask
		m.mu.Unlock()
		return task
	}
	task := newTask()
	m.detailsTask = task
	m.mu.Unlock()

	go func() {
		data, err := m.source.MovieDetails(context.WithoutCancel(ctx), m.data.ID)

		m.mu.Lock()
		m.detailsTask = nil
		if err == nil {
			m.details = newDetails(data)
		}
		details := m.details
		m.mu.Unlock()

		if err != nil {
			m.logger.WithError(err).Warn("Failed to load movie details")
			task.finish(fmt.Errorf("failed to load details of movie %d: %w", m.data.ID, err))
			return
		}

		m.NotifyChange(m, details)
		task.finish(nil)
	}()

	return task
}

// setFavorite updates the flag and notifies observers when it changed
func (m *Movie) setFavorite(value bool) {
	m.mu.Lock()
	if m.favorite == value {
		m.mu.Unlock()
		return
	}
	m.favorite = value
	m.mu.Unlock()

	m.NotifyChange(m, nil)
}

func trimImagePath(path string) string {
	return strings.TrimPrefix(path, "/")
}

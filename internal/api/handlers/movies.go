package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/amaumene/moviebrowser/internal/catalog"
	"github.com/amaumene/moviebrowser/internal/services/tmdb"
	"github.com/sirupsen/logrus"
)

// MoviesHandler serves the now playing list, movie details and similar movies
type MoviesHandler struct {
	entities   *catalog.EntityStore
	nowPlaying *catalog.MovieCollection
	source     catalog.MovieSource
	images     *catalog.ImageConfig
	logger     *logrus.Logger
}

// NewMoviesHandler creates a new movies handler
func NewMoviesHandler(entities *catalog.EntityStore, nowPlaying *catalog.MovieCollection, source catalog.MovieSource, images *catalog.ImageConfig, logger *logrus.Logger) *MoviesHandler {
	return &MoviesHandler{
		entities:   entities,
		nowPlaying: nowPlaying,
		source:     source,
		images:     images,
		logger:     logger,
	}
}

// NowPlaying returns the now playing list, loading it first if needed.
// ?refresh=1 fetches the first page again.
func (h *MoviesHandler) NowPlaying(w http.ResponseWriter, r *http.Request) {
	var task *catalog.Task
	if r.URL.Query().Get("refresh") == "1" {
		task = h.nowPlaying.Refresh(r.Context())
	} else {
		task = h.nowPlaying.Load(r.Context())
	}

	if err := task.Wait(r.Context()); err != nil {
		h.logger.WithError(err).Error("Failed to load now playing")
		writeError(w, h.logger, http.StatusBadGateway, "Failed to load now playing movies")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, newCollectionResponse(h.nowPlaying, h.images, requestedSizes(r)))
}

// NowPlayingNext loads the next page of the now playing list
func (h *MoviesHandler) NowPlayingNext(w http.ResponseWriter, r *http.Request) {
	if err := h.nowPlaying.LoadNextPage(r.Context()).Wait(r.Context()); err != nil {
		h.logger.WithError(err).Error("Failed to load next now playing page")
		writeError(w, h.logger, http.StatusBadGateway, "Failed to load next page")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, newCollectionResponse(h.nowPlaying, h.images, requestedSizes(r)))
}

// Movie returns one movie with its details
func (h *MoviesHandler) Movie(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(r)
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid movie ID")
		return
	}

	movie, err := h.resolve(r, id)
	if err != nil {
		h.writeResolveError(w, id, err)
		return
	}

	if movie.Details() == nil {
		if err := movie.LoadDetails(r.Context()).Wait(r.Context()); err != nil {
			h.logger.WithError(err).WithField("movie_id", id).Error("Failed to load movie details")
			writeError(w, h.logger, http.StatusBadGateway, "Failed to load movie details")
			return
		}
	}

	writeJSON(w, h.logger, http.StatusOK, newMovieResponse(movie, h.images, requestedSizes(r)))
}

// Similar returns the movies similar to one movie. ?next=1 loads one more page.
func (h *MoviesHandler) Similar(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(r)
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid movie ID")
		return
	}

	movie, err := h.resolve(r, id)
	if err != nil {
		h.writeResolveError(w, id, err)
		return
	}

	similar := movie.SimilarMovies()
	task := similar.Load(r.Context())
	if r.URL.Query().Get("next") == "1" && similar.IsLoaded() {
		task = similar.LoadNextPage(r.Context())
	}

	if err := task.Wait(r.Context()); err != nil {
		h.logger.WithError(err).WithField("movie_id", id).Error("Failed to load similar movies")
		writeError(w, h.logger, http.StatusBadGateway, "Failed to load similar movies")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, newCollectionResponse(similar, h.images, requestedSizes(r)))
}

// resolve returns the live model for id, building it from the details
// endpoint when no collection holds it
func (h *MoviesHandler) resolve(r *http.Request, id int) (*catalog.Movie, error) {
	if movie := h.entities.FindMovieByID(id); movie != nil {
		return movie, nil
	}

	details, err := h.source.MovieDetails(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if !details.MovieData.IsValid() {
		return nil, fmt.Errorf("movie %d: %w", id, errIncompleteMovie)
	}
	return h.entities.GetMovieModel(details.MovieData), nil
}

var errIncompleteMovie = errors.New("incomplete movie record")

func (h *MoviesHandler) writeResolveError(w http.ResponseWriter, id int, err error) {
	var statusErr *tmdb.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		writeError(w, h.logger, http.StatusNotFound, "Movie not found")
		return
	}
	if errors.Is(err, errIncompleteMovie) {
		writeError(w, h.logger, http.StatusNotFound, "Movie not found")
		return
	}
	h.logger.WithError(err).WithField("movie_id", id).Error("Failed to resolve movie")
	writeError(w, h.logger, http.StatusBadGateway, "Failed to load movie")
}

package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/amaumene/moviebrowser/internal/catalog"
	"github.com/sirupsen/logrus"
)

// FavoritesHandler lists, adds and removes favorite movies
type FavoritesHandler struct {
	favorites *catalog.FavoriteCollection
	movies    *MoviesHandler
	images    *catalog.ImageConfig
	logger    *logrus.Logger
}

// NewFavoritesHandler creates a new favorites handler. movies resolves IDs
// to models.
func NewFavoritesHandler(favorites *catalog.FavoriteCollection, movies *MoviesHandler, images *catalog.ImageConfig, logger *logrus.Logger) *FavoritesHandler {
	return &FavoritesHandler{
		favorites: favorites,
		movies:    movies,
		images:    images,
		logger:    logger,
	}
}

// List returns the favorites, most recently added first
func (h *FavoritesHandler) List(w http.ResponseWriter, r *http.Request) {
	if err := h.favorites.Load(r.Context()).Wait(r.Context()); err != nil {
		h.logger.WithError(err).Error("Failed to load favorites")
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load favorites")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, newCollectionResponse(h.favorites, h.images, requestedSizes(r)))
}

// Get returns one favorite movie, or 404 when the movie is not a favorite
func (h *FavoritesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := movieID(r)
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid movie ID")
		return
	}

	data, err := h.favorites.Lookup(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).WithField("movie_id", id).Error("Failed to look up favorite")
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to look up favorite")
		return
	}
	if data == nil || !data.IsValid() {
		writeError(w, h.logger, http.StatusNotFound, "Movie is not a favorite")
		return
	}

	resp := newMovieResponse(h.movies.entities.GetMovieModel(*data), h.images, requestedSizes(r))
	resp.IsFavorite = true
	writeJSON(w, h.logger, http.StatusOK, resp)
}

// Add marks a movie as favorite
func (h *FavoritesHandler) Add(w http.ResponseWriter, r *http.Request) {
	h.change(w, r, h.favorites.AddToFavorite, http.StatusCreated)
}

// Remove unmarks a favorite movie
func (h *FavoritesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	h.change(w, r, h.favorites.RemoveFromFavorite, http.StatusOK)
}

type favoriteChange func(ctx context.Context, m *catalog.Movie) (*catalog.Task, error)

func (h *FavoritesHandler) change(w http.ResponseWriter, r *http.Request, apply favoriteChange, status int) {
	id, ok := movieID(r)
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid movie ID")
		return
	}

	// The favorite flag must reflect the store before it is changed
	if err := h.favorites.Load(r.Context()).Wait(r.Context()); err != nil {
		h.logger.WithError(err).Error("Failed to load favorites")
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load favorites")
		return
	}

	movie, err := h.movies.resolve(r, id)
	if err != nil {
		h.movies.writeResolveError(w, id, err)
		return
	}

	task, err := apply(r.Context(), movie)
	if errors.Is(err, catalog.ErrInvalidOperation) {
		writeError(w, h.logger, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("movie_id", id).Error("Failed to change favorite")
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to change favorite")
		return
	}

	if err := task.Wait(r.Context()); err != nil {
		h.logger.WithError(err).WithField("movie_id", id).Error("Failed to persist favorite change")
		if errors.Is(err, catalog.ErrPersistFailed) {
			writeError(w, h.logger, http.StatusConflict, "Favorite store rejected the change")
			return
		}
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to persist favorite change")
		return
	}

	writeJSON(w, h.logger, status, newMovieResponse(movie, h.images, requestedSizes(r)))
}

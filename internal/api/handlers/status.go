package handlers

import (
	"net/http"

	"github.com/amaumene/moviebrowser/internal/catalog"
	"github.com/amaumene/moviebrowser/internal/metrics"
	"github.com/sirupsen/logrus"
)

// FavoriteCounter counts stored favorites
type FavoriteCounter interface {
	CountFavorites() (int, error)
}

// CacheSizer reports the number of cached responses
type CacheSizer interface {
	Len() int
}

// StatusHandler handles status requests
type StatusHandler struct {
	entities   *catalog.EntityStore
	nowPlaying *catalog.MovieCollection
	favorites  FavoriteCounter
	cache      CacheSizer
	logger     *logrus.Logger
}

// NewStatusHandler creates a new status handler. cache may be nil.
func NewStatusHandler(entities *catalog.EntityStore, nowPlaying *catalog.MovieCollection, favorites FavoriteCounter, cache CacheSizer, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		entities:   entities,
		nowPlaying: nowPlaying,
		favorites:  favorites,
		cache:      cache,
		logger:     logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	LiveMovies        int  `json:"live_movies"`
	NowPlaying        int  `json:"now_playing"`
	NowPlayingLoading bool `json:"now_playing_loading"`
	HasNextPage       bool `json:"has_next_page"`
	Favorites         int  `json:"favorites"`
	CachedResponses   int  `json:"cached_responses"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	favorites, err := h.favorites.CountFavorites()
	if err != nil {
		h.logger.WithError(err).Error("Failed to count favorites")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	response := StatusResponse{
		LiveMovies:        h.entities.CachedCount(),
		NowPlaying:        len(h.nowPlaying.Movies()),
		NowPlayingLoading: h.nowPlaying.IsLoading(),
		HasNextPage:       h.nowPlaying.HasNextPage(),
		Favorites:         favorites,
	}
	if h.cache != nil {
		response.CachedResponses = h.cache.Len()
	}
	metrics.LiveModels.Set(float64(response.LiveMovies))

	writeJSON(w, h.logger, http.StatusOK, response)
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/amaumene/moviebrowser/internal/catalog"
	"github.com/sirupsen/logrus"
)

// Default display widths used to pick image sizes
const (
	defaultPosterWidth   = 342
	defaultBackdropWidth = 780
)

// MovieResponse is the JSON form of a movie
type MovieResponse struct {
	ID          int              `json:"id"`
	Title       string           `json:"title"`
	Overview    string           `json:"overview,omitempty"`
	PosterURL   string           `json:"poster_url,omitempty"`
	BackdropURL string           `json:"backdrop_url,omitempty"`
	VoteAverage float32          `json:"vote_average"`
	IsFavorite  bool             `json:"is_favorite"`
	Details     *DetailsResponse `json:"details,omitempty"`
}

// DetailsResponse is the JSON form of movie details
type DetailsResponse struct {
	Tagline     string   `json:"tagline,omitempty"`
	Runtime     int      `json:"runtime,omitempty"`
	Genres      []string `json:"genres,omitempty"`
	Homepage    string   `json:"homepage,omitempty"`
	IMDBID      string   `json:"imdb_id,omitempty"`
	Status      string   `json:"status,omitempty"`
	ReleaseDate string   `json:"release_date,omitempty"`
}

// CollectionResponse is the JSON form of a movie list
type CollectionResponse struct {
	Movies      []MovieResponse `json:"movies"`
	Count       int             `json:"count"`
	HasNextPage bool            `json:"has_next_page"`
	Loading     bool            `json:"loading"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// imageSizes holds the display widths requested by the client
type imageSizes struct {
	poster   int
	backdrop int
}

func requestedSizes(r *http.Request) imageSizes {
	sizes := imageSizes{poster: defaultPosterWidth, backdrop: defaultBackdropWidth}
	if w, err := strconv.Atoi(r.URL.Query().Get("poster_width")); err == nil && w > 0 {
		sizes.poster = w
	}
	if w, err := strconv.Atoi(r.URL.Query().Get("backdrop_width")); err == nil && w > 0 {
		sizes.backdrop = w
	}
	return sizes
}

func newMovieResponse(m *catalog.Movie, images *catalog.ImageConfig, sizes imageSizes) MovieResponse {
	resp := MovieResponse{
		ID:          m.ID(),
		Title:       m.Title(),
		Overview:    m.Overview(),
		VoteAverage: m.VoteAverage(),
		IsFavorite:  m.IsFavorite(),
	}
	if p := m.PosterPath(); p != "" {
		resp.PosterURL = images.PosterBaseURL(sizes.poster) + p
	}
	if p := m.BackdropPath(); p != "" {
		resp.BackdropURL = images.BackdropBaseURL(sizes.backdrop) + p
	}
	if d := m.Details(); d != nil {
		resp.Details = &DetailsResponse{
			Tagline:     d.Tagline,
			Runtime:     d.Runtime,
			Genres:      d.Genres,
			Homepage:    d.Homepage,
			IMDBID:      d.IMDBID,
			Status:      d.Status,
			ReleaseDate: d.ReleaseDate,
		}
	}
	return resp
}

type movieList interface {
	Movies() []*catalog.Movie
	HasNextPage() bool
	IsLoading() bool
}

func newCollectionResponse(c movieList, images *catalog.ImageConfig, sizes imageSizes) CollectionResponse {
	movies := c.Movies()
	resp := CollectionResponse{
		Movies:      make([]MovieResponse, 0, len(movies)),
		Count:       len(movies),
		HasNextPage: c.HasNextPage(),
		Loading:     c.IsLoading(),
	}
	for _, m := range movies {
		resp.Movies = append(resp.Movies, newMovieResponse(m, images, sizes))
	}
	return resp
}

func writeJSON(w http.ResponseWriter, logger logrus.FieldLogger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithError(err).Warn("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, logger logrus.FieldLogger, status int, message string) {
	writeJSON(w, logger, status, errorResponse{Error: message})
}

func movieID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

package models

import "time"

// MovieData is an immutable snapshot of one movie as returned by a TMDB listing
type MovieData struct {
	ID               int     `json:"id"`
	Adult            bool    `json:"adult"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	OriginalLanguage string  `json:"original_language"`
	Overview         string  `json:"overview"`
	ReleaseDate      string  `json:"release_date"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	GenreIDs         []int   `json:"genre_ids"`
	Video            bool    `json:"video"`
	Popularity       float32 `json:"popularity"`
	VoteAverage      float32 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
}

// GetID returns the TMDB identity of the movie
func (m MovieData) GetID() int {
	return m.ID
}

// IsValid reports whether the record can back a movie model
func (m MovieData) IsValid() bool {
	return m.ID > 0 && m.Title != "" && m.PosterPath != ""
}

// Genre is a TMDB genre
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Company is a production company
type Company struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	LogoPath      string `json:"logo_path"`
	OriginCountry string `json:"origin_country"`
}

// Country is a production country
type Country struct {
	ISO3166 string `json:"iso_3166_1"`
	Name    string `json:"name"`
}

// Language is a spoken language
type Language struct {
	ISO639 string `json:"iso_639_1"`
	Name   string `json:"name"`
}

// BelongsToCollection is the franchise a movie is part of
type BelongsToCollection struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	PosterPath   string `json:"poster_path"`
	BackdropPath string `json:"backdrop_path"`
}

// MovieDetailsData is the full /movie/{id} response
type MovieDetailsData struct {
	MovieData
	BelongsToCollection *BelongsToCollection `json:"belongs_to_collection"`
	Budget              int64                `json:"budget"`
	Genres              []Genre              `json:"genres"`
	Homepage            string               `json:"homepage"`
	IMDBID              string               `json:"imdb_id"`
	ProductionCompanies []Company            `json:"production_companies"`
	ProductionCountries []Country            `json:"production_countries"`
	Revenue             int64                `json:"revenue"`
	Runtime             int                  `json:"runtime"`
	SpokenLanguages     []Language           `json:"spoken_languages"`
	Status              string               `json:"status"`
	Tagline             string               `json:"tagline"`
}

// PagingEnvelope is one page of a paginated TMDB listing
type PagingEnvelope struct {
	Page         int         `json:"page"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
	Results      []MovieData `json:"results"`
}

// ImageConfig is the image section of the TMDB /configuration response
type ImageConfig struct {
	BaseURL       string   `json:"base_url"`
	SecureBaseURL string   `json:"secure_base_url"`
	BackdropSizes []string `json:"backdrop_sizes"`
	LogoSizes     []string `json:"logo_sizes"`
	PosterSizes   []string `json:"poster_sizes"`
	ProfileSizes  []string `json:"profile_sizes"`
	StillSizes    []string `json:"still_sizes"`
}

// Configuration is the TMDB /configuration response
type Configuration struct {
	Images     *ImageConfig `json:"images"`
	ChangeKeys []string     `json:"change_keys"`
}

// Favorite is a movie the user marked as favorite, persisted locally
type Favorite struct {
	ID        int `boltholdKey:"ID"`
	Movie     MovieData
	CreatedAt time.Time `boltholdIndex:"CreatedAt"`
}

// ConfigItem is a persisted key/value configuration entry
type ConfigItem struct {
	Key       string `boltholdKey:"Key"`
	Value     string
	UpdatedAt time.Time
}

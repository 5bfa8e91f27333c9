package tmdb

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/amaumene/moviebrowser/internal/models"
)

// NowPlaying returns one page of movies currently in theatres
func (c *Client) NowPlaying(ctx context.Context, page int) (*models.PagingEnvelope, error) {
	var envelope models.PagingEnvelope
	if err := c.doRequest(ctx, "now_playing", "/movie/now_playing", pageQuery(page), &envelope); err != nil {
		return nil, err
	}
	return &envelope, nil
}

// SimilarMovies returns one page of movies similar to movieID
func (c *Client) SimilarMovies(ctx context.Context, movieID, page int) (*models.PagingEnvelope, error) {
	var envelope models.PagingEnvelope
	path := fmt.Sprintf("/movie/%d/similar", movieID)
	if err := c.doRequest(ctx, "similar", path, pageQuery(page), &envelope); err != nil {
		return nil, err
	}
	return &envelope, nil
}

// MovieDetails returns the full record of a single movie
func (c *Client) MovieDetails(ctx context.Context, movieID int) (*models.MovieDetailsData, error) {
	var details models.MovieDetailsData
	path := fmt.Sprintf("/movie/%d", movieID)
	if err := c.doRequest(ctx, "details", path, nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// Configuration returns the API configuration, including image sizes
func (c *Client) Configuration(ctx context.Context) (*models.Configuration, error) {
	var cfg models.Configuration
	if err := c.doRequest(ctx, "configuration", "/configuration", nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func pageQuery(page int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	return q
}

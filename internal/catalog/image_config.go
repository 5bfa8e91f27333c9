package catalog

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/amaumene/moviebrowser/internal/models"
	"github.com/sirupsen/logrus"
)

// Config store keys
const (
	KeyImageBaseURL  = "TMDB_IMAGE_BASE_URL"
	KeyBackdropSizes = "TMDB_BACKDROP_SIZES"
	KeyPosterSizes   = "TMDB_POSTER_SIZES"
)

const (
	// DefaultImageBaseURL is used until a configuration was fetched
	DefaultImageBaseURL = "http://image.tmdb.org/t/p/"
	// DefaultImagePath is returned when no size is wide enough
	DefaultImagePath = DefaultImageBaseURL + "original/"

	originalSize  = "original"
	sizeSeparator = ":"
)

type imageSize struct {
	name  string
	width int
}

// sizeLadder is an ordered list of image sizes such as w92, w185, original
type sizeLadder struct {
	baseURL string
	joined  string
	sizes   []imageSize
}

func newSizeLadder(baseURL string, names []string) *sizeLadder {
	l := &sizeLadder{
		baseURL: baseURL,
		joined:  strings.Join(names, sizeSeparator),
	}
	for _, name := range names {
		l.sizes = append(l.sizes, imageSize{name: name, width: sizeWidth(name)})
	}
	return l
}

func sizeWidth(name string) int {
	if name == originalSize {
		return math.MaxInt
	}
	width, err := strconv.Atoi(strings.TrimPrefix(name, "w"))
	if err != nil {
		return -1
	}
	return width
}

func (l *sizeLadder) sameAs(other *sizeLadder) bool {
	return other != nil && l.baseURL == other.baseURL && l.joined == other.joined
}

func (l *sizeLadder) url(width int) string {
	for _, size := range l.sizes {
		if size.width >= width {
			return fmt.Sprintf("%s%s/", l.baseURL, size.name)
		}
	}
	return DefaultImagePath
}

// ImageConfig resolves image base URLs for a requested display width. It is
// created by the composition root and passed to its users.
type ImageConfig struct {
	store  ConfigStore
	logger logrus.FieldLogger

	mu       sync.RWMutex
	baseURL  string
	backdrop *sizeLadder
	poster   *sizeLadder
}

// NewImageConfig loads the image configuration saved in store
func NewImageConfig(store ConfigStore, logger logrus.FieldLogger) *ImageConfig {
	c := &ImageConfig{
		store:   store,
		logger:  logger,
		baseURL: DefaultImageBaseURL,
	}
	if baseURL, ok := store.GetConfigItem(KeyImageBaseURL); ok && baseURL != "" {
		c.baseURL = baseURL
	}
	c.backdrop = c.loadLadder(KeyBackdropSizes)
	c.poster = c.loadLadder(KeyPosterSizes)
	return c
}

func (c *ImageConfig) loadLadder(key string) *sizeLadder {
	names := []string{originalSize}
	if joined, ok := c.store.GetConfigItem(key); ok && joined != "" {
		names = strings.Split(joined, sizeSeparator)
	}
	return newSizeLadder(c.baseURL, names)
}

// BaseURL returns the image base URL
func (c *ImageConfig) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// PosterBaseURL returns the base URL of the smallest poster size at least width wide
func (c *ImageConfig) PosterBaseURL(width int) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.poster.url(width)
}

// BackdropBaseURL returns the base URL of the smallest backdrop size at least width wide
func (c *ImageConfig) BackdropBaseURL(width int) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.backdrop.url(width)
}

// Update applies a fetched configuration and saves the parts that changed
func (c *ImageConfig) Update(cfg *models.Configuration) error {
	if cfg == nil || cfg.Images == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if base := cfg.Images.BaseURL; base != "" && base != c.baseURL {
		c.baseURL = base
		if err := c.store.SaveConfigItem(KeyImageBaseURL, base); err != nil {
			return fmt.Errorf("failed to save image base URL: %w", err)
		}
		c.logger.WithField("base_url", base).Info("Image base URL updated")
	}

	var err error
	if c.backdrop, err = c.updateLadder(KeyBackdropSizes, c.backdrop, cfg.Images.BackdropSizes); err != nil {
		return err
	}
	if c.poster, err = c.updateLadder(KeyPosterSizes, c.poster, cfg.Images.PosterSizes); err != nil {
		return err
	}
	return nil
}

func (c *ImageConfig) updateLadder(key string, current *sizeLadder, names []string) (*sizeLadder, error) {
	next := newSizeLadder(c.baseURL, names)
	if current.sameAs(next) {
		return current, nil
	}
	if err := c.store.SaveConfigItem(key, next.joined); err != nil {
		return current, fmt.Errorf("failed to save %s: %w", key, err)
	}
	c.logger.WithFields(logrus.Fields{
		"key":   key,
		"sizes": next.joined,
	}).Info("Image sizes updated")
	return next, nil
}

// Refresh fetches the configuration from source and applies it
func (c *ImageConfig) Refresh(ctx context.Context, source MovieSource) error {
	cfg, err := source.Configuration(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch configuration: %w", err)
	}
	return c.Update(cfg)
}

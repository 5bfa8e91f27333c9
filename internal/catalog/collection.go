package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/amaumene/moviebrowser/internal/metrics"
	"github.com/amaumene/moviebrowser/internal/models"
	"github.com/amaumene/moviebrowser/internal/observable"
	"github.com/sirupsen/logrus"
)

// PageFetcher fetches one 1-based page of a listing
type PageFetcher func(ctx context.Context, page int) (*models.PagingEnvelope, error)

type operation string

const (
	opLoad     operation = "load"
	opRefresh  operation = "refresh"
	opNextPage operation = "next_page"
)

// MovieCollection is a lazily loaded, paginated list of movies. Each page is
// merged newest first and a movie appears at most once. Concurrent calls of
// the same operation share one Task, and at most one page fetch runs at a
// time.
type MovieCollection struct {
	observable.CollectionObservable

	name   string
	fetch  PageFetcher
	store  *EntityStore
	logger logrus.FieldLogger

	// fetchMu serializes page fetches and merges
	fetchMu sync.Mutex

	mu      sync.Mutex
	movies  []*Movie
	pages   []*models.PagingEnvelope
	running map[operation]*Task
}

// NewMovieCollection creates an empty collection. name labels logs and metrics.
func NewMovieCollection(name string, fetch PageFetcher, store *EntityStore, logger logrus.FieldLogger) *MovieCollection {
	c := &MovieCollection{
		name:    name,
		fetch:   fetch,
		store:   store,
		logger:  logger.WithField("collection", name),
		running: make(map[operation]*Task),
	}
	c.SetLogger(c.logger)
	return c
}

// Name returns the collection label
func (c *MovieCollection) Name() string {
	return c.name
}

// IsLoaded reports whether the collection holds at least one movie
func (c *MovieCollection) IsLoaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.movies) > 0
}

// IsLoading reports whether any fetch is in flight
func (c *MovieCollection) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.running) > 0
}

// Movies returns a copy of the current list, front first
func (c *MovieCollection) Movies() []*Movie {
	c.mu.Lock()
	defer c.mu.Unlock()
	movies := make([]*Movie, len(c.movies))
	copy(movies, c.movies)
	return movies
}

// HasNextPage reports whether another page can be requested. It is true
// before any page was fetched.
func (c *MovieCollection) HasNextPage() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasNextPageLocked()
}

func (c *MovieCollection) hasNextPageLocked() bool {
	if len(c.pages) == 0 {
		return true
	}
	last := c.pages[len(c.pages)-1]
	return last.Page < last.TotalPages
}

// Load fetches the first page unless the collection is already loaded
func (c *MovieCollection) Load(ctx context.Context) *Task {
	c.mu.Lock()
	defer c.mu.Unlock()

	if task := c.running[opLoad]; task != nil {
		return c.coalesce(opLoad, task)
	}
	if len(c.movies) > 0 {
		return completedTask(nil)
	}
	// A first page is already on its way
	if task := c.running[opRefresh]; task != nil {
		return c.coalesce(opLoad, task)
	}
	if task := c.running[opNextPage]; task != nil && len(c.pages) == 0 {
		return c.coalesce(opLoad, task)
	}

	return c.startLocked(ctx, opLoad)
}

// Refresh fetches the first page again. Once it arrives the list and page
// history are replaced and observers receive a Clear event before the new
// movies. A failed refresh leaves the collection untouched.
func (c *MovieCollection) Refresh(ctx context.Context) *Task {
	c.mu.Lock()
	defer c.mu.Unlock()

	if task := c.running[opRefresh]; task != nil {
		return c.coalesce(opRefresh, task)
	}
	return c.startLocked(ctx, opRefresh)
}

// LoadNextPage fetches the page after the last one. When there is no next
// page it returns a finished Task without fetching.
func (c *MovieCollection) LoadNextPage(ctx context.Context) *Task {
	c.mu.Lock()
	defer c.mu.Unlock()

	if task := c.running[opNextPage]; task != nil {
		return c.coalesce(opNextPage, task)
	}
	if len(c.pages) == 0 {
		for _, op := range []operation{opLoad, opRefresh} {
			if task := c.running[op]; task != nil {
				return c.coalesce(opNextPage, task)
			}
		}
	}
	if !c.hasNextPageLocked() {
		return completedTask(nil)
	}

	return c.startLocked(ctx, opNextPage)
}

func (c *MovieCollection) coalesce(op operation, task *Task) *Task {
	metrics.CoalescedCalls.WithLabelValues(c.name, string(op)).Inc()
	return task
}

func (c *MovieCollection) startLocked(ctx context.Context, op operation) *Task {
	task := newTask()
	c.running[op] = task
	go c.run(context.WithoutCancel(ctx), op, task)
	return task
}

// run performs one operation. Page numbers are decided once the fetch lock is
// held so that queued operations see the result of earlier ones.
func (c *MovieCollection) run(ctx context.Context, op operation, task *Task) {
	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()

	page, ok := c.nextPageFor(op)
	if !ok {
		c.complete(op, task, nil)
		return
	}

	logger := c.logger.WithFields(logrus.Fields{
		"operation": op,
		"page":      page,
	})
	logger.Debug("Fetching page")

	envelope, err := c.fetch(ctx, page)
	metrics.PageFetches.WithLabelValues(c.name, metrics.Outcome(err)).Inc()
	if err != nil {
		logger.WithError(err).Warn("Failed to fetch page")
		c.complete(op, task, fmt.Errorf("failed to fetch page %d of %s: %w", page, c.name, err))
		return
	}
	if envelope == nil {
		envelope = &models.PagingEnvelope{Page: page}
	}

	c.mu.Lock()
	cleared := op == opRefresh
	if cleared {
		c.movies = nil
		c.pages = nil
	}
	inserted := c.mergeLocked(envelope)
	delete(c.running, op)
	c.mu.Unlock()

	if cleared {
		c.NotifyChange(c, observable.CollectionEvent{Action: observable.ActionClear})
	}
	if len(inserted) > 0 {
		items := make([]any, len(inserted))
		for i, m := range inserted {
			items[i] = m
		}
		c.NotifyChange(c, observable.CollectionEvent{Action: observable.ActionAppendRange, Range: items})
	}

	logger.WithField("added", len(inserted)).Debug("Page merged")
	task.finish(nil)
}

// nextPageFor returns the page op should fetch, or false when there is
// nothing left to do
func (c *MovieCollection) nextPageFor(op operation) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch op {
	case opLoad:
		if len(c.movies) > 0 {
			return 0, false
		}
		return 1, true
	case opRefresh:
		return 1, true
	default:
		if len(c.pages) == 0 {
			return 1, true
		}
		if !c.hasNextPageLocked() {
			return 0, false
		}
		return c.pages[len(c.pages)-1].Page + 1, true
	}
}

func (c *MovieCollection) complete(op operation, task *Task, err error) {
	c.mu.Lock()
	delete(c.running, op)
	c.mu.Unlock()
	task.finish(err)
}

// mergeLocked records the page and front-inserts each valid movie not yet in
// the list, in page order. It returns the inserted movies in list order.
func (c *MovieCollection) mergeLocked(envelope *models.PagingEnvelope) []*Movie {
	c.pages = append(c.pages, envelope)

	seen := make(map[int]struct{}, len(c.movies)+len(envelope.Results))
	for _, m := range c.movies {
		seen[m.ID()] = struct{}{}
	}

	var added []*Movie
	for _, record := range envelope.Results {
		if !record.IsValid() {
			metrics.SkippedRecords.Inc()
			c.logger.WithFields(logrus.Fields{
				"movie_id": record.ID,
				"title":    record.Title,
			}).Debug("Skipping invalid movie record")
			continue
		}
		if _, ok := seen[record.ID]; ok {
			continue
		}
		seen[record.ID] = struct{}{}
		added = append(added, c.store.GetMovieModel(record))
	}

	if len(added) == 0 {
		return nil
	}

	// The last record processed ends up frontmost
	inserted := make([]*Movie, len(added))
	for i, m := range added {
		inserted[len(added)-1-i] = m
	}
	movies := make([]*Movie, 0, len(inserted)+len(c.movies))
	movies = append(movies, inserted...)
	c.movies = append(movies, c.movies...)
	return inserted
}

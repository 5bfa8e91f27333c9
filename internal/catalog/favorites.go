package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/amaumene/moviebrowser/internal/models"
	"github.com/amaumene/moviebrowser/internal/observable"
	"github.com/sirupsen/logrus"
)

// FavoriteCollection is the list of favorite movies, backed by a FavoriteStore.
// Changes are written to the store first and applied in memory only after the
// store confirmed them.
type FavoriteCollection struct {
	observable.CollectionObservable

	store    FavoriteStore
	entities *EntityStore
	logger   logrus.FieldLogger

	mu       sync.Mutex
	movies   []*Movie
	fetched  bool
	loadTask *Task
	// pending holds movies with an add or remove in flight
	pending map[int]struct{}
	// settled holds movies whose add or remove completed while a load was
	// reading the store; the load's snapshot is stale for them
	settled map[int]struct{}
}

// NewFavoriteCollection creates an unloaded favorites collection
func NewFavoriteCollection(store FavoriteStore, entities *EntityStore, logger logrus.FieldLogger) *FavoriteCollection {
	c := &FavoriteCollection{
		store:    store,
		entities: entities,
		logger:   logger.WithField("collection", "favorites"),
		pending:  make(map[int]struct{}),
		settled:  make(map[int]struct{}),
	}
	c.SetLogger(c.logger)
	return c
}

// IsLoaded reports whether the collection holds at least one movie
func (c *FavoriteCollection) IsLoaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.movies) > 0
}

// IsLoading reports whether the store is being read
func (c *FavoriteCollection) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadTask != nil
}

// Movies returns a copy of the favorites, most recently added first
func (c *FavoriteCollection) Movies() []*Movie {
	c.mu.Lock()
	defer c.mu.Unlock()
	movies := make([]*Movie, len(c.movies))
	copy(movies, c.movies)
	return movies
}

// HasNextPage is always false: the store is read in one go
func (c *FavoriteCollection) HasNextPage() bool {
	return false
}

// LoadNextPage returns a finished Task
func (c *FavoriteCollection) LoadNextPage(context.Context) *Task {
	return completedTask(nil)
}

// Load reads the store once. Later calls return a finished Task.
func (c *FavoriteCollection) Load(ctx context.Context) *Task {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loadTask != nil {
		return c.loadTask
	}
	if c.fetched {
		return completedTask(nil)
	}
	return c.startLoadLocked(ctx, false)
}

// Refresh reads the store again and replaces the list
func (c *FavoriteCollection) Refresh(ctx context.Context) *Task {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loadTask != nil {
		return c.loadTask
	}
	return c.startLoadLocked(ctx, true)
}

func (c *FavoriteCollection) startLoadLocked(ctx context.Context, reset bool) *Task {
	task := newTask()
	c.loadTask = task
	clear(c.settled)
	go c.load(context.WithoutCancel(ctx), reset, task)
	return task
}

func (c *FavoriteCollection) load(ctx context.Context, reset bool, task *Task) {
	records, err := c.store.GetAllFavorites(ctx)
	if err != nil {
		c.logger.WithError(err).Error("Failed to read favorites")
		c.mu.Lock()
		c.loadTask = nil
		clear(c.settled)
		c.mu.Unlock()
		task.finish(fmt.Errorf("failed to read favorites: %w", err))
		return
	}

	c.mu.Lock()
	var dropped, appended []*Movie
	if reset {
		dropped = c.movies
		c.movies = nil
		// In-flight and freshly settled changes own their movie's place
		for _, m := range dropped {
			if c.changingLocked(m.ID()) {
				c.movies = append(c.movies, m)
				appended = append(appended, m)
			}
		}
	}
	for _, record := range records {
		if c.changingLocked(record.ID) {
			continue
		}
		m := c.entities.GetMovieModel(record)
		if indexOf(c.movies, m.ID()) >= 0 {
			continue
		}
		c.movies = append(c.movies, m)
		appended = append(appended, m)
	}
	c.fetched = true
	c.loadTask = nil
	clear(c.settled)
	c.mu.Unlock()

	if reset {
		for _, m := range dropped {
			if indexOf(appended, m.ID()) < 0 {
				m.setFavorite(false)
			}
		}
		c.NotifyChange(c, observable.CollectionEvent{Action: observable.ActionClear})
	}
	for _, m := range appended {
		m.setFavorite(true)
		c.NotifyChange(c, observable.CollectionEvent{Action: observable.ActionAppendItem, Item: m})
	}

	c.logger.WithField("count", len(appended)).Debug("Favorites loaded")
	task.finish(nil)
}

// Lookup returns the stored record of a favorite movie, or nil when id is not
// a favorite. The list answers once it was read; the store answers before.
func (c *FavoriteCollection) Lookup(ctx context.Context, id int) (*models.MovieData, error) {
	c.mu.Lock()
	if c.fetched {
		defer c.mu.Unlock()
		if i := indexOf(c.movies, id); i >= 0 {
			data := c.movies[i].Data()
			return &data, nil
		}
		return nil, nil
	}
	c.mu.Unlock()

	data, err := c.store.GetFavorite(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up favorite %d: %w", id, err)
	}
	return data, nil
}

// AddToFavorite stores m as a favorite. It returns ErrInvalidOperation when m
// is already a favorite. m is flagged and put in front of the list only once
// the store confirmed the write.
func (c *FavoriteCollection) AddToFavorite(ctx context.Context, m *Movie) (*Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, busy := c.pending[m.ID()]; busy {
		return nil, fmt.Errorf("%w: movie %d has a favorite change in progress", ErrInvalidOperation, m.ID())
	}
	if indexOf(c.movies, m.ID()) >= 0 || m.IsFavorite() {
		return nil, fmt.Errorf("%w: movie %d is already a favorite", ErrInvalidOperation, m.ID())
	}

	c.pending[m.ID()] = struct{}{}
	task := newTask()
	go c.add(context.WithoutCancel(ctx), m, task)
	return task, nil
}

func (c *FavoriteCollection) add(ctx context.Context, m *Movie, task *Task) {
	logger := c.logger.WithField("movie_id", m.ID())

	ok, err := c.store.AddFavorite(ctx, m.Data())
	if err == nil && !ok {
		err = ErrPersistFailed
	}
	if err != nil {
		c.release(m)
		logger.WithError(err).Warn("Failed to add favorite")
		task.finish(fmt.Errorf("failed to add movie %d to favorites: %w", m.ID(), err))
		return
	}

	c.mu.Lock()
	inserted := indexOf(c.movies, m.ID()) < 0
	if inserted {
		c.movies = append([]*Movie{m}, c.movies...)
	}
	c.settleLocked(m)
	c.mu.Unlock()

	m.setFavorite(true)
	if inserted {
		c.NotifyChange(c, observable.CollectionEvent{Action: observable.ActionAddItemToFront, Item: m})
	}

	logger.Info("Movie added to favorites")
	task.finish(nil)
}

// RemoveFromFavorite deletes m from the favorites. It returns
// ErrInvalidOperation when m is not a favorite.
func (c *FavoriteCollection) RemoveFromFavorite(ctx context.Context, m *Movie) (*Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, busy := c.pending[m.ID()]; busy {
		return nil, fmt.Errorf("%w: movie %d has a favorite change in progress", ErrInvalidOperation, m.ID())
	}
	if indexOf(c.movies, m.ID()) < 0 || !m.IsFavorite() {
		return nil, fmt.Errorf("%w: movie %d is not a favorite", ErrInvalidOperation, m.ID())
	}

	c.pending[m.ID()] = struct{}{}
	task := newTask()
	go c.remove(context.WithoutCancel(ctx), m, task)
	return task, nil
}

func (c *FavoriteCollection) remove(ctx context.Context, m *Movie, task *Task) {
	logger := c.logger.WithField("movie_id", m.ID())

	ok, err := c.store.DeleteFavorite(ctx, m.ID())
	if err == nil && !ok {
		err = ErrPersistFailed
	}
	if err != nil {
		c.release(m)
		logger.WithError(err).Warn("Failed to remove favorite")
		task.finish(fmt.Errorf("failed to remove movie %d from favorites: %w", m.ID(), err))
		return
	}

	c.mu.Lock()
	i := indexOf(c.movies, m.ID())
	if i >= 0 {
		c.movies = append(c.movies[:i:i], c.movies[i+1:]...)
	}
	c.settleLocked(m)
	c.mu.Unlock()

	m.setFavorite(false)
	if i >= 0 {
		c.NotifyChange(c, observable.CollectionEvent{Action: observable.ActionRemoveItem, Item: m})
	}

	logger.Info("Movie removed from favorites")
	task.finish(nil)
}

// changingLocked reports whether a load must leave id alone
func (c *FavoriteCollection) changingLocked(id int) bool {
	if _, ok := c.pending[id]; ok {
		return true
	}
	_, ok := c.settled[id]
	return ok
}

func (c *FavoriteCollection) settleLocked(m *Movie) {
	delete(c.pending, m.ID())
	if c.loadTask != nil {
		c.settled[m.ID()] = struct{}{}
	}
}

func (c *FavoriteCollection) release(m *Movie) {
	c.mu.Lock()
	delete(c.pending, m.ID())
	c.mu.Unlock()
}

// Clear unflags and drops every movie in memory. The store is not touched;
// callers wiping data must wipe the store themselves.
func (c *FavoriteCollection) Clear() {
	c.mu.Lock()
	dropped := c.movies
	c.movies = nil
	c.fetched = false
	c.mu.Unlock()

	for _, m := range dropped {
		m.setFavorite(false)
	}
	c.NotifyChange(c, observable.CollectionEvent{Action: observable.ActionClear})
	c.logger.WithField("count", len(dropped)).Info("Favorites cleared")
}

func indexOf(movies []*Movie, id int) int {
	for i, m := range movies {
		if m.ID() == id {
			return i
		}
	}
	return -1
}

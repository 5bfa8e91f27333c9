package models

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = bolthold.ErrNotFound

// ErrClosed is returned by every operation after Close
var ErrClosed = errors.New("database is closed")

// Database wraps the bolthold store
type Database struct {
	mu    sync.RWMutex
	path  string
	store *bolthold.Store
}

// NewDatabase creates a new database connection
func NewDatabase(path string) (*Database, error) {
	db := &Database{path: path}
	if err := db.open(); err != nil {
		return nil, err
	}
	return db, nil
}

func (db *Database) open() error {
	store, err := bolthold.Open(db.path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.store = store
	return nil
}

// Close closes the database connection
func (db *Database) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.store == nil {
		return nil
	}
	err := db.store.Close()
	db.store = nil
	return err
}

// Favorite operations

// InsertFavorite stores a favorite movie. It reports false if the movie is
// already a favorite.
func (db *Database) InsertFavorite(movie MovieData) (bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.store == nil {
		return false, ErrClosed
	}

	fav := &Favorite{
		ID:        movie.ID,
		Movie:     movie,
		CreatedAt: time.Now(),
	}
	err := db.store.Insert(movie.ID, fav)
	if errors.Is(err, bolthold.ErrKeyExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetFavorite retrieves a favorite by movie ID
func (db *Database) GetFavorite(id int) (*Favorite, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.store == nil {
		return nil, ErrClosed
	}

	var fav Favorite
	if err := db.store.Get(id, &fav); err != nil {
		return nil, err
	}
	return &fav, nil
}

// GetAllFavorites retrieves all favorites, most recently added first
func (db *Database) GetAllFavorites() ([]*Favorite, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.store == nil {
		return nil, ErrClosed
	}

	var favs []*Favorite
	if err := db.store.Find(&favs, nil); err != nil {
		return nil, err
	}
	sort.SliceStable(favs, func(i, j int) bool {
		return favs[i].CreatedAt.After(favs[j].CreatedAt)
	})
	return favs, nil
}

// DeleteFavorite deletes a favorite by movie ID. It reports false if there
// was nothing to delete.
func (db *Database) DeleteFavorite(id int) (bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.store == nil {
		return false, ErrClosed
	}

	err := db.store.Delete(id, &Favorite{})
	if errors.Is(err, bolthold.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeleteAllFavorites removes every favorite and returns how many were stored
func (db *Database) DeleteAllFavorites() (int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.store == nil {
		return 0, ErrClosed
	}

	count, err := db.store.Count(&Favorite{}, nil)
	if err != nil {
		return 0, err
	}
	if err := db.store.DeleteMatching(&Favorite{}, nil); err != nil {
		return 0, err
	}
	return int(count), nil
}

// CountFavorites returns the number of stored favorites
func (db *Database) CountFavorites() (int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.store == nil {
		return 0, ErrClosed
	}

	count, err := db.store.Count(&Favorite{}, nil)
	return int(count), err
}

// Config item operations

// GetConfigItem retrieves a configuration value
func (db *Database) GetConfigItem(key string) (string, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.store == nil {
		return "", false
	}

	var item ConfigItem
	if err := db.store.Get(key, &item); err != nil {
		return "", false
	}
	return item.Value, true
}

// SaveConfigItem stores a configuration value
func (db *Database) SaveConfigItem(key, value string) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.store == nil {
		return ErrClosed
	}

	return db.store.Upsert(key, &ConfigItem{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	})
}

// Package objstore keeps at most one in-memory object per integer identity.
//
// Objects are held through weak pointers, so the store is never the reason an
// object stays alive. A slot whose object has been collected is removed the next
// time it is looked up; there is no background sweep.
//
// # Thread Safety
//
// Store and ModelStore are safe for concurrent use. Lookups share a read lock;
// publishing a new object and removing a dead slot take the write lock.
package objstore

import (
	"sync"
	"weak"
)

// Store maps an identity key to a weakly held *T.
type Store[T any] struct {
	mu    sync.RWMutex
	cache map[int]weak.Pointer[T]
}

// NewStore creates an empty store
func NewStore[T any]() *Store[T] {
	return &Store[T]{cache: make(map[int]weak.Pointer[T])}
}

// Find returns the live object for key, or nil if there is none.
func (s *Store[T]) Find(key int) *T {
	s.mu.RLock()
	slot, ok := s.cache[key]
	if !ok {
		s.mu.RUnlock()
		return nil
	}
	if item := slot.Value(); item != nil {
		s.mu.RUnlock()
		return item
	}
	s.mu.RUnlock()

	// The object is gone. sync.RWMutex cannot upgrade in place, so the slot is
	// checked again under the write lock before it is dropped.
	s.mu.Lock()
	if current, ok := s.cache[key]; ok && current == slot {
		delete(s.cache, key)
	}
	s.mu.Unlock()

	return nil
}

// GetOrCreate returns the live object for key. If there is none, create is
// called under the write lock and its result becomes the canonical object.
// create runs at most once per published object.
func (s *Store[T]) GetOrCreate(key int, create func() *T) *T {
	s.mu.RLock()
	if slot, ok := s.cache[key]; ok {
		if item := slot.Value(); item != nil {
			s.mu.RUnlock()
			return item
		}
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another writer may have published while we were waiting.
	if slot, ok := s.cache[key]; ok {
		if item := slot.Value(); item != nil {
			return item
		}
	}

	item := create()
	s.cache[key] = weak.Make(item)
	return item
}

// Len returns the number of slots, including slots whose object has been
// collected but not looked up yet.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

// Live returns the number of slots whose object is still alive.
func (s *Store[T]) Live() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, slot := range s.cache {
		if slot.Value() != nil {
			count++
		}
	}
	return count
}

// Compact drops every dead slot and returns how many were removed
func (s *Store[T]) Compact() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, slot := range s.cache {
		if slot.Value() == nil {
			delete(s.cache, key)
			removed++
		}
	}
	return removed
}

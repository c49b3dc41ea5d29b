package store

import (
	"context"
	"errors"
	"sync"
)

// Service fronts a Repository with an in-memory read-through cache
// keyed by dataset id. Dataset payloads are immutable once saved, so
// cache invalidation is only needed on save and delete.
type Service struct {
	repo Repository

	mu    sync.RWMutex
	cache map[string]*Dataset
}

// NewService wraps a repository with caching.
func NewService(repo Repository) *Service {
	return &Service{
		repo:  repo,
		cache: make(map[string]*Dataset),
	}
}

// Save persists the dataset and refreshes the cache entry.
func (s *Service) Save(ctx context.Context, ds *Dataset) error {
	if err := s.repo.Save(ctx, ds); err != nil {
		return err
	}
	s.mu.Lock()
	s.cache[ds.ID] = ds
	s.mu.Unlock()
	return nil
}

// Get returns a dataset from cache when possible, loading and caching
// it otherwise.
func (s *Service) Get(ctx context.Context, id string) (*Dataset, error) {
	s.mu.RLock()
	ds, ok := s.cache[id]
	s.mu.RUnlock()
	if ok {
		return ds, nil
	}

	ds, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.cache[id] = ds
	s.mu.Unlock()
	return ds, nil
}

// List always hits the repository; summaries are cheap.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	return s.repo.List(ctx)
}

// Delete removes the dataset from storage and cache. The cache entry
// goes away even when storage already lost the row.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)

	s.mu.Lock()
	delete(s.cache, id)
	s.mu.Unlock()

	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return err
}

package store

import (
	"context"
	"sort"
	"sync"
)

// Memory is a mutex-guarded in-memory repository. It backs tests and
// the no-database deployment mode, and doubles as the read-through
// cache inside Service.
type Memory struct {
	mu       sync.RWMutex
	datasets map[string]*Dataset
}

// NewMemory returns an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{datasets: make(map[string]*Dataset)}
}

// Save stores or replaces a dataset.
func (m *Memory) Save(_ context.Context, ds *Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.datasets[ds.ID] = ds
	return nil
}

// Get returns the dataset with the given id, or ErrNotFound.
func (m *Memory) Get(_ context.Context, id string) (*Dataset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ds, ok := m.datasets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return ds, nil
}

// List returns summaries of all datasets, newest first.
func (m *Memory) List(_ context.Context) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summaries := make([]Summary, 0, len(m.datasets))
	for _, ds := range m.datasets {
		summaries = append(summaries, ds.Summarize())
	}
	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
		}
		return summaries[i].ID < summaries[j].ID
	})
	return summaries, nil
}

// Delete removes a dataset, or returns ErrNotFound.
func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.datasets[id]; !ok {
		return ErrNotFound
	}
	delete(m.datasets, id)
	return nil
}

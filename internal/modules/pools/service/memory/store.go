// Package memory backs the registry without a database: tests and
// simulated runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"pool_trader/internal/models"
)

type Store struct {
	mu     sync.RWMutex
	nextID int64
	data   map[int64]models.PoolEntry
	bySym  map[string]int64 // poolType/symbol -> id
}

func New() *Store {
	return &Store{
		nextID: 1,
		data:   make(map[int64]models.PoolEntry),
		bySym:  make(map[string]int64),
	}
}

func key(t models.PoolType, sym string) string {
	return string(t) + "/" + sym
}

func (s *Store) Insert(ctx context.Context, entry *models.PoolEntry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(entry.PoolType, entry.Symbol)
	if _, ok := s.bySym[k]; ok {
		return 0, errors.Wrapf(models.ErrDuplicateEntry, "%s/%s", entry.PoolType, entry.Symbol)
	}

	id := s.nextID
	s.nextID++
	e := *entry
	e.ID = id
	s.data[id] = e
	s.bySym[k] = id
	return id, nil
}

func (s *Store) Get(ctx context.Context, id int64) (*models.PoolEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[id]
	if !ok {
		return nil, errors.Wrapf(models.ErrNotFound, "pool entry %d", id)
	}
	out := e
	return &out, nil
}

func (s *Store) List(ctx context.Context, poolType *models.PoolType, activeOnly bool) ([]models.PoolEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.PoolEntry
	for _, e := range s.data {
		if poolType != nil && e.PoolType != *poolType {
			continue
		}
		if activeOnly && !e.IsActive {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) Update(ctx context.Context, entry *models.PoolEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[entry.ID]; !ok {
		return errors.Wrapf(models.ErrNotFound, "pool entry %d", entry.ID)
	}
	s.data[entry.ID] = *entry
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[id]
	if !ok {
		return errors.Wrapf(models.ErrNotFound, "pool entry %d", id)
	}
	delete(s.data, id)
	delete(s.bySym, key(e.PoolType, e.Symbol))
	return nil
}

func (s *Store) DeleteByType(ctx context.Context, poolType models.PoolType) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, e := range s.data {
		if e.PoolType != poolType {
			continue
		}
		delete(s.data, id)
		delete(s.bySym, key(e.PoolType, e.Symbol))
		removed++
	}
	return removed, nil
}

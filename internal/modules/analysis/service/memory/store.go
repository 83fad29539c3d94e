// Package memory — in-process analysis store for tests and simulated
// runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"pool_trader/internal/models"
)

type Store struct {
	mu      sync.RWMutex
	nextID  int64
	current map[int64]models.Analysis // pool_entry_id -> current analysis
}

func New() *Store {
	return &Store{
		nextID:  1,
		current: make(map[int64]models.Analysis),
	}
}

func (s *Store) Upsert(ctx context.Context, a *models.Analysis) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	cp := *a
	cp.ID = id
	s.current[a.PoolEntryID] = cp
	a.ID = id
	return id, nil
}

func (s *Store) Current(ctx context.Context, poolEntryID int64) (*models.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.current[poolEntryID]
	if !ok {
		return nil, errors.Wrapf(models.ErrNotFound, "analysis for entry %d", poolEntryID)
	}
	out := a
	return &out, nil
}

func (s *Store) List(ctx context.Context, poolType *models.PoolType, sortBy models.SortBy, limit int) ([]models.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Analysis
	for _, a := range s.current {
		if poolType != nil && a.PoolType != *poolType {
			continue
		}
		out = append(out, a)
	}

	sort.SliceStable(out, func(i, j int) bool {
		switch sortBy {
		case models.SortByRecommendation:
			return out[i].RecommendationScore > out[j].RecommendationScore
		case models.SortByChange1D:
			return out[i].PriceChange1D > out[j].PriceChange1D
		default:
			return out[i].Score.Total > out[j].Score.Total
		}
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) InvalidateEntry(ctx context.Context, poolEntryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.current, poolEntryID)
	return nil
}

func (s *Store) InvalidatePool(ctx context.Context, poolType models.PoolType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, a := range s.current {
		if a.PoolType == poolType {
			delete(s.current, id)
		}
	}
	return nil
}

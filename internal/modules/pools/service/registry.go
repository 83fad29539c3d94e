package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"pool_trader/internal/models"
	"pool_trader/pkg/logger"
)

// Registry owns the LONG/SHORT watch-lists.
type Registry struct {
	store       Store
	invalidator AnalysisInvalidator
}

func NewRegistry(store Store, invalidator AnalysisInvalidator) *Registry {
	return &Registry{
		store:       store,
		invalidator: invalidator,
	}
}

// Add fails with ErrDuplicateEntry when (poolType, symbol) already exists.
func (r *Registry) Add(ctx context.Context, poolType models.PoolType, symbol, displayName, reason string, priority int) (entry *models.PoolEntry, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Registry.Add: %w", err)
		}
	}()

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, errors.New("empty symbol")
	}
	if !poolType.Valid() {
		return nil, errors.Errorf("unknown pool type %q", poolType)
	}

	entry = &models.PoolEntry{
		PoolType:    poolType,
		Symbol:      symbol,
		DisplayName: displayName,
		AddedReason: reason,
		IsActive:    true,
		Priority:    priority,
		AddedAt:     time.Now(),
	}
	id, err := r.store.Insert(ctx, entry)
	if err != nil {
		return nil, err
	}
	entry.ID = id
	return entry, nil
}

// BatchAdd never fails atomically: every symbol gets its own verdict.
func (r *Registry) BatchAdd(ctx context.Context, poolType models.PoolType, symbols []string) models.BatchAddResult {
	res := models.BatchAddResult{
		Failed: make(map[string]string),
	}
	for _, sym := range symbols {
		if _, err := r.Add(ctx, poolType, sym, "", "batch add", 0); err != nil {
			res.Failed[sym] = err.Error()
			continue
		}
		res.Added = append(res.Added, strings.ToUpper(strings.TrimSpace(sym)))
	}
	return res
}

// Clear deletes every entry of one pool type, returning the count
// removed. The other pool type is untouched. Irreversible.
func (r *Registry) Clear(ctx context.Context, poolType models.PoolType) (removed int64, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Registry.Clear: %w", err)
		}
	}()

	if !poolType.Valid() {
		return 0, errors.Errorf("unknown pool type %q", poolType)
	}
	removed, err = r.store.DeleteByType(ctx, poolType)
	if err != nil {
		return 0, err
	}
	if err := r.invalidator.InvalidatePool(ctx, poolType); err != nil {
		logger.Warn("clear %s: analysis invalidation failed: %v", poolType, err)
	}
	return removed, nil
}

// ToggleActive flips the is_active flag. Idempotent in the sense that a
// repeat toggle simply flips it back.
func (r *Registry) ToggleActive(ctx context.Context, id int64) (entry *models.PoolEntry, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Registry.ToggleActive: %w", err)
		}
	}()

	entry, err = r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	entry.IsActive = !entry.IsActive
	if err := r.store.Update(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// SetPriority updates one entry's priority.
func (r *Registry) SetPriority(ctx context.Context, id int64, priority int) (entry *models.PoolEntry, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Registry.SetPriority: %w", err)
		}
	}()

	entry, err = r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	entry.Priority = priority
	if err := r.store.Update(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Remove deletes one entry and invalidates its cached analysis.
func (r *Registry) Remove(ctx context.Context, id int64) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Registry.Remove: %w", err)
		}
	}()

	if err := r.store.Delete(ctx, id); err != nil {
		return err
	}
	if err := r.invalidator.InvalidateEntry(ctx, id); err != nil {
		logger.Warn("remove %d: analysis invalidation failed: %v", id, err)
	}
	return nil
}

// ListActive returns active entries, optionally filtered by pool type,
// ordered by priority descending (the store's contract).
func (r *Registry) ListActive(ctx context.Context, poolType *models.PoolType) ([]models.PoolEntry, error) {
	return r.store.List(ctx, poolType, true)
}

// List returns all entries regardless of activation.
func (r *Registry) List(ctx context.Context, poolType *models.PoolType) ([]models.PoolEntry, error) {
	return r.store.List(ctx, poolType, false)
}

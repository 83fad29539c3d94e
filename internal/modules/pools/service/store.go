package service

import (
	"context"

	"pool_trader/internal/models"
)

// Store is the pool entry persistence contract. Insert reports
// models.ErrDuplicateEntry for an existing (pool_type, symbol) pair.
type Store interface {
	Insert(ctx context.Context, entry *models.PoolEntry) (int64, error)
	Get(ctx context.Context, id int64) (*models.PoolEntry, error)
	List(ctx context.Context, poolType *models.PoolType, activeOnly bool) ([]models.PoolEntry, error)
	Update(ctx context.Context, entry *models.PoolEntry) error
	Delete(ctx context.Context, id int64) error
	DeleteByType(ctx context.Context, poolType models.PoolType) (int64, error)
}

// AnalysisInvalidator drops cached analyses when their pool entries go
// away, so a removed entry is excluded from the next analysis read
// instead of lingering stale.
type AnalysisInvalidator interface {
	InvalidateEntry(ctx context.Context, poolEntryID int64) error
	InvalidatePool(ctx context.Context, poolType models.PoolType) error
}

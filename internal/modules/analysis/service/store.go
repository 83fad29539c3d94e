package service

import (
	"context"

	"pool_trader/internal/models"
)

// Store persists analyses. Upsert supersedes the prior current analysis
// for the same pool entry; old rows may survive for audit but are
// excluded from current reads.
type Store interface {
	Upsert(ctx context.Context, a *models.Analysis) (int64, error)
	Current(ctx context.Context, poolEntryID int64) (*models.Analysis, error)
	List(ctx context.Context, poolType *models.PoolType, sortBy models.SortBy, limit int) ([]models.Analysis, error)
	InvalidateEntry(ctx context.Context, poolEntryID int64) error
	InvalidatePool(ctx context.Context, poolType models.PoolType) error
}

// ConfigSource yields the currently persisted run configuration. The
// orchestrator snapshots it once per batch.
type ConfigSource interface {
	Current(ctx context.Context) (models.RunConfig, error)
}

// BarsProvider is the market data slice the orchestrator needs.
type BarsProvider interface {
	GetBars(ctx context.Context, symbol string, count int) ([]models.Bar, error)
}

// PriceSource serves the latest live tick for a symbol, when the
// websocket has delivered one.
type PriceSource interface {
	Latest(symbol string) (models.Tick, bool)
}

// RotationSource supplies the rotation context for decisions.
type RotationSource interface {
	Rotation(ctx context.Context, lookbackDays int) (models.RotationSignal, error)
}

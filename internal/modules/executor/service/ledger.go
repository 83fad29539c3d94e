package service

import (
	"context"

	"pool_trader/internal/models"
)

// TradeLedger is the append-only trade record store. Transition enforces
// the closed status machine: any move out of a terminal state is
// ErrInvalidTransition.
type TradeLedger interface {
	Create(ctx context.Context, t *models.TradeRecord) (int64, error)
	Transition(ctx context.Context, id int64, to models.TradeStatus, orderRef, errMsg string) error
	FindByIdemKey(ctx context.Context, key string) (*models.TradeRecord, error)
	ListRecent(ctx context.Context, limit int) ([]models.TradeRecord, error)
}

// AnalysisPipeline is the slice of the analysis orchestrator the engine
// drives each cycle.
type AnalysisPipeline interface {
	Analyze(ctx context.Context, poolType *models.PoolType, forceRefresh bool) (models.AnalyzeResult, error)
	GetAnalysis(ctx context.Context, poolType *models.PoolType, sortBy models.SortBy, limit int) ([]models.Analysis, error)
}

// OrderAck is the gateway's acknowledgement of a submission.
type OrderAck struct {
	OrderRef string
	Status   string
}

// Gateway is the brokerage capability the engine drives in real mode.
// Simulated cycles never touch it.
type Gateway interface {
	SubmitOrder(ctx context.Context, symbol string, side models.Side, qty float64, idempotencyKey string) (OrderAck, error)
	GetOrderStatus(ctx context.Context, orderRef string) (string, error)
}

// ConfigSource re-reads the persisted run configuration. The engine
// calls it at every cycle boundary; nothing is cached across cycles.
type ConfigSource interface {
	Current(ctx context.Context) (models.RunConfig, error)
}

// Notifier — operator-facing messages (telegram or stdout).
type Notifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
}

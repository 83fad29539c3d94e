package models

import "time"

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

type TradeStatus string

const (
	TradePending   TradeStatus = "PENDING"
	TradeSubmitted TradeStatus = "SUBMITTED"
	TradeFilled    TradeStatus = "FILLED"
	TradeSimulated TradeStatus = "SIMULATED"
	TradeFailed    TradeStatus = "FAILED"
	TradeCancelled TradeStatus = "CANCELLED"
)

// Terminal statuses never regress.
func (s TradeStatus) Terminal() bool {
	switch s {
	case TradeFilled, TradeSimulated, TradeFailed, TradeCancelled:
		return true
	}
	return false
}

// allowed transitions: PENDING -> (SUBMITTED -> FILLED | FAILED) | SIMULATED
var tradeTransitions = map[TradeStatus][]TradeStatus{
	TradePending:   {TradeSubmitted, TradeSimulated, TradeFailed, TradeCancelled},
	TradeSubmitted: {TradeFilled, TradeFailed, TradeCancelled},
}

func (s TradeStatus) CanTransition(to TradeStatus) bool {
	for _, t := range tradeTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

type ExecutionMode string

const (
	ModeSimulated ExecutionMode = "simulated"
	ModeReal      ExecutionMode = "real"
)

// TradeRecord is an append-only ledger entry. Status only moves forward;
// the branch taken (real vs simulated) is recorded for auditability and
// must match the configuration read for the owning cycle.
type TradeRecord struct {
	ID             int64         `json:"id"`
	Symbol         string        `json:"symbol"`
	Side           Side          `json:"side"`
	Quantity       float64       `json:"quantity"`
	Price          float64       `json:"price"`
	Status         TradeStatus   `json:"status"`
	Mode           ExecutionMode `json:"mode"`
	IdempotencyKey string        `json:"idempotency_key"`
	OrderRef       string        `json:"order_ref,omitempty"`
	Error          string        `json:"error,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Position — local ledger entry for simulated trading.
type Position struct {
	Symbol   string    `json:"symbol"`
	Side     Side      `json:"side"`
	Qty      float64   `json:"qty"`
	AvgEntry float64   `json:"avg_entry"`
	Realized float64   `json:"realized"`
	Updated  time.Time `json:"updated"`
}

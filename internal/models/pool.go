package models

import "time"

type PoolType string

const (
	PoolLong  PoolType = "LONG"
	PoolShort PoolType = "SHORT"
)

func (p PoolType) Valid() bool {
	return p == PoolLong || p == PoolShort
}

// PoolEntry — one watch-list row. Unique per (PoolType, Symbol).
type PoolEntry struct {
	ID          int64     `json:"id"`
	PoolType    PoolType  `json:"pool_type"`
	Symbol      string    `json:"symbol"`
	DisplayName string    `json:"display_name,omitempty"`
	AddedReason string    `json:"added_reason,omitempty"`
	IsActive    bool      `json:"is_active"`
	Priority    int       `json:"priority"`
	AddedAt     time.Time `json:"added_at"`
}

// BatchAddResult partitions a batch_add per symbol: a bad symbol never
// blocks the rest.
type BatchAddResult struct {
	Added  []string          `json:"added"`
	Failed map[string]string `json:"failed"` // symbol -> reason
}

package service

import (
	"context"
	"sync"

	"pool_trader/internal/models"
)

// PriceCache holds the latest tick per symbol, fed by the websocket
// watcher and read by the analysis pipeline.
type PriceCache struct {
	mu   sync.RWMutex
	data map[string]models.Tick
}

func NewPriceCache() *PriceCache {
	return &PriceCache{data: make(map[string]models.Tick)}
}

func (c *PriceCache) Set(t models.Tick) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev, ok := c.data[t.Symbol]
	if ok && prev.Timestamp.After(t.Timestamp) {
		return // out-of-order frame
	}
	c.data[t.Symbol] = t
}

func (c *PriceCache) Latest(symbol string) (models.Tick, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.data[symbol]
	return t, ok
}

// RunWatcher drains the tick stream into the cache until ctx cancels.
func RunWatcher(ctx context.Context, client *Client, cache *PriceCache, symbols []string) {
	for tick := range client.StreamTicks(ctx, symbols) {
		cache.Set(tick)
	}
}

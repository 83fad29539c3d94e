package service

import (
	"math"
	"sort"
	"sync"
	"time"

	"pool_trader/internal/models"
)

// PositionBook is the local ledger for simulated trading. Quantity is
// signed: buys add, sells subtract, and a sell with nothing held opens
// a short. Extending a position blends the average entry; reducing one
// realizes PnL against it, clamped at flat.
type PositionBook struct {
	mu   sync.Mutex
	data map[string]models.Position
}

func NewPositionBook() *PositionBook {
	return &PositionBook{
		data: make(map[string]models.Position),
	}
}

func (b *PositionBook) Apply(symbol string, side models.Side, qty, price float64) models.Position {
	b.mu.Lock()
	defer b.mu.Unlock()

	delta := qty
	if side == models.SideSell {
		delta = -qty
	}

	pos, ok := b.data[symbol]
	if !ok {
		pos = models.Position{Symbol: symbol}
	}

	if pos.Qty == 0 || (pos.Qty > 0) == (delta > 0) {
		total := pos.AvgEntry*math.Abs(pos.Qty) + price*math.Abs(delta)
		pos.Qty += delta
		if pos.Qty != 0 {
			pos.AvgEntry = total / math.Abs(pos.Qty)
		}
	} else {
		closed := math.Min(math.Abs(delta), math.Abs(pos.Qty))
		if pos.Qty > 0 {
			pos.Realized += (price - pos.AvgEntry) * closed
			pos.Qty -= closed
		} else {
			pos.Realized += (pos.AvgEntry - price) * closed
			pos.Qty += closed
		}
	}

	pos.Side = models.SideBuy
	if pos.Qty < 0 {
		pos.Side = models.SideSell
	}
	pos.Updated = time.Now()

	if pos.Qty == 0 {
		delete(b.data, symbol)
		return pos
	}
	b.data[symbol] = pos
	return pos
}

func (b *PositionBook) Get(symbol string) (models.Position, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pos, ok := b.data[symbol]
	return pos, ok
}

func (b *PositionBook) Snapshot() []models.Position {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]models.Position, 0, len(b.data))
	for _, p := range b.data {
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"pool_trader/internal/models"
)

// Ledger is the in-memory trade ledger, same semantics as the postgres
// one. Used in tests and when running without a database.
type Ledger struct {
	mu     sync.Mutex
	nextID int64
	data   map[int64]*models.TradeRecord
}

func New() *Ledger {
	return &Ledger{
		nextID: 1,
		data:   make(map[int64]*models.TradeRecord),
	}
}

func (l *Ledger) Create(_ context.Context, rec *models.TradeRecord) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextID
	l.nextID++

	now := time.Now()
	stored := *rec
	stored.ID = id
	stored.CreatedAt = now
	stored.UpdatedAt = now
	l.data[id] = &stored

	rec.ID = id
	rec.CreatedAt = now
	rec.UpdatedAt = now
	return id, nil
}

func (l *Ledger) Transition(_ context.Context, id int64, to models.TradeStatus, orderRef, errMsg string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.data[id]
	if !ok {
		return errors.Wrapf(models.ErrNotFound, "trade %d", id)
	}
	if !rec.Status.CanTransition(to) {
		return errors.Wrapf(models.ErrInvalidTransition, "trade %d: %s -> %s", id, rec.Status, to)
	}

	rec.Status = to
	if orderRef != "" {
		rec.OrderRef = orderRef
	}
	rec.Error = errMsg
	rec.UpdatedAt = time.Now()
	return nil
}

func (l *Ledger) FindByIdemKey(_ context.Context, key string) (*models.TradeRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var found *models.TradeRecord
	for _, rec := range l.data {
		if rec.IdempotencyKey != key {
			continue
		}
		if found == nil || rec.ID > found.ID {
			found = rec
		}
	}
	if found == nil {
		return nil, nil
	}
	cp := *found
	return &cp, nil
}

func (l *Ledger) ListRecent(_ context.Context, limit int) ([]models.TradeRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}
	out := make([]models.TradeRecord, 0, limit)
	for id := l.nextID - 1; id >= 1 && len(out) < limit; id-- {
		if rec, ok := l.data[id]; ok {
			out = append(out, *rec)
		}
	}
	return out, nil
}

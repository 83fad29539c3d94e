package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"pool_trader/internal/models"
	"pool_trader/pkg/db"
)

// Trades implements the trade ledger on postgres. Status transitions go
// through Transition only, which checks the status machine inside the
// same transaction as the update.
type Trades struct {
	db db.TxManager
}

func New(txm db.TxManager) *Trades {
	return &Trades{db: txm}
}

func (t *Trades) Create(ctx context.Context, rec *models.TradeRecord) (id int64, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Trades.Create: %w", err)
		}
	}()

	now := time.Now()
	err = t.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctxTx, `
			INSERT INTO trade_records
				(symbol, side, quantity, price, status, mode, idempotency_key, order_ref, error, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
			RETURNING id`,
			rec.Symbol, rec.Side, rec.Quantity, rec.Price, rec.Status, rec.Mode,
			rec.IdempotencyKey, rec.OrderRef, rec.Error, now,
		)
		return row.Scan(&id)
	})
	if err != nil {
		return 0, err
	}
	rec.ID = id
	rec.CreatedAt = now
	rec.UpdatedAt = now
	return id, nil
}

func (t *Trades) Transition(ctx context.Context, id int64, to models.TradeStatus, orderRef, errMsg string) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Trades.Transition: %w", err)
		}
	}()

	return t.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		var current models.TradeStatus
		row := tx.QueryRow(ctxTx, `SELECT status FROM trade_records WHERE id = $1 FOR UPDATE`, id)
		if scanErr := row.Scan(&current); scanErr != nil {
			if errors.Is(scanErr, pgx.ErrNoRows) {
				return errors.Wrapf(models.ErrNotFound, "trade %d", id)
			}
			return scanErr
		}
		if !current.CanTransition(to) {
			return errors.Wrapf(models.ErrInvalidTransition, "trade %d: %s -> %s", id, current, to)
		}

		_, execErr := tx.Exec(ctxTx, `
			UPDATE trade_records
			SET status = $2,
			    order_ref = COALESCE(NULLIF($3, ''), order_ref),
			    error = $4,
			    updated_at = $5
			WHERE id = $1`,
			id, to, orderRef, errMsg, time.Now(),
		)
		return execErr
	})
}

func (t *Trades) FindByIdemKey(ctx context.Context, key string) (rec *models.TradeRecord, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Trades.FindByIdemKey: %w", err)
		}
	}()

	rec = &models.TradeRecord{}
	err = t.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctxTx, `
			SELECT id, symbol, side, quantity, price, status, mode, idempotency_key, order_ref, error, created_at, updated_at
			FROM trade_records
			WHERE idempotency_key = $1
			ORDER BY id DESC
			LIMIT 1`, key)
		return scanTrade(row, rec)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (t *Trades) ListRecent(ctx context.Context, limit int) (out []models.TradeRecord, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Trades.ListRecent: %w", err)
		}
	}()

	if limit <= 0 {
		limit = 50
	}
	err = t.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		rows, queryErr := tx.Query(ctxTx, `
			SELECT id, symbol, side, quantity, price, status, mode, idempotency_key, order_ref, error, created_at, updated_at
			FROM trade_records
			ORDER BY id DESC
			LIMIT $1`, limit)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		for rows.Next() {
			var rec models.TradeRecord
			if scanErr := scanTrade(rows, &rec); scanErr != nil {
				return scanErr
			}
			out = append(out, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func scanTrade(row pgx.Row, rec *models.TradeRecord) error {
	return row.Scan(&rec.ID, &rec.Symbol, &rec.Side, &rec.Quantity, &rec.Price,
		&rec.Status, &rec.Mode, &rec.IdempotencyKey, &rec.OrderRef, &rec.Error,
		&rec.CreatedAt, &rec.UpdatedAt)
}

package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	"pool_trader/internal/models"
	"pool_trader/pkg/db"
)

const uniqueViolation = "23505"

// PoolEntries implements the registry store on postgres.
type PoolEntries struct {
	db db.TxManager
}

func New(txm db.TxManager) *PoolEntries {
	return &PoolEntries{db: txm}
}

func (p *PoolEntries) Insert(ctx context.Context, entry *models.PoolEntry) (id int64, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.PoolEntries.Insert: %w", err)
		}
	}()

	err = p.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctxTx, `
			INSERT INTO pool_entries (pool_type, symbol, display_name, added_reason, is_active, priority, added_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			entry.PoolType, entry.Symbol, entry.DisplayName, entry.AddedReason,
			entry.IsActive, entry.Priority, entry.AddedAt,
		)
		return row.Scan(&id)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, errors.Wrapf(models.ErrDuplicateEntry, "%s/%s", entry.PoolType, entry.Symbol)
		}
		return 0, err
	}
	return id, nil
}

func (p *PoolEntries) Get(ctx context.Context, id int64) (entry *models.PoolEntry, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.PoolEntries.Get: %w", err)
		}
	}()

	entry = &models.PoolEntry{}
	err = p.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctxTx, `
			SELECT id, pool_type, symbol, display_name, added_reason, is_active, priority, added_at
			FROM pool_entries WHERE id = $1`, id)
		scanErr := row.Scan(&entry.ID, &entry.PoolType, &entry.Symbol, &entry.DisplayName,
			&entry.AddedReason, &entry.IsActive, &entry.Priority, &entry.AddedAt)
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return errors.Wrapf(models.ErrNotFound, "pool entry %d", id)
		}
		return scanErr
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (p *PoolEntries) List(ctx context.Context, poolType *models.PoolType, activeOnly bool) (entries []models.PoolEntry, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.PoolEntries.List: %w", err)
		}
	}()

	query := `
		SELECT id, pool_type, symbol, display_name, added_reason, is_active, priority, added_at
		FROM pool_entries WHERE ($1::text IS NULL OR pool_type = $1)`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY priority DESC, id`

	var typeArg *string
	if poolType != nil {
		s := string(*poolType)
		typeArg = &s
	}

	err = p.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		rows, qErr := tx.Query(ctxTx, query, typeArg)
		if qErr != nil {
			return qErr
		}
		defer rows.Close()

		for rows.Next() {
			var e models.PoolEntry
			if sErr := rows.Scan(&e.ID, &e.PoolType, &e.Symbol, &e.DisplayName,
				&e.AddedReason, &e.IsActive, &e.Priority, &e.AddedAt); sErr != nil {
				return sErr
			}
			entries = append(entries, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (p *PoolEntries) Update(ctx context.Context, entry *models.PoolEntry) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.PoolEntries.Update: %w", err)
		}
	}()

	return p.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		tag, eErr := tx.Exec(ctxTx, `
			UPDATE pool_entries
			SET display_name = $2, added_reason = $3, is_active = $4, priority = $5
			WHERE id = $1`,
			entry.ID, entry.DisplayName, entry.AddedReason, entry.IsActive, entry.Priority,
		)
		if eErr != nil {
			return eErr
		}
		if tag.RowsAffected() == 0 {
			return errors.Wrapf(models.ErrNotFound, "pool entry %d", entry.ID)
		}
		return nil
	})
}

func (p *PoolEntries) Delete(ctx context.Context, id int64) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.PoolEntries.Delete: %w", err)
		}
	}()

	return p.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		tag, eErr := tx.Exec(ctxTx, `DELETE FROM pool_entries WHERE id = $1`, id)
		if eErr != nil {
			return eErr
		}
		if tag.RowsAffected() == 0 {
			return errors.Wrapf(models.ErrNotFound, "pool entry %d", id)
		}
		return nil
	})
}

func (p *PoolEntries) DeleteByType(ctx context.Context, poolType models.PoolType) (removed int64, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.PoolEntries.DeleteByType: %w", err)
		}
	}()

	err = p.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		tag, eErr := tx.Exec(ctxTx, `DELETE FROM pool_entries WHERE pool_type = $1`, poolType)
		if eErr != nil {
			return eErr
		}
		removed = tag.RowsAffected()
		return nil
	})
	return removed, err
}

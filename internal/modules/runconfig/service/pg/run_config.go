package pg

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"pool_trader/internal/models"
	"pool_trader/pkg/db"
)

// RunConfig persists the singleton configuration as one JSON payload row.
// The record is marshalled whole; no hand-maintained column subset.
type RunConfig struct {
	db db.TxManager
}

func New(txm db.TxManager) *RunConfig {
	return &RunConfig{db: txm}
}

func (r *RunConfig) Load(ctx context.Context) (cfg models.RunConfig, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.RunConfig.Load: %w", err)
		}
	}()

	var payload []byte
	err = r.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctxTx, `SELECT payload FROM run_config WHERE id = 1`)
		scanErr := row.Scan(&payload)
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return errors.Wrap(models.ErrNotFound, "run config")
		}
		return scanErr
	})
	if err != nil {
		return models.RunConfig{}, err
	}

	if err = sonic.Unmarshal(payload, &cfg); err != nil {
		return models.RunConfig{}, err
	}
	return cfg, nil
}

func (r *RunConfig) Save(ctx context.Context, cfg models.RunConfig) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.RunConfig.Save: %w", err)
		}
	}()

	payload, err := sonic.Marshal(cfg)
	if err != nil {
		return err
	}

	return r.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, eErr := tx.Exec(ctxTx, `
			INSERT INTO run_config (id, version, payload, updated_at)
			VALUES (1, $1, $2, $3)
			ON CONFLICT (id) DO UPDATE
			SET version = EXCLUDED.version,
			    payload = EXCLUDED.payload,
			    updated_at = EXCLUDED.updated_at`,
			cfg.Version, payload, cfg.UpdatedAt,
		)
		return eErr
	})
}

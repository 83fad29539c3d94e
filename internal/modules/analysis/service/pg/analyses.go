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

// Analyses stores each analysis as a whole-record JSON payload next to
// the columns needed for filtering and ranking. Superseded rows keep
// current=false for audit and drop out of every read.
type Analyses struct {
	db db.TxManager
}

func New(txm db.TxManager) *Analyses {
	return &Analyses{db: txm}
}

func (a *Analyses) Upsert(ctx context.Context, an *models.Analysis) (id int64, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Analyses.Upsert: %w", err)
		}
	}()

	payload, err := sonic.Marshal(an)
	if err != nil {
		return 0, err
	}

	err = a.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		if _, uErr := tx.Exec(ctxTx, `
			UPDATE analyses SET current = FALSE
			WHERE pool_entry_id = $1 AND current`, an.PoolEntryID); uErr != nil {
			return uErr
		}
		row := tx.QueryRow(ctxTx, `
			INSERT INTO analyses (pool_entry_id, symbol, pool_type, analysis_time, total_score, recommendation_score, change_1d, current, payload)
			VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8)
			RETURNING id`,
			an.PoolEntryID, an.Symbol, an.PoolType, an.AnalysisTime,
			an.Score.Total, an.RecommendationScore, an.PriceChange1D, payload,
		)
		return row.Scan(&id)
	})
	if err != nil {
		return 0, err
	}
	an.ID = id
	return id, nil
}

func (a *Analyses) Current(ctx context.Context, poolEntryID int64) (an *models.Analysis, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Analyses.Current: %w", err)
		}
	}()

	var payload []byte
	var id int64
	err = a.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctxTx, `
			SELECT id, payload FROM analyses
			WHERE pool_entry_id = $1 AND current`, poolEntryID)
		scanErr := row.Scan(&id, &payload)
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return errors.Wrapf(models.ErrNotFound, "analysis for entry %d", poolEntryID)
		}
		return scanErr
	})
	if err != nil {
		return nil, err
	}

	an = &models.Analysis{}
	if err = sonic.Unmarshal(payload, an); err != nil {
		return nil, err
	}
	an.ID = id
	return an, nil
}

var sortColumns = map[models.SortBy]string{
	models.SortByScore:          "total_score",
	models.SortByRecommendation: "recommendation_score",
	models.SortByChange1D:       "change_1d",
}

func (a *Analyses) List(ctx context.Context, poolType *models.PoolType, sortBy models.SortBy, limit int) (out []models.Analysis, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Analyses.List: %w", err)
		}
	}()

	col, ok := sortColumns[sortBy]
	if !ok {
		col = "total_score"
	}
	if limit <= 0 {
		limit = 50
	}

	var typeArg *string
	if poolType != nil {
		s := string(*poolType)
		typeArg = &s
	}

	query := fmt.Sprintf(`
		SELECT id, payload FROM analyses
		WHERE current AND ($1::text IS NULL OR pool_type = $1)
		ORDER BY %s DESC
		LIMIT $2`, col)

	err = a.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		rows, qErr := tx.Query(ctxTx, query, typeArg, limit)
		if qErr != nil {
			return qErr
		}
		defer rows.Close()

		for rows.Next() {
			var id int64
			var payload []byte
			if sErr := rows.Scan(&id, &payload); sErr != nil {
				return sErr
			}
			var an models.Analysis
			if uErr := sonic.Unmarshal(payload, &an); uErr != nil {
				return uErr
			}
			an.ID = id
			out = append(out, an)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Analyses) InvalidateEntry(ctx context.Context, poolEntryID int64) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Analyses.InvalidateEntry: %w", err)
		}
	}()

	return a.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, eErr := tx.Exec(ctxTx, `
			UPDATE analyses SET current = FALSE
			WHERE pool_entry_id = $1 AND current`, poolEntryID)
		return eErr
	})
}

func (a *Analyses) InvalidatePool(ctx context.Context, poolType models.PoolType) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Analyses.InvalidatePool: %w", err)
		}
	}()

	return a.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, eErr := tx.Exec(ctxTx, `
			UPDATE analyses SET current = FALSE
			WHERE pool_type = $1 AND current`, poolType)
		return eErr
	})
}

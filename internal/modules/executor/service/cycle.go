package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"pool_trader/internal/models"
	"pool_trader/pkg/logger"
)

const boardLot = 100

// RunCycle executes one decide-and-execute pass under the given
// configuration snapshot. Callers must pass the configuration read at
// this cycle's start; the engine itself never reuses an older one.
func (e *Engine) RunCycle(ctx context.Context, cfg models.RunConfig) {
	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()

	span, ctx := opentracing.StartSpanFromContext(ctx, "executor.cycle")
	span.SetTag("real_trading", cfg.EnableRealTrading)
	defer span.Finish()

	e.health.SetCycleRunning(true)
	defer func() {
		e.health.SetCycleRunning(false)
		e.health.TouchCycle(time.Now())
	}()

	res, err := e.orch.Analyze(ctx, nil, false)
	if err != nil {
		logger.Error("cycle: analyze: %v", err)
		return
	}
	if res.Failed > 0 {
		logger.Warn("cycle: %d of %d symbols failed analysis", res.Failed, res.Total)
	}

	analyses, err := e.orch.GetAnalysis(ctx, nil, models.SortByRecommendation, cfg.MaxSymbols)
	if err != nil {
		logger.Error("cycle: read analyses: %v", err)
		return
	}

	for _, a := range analyses {
		if ctx.Err() != nil {
			// stop picking up new intents; in-flight submissions drain
			// on their own detached contexts
			return
		}
		e.executeDecision(ctx, cfg, a)
	}
}

func (e *Engine) executeDecision(ctx context.Context, cfg models.RunConfig, a models.Analysis) {
	var side models.Side
	switch a.Decision.Action {
	case models.ActionBuy:
		if a.Decision.Confidence < cfg.BuyConfidenceThreshold {
			return
		}
		side = models.SideBuy
	case models.ActionSell:
		if a.Decision.Confidence < cfg.SellConfidenceThreshold {
			return
		}
		side = models.SideSell
	default:
		return
	}

	qty := sizePosition(cfg.MaxPositionValue, a.CurrentPrice)
	if !cfg.EnableRealTrading {
		// exits close the full book position; with nothing booked the
		// intent is skipped.
		switch {
		case side == models.SideSell && a.PoolType == models.PoolLong:
			pos, ok := e.book.Get(a.Symbol)
			if !ok || pos.Qty <= 0 {
				return
			}
			qty = pos.Qty
		case side == models.SideBuy && a.PoolType == models.PoolShort:
			pos, ok := e.book.Get(a.Symbol)
			if !ok || pos.Qty >= 0 {
				return
			}
			qty = -pos.Qty
		}
	}
	if qty < boardLot {
		return
	}

	lock := e.symbolLock(a.Symbol)
	lock.Lock()
	defer lock.Unlock()

	key := idempotencyKey(a.Symbol, side, a.AnalysisTime, e.runID)

	// One record per intent, in either mode. A FAILED prior also blocks:
	// clearing it is operator action, not another cycle.
	prior, err := e.ledger.FindByIdemKey(ctx, key)
	if err != nil {
		logger.Error("trade %s: idempotency lookup failed, holding submission: %v", a.Symbol, err)
		return
	}
	if prior != nil {
		logger.Info("trade %s: intent %s already recorded as %s, skipping", a.Symbol, key, prior.Status)
		return
	}

	if cfg.EnableRealTrading {
		e.executeReal(ctx, cfg, a, side, qty, key)
		return
	}
	e.executeSimulated(ctx, a, side, qty, key)
}

// sizePosition rounds the notional down to whole board lots.
func sizePosition(maxValue, price float64) float64 {
	if price <= 0 {
		return 0
	}
	return math.Floor(maxValue/price/boardLot) * boardLot
}

// idempotencyKey is deterministic over (symbol, side, decision time, run
// id): a resubmission of the same intent reuses it.
func idempotencyKey(symbol string, side models.Side, decisionAt time.Time, runID string) string {
	return fmt.Sprintf("%s-%s-%d-%s", symbol, side, decisionAt.UnixMilli(), runID)
}

// executeSimulated records the trade locally. The gateway is never
// touched on this path.
func (e *Engine) executeSimulated(ctx context.Context, a models.Analysis, side models.Side, qty float64, key string) {
	rec := &models.TradeRecord{
		Symbol:         a.Symbol,
		Side:           side,
		Quantity:       qty,
		Price:          a.CurrentPrice,
		Status:         models.TradePending,
		Mode:           models.ModeSimulated,
		IdempotencyKey: key,
		CreatedAt:      time.Now(),
	}
	id, err := e.ledger.Create(ctx, rec)
	if err != nil {
		logger.Error("sim trade %s: create record: %v", a.Symbol, err)
		return
	}
	if err := e.ledger.Transition(ctx, id, models.TradeSimulated, "", ""); err != nil {
		logger.Error("sim trade %s: transition: %v", a.Symbol, err)
		return
	}

	pos := e.book.Apply(a.Symbol, side, qty, a.CurrentPrice)
	e.notifier.Sendf("SIM %s %s qty=%.0f @ %.2f (pos=%.0f avg=%.2f)",
		side, a.Symbol, qty, a.CurrentPrice, pos.Qty, pos.AvgEntry)
}

// executeReal submits through the gateway. At most one resubmission,
// with the same idempotency key, after a timeout. Anything further is
// FAILED and left to the operator.
func (e *Engine) executeReal(ctx context.Context, cfg models.RunConfig, a models.Analysis, side models.Side, qty float64, key string) {
	rec := &models.TradeRecord{
		Symbol:         a.Symbol,
		Side:           side,
		Quantity:       qty,
		Price:          a.CurrentPrice,
		Status:         models.TradePending,
		Mode:           models.ModeReal,
		IdempotencyKey: key,
		CreatedAt:      time.Now(),
	}
	id, err := e.ledger.Create(ctx, rec)
	if err != nil {
		logger.Error("real trade %s: create record: %v", a.Symbol, err)
		return
	}

	e.inflight.Add(1)
	defer e.inflight.Done()

	// the submission must reach a terminal status even if the engine is
	// stopping, so it runs on a context detached from the cycle's
	subCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.GatewayTimeout)
	defer cancel()

	ack, err := e.gateway.SubmitOrder(subCtx, a.Symbol, side, qty, key)
	if errors.Is(err, models.ErrGatewayTimeout) {
		logger.Warn("real trade %s: timeout, resubmitting once with key %s", a.Symbol, key)
		retryCtx, retryCancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.GatewayTimeout)
		ack, err = e.gateway.SubmitOrder(retryCtx, a.Symbol, side, qty, key)
		retryCancel()
	}
	if err != nil {
		// gateway's own words, verbatim, for operator diagnosis
		if tErr := e.ledger.Transition(ctx, id, models.TradeFailed, "", err.Error()); tErr != nil {
			logger.Error("real trade %s: record failure: %v", a.Symbol, tErr)
		}
		e.notifier.Sendf("ORDER FAILED %s %s qty=%.0f: %v", side, a.Symbol, qty, err)
		return
	}

	if err := e.ledger.Transition(ctx, id, models.TradeSubmitted, ack.OrderRef, ""); err != nil {
		logger.Error("real trade %s: transition submitted: %v", a.Symbol, err)
		return
	}
	e.notifier.Sendf("ORDER SUBMITTED %s %s qty=%.0f @ %.2f ref=%s", side, a.Symbol, qty, a.CurrentPrice, ack.OrderRef)

	if ack.Status == "filled" {
		e.finishFill(ctx, id, a.Symbol)
		return
	}

	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		e.pollFill(context.WithoutCancel(ctx), id, a.Symbol, ack.OrderRef)
	}()
}

const (
	fillPollInterval = 2 * time.Second
	fillPollAttempts = 30
)

// pollFill drives a SUBMITTED order to FILLED or FAILED.
func (e *Engine) pollFill(ctx context.Context, id int64, symbol, orderRef string) {
	for i := 0; i < fillPollAttempts; i++ {
		time.Sleep(fillPollInterval)

		status, err := e.gateway.GetOrderStatus(ctx, orderRef)
		if err != nil {
			logger.Warn("poll %s ref=%s: %v", symbol, orderRef, err)
			continue
		}
		switch status {
		case "filled":
			e.finishFill(ctx, id, symbol)
			return
		case "failed", "rejected":
			if err := e.ledger.Transition(ctx, id, models.TradeFailed, orderRef, "gateway reported "+status); err != nil {
				logger.Error("poll %s: transition failed: %v", symbol, err)
			}
			e.notifier.Sendf("ORDER FAILED %s ref=%s: gateway reported %s", symbol, orderRef, status)
			return
		case "cancelled":
			if err := e.ledger.Transition(ctx, id, models.TradeCancelled, orderRef, ""); err != nil {
				logger.Error("poll %s: transition cancelled: %v", symbol, err)
			}
			return
		}
	}
	logger.Warn("poll %s ref=%s: still unfilled after %d attempts, leaving SUBMITTED", symbol, orderRef, fillPollAttempts)
}

func (e *Engine) finishFill(ctx context.Context, id int64, symbol string) {
	if err := e.ledger.Transition(ctx, id, models.TradeFilled, "", ""); err != nil {
		logger.Error("fill %s: transition: %v", symbol, err)
		return
	}
	e.notifier.Sendf("ORDER FILLED %s", symbol)
}

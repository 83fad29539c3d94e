package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"

	"pool_trader/internal/decision"
	"pool_trader/internal/models"
	poolssvc "pool_trader/internal/modules/pools/service"
	scoringsvc "pool_trader/internal/modules/scoring/service"
	"pool_trader/pkg/logger"
)

const analyzeParallelism = 8

// Orchestrator runs the per-entry pipeline: bars -> score -> decision ->
// persisted Analysis.
type Orchestrator struct {
	registry *poolssvc.Registry
	scorer   *scoringsvc.Engine
	rotation RotationSource
	provider BarsProvider
	prices   PriceSource
	store    Store
	cfgSrc   ConfigSource

	barCount  int
	staleness time.Duration

	sem chan struct{} // caps concurrent symbol fetches
}

func NewOrchestrator(
	registry *poolssvc.Registry,
	scorer *scoringsvc.Engine,
	rotation RotationSource,
	provider BarsProvider,
	prices PriceSource,
	store Store,
	cfgSrc ConfigSource,
	barCount int,
	staleness time.Duration,
) *Orchestrator {
	if barCount < scorer.MinBars() {
		barCount = scorer.MinBars() * 2
	}
	return &Orchestrator{
		registry:  registry,
		scorer:    scorer,
		rotation:  rotation,
		provider:  provider,
		prices:    prices,
		store:     store,
		cfgSrc:    cfgSrc,
		barCount:  barCount,
		staleness: staleness,
		sem:       make(chan struct{}, analyzeParallelism),
	}
}

// Analyze runs the pipeline over every active pool entry, optionally
// filtered by pool type. A single symbol's failure never aborts the
// batch; it is reported in the result partition instead.
func (o *Orchestrator) Analyze(ctx context.Context, poolType *models.PoolType, forceRefresh bool) (models.AnalyzeResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "analysis.batch")
	defer span.Finish()

	res := models.AnalyzeResult{Errors: make(map[string]string)}

	cfg, err := o.cfgSrc.Current(ctx)
	if err != nil {
		return res, fmt.Errorf("Orchestrator.Analyze: read run config: %w", err)
	}

	entries, err := o.registry.ListActive(ctx, poolType)
	if err != nil {
		return res, fmt.Errorf("Orchestrator.Analyze: list entries: %w", err)
	}
	if cfg.MaxSymbols > 0 && len(entries) > cfg.MaxSymbols {
		entries = entries[:cfg.MaxSymbols] // already priority-ordered
	}
	res.Total = len(entries)

	// one rotation read per batch; decisions degrade gracefully without it
	var rot *models.RotationSignal
	if sig, rErr := o.rotation.Rotation(ctx, cfg.RotationLookbackDays); rErr == nil {
		rot = &sig
	} else {
		logger.Warn("analyze: rotation unavailable: %v", rErr)
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, entry := range entries {
		entry := entry
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.sem <- struct{}{}
			defer func() { <-o.sem }()

			err := o.analyzeOne(ctx, entry, rot, cfg, forceRefresh)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed++
				res.Errors[entry.Symbol] = err.Error()
				return
			}
			res.Success++
		}()
	}
	wg.Wait()

	logger.Info("analyze done: total=%d success=%d failed=%d", res.Total, res.Success, res.Failed)
	return res, nil
}

func (o *Orchestrator) analyzeOne(ctx context.Context, entry models.PoolEntry, rot *models.RotationSignal, cfg models.RunConfig, forceRefresh bool) error {
	if !forceRefresh {
		if cur, err := o.store.Current(ctx, entry.ID); err == nil && cur != nil {
			if withinStaleness(cur.AnalysisTime, time.Now(), o.staleness) {
				return nil // fresh enough, reuse
			}
		}
	}

	bars, err := o.provider.GetBars(ctx, entry.Symbol, o.barCount)
	if err != nil {
		return err
	}

	score, tags, err := o.scorer.Analyze(bars)
	if err != nil {
		return err
	}

	dec := decision.Decide(score, entry.PoolType, rot, cfg)

	a := buildAnalysis(entry, bars, score, tags, dec)
	// prefer a live tick over the last bar close when one is newer
	if o.prices != nil {
		if tick, ok := o.prices.Latest(entry.Symbol); ok && tick.Timestamp.After(bars[len(bars)-1].Timestamp) {
			a.CurrentPrice = tick.Price
		}
	}
	if _, err := o.store.Upsert(ctx, a); err != nil {
		return err
	}
	return nil
}

func buildAnalysis(entry models.PoolEntry, bars []models.Bar, score models.Score, tags []string, dec models.Decision) *models.Analysis {
	last := bars[len(bars)-1]

	a := &models.Analysis{
		PoolEntryID:   entry.ID,
		Symbol:        entry.Symbol,
		PoolType:      entry.PoolType,
		AnalysisTime:  time.Now(),
		CurrentPrice:  last.Close,
		PriceChange1D: changeOver(bars, 1),
		PriceChange5D: changeOver(bars, 5),
		Score:         score,
		Decision:      dec,
		Signals:       tags,
	}

	a.RecommendationScore = 0.8*score.Total + 20*dec.Confidence
	reason := fmt.Sprintf("%s with grade %s", dec.Action, score.Grade)
	if len(dec.Reasoning) > 0 {
		reason += ": " + dec.Reasoning[0]
	}
	a.RecommendationReason = reason
	return a
}

// changeOver: pct change over the last n sessions.
func changeOver(bars []models.Bar, n int) float64 {
	if len(bars) < n+1 {
		return 0
	}
	base := bars[len(bars)-1-n].Close
	if base == 0 {
		return 0
	}
	return (bars[len(bars)-1].Close - base) / base * 100
}

// withinStaleness: same trading day counts as fresh.
func withinStaleness(at, now time.Time, window time.Duration) bool {
	if at.IsZero() {
		return false
	}
	sameDay := at.Year() == now.Year() && at.YearDay() == now.YearDay()
	return sameDay && now.Sub(at) <= window
}

// GetAnalysis returns current analyses ranked by the given key.
func (o *Orchestrator) GetAnalysis(ctx context.Context, poolType *models.PoolType, sortBy models.SortBy, limit int) ([]models.Analysis, error) {
	if sortBy == "" {
		sortBy = models.SortByScore
	}
	return o.store.List(ctx, poolType, sortBy, limit)
}

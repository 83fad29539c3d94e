package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"pool_trader/internal/models"
	"pool_trader/pkg/logger"
)

// BarsProvider is the slice of the market data client the analyzer needs.
type BarsProvider interface {
	GetBars(ctx context.Context, symbol string, count int) ([]models.Bar, error)
}

type Analyzer struct {
	defs     []FactorDef
	provider BarsProvider

	mu      sync.RWMutex
	factors []models.FactorInfo // last synced snapshot
}

func NewAnalyzer(defs []FactorDef, provider BarsProvider) *Analyzer {
	return &Analyzer{
		defs:     defs,
		provider: provider,
	}
}

// strength weights over the standard change windows.
const (
	strengthW1  = 0.15
	strengthW5  = 0.30
	strengthW20 = 0.35
	strengthW60 = 0.20
)

// Sync recomputes FactorInfo for every tracked factor from raw ETF bars.
// A factor whose entire basket fails to fetch is skipped, not fatal.
func (a *Analyzer) Sync(ctx context.Context) ([]models.FactorInfo, error) {
	infos := make([]models.FactorInfo, 0, len(a.defs))

	for _, def := range a.defs {
		info, err := a.syncFactor(ctx, def)
		if err != nil {
			logger.Warn("factor %s sync failed: %v", def.ID, err)
			continue
		}
		infos = append(infos, info)
	}
	if len(infos) == 0 {
		return nil, errors.Wrap(models.ErrDataFetch, "no factor basket could be synced")
	}

	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].StrengthScore > infos[j].StrengthScore
	})
	for i := range infos {
		infos[i].Rank = i + 1
	}

	a.mu.Lock()
	a.factors = infos
	a.mu.Unlock()

	return infos, nil
}

func (a *Analyzer) syncFactor(ctx context.Context, def FactorDef) (models.FactorInfo, error) {
	info := models.FactorInfo{FactorID: def.ID, Name: def.Name}

	for _, etf := range def.ETFs {
		bars, err := a.provider.GetBars(ctx, etf, 61)
		if err != nil {
			logger.Warn("factor %s: etf %s fetch failed: %v", def.ID, etf, err)
			continue
		}
		if len(bars) < 61 {
			continue
		}
		info.ETFs = append(info.ETFs, models.ETFChange{
			Symbol:    etf,
			Change1D:  windowChange(bars, 1),
			Change5D:  windowChange(bars, 5),
			Change20D: windowChange(bars, 20),
			Change60D: windowChange(bars, 60),
		})
	}
	if len(info.ETFs) == 0 {
		return info, errors.Wrapf(models.ErrDataFetch, "factor %s: empty basket", def.ID)
	}

	for _, e := range info.ETFs {
		info.AvgChange1D += e.Change1D
		info.AvgChange5D += e.Change5D
		info.AvgChange20D += e.Change20D
		info.AvgChange60D += e.Change60D
	}
	n := float64(len(info.ETFs))
	info.AvgChange1D /= n
	info.AvgChange5D /= n
	info.AvgChange20D /= n
	info.AvgChange60D /= n

	info.StrengthScore = strengthW1*info.AvgChange1D +
		strengthW5*info.AvgChange5D +
		strengthW20*info.AvgChange20D +
		strengthW60*info.AvgChange60D

	if info.AvgChange20D > 0 {
		info.Trend = "up"
	} else {
		info.Trend = "down"
	}
	if info.AvgChange5D > info.AvgChange20D/4 {
		info.Momentum = "accelerating"
	} else {
		info.Momentum = "fading"
	}

	return info, nil
}

// Rotation derives the dominant-factor signal over lookbackDays. It is a
// pure function of the current factor set plus fresh daily-change series;
// nothing here is persisted.
func (a *Analyzer) Rotation(ctx context.Context, lookbackDays int) (models.RotationSignal, error) {
	if lookbackDays <= 1 {
		lookbackDays = 20
	}

	a.mu.RLock()
	factors := a.factors
	a.mu.RUnlock()
	if len(factors) == 0 {
		var err error
		factors, err = a.Sync(ctx)
		if err != nil {
			return models.RotationSignal{}, err
		}
	}

	sig := models.RotationSignal{
		Factors:       make(map[string]models.FactorMomentum, len(factors)),
		Strengthening: []string{},
		Weakening:     []string{},
	}

	for _, f := range factors {
		series, err := a.dailyChanges(ctx, f, 2*lookbackDays)
		if err != nil {
			// no momentum record: the factor belongs to neither set.
			logger.Warn("factor %s: daily change series failed: %v", f.FactorID, err)
			continue
		}

		recent := series[len(series)-lookbackDays:]
		prior := series[:len(series)-lookbackDays]

		fm := models.FactorMomentum{
			RecentAvg:  mean(recent),
			TrendSlope: slope(recent),
		}
		fm.Momentum = fm.RecentAvg - mean(prior)
		fm.IsStrengthening = fm.Momentum > 0 && fm.TrendSlope > 0

		sig.Factors[f.FactorID] = fm
		if fm.IsStrengthening {
			sig.Strengthening = append(sig.Strengthening, f.FactorID)
		} else {
			sig.Weakening = append(sig.Weakening, f.FactorID)
		}
	}

	a.pickDominant(&sig, factors)
	return sig, nil
}

// pickDominant selects the highest-strength factor among those with
// positive momentum; with no qualifier the signal is neutral.
func (a *Analyzer) pickDominant(sig *models.RotationSignal, factors []models.FactorInfo) {
	best := ""
	bestStrength := 0.0
	for _, f := range factors {
		fm, ok := sig.Factors[f.FactorID]
		if !ok || fm.Momentum <= 0 {
			continue
		}
		if best == "" || f.StrengthScore > bestStrength {
			best = f.FactorID
			bestStrength = f.StrengthScore
		}
	}

	if best == "" {
		sig.Signal = models.RotationNeutral
		sig.Description = "no factor shows positive momentum"
		sig.Recommendation = "No factor rotation detected; hold current allocation."
		return
	}

	sig.DominantFactor = best
	if len(sig.Strengthening)*2 > len(factors) {
		sig.Signal = models.RotationConfirming
		sig.Description = fmt.Sprintf("broad strength led by %s", best)
	} else {
		sig.Signal = models.RotationRotating
		sig.Description = fmt.Sprintf("capital rotating into %s", best)
	}
	sig.Recommendation = fmt.Sprintf(
		"Rotate exposure toward %s (%s). Strengthening: %s. Weakening: %s.",
		best, sig.Signal,
		joinOrNone(sig.Strengthening), joinOrNone(sig.Weakening),
	)
}

// dailyChanges: basket-average daily pct change over the last n days.
func (a *Analyzer) dailyChanges(ctx context.Context, f models.FactorInfo, n int) ([]float64, error) {
	acc := make([]float64, n)
	counted := 0

	for _, e := range f.ETFs {
		bars, err := a.provider.GetBars(ctx, e.Symbol, n+1)
		if err != nil || len(bars) < n+1 {
			continue
		}
		for i := 0; i < n; i++ {
			prev := bars[len(bars)-n-1+i].Close
			cur := bars[len(bars)-n+i].Close
			if prev != 0 {
				acc[i] += (cur - prev) / prev * 100
			}
		}
		counted++
	}
	if counted == 0 {
		return nil, errors.Wrapf(models.ErrDataFetch, "factor %s: no etf series", f.FactorID)
	}

	for i := range acc {
		acc[i] /= float64(counted)
	}
	return acc, nil
}

// windowChange: pct change of the close over the trailing n sessions.
func windowChange(bars []models.Bar, n int) float64 {
	if len(bars) < n+1 {
		return 0
	}
	prev := bars[len(bars)-1-n].Close
	if prev == 0 {
		return 0
	}
	return (bars[len(bars)-1].Close - prev) / prev * 100
}

func joinOrNone(ids []string) string {
	if len(ids) == 0 {
		return "none"
	}
	return strings.Join(ids, ", ")
}

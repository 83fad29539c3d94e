package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pool_trader/internal/models"
	"pool_trader/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init(zap.NewNop())
	m.Run()
}

// fakeBars serves deterministic per-symbol series; GetBars returns the
// last count bars.
type fakeBars struct {
	series map[string][]float64
}

func (f *fakeBars) GetBars(_ context.Context, symbol string, count int) ([]models.Bar, error) {
	closes, ok := f.series[symbol]
	if !ok {
		return nil, models.ErrDataFetch
	}
	if count > len(closes) {
		count = len(closes)
	}
	closes = closes[len(closes)-count:]

	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, 0, count)
	for i, c := range closes {
		bars = append(bars, models.Bar{
			Symbol:    symbol,
			Timestamp: start.AddDate(0, 0, i),
			Open:      c,
			High:      c * 1.005,
			Low:       c * 0.995,
			Close:     c,
			Volume:    1_000_000,
		})
	}
	return bars, nil
}

// accelerating: daily change grows with i.
func acceleratingSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 0.05*float64(i)*float64(i)
	}
	return out
}

// decelerating: rising but with a shrinking daily pct change.
func deceleratingSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + float64(i)
	}
	return out
}

func fallingSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 200 - 0.5*float64(i)
	}
	return out
}

func twoFactorAnalyzer(techSeries, consumerSeries []float64) *Analyzer {
	defs := []FactorDef{
		{ID: "tech", Name: "Technology", ETFs: []string{"515000"}},
		{ID: "consumer", Name: "Consumer", ETFs: []string{"159928"}},
	}
	provider := &fakeBars{series: map[string][]float64{
		"515000": techSeries,
		"159928": consumerSeries,
	}}
	return NewAnalyzer(defs, provider)
}

func TestWindowChange(t *testing.T) {
	provider := &fakeBars{series: map[string][]float64{"515000": {100, 101, 102, 110}}}
	bars, err := provider.GetBars(context.Background(), "515000", 4)
	require.NoError(t, err)

	assert.InDelta(t, (110.0-102.0)/102.0*100, windowChange(bars, 1), 1e-9)
	assert.InDelta(t, 10.0, windowChange(bars, 3), 1e-9)
	assert.Zero(t, windowChange(bars, 4)) // not enough history
}

func TestSyncRanksByStrength(t *testing.T) {
	a := twoFactorAnalyzer(acceleratingSeries(120), fallingSeries(120))

	infos, err := a.Sync(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.Equal(t, "tech", infos[0].FactorID)
	assert.Equal(t, 1, infos[0].Rank)
	assert.Equal(t, "up", infos[0].Trend)
	assert.Greater(t, infos[0].StrengthScore, infos[1].StrengthScore)

	assert.Equal(t, "consumer", infos[1].FactorID)
	assert.Equal(t, "down", infos[1].Trend)
	assert.Less(t, infos[1].StrengthScore, 0.0)
}

func TestSyncSkipsUnfetchableFactor(t *testing.T) {
	defs := []FactorDef{
		{ID: "tech", Name: "Technology", ETFs: []string{"515000"}},
		{ID: "ghost", Name: "Ghost", ETFs: []string{"000000"}},
	}
	provider := &fakeBars{series: map[string][]float64{
		"515000": acceleratingSeries(120),
	}}
	a := NewAnalyzer(defs, provider)

	infos, err := a.Sync(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "tech", infos[0].FactorID)
}

func TestSyncAllFactorsFailing(t *testing.T) {
	defs := []FactorDef{{ID: "ghost", Name: "Ghost", ETFs: []string{"000000"}}}
	a := NewAnalyzer(defs, &fakeBars{series: map[string][]float64{}})

	_, err := a.Sync(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrDataFetch)
}

func TestRotationPicksAcceleratingDominant(t *testing.T) {
	a := twoFactorAnalyzer(acceleratingSeries(120), fallingSeries(120))

	sig, err := a.Rotation(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, "tech", sig.DominantFactor)
	assert.Equal(t, models.RotationRotating, sig.Signal)
	assert.Contains(t, sig.Strengthening, "tech")
	assert.Contains(t, sig.Weakening, "consumer")

	tech := sig.Factors["tech"]
	assert.True(t, tech.IsStrengthening)
	assert.Greater(t, tech.Momentum, 0.0)
	assert.Greater(t, tech.TrendSlope, 0.0)

	assert.Contains(t, sig.Recommendation, "tech")
}

// seriesThenError serves the 61-bar sync requests but fails the broken
// symbol's daily-change series.
type seriesThenError struct {
	inner  *fakeBars
	broken string
}

func (s *seriesThenError) GetBars(ctx context.Context, symbol string, count int) ([]models.Bar, error) {
	if symbol == s.broken && count != 61 {
		return nil, models.ErrDataFetch
	}
	return s.inner.GetBars(ctx, symbol, count)
}

func TestRotationExcludesUnfetchableFactorFromSets(t *testing.T) {
	defs := []FactorDef{
		{ID: "tech", Name: "Technology", ETFs: []string{"515000"}},
		{ID: "consumer", Name: "Consumer", ETFs: []string{"159928"}},
	}
	inner := &fakeBars{series: map[string][]float64{
		"515000": acceleratingSeries(120),
		"159928": fallingSeries(120),
	}}
	a := NewAnalyzer(defs, &seriesThenError{inner: inner, broken: "159928"})

	sig, err := a.Rotation(context.Background(), 10)
	require.NoError(t, err)

	assert.NotContains(t, sig.Factors, "consumer")
	assert.NotContains(t, sig.Strengthening, "consumer")
	assert.NotContains(t, sig.Weakening, "consumer")
	assert.Equal(t, "tech", sig.DominantFactor)
}

func TestRotationNeutralWithoutMomentum(t *testing.T) {
	a := twoFactorAnalyzer(deceleratingSeries(120), fallingSeries(120))

	sig, err := a.Rotation(context.Background(), 10)
	require.NoError(t, err)

	assert.Empty(t, sig.DominantFactor)
	assert.Equal(t, models.RotationNeutral, sig.Signal)
	assert.Empty(t, sig.Strengthening)
}

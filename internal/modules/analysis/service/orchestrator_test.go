package service

import (
	"context"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pool_trader/internal/models"
	analysismem "pool_trader/internal/modules/analysis/service/memory"
	poolssvc "pool_trader/internal/modules/pools/service"
	poolsmem "pool_trader/internal/modules/pools/service/memory"
	scoringsvc "pool_trader/internal/modules/scoring/service"
	"pool_trader/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init(zap.NewNop())
	m.Run()
}

type countingBars struct {
	mu      sync.Mutex
	fetches map[string]int
	failing map[string]bool
}

func newCountingBars() *countingBars {
	return &countingBars{
		fetches: make(map[string]int),
		failing: make(map[string]bool),
	}
}

func (c *countingBars) GetBars(_ context.Context, symbol string, count int) ([]models.Bar, error) {
	c.mu.Lock()
	c.fetches[symbol]++
	fail := c.failing[symbol]
	c.mu.Unlock()

	if fail {
		return nil, errors.Wrapf(models.ErrDataFetch, "%s: connection refused", symbol)
	}

	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, 0, count)
	for i := 0; i < count; i++ {
		cl := 10 * math.Pow(1.01, float64(i))
		bars = append(bars, models.Bar{
			Symbol:    symbol,
			Timestamp: start.AddDate(0, 0, i),
			Open:      cl * 0.995,
			High:      cl * 1.008,
			Low:       cl * 0.992,
			Close:     cl,
			Volume:    1_000_000,
		})
	}
	return bars, nil
}

func (c *countingBars) count(symbol string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetches[symbol]
}

type staticRotation struct {
	sig models.RotationSignal
	err error
}

func (s *staticRotation) Rotation(context.Context, int) (models.RotationSignal, error) {
	return s.sig, s.err
}

type staticConfig struct {
	cfg models.RunConfig
}

func (s *staticConfig) Current(context.Context) (models.RunConfig, error) {
	return s.cfg, nil
}

type testRig struct {
	orch     *Orchestrator
	registry *poolssvc.Registry
	provider *countingBars
	store    *analysismem.Store
}

func newRig(cfg models.RunConfig) *testRig {
	store := analysismem.New()
	registry := poolssvc.NewRegistry(poolsmem.New(), store)
	provider := newCountingBars()

	orch := NewOrchestrator(
		registry,
		scoringsvc.NewEngine(60),
		&staticRotation{sig: models.RotationSignal{DominantFactor: "tech", Signal: models.RotationRotating}},
		provider,
		nil,
		store,
		&staticConfig{cfg: cfg},
		90,
		24*time.Hour,
	)
	return &testRig{orch: orch, registry: registry, provider: provider, store: store}
}

func TestAnalyzeBatch(t *testing.T) {
	rig := newRig(models.DefaultRunConfig())
	ctx := context.Background()

	for _, sym := range []string{"600519", "000858"} {
		_, err := rig.registry.Add(ctx, models.PoolLong, sym, "", "", 0)
		require.NoError(t, err)
	}

	res, err := rig.orch.Analyze(ctx, nil, false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 2, res.Success)
	assert.Zero(t, res.Failed)

	got, err := rig.orch.GetAnalysis(ctx, nil, models.SortByScore, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, a := range got {
		assert.NotEmpty(t, a.Decision.Action)
		assert.NotEmpty(t, a.Decision.Reasoning)
		assert.Greater(t, a.CurrentPrice, 0.0)
		assert.Greater(t, a.RecommendationScore, 0.0)
	}
}

func TestAnalyzePartitionsFailures(t *testing.T) {
	rig := newRig(models.DefaultRunConfig())
	ctx := context.Background()

	_, err := rig.registry.Add(ctx, models.PoolLong, "600519", "", "", 0)
	require.NoError(t, err)
	_, err = rig.registry.Add(ctx, models.PoolLong, "000000", "", "", 0)
	require.NoError(t, err)
	rig.provider.failing["000000"] = true

	res, err := rig.orch.Analyze(ctx, nil, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Success)
	assert.Equal(t, 1, res.Failed)
	assert.Contains(t, res.Errors["000000"], "connection refused")

	// the healthy symbol still produced a current analysis
	got, err := rig.orch.GetAnalysis(ctx, nil, models.SortByScore, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "600519", got[0].Symbol)
}

func TestAnalyzeReusesFreshResult(t *testing.T) {
	rig := newRig(models.DefaultRunConfig())
	ctx := context.Background()

	_, err := rig.registry.Add(ctx, models.PoolLong, "600519", "", "", 0)
	require.NoError(t, err)

	_, err = rig.orch.Analyze(ctx, nil, false)
	require.NoError(t, err)
	require.Equal(t, 1, rig.provider.count("600519"))

	// same-day rerun reuses the stored analysis
	res, err := rig.orch.Analyze(ctx, nil, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Success)
	assert.Equal(t, 1, rig.provider.count("600519"))

	// forceRefresh bypasses the staleness check
	_, err = rig.orch.Analyze(ctx, nil, true)
	require.NoError(t, err)
	assert.Equal(t, 2, rig.provider.count("600519"))
}

func TestAnalyzeCapsAtMaxSymbols(t *testing.T) {
	cfg := models.DefaultRunConfig()
	cfg.MaxSymbols = 2
	rig := newRig(cfg)
	ctx := context.Background()

	_, err := rig.registry.Add(ctx, models.PoolLong, "600519", "", "", 9)
	require.NoError(t, err)
	_, err = rig.registry.Add(ctx, models.PoolLong, "000858", "", "", 5)
	require.NoError(t, err)
	_, err = rig.registry.Add(ctx, models.PoolLong, "601318", "", "", 1)
	require.NoError(t, err)

	res, err := rig.orch.Analyze(ctx, nil, false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)

	// the lowest-priority entry was the one dropped
	assert.Equal(t, 0, rig.provider.count("601318"))
	assert.Equal(t, 1, rig.provider.count("600519"))
	assert.Equal(t, 1, rig.provider.count("000858"))
}

func TestAnalyzeFiltersPoolType(t *testing.T) {
	rig := newRig(models.DefaultRunConfig())
	ctx := context.Background()

	_, err := rig.registry.Add(ctx, models.PoolLong, "600519", "", "", 0)
	require.NoError(t, err)
	_, err = rig.registry.Add(ctx, models.PoolShort, "000629", "", "", 0)
	require.NoError(t, err)

	long := models.PoolLong
	res, err := rig.orch.Analyze(ctx, &long, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 0, rig.provider.count("000629"))
}

// expandingVolumeBars is a steady uptrend with sharply expanding volume.
type expandingVolumeBars struct{}

func (expandingVolumeBars) GetBars(_ context.Context, symbol string, count int) ([]models.Bar, error) {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, 0, count)
	for i := 0; i < count; i++ {
		cl := 10 * math.Pow(1.01, float64(i))
		bars = append(bars, models.Bar{
			Symbol:    symbol,
			Timestamp: start.AddDate(0, 0, i),
			Open:      cl * 0.995,
			High:      cl * 1.008,
			Low:       cl * 0.992,
			Close:     cl,
			Volume:    1_000_000 * math.Pow(1.05, float64(i)),
		})
	}
	return bars, nil
}

func TestUptrendWithVolumeYieldsConfidentBuy(t *testing.T) {
	store := analysismem.New()
	registry := poolssvc.NewRegistry(poolsmem.New(), store)

	orch := NewOrchestrator(
		registry,
		scoringsvc.NewEngine(60),
		&staticRotation{sig: models.RotationSignal{DominantFactor: "tech", Signal: models.RotationRotating}},
		expandingVolumeBars{},
		nil,
		store,
		&staticConfig{cfg: models.DefaultRunConfig()},
		90,
		24*time.Hour,
	)
	ctx := context.Background()

	_, err := registry.Add(ctx, models.PoolLong, "600519", "", "", 0)
	require.NoError(t, err)

	long := models.PoolLong
	res, err := orch.Analyze(ctx, &long, true)
	require.NoError(t, err)
	require.Equal(t, 1, res.Success)

	got, err := orch.GetAnalysis(ctx, &long, models.SortByRecommendation, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)

	a := got[0]
	assert.Equal(t, models.ActionBuy, a.Decision.Action)
	assert.Greater(t, a.Decision.Confidence, 0.6)

	top := strings.Join(a.Decision.Reasoning[:3], " ")
	assert.Contains(t, top, "trend")
	assert.Contains(t, top, "volume")
}

func TestWithinStaleness(t *testing.T) {
	now := time.Date(2026, 8, 28, 15, 0, 0, 0, time.UTC)
	window := 24 * time.Hour

	assert.True(t, withinStaleness(now.Add(-2*time.Hour), now, window))
	// yesterday is stale even when inside the window
	assert.False(t, withinStaleness(now.Add(-16*time.Hour), now, window))
	assert.False(t, withinStaleness(time.Time{}, now, window))
}

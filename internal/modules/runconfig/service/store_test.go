package service

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pool_trader/internal/models"
	"pool_trader/internal/modules/runconfig/service/memory"
)

func TestCurrentDefaultsWhenEmpty(t *testing.T) {
	st := NewStore(memory.New())

	cfg, err := st.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DefaultRunConfig(), cfg)
	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.EnableRealTrading)
}

func TestUpdateRoundTripsEveryField(t *testing.T) {
	st := NewStore(memory.New())
	ctx := context.Background()

	cfg := models.DefaultRunConfig()
	cfg.Enabled = true
	cfg.EnableRealTrading = true
	cfg.MaxPositionValue = 25000
	cfg.BuyConfidenceThreshold = 0.8
	cfg.IntervalSeconds = 120

	saved, err := st.Update(ctx, cfg)
	require.NoError(t, err)
	assert.True(t, saved.EnableRealTrading)
	assert.Equal(t, 25000.0, saved.MaxPositionValue)
	assert.Equal(t, 0.8, saved.BuyConfidenceThreshold)
	assert.Equal(t, 2, saved.Version)
	assert.False(t, saved.UpdatedAt.IsZero())

	reread, err := st.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, reread)
}

func TestUpdateBumpsVersionEachWrite(t *testing.T) {
	st := NewStore(memory.New())
	ctx := context.Background()

	first, err := st.Update(ctx, models.DefaultRunConfig())
	require.NoError(t, err)
	second, err := st.Update(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, first.Version+1, second.Version)
}

// lossyBackend silently drops a field on save, the exact defect the
// read-back comparison exists to catch.
type lossyBackend struct {
	inner *memory.Backend
}

func (l *lossyBackend) Load(ctx context.Context) (models.RunConfig, error) {
	return l.inner.Load(ctx)
}

func (l *lossyBackend) Save(ctx context.Context, cfg models.RunConfig) error {
	cfg.EnableRealTrading = false
	return l.inner.Save(ctx, cfg)
}

func TestUpdateDetectsLossyPersistence(t *testing.T) {
	st := NewStore(&lossyBackend{inner: memory.New()})

	cfg := models.DefaultRunConfig()
	cfg.EnableRealTrading = true

	_, err := st.Update(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrConfigMismatch))
}

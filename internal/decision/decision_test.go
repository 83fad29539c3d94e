package decision

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pool_trader/internal/models"
)

func score(total, momentum float64) models.Score {
	return models.Score{
		Total: total,
		Grade: models.GradeFor(total),
		Breakdown: models.ScoreBreakdown{
			Trend:      total,
			Momentum:   momentum,
			Volume:     50,
			Volatility: 50,
			Pattern:    50,
		},
	}
}

func TestDecideLong(t *testing.T) {
	cfg := models.DefaultRunConfig() // bands at 70 / 40

	cases := []struct {
		name     string
		total    float64
		momentum float64
		want     models.Action
	}{
		{"strong buy", 85, 80, models.ActionBuy},
		{"buy at band", 70, 50, models.ActionBuy},
		{"momentum gate blocks buy", 85, 40, models.ActionHold},
		{"mid band holds", 55, 50, models.ActionHold},
		{"sell below band", 30, 20, models.ActionSell},
		{"just under sell band", 39.9, 50, models.ActionSell},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dec := Decide(score(tc.total, tc.momentum), models.PoolLong, nil, cfg)
			assert.Equal(t, tc.want, dec.Action)
			assert.GreaterOrEqual(t, dec.Confidence, 0.0)
			assert.LessOrEqual(t, dec.Confidence, 1.0)
		})
	}
}

func TestDecideShortMirrorsPolarity(t *testing.T) {
	cfg := models.DefaultRunConfig() // short entry at <=30, cover at >60

	entry := Decide(score(20, 30), models.PoolShort, nil, cfg)
	assert.Equal(t, models.ActionSell, entry.Action)

	gated := Decide(score(20, 70), models.PoolShort, nil, cfg)
	assert.Equal(t, models.ActionHold, gated.Action)

	cover := Decide(score(70, 60), models.PoolShort, nil, cfg)
	assert.Equal(t, models.ActionBuy, cover.Action)

	hold := Decide(score(45, 50), models.PoolShort, nil, cfg)
	assert.Equal(t, models.ActionHold, hold.Action)
}

func TestConfidenceMonotonic(t *testing.T) {
	cfg := models.DefaultRunConfig()

	weak := Decide(score(72, 70), models.PoolLong, nil, cfg)
	strong := Decide(score(95, 70), models.PoolLong, nil, cfg)
	require.Equal(t, models.ActionBuy, weak.Action)
	require.Equal(t, models.ActionBuy, strong.Action)
	assert.Greater(t, strong.Confidence, weak.Confidence)
	assert.GreaterOrEqual(t, weak.Confidence, 0.5)

	softSell := Decide(score(38, 50), models.PoolLong, nil, cfg)
	hardSell := Decide(score(5, 50), models.PoolLong, nil, cfg)
	require.Equal(t, models.ActionSell, softSell.Action)
	require.Equal(t, models.ActionSell, hardSell.Action)
	assert.Greater(t, hardSell.Confidence, softSell.Confidence)
}

func TestHoldConfidencePeaksMidBand(t *testing.T) {
	cfg := models.DefaultRunConfig()

	mid := Decide(score(55, 50), models.PoolLong, nil, cfg)
	require.Equal(t, models.ActionHold, mid.Action)
	assert.InDelta(t, 1.0, mid.Confidence, 1e-9)

	edge := Decide(score(68, 40), models.PoolLong, nil, cfg)
	require.Equal(t, models.ActionHold, edge.Action)
	assert.Less(t, edge.Confidence, mid.Confidence)
}

func TestReasoningContent(t *testing.T) {
	cfg := models.DefaultRunConfig()

	s := models.Score{
		Total: 82,
		Grade: models.GradeFor(82),
		Breakdown: models.ScoreBreakdown{
			Trend:      95, // strongest weighted deviation
			Momentum:   80,
			Volume:     55,
			Volatility: 50,
			Pattern:    50,
		},
	}
	dec := Decide(s, models.PoolLong, nil, cfg)
	require.Equal(t, models.ActionBuy, dec.Action)
	require.GreaterOrEqual(t, len(dec.Reasoning), 4)

	assert.Contains(t, dec.Reasoning[0], "trend")
	assert.Contains(t, dec.Reasoning[0], "strong")

	var hasComposite bool
	for _, r := range dec.Reasoning {
		if strings.Contains(r, "composite 82.0") {
			hasComposite = true
		}
	}
	assert.True(t, hasComposite)
}

func TestReasoningMentionsRotation(t *testing.T) {
	cfg := models.DefaultRunConfig()
	rot := &models.RotationSignal{DominantFactor: "tech", Signal: models.RotationRotating}

	buy := Decide(score(85, 80), models.PoolLong, rot, cfg)
	assert.Contains(t, buy.Reasoning[len(buy.Reasoning)-1], "tech")

	hold := Decide(score(55, 50), models.PoolLong, rot, cfg)
	for _, r := range hold.Reasoning {
		assert.NotContains(t, r, "tech")
	}
}

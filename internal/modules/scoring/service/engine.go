package service

import (
	"github.com/pkg/errors"

	"pool_trader/internal/models"
)

// Sub-score weights, fixed. Must sum to 1.
const (
	weightTrend      = 0.30
	weightMomentum   = 0.25
	weightVolume     = 0.20
	weightVolatility = 0.15
	weightPattern    = 0.10
)

// longestLookback is the largest window any sub-score reaches back over.
// Histories shorter than this fail instead of degrading to a default score.
const longestLookback = 60

type Engine struct {
	minBars int
}

func NewEngine(minBars int) *Engine {
	if minBars < longestLookback {
		minBars = longestLookback
	}
	return &Engine{minBars: minBars}
}

// Analyze computes the composite score for one symbol from its ordered bar
// history (ascending by timestamp). Pure: identical bars always yield an
// identical score and signal tags.
func (e *Engine) Analyze(bars []models.Bar) (models.Score, []string, error) {
	if len(bars) < e.minBars {
		return models.Score{}, nil, errors.Wrapf(models.ErrInsufficientHistory,
			"got %d bars, need %d", len(bars), e.minBars)
	}

	trend := scoreTrend(bars)
	momentum := scoreMomentum(bars)
	volume := scoreVolume(bars)
	volatility := scoreVolatility(bars)
	pattern, tags := scorePattern(bars)

	total := clamp(
		trend*weightTrend+
			momentum*weightMomentum+
			volume*weightVolume+
			volatility*weightVolatility+
			pattern*weightPattern,
		0, 100)

	score := models.Score{
		Total: total,
		Grade: models.GradeFor(total),
		Breakdown: models.ScoreBreakdown{
			Trend:      trend,
			Momentum:   momentum,
			Volume:     volume,
			Volatility: volatility,
			Pattern:    pattern,
		},
	}
	return score, tags, nil
}

func (e *Engine) MinBars() int { return e.minBars }

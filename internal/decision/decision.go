// Package decision converts a symbol's score, its pool direction and the
// current rotation context into a trade action with confidence and
// human-readable reasoning. Decide is pure: no state, no clocks, no I/O.
package decision

import (
	"fmt"
	"sort"

	"pool_trader/internal/models"
)

// sub-score weights mirrored from the scoring engine, used only to rank
// reasoning drivers by weighted deviation from the 50 midpoint.
var driverWeights = []struct {
	name   string
	weight float64
	get    func(models.ScoreBreakdown) float64
}{
	{"trend", 0.30, func(b models.ScoreBreakdown) float64 { return b.Trend }},
	{"momentum", 0.25, func(b models.ScoreBreakdown) float64 { return b.Momentum }},
	{"volume", 0.20, func(b models.ScoreBreakdown) float64 { return b.Volume }},
	{"volatility", 0.15, func(b models.ScoreBreakdown) float64 { return b.Volatility }},
	{"pattern", 0.10, func(b models.ScoreBreakdown) float64 { return b.Pattern }},
}

// Decide maps (score, pool direction, rotation context, thresholds) to an
// action. LONG pools buy strength and exit weakness; SHORT pools mirror
// the polarity. Confidence grows monotonically with distance from the
// decision boundary, clamped to [0,1].
func Decide(score models.Score, poolType models.PoolType, rotation *models.RotationSignal, cfg models.RunConfig) models.Decision {
	buyBand := cfg.BuyConfidenceThreshold * 100
	sellBand := cfg.SellConfidenceThreshold * 100

	var (
		action models.Action
		conf   float64
	)

	switch poolType {
	case models.PoolShort:
		// inverted: a low and falling score is the entry signal
		shortBand := 100 - buyBand
		coverBand := 100 - sellBand
		switch {
		case score.Total <= shortBand && score.Breakdown.Momentum <= 50:
			action = models.ActionSell
			conf = boundaryConfidence(shortBand-score.Total, shortBand)
		case score.Total > coverBand:
			action = models.ActionBuy
			conf = boundaryConfidence(score.Total-coverBand, 100-coverBand)
		default:
			action = models.ActionHold
			conf = holdConfidence(score.Total, shortBand, coverBand)
		}
	default:
		switch {
		case score.Total >= buyBand && score.Breakdown.Momentum >= 50:
			action = models.ActionBuy
			conf = boundaryConfidence(score.Total-buyBand, 100-buyBand)
		case score.Total < sellBand:
			action = models.ActionSell
			conf = boundaryConfidence(sellBand-score.Total, sellBand)
		default:
			action = models.ActionHold
			conf = holdConfidence(score.Total, sellBand, buyBand)
		}
	}

	return models.Decision{
		Action:     action,
		Confidence: conf,
		Reasoning:  buildReasoning(score, action, rotation),
	}
}

// boundaryConfidence: 0.5 at the boundary, growing linearly to 1.0 at the
// far end of the band.
func boundaryConfidence(distance, span float64) float64 {
	if span <= 0 {
		return 0.5
	}
	return clamp01(0.5 + 0.5*distance/span)
}

// holdConfidence peaks midway between the two boundaries and decays to
// zero at either one.
func holdConfidence(total, lower, upper float64) float64 {
	span := (upper - lower) / 2
	if span <= 0 {
		return 0
	}
	mid := (upper + lower) / 2
	d := total - mid
	if d < 0 {
		d = -d
	}
	return clamp01((span - d) / span)
}

func buildReasoning(score models.Score, action models.Action, rotation *models.RotationSignal) []string {
	type driver struct {
		text string
		dev  float64
	}

	drivers := make([]driver, 0, len(driverWeights))
	for _, d := range driverWeights {
		v := d.get(score.Breakdown)
		dev := d.weight * (v - 50)
		label := "weak"
		if v >= 50 {
			label = "strong"
		}
		drivers = append(drivers, driver{
			text: fmt.Sprintf("%s %s (%.0f)", d.name, label, v),
			dev:  dev,
		})
	}
	sort.SliceStable(drivers, func(i, j int) bool {
		return abs(drivers[i].dev) > abs(drivers[j].dev)
	})

	reasons := make([]string, 0, 4)
	for _, d := range drivers[:3] {
		reasons = append(reasons, d.text)
	}
	reasons = append(reasons, fmt.Sprintf("composite %.1f grade %s", score.Total, score.Grade))

	if rotation != nil && rotation.DominantFactor != "" {
		switch action {
		case models.ActionBuy:
			reasons = append(reasons, fmt.Sprintf("rotation supports entry: %s is dominant", rotation.DominantFactor))
		case models.ActionSell:
			reasons = append(reasons, fmt.Sprintf("rotation context: %s dominant, contradicts exit-side weakness", rotation.DominantFactor))
		}
	}

	return reasons
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

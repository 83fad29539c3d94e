package service

import (
	"math"

	"pool_trader/internal/models"
)

// trend windows and their weights; longer windows dominate for stability.
var trendWindows = []struct {
	n      int
	weight float64
	scale  float64 // sensitivity of the window's pct change
}{
	{5, 0.20, 500},
	{20, 0.30, 300},
	{60, 0.50, 200},
}

// scoreTrend maps the signed pct change over each window onto [0,100]
// around a flat-market midpoint of 50.
func scoreTrend(bars []models.Bar) float64 {
	var sum float64
	for _, w := range trendWindows {
		pct := pctChange(bars, w.n)
		sum += w.weight * clamp(50+pct*w.scale, 0, 100)
	}
	return clamp(sum, 0, 100)
}

// scoreMomentum compares the recent 10-bar return against the prior
// 10-bar return: acceleration pushes the score off the midpoint.
func scoreMomentum(bars []models.Bar) float64 {
	recent := pctChange(bars, 10)
	prior := pctChangeAt(bars, len(bars)-10, 10)
	accel := recent - prior
	return clamp(50+recent*400+accel*300, 0, 100)
}

// scoreVolume rewards volume expansion in the direction of price movement.
func scoreVolume(bars []models.Bar) float64 {
	recent := avgVolume(bars, 5)
	trailing := avgVolume(bars, 20)
	if trailing == 0 {
		return 50
	}
	expansion := recent/trailing - 1
	dir := pctChange(bars, 5)

	if dir >= 0 {
		return clamp(50+50*math.Tanh(2*expansion), 0, 100)
	}
	// contra-directional expansion is distribution, not accumulation
	return clamp(50-25*math.Tanh(2*expansion), 0, 100)
}

// scoreVolatility is inverted: a calm tape scores high, a 5%-range tape
// scores zero.
func scoreVolatility(bars []models.Bar) float64 {
	const window = 14
	start := len(bars) - window
	var sum float64
	for _, b := range bars[start:] {
		if b.Close == 0 {
			continue
		}
		sum += (b.High - b.Low) / b.Close
	}
	rel := sum / window
	return clamp(100*(1-rel/0.05), 0, 100)
}

// scorePattern grants discrete bonuses for recognized price structures and
// returns the matching signal tags in priority order.
func scorePattern(bars []models.Bar) (float64, []string) {
	last := bars[len(bars)-1]
	score := 20.0
	var tags []string

	if last.Close > maxHigh(bars, len(bars)-1, 20) {
		score += 40
		tags = append(tags, "breakout_20d_high")
	}
	if last.Close > maxClose(bars, len(bars)-1, 60) {
		score += 20
		tags = append(tags, "new_60d_close_high")
	}
	if rng(bars, 10) < 0.5*rng(bars[:len(bars)-10], 20) && last.Close >= maxClose(bars, len(bars)-1, 10) {
		score += 20
		tags = append(tags, "consolidation_breakout")
	}
	return clamp(score, 0, 100), tags
}

// pctChange over the last n bars: (last - base) / base.
func pctChange(bars []models.Bar, n int) float64 {
	return pctChangeAt(bars, len(bars), n)
}

// pctChangeAt treats bars[:end] as the series and measures over its last
// n bars.
func pctChangeAt(bars []models.Bar, end, n int) float64 {
	if end > len(bars) || end-n < 0 {
		return 0
	}
	base := bars[end-n].Close
	if base == 0 {
		return 0
	}
	return (bars[end-1].Close - base) / base
}

func avgVolume(bars []models.Bar, n int) float64 {
	var sum float64
	for _, b := range bars[len(bars)-n:] {
		sum += b.Volume
	}
	return sum / float64(n)
}

func maxHigh(bars []models.Bar, end, n int) float64 {
	var m float64
	for _, b := range bars[end-n : end] {
		if b.High > m {
			m = b.High
		}
	}
	return m
}

func maxClose(bars []models.Bar, end, n int) float64 {
	var m float64
	for _, b := range bars[end-n : end] {
		if b.Close > m {
			m = b.Close
		}
	}
	return m
}

// rng: (max high - min low) / last close over the last n bars.
func rng(bars []models.Bar, n int) float64 {
	sub := bars[len(bars)-n:]
	hi, lo := sub[0].High, sub[0].Low
	for _, b := range sub {
		if b.High > hi {
			hi = b.High
		}
		if b.Low < lo {
			lo = b.Low
		}
	}
	last := sub[len(sub)-1].Close
	if last == 0 {
		return 0
	}
	return (hi - lo) / last
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

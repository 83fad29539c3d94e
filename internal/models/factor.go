package models

// ETFChange — per-ETF percentage changes over the standard windows.
type ETFChange struct {
	Symbol    string  `json:"symbol"`
	Change1D  float64 `json:"change_1d"`
	Change5D  float64 `json:"change_5d"`
	Change20D float64 `json:"change_20d"`
	Change60D float64 `json:"change_60d"`
}

// FactorInfo is recomputed per sync cycle from raw ETF bars.
type FactorInfo struct {
	FactorID      string      `json:"factor_id"`
	Name          string      `json:"name"`
	ETFs          []ETFChange `json:"etfs"`
	AvgChange1D   float64     `json:"avg_change_1d"`
	AvgChange5D   float64     `json:"avg_change_5d"`
	AvgChange20D  float64     `json:"avg_change_20d"`
	AvgChange60D  float64     `json:"avg_change_60d"`
	StrengthScore float64     `json:"strength_score"`
	Trend         string      `json:"trend"`
	Momentum      string      `json:"momentum"`
	Rank          int         `json:"rank"`
}

// FactorMomentum — momentum record for one factor over a lookback window.
type FactorMomentum struct {
	RecentAvg       float64 `json:"recent_avg"`
	Momentum        float64 `json:"momentum"`
	TrendSlope      float64 `json:"trend_slope"`
	IsStrengthening bool    `json:"is_strengthening"`
}

// RotationSignal is derived on demand and never persisted: always a
// function of current FactorInfo.
type RotationSignal struct {
	DominantFactor string                    `json:"dominant_factor,omitempty"`
	Signal         string                    `json:"rotation_signal"`
	Description    string                    `json:"signal_description"`
	Factors        map[string]FactorMomentum `json:"factors"`
	Strengthening  []string                  `json:"strengthening_factors"`
	Weakening      []string                  `json:"weakening_factors"`
	Recommendation string                    `json:"recommendation"`
}

const (
	RotationNeutral    = "neutral"
	RotationRotating   = "rotating"
	RotationConfirming = "confirming"
)

package models

type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// GradeFor maps a composite total to its letter band.
func GradeFor(total float64) Grade {
	switch {
	case total >= 85:
		return GradeA
	case total >= 70:
		return GradeB
	case total >= 55:
		return GradeC
	case total >= 40:
		return GradeD
	default:
		return GradeF
	}
}

// ScoreBreakdown holds the five sub-scores, each in [0,100].
type ScoreBreakdown struct {
	Trend      float64 `json:"trend"`
	Momentum   float64 `json:"momentum"`
	Volume     float64 `json:"volume"`
	Volatility float64 `json:"volatility"`
	Pattern    float64 `json:"pattern"`
}

// Score is a derived value, recomputed each analysis cycle.
// Total is a fixed-weight combination of the breakdown, in [0,100].
type Score struct {
	Total     float64        `json:"total"`
	Grade     Grade          `json:"grade"`
	Breakdown ScoreBreakdown `json:"breakdown"`
}

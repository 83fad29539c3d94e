package models

import "time"

// Analysis is produced once per pool entry per analysis run and is
// superseded, not merged, by the next run for the same entry.
type Analysis struct {
	ID                   int64     `json:"id"`
	PoolEntryID          int64     `json:"pool_entry_id"`
	Symbol               string    `json:"symbol"`
	PoolType             PoolType  `json:"pool_type"`
	AnalysisTime         time.Time `json:"analysis_time"`
	CurrentPrice         float64   `json:"current_price"`
	PriceChange1D        float64   `json:"price_change_1d"`
	PriceChange5D        float64   `json:"price_change_5d"`
	Score                Score     `json:"score"`
	Decision             Decision  `json:"ai_decision"`
	Signals              []string  `json:"signals"`
	RecommendationScore  float64   `json:"recommendation_score"`
	RecommendationReason string    `json:"recommendation_reason"`
}

// AnalyzeResult reports the per-batch partition: a single symbol's fetch
// failure never aborts the batch.
type AnalyzeResult struct {
	Total   int               `json:"total"`
	Success int               `json:"success"`
	Failed  int               `json:"failed"`
	Errors  map[string]string `json:"errors,omitempty"` // symbol -> cause
}

type SortBy string

const (
	SortByScore          SortBy = "score"
	SortByRecommendation SortBy = "recommendation"
	SortByChange1D       SortBy = "change_1d"
)

package models

import "time"

// RunConfig is the singleton engine configuration, versioned by update.
// Every recognized field is listed here with an explicit default so that
// persistence round-trips the whole record; a field silently dropped by a
// hand-maintained column list is exactly the defect this layout prevents.
type RunConfig struct {
	Version                 int           `json:"version"`
	Enabled                 bool          `json:"enabled"`
	IntervalSeconds         int           `json:"interval_seconds"`
	MaxPositionValue        float64       `json:"max_position_value"`
	MaxSymbols              int           `json:"max_symbols"`
	EnableRealTrading       bool          `json:"enable_real_trading"`
	BuyConfidenceThreshold  float64       `json:"buy_confidence_threshold"`
	SellConfidenceThreshold float64       `json:"sell_confidence_threshold"`
	MinHistoryBars          int           `json:"min_history_bars"`
	RotationLookbackDays    int           `json:"rotation_lookback_days"`
	GatewayTimeout          time.Duration `json:"gateway_timeout"`
	UpdatedAt               time.Time     `json:"updated_at"`
}

func DefaultRunConfig() RunConfig {
	return RunConfig{
		Version:                 1,
		Enabled:                 false,
		IntervalSeconds:         300,
		MaxPositionValue:        10000,
		MaxSymbols:              20,
		EnableRealTrading:       false,
		BuyConfidenceThreshold:  0.7,
		SellConfidenceThreshold: 0.4,
		MinHistoryBars:          60,
		RotationLookbackDays:    20,
		GatewayTimeout:          10 * time.Second,
	}
}

func (c RunConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

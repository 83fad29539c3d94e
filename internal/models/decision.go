package models

type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// Decision is a pure function output of (Score, pool direction, rotation
// context, thresholds). It carries no identity of its own and lives only
// inside its owning Analysis.
type Decision struct {
	Action     Action   `json:"action"`
	Confidence float64  `json:"confidence"` // [0,1]
	Reasoning  []string `json:"reasoning"`  // strongest driver first
}

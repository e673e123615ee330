package advice

// Action is the discrete outcome of a recommendation computation.
type Action string

const (
	ActionStrongBuy Action = "strong_buy"
	ActionBuy       Action = "buy"
	ActionHold      Action = "hold"
	ActionSell      Action = "sell"
	ActionPass      Action = "pass"
)

// Recommendation is the immutable result of scoring one ticker against a
// signal set and position context. The caller decides whether to persist it.
type Recommendation struct {
	Ticker              string   `json:"ticker"`
	Action              Action   `json:"action"`
	SignalRatio         float64  `json:"signal_ratio"`
	NegativeSignalCount int      `json:"negative_signal_count"`
	Reasoning           []string `json:"reasoning"`
}

package strategy

import "algo-trader-go/market"

// Signal is the directional decision for one tick.
type Signal int

const (
	Hold Signal = iota
	Buy
	Sell
)

func (s Signal) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "HOLD"
	}
}

// Evaluator maps the current history window to a signal. Implementations may
// keep per-symbol state (crossover tracking); one instance per symbol.
type Evaluator interface {
	Evaluate(window []market.Bar) Signal
	// Lookback is the minimum window length the evaluator needs; shorter
	// windows yield HOLD.
	Lookback() int
}

package strategy

import (
	"errors"
	"fmt"

	"algo-trader-go/indicator"
	"algo-trader-go/market"
)

// MeanReversion 基于布林带的均值回归策略：价格跌破下轨产生 BUY，突破上轨
// 产生 SELL，带内为 HOLD。
type MeanReversion struct {
	window    int
	numStdDev float64
}

// NewMeanReversion validates the parameters and builds the evaluator.
func NewMeanReversion(window int, numStdDev float64) (*MeanReversion, error) {
	if window <= 0 {
		return nil, errors.New("mean reversion window must be > 0")
	}
	if numStdDev <= 0 {
		return nil, fmt.Errorf("numStdDev must be > 0, got %v", numStdDev)
	}
	return &MeanReversion{window: window, numStdDev: numStdDev}, nil
}

func (s *MeanReversion) Lookback() int { return s.window }

func (s *MeanReversion) Evaluate(window []market.Bar) Signal {
	if len(window) < s.window {
		return Hold
	}
	closes, _, _ := market.Series(window)
	upper, _, lower, err := indicator.BollingerBands(closes, s.window, s.numStdDev)
	if err != nil {
		return Hold
	}
	latest := closes[len(closes)-1]
	switch {
	case latest < lower:
		return Buy
	case latest > upper:
		return Sell
	default:
		return Hold
	}
}

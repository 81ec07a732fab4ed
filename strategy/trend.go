package strategy

import (
	"errors"
	"fmt"

	"algo-trader-go/indicator"
	"algo-trader-go/market"
)

// TrendFollowing 基于 EMA/ADX 的趋势策略：ADX 高于阈值时，价格上穿 EMA 产生
// BUY，下穿产生 SELL。信号是边沿触发的：只在价格与 EMA 的相对关系翻转时发出，
// 条件持续期间不会每个 tick 重复触发。
type TrendFollowing struct {
	emaWindow    int
	adxWindow    int
	adxThreshold float64

	// crossover state
	hasPrev   bool
	prevAbove bool
}

// NewTrendFollowing validates the parameters and builds the evaluator.
func NewTrendFollowing(emaWindow, adxWindow int, adxThreshold float64) (*TrendFollowing, error) {
	if emaWindow <= 0 || adxWindow <= 0 {
		return nil, errors.New("trend following windows must be > 0")
	}
	if adxThreshold < 0 {
		return nil, fmt.Errorf("adx threshold must be >= 0, got %v", adxThreshold)
	}
	return &TrendFollowing{
		emaWindow:    emaWindow,
		adxWindow:    adxWindow,
		adxThreshold: adxThreshold,
	}, nil
}

// Lookback covers the EMA seed and the 2x period the Wilder ADX needs.
func (s *TrendFollowing) Lookback() int {
	if s.emaWindow > 2*s.adxWindow {
		return s.emaWindow
	}
	return 2 * s.adxWindow
}

func (s *TrendFollowing) Evaluate(window []market.Bar) Signal {
	if len(window) < s.Lookback() {
		return Hold
	}
	closes, highs, lows := market.Series(window)
	ema, err := indicator.EMA(closes, s.emaWindow)
	if err != nil {
		return Hold
	}
	adx, err := indicator.ADX(highs, lows, closes, s.adxWindow)
	if err != nil {
		return Hold
	}

	latest := closes[len(closes)-1]
	above := latest > ema
	crossed := s.hasPrev && above != s.prevAbove
	s.hasPrev = true
	s.prevAbove = above

	if !crossed || adx <= s.adxThreshold {
		return Hold
	}
	if above {
		return Buy
	}
	return Sell
}

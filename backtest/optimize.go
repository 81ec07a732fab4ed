package backtest

import (
	"algo-trader-go/market"
	"algo-trader-go/strategy"
)

// Grid-search ranges, matched to the live strategy parameter space.
const (
	gridStep = 5

	emaMin, emaMax             = 10, 45
	adxMin, adxMax             = 10, 25
	thresholdMin, thresholdMax = 20.0, 35.0

	bbWindowMin, bbWindowMax = 10, 45
	stdDevMin, stdDevMax     = 1.0, 3.0
	stdDevStep               = 0.5
)

// OptimizeTrend 网格搜索趋势策略参数，返回总收益率最高的组合及其回测结果。
// 每个组合使用全新的评估器，避免穿越交叉状态。
func OptimizeTrend(cfg Config, bars []market.Bar) (strategy.Config, *Result, error) {
	var (
		bestCfg strategy.Config
		best    *Result
	)
	for ema := emaMin; ema <= emaMax; ema += gridStep {
		for adx := adxMin; adx <= adxMax; adx += gridStep {
			for thr := thresholdMin; thr <= thresholdMax; thr += gridStep {
				sc := strategy.Config{
					Kind:         strategy.KindTrendFollowing,
					EMAWindow:    ema,
					ADXWindow:    adx,
					ADXThreshold: thr,
				}
				eval, err := strategy.New(sc)
				if err != nil {
					return strategy.Config{}, nil, err
				}
				res, err := Run(cfg, eval, bars)
				if err != nil {
					return strategy.Config{}, nil, err
				}
				if best == nil || res.TotalReturn > best.TotalReturn {
					best, bestCfg = res, sc
				}
			}
		}
	}
	return bestCfg, best, nil
}

// OptimizeMeanReversion 网格搜索均值回归策略的窗口与带宽参数。
func OptimizeMeanReversion(cfg Config, bars []market.Bar) (strategy.Config, *Result, error) {
	var (
		bestCfg strategy.Config
		best    *Result
	)
	for window := bbWindowMin; window <= bbWindowMax; window += gridStep {
		for k := stdDevMin; k <= stdDevMax; k += stdDevStep {
			sc := strategy.Config{
				Kind:      strategy.KindMeanReversion,
				Window:    window,
				NumStdDev: k,
			}
			eval, err := strategy.New(sc)
			if err != nil {
				return strategy.Config{}, nil, err
			}
			res, err := Run(cfg, eval, bars)
			if err != nil {
				return strategy.Config{}, nil, err
			}
			if best == nil || res.TotalReturn > best.TotalReturn {
				best, bestCfg = res, sc
			}
		}
	}
	return bestCfg, best, nil
}

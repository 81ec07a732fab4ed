package backtest

import (
	"testing"
	"time"

	"algo-trader-go/market"
	"algo-trader-go/strategy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkBars(prices ...float64) []market.Bar {
	base := time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)
	bars := make([]market.Bar, len(prices))
	for i, p := range prices {
		bars[i] = market.Bar{Close: p, High: p, Low: p, Ts: base.Add(time.Duration(i) * time.Minute)}
	}
	return bars
}

func flatThenSpike() []float64 {
	prices := make([]float64, 0, 52)
	for i := 0; i < 30; i++ {
		prices = append(prices, 100)
	}
	prices = append(prices, 80) // 跌破下轨 → BUY
	for i := 0; i < 20; i++ {
		prices = append(prices, 100)
	}
	prices = append(prices, 120) // 突破上轨 → SELL
	return prices
}

func TestRunRejectsEmptyData(t *testing.T) {
	eval, err := strategy.NewMeanReversion(15, 2)
	require.NoError(t, err)
	_, err = Run(Config{}, eval, nil)
	assert.Error(t, err)
}

func TestRunFlatSeriesNeverTrades(t *testing.T) {
	eval, err := strategy.NewMeanReversion(15, 2)
	require.NoError(t, err)

	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 100
	}
	res, err := Run(Config{InitialBalance: 10000}, eval, mkBars(prices...))
	require.NoError(t, err)
	assert.Equal(t, 0, res.TotalTrades)
	assert.Equal(t, 10000.0, res.FinalBalance)
	assert.Equal(t, 0.0, res.TotalReturn)
	assert.Equal(t, 0.0, res.MaxDrawdown)
	assert.Len(t, res.EquityCurve, 60)
}

func TestRunMeanReversionRoundTrip(t *testing.T) {
	eval, err := strategy.NewMeanReversion(15, 2)
	require.NoError(t, err)

	res, err := Run(Config{
		InitialBalance: 10000,
		Commission:     0.001,
		Quantity:       1,
	}, eval, mkBars(flatThenSpike()...))
	require.NoError(t, err)

	require.Equal(t, 1, res.TotalTrades)
	tr := res.Trades[0]
	assert.Equal(t, 80.0, tr.EntryPrice)
	assert.Equal(t, 120.0, tr.ExitPrice)
	// 120*(1-0.001) - 80*(1+0.001) = 39.80
	assert.InDelta(t, 39.80, tr.PnL, 1e-9)
	assert.InDelta(t, 10039.80, res.FinalBalance, 1e-9)
	assert.Equal(t, 1, res.WinningTrades)
	assert.Equal(t, 1.0, res.WinRate)
	assert.Greater(t, res.TotalReturn, 0.0)
}

func TestRunOpenPositionMarkedToMarket(t *testing.T) {
	eval, err := strategy.NewMeanReversion(15, 2)
	require.NoError(t, err)

	prices := flatThenSpike()
	prices = prices[:len(prices)-1] // 去掉触发平仓的最后一根

	res, err := Run(Config{
		InitialBalance: 10000,
		Commission:     0.001,
		Quantity:       1,
	}, eval, mkBars(prices...))
	require.NoError(t, err)

	// 80 买入后未平仓：权益按最后收盘价 100 计，但不计入交易统计。
	assert.Equal(t, 0, res.TotalTrades)
	assert.InDelta(t, 10000-80*1.001+100, res.FinalBalance, 1e-9)
}

func TestRunOutOfOrderBarsAreSorted(t *testing.T) {
	eval, err := strategy.NewMeanReversion(15, 2)
	require.NoError(t, err)

	bars := mkBars(flatThenSpike()...)
	bars[0], bars[len(bars)-1] = bars[len(bars)-1], bars[0]

	res, err := Run(Config{InitialBalance: 10000, Commission: 0.001, Quantity: 1}, eval, bars)
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalTrades)
}

func TestOptimizeMeanReversion(t *testing.T) {
	cfg, res, err := OptimizeMeanReversion(
		Config{InitialBalance: 10000, Commission: 0.001, Quantity: 1},
		mkBars(flatThenSpike()...))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, strategy.KindMeanReversion, cfg.Kind)
	assert.Greater(t, cfg.Window, 0)
	// 最差也能选出一个不交易（收益为0）的组合。
	assert.GreaterOrEqual(t, res.TotalReturn, 0.0)
}

func TestOptimizeTrend(t *testing.T) {
	prices := make([]float64, 0, 120)
	p := 100.0
	for i := 0; i < 120; i++ {
		if i%2 == 0 {
			p += 1.5
		} else {
			p -= 0.5
		}
		prices = append(prices, p)
	}
	cfg, res, err := OptimizeTrend(
		Config{InitialBalance: 10000, Commission: 0.001, Quantity: 1},
		mkBars(prices...))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, strategy.KindTrendFollowing, cfg.Kind)
	assert.GreaterOrEqual(t, res.TotalReturn, 0.0)
}

// Package backtest 离线回测：在历史分钟K线上重放策略评估器，模拟多头
// 进出场并统计绩效。只读历史数据，与实盘引擎完全隔离。
package backtest

import (
	"fmt"
	"sort"
	"time"

	"algo-trader-go/market"
	"algo-trader-go/strategy"
)

// Trade 一次完整的进出场记录。
type Trade struct {
	EntryTs    time.Time
	ExitTs     time.Time
	EntryPrice float64
	ExitPrice  float64
	Quantity   float64
	PnL        float64 // 已扣除双边手续费
}

// Config 回测配置
type Config struct {
	InitialBalance float64 // 初始资金
	Commission     float64 // 单边手续费率（如0.001 = 0.1%）
	Quantity       float64 // 每次信号的下单数量
}

// Result 回测结果
type Result struct {
	StartTime      time.Time
	EndTime        time.Time
	InitialBalance float64
	FinalBalance   float64
	TotalPnL       float64
	TotalReturn    float64

	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64

	MaxDrawdown float64

	Trades      []Trade
	EquityCurve []float64
}

func (c *Config) applyDefaults() {
	if c.InitialBalance <= 0 {
		c.InitialBalance = 10000.0
	}
	if c.Commission < 0 {
		c.Commission = 0
	}
	if c.Quantity <= 0 {
		c.Quantity = 1
	}
}

// Run 将K线按时间顺序喂给评估器：BUY 且空仓时按收盘价建仓，SELL 且持仓时
// 平仓。未平仓头寸按最后收盘价计入最终权益，但不计入交易统计。
func Run(cfg Config, eval strategy.Evaluator, bars []market.Bar) (*Result, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("no price data provided")
	}
	if eval == nil {
		return nil, fmt.Errorf("no evaluator provided")
	}
	cfg.applyDefaults()

	sorted := make([]market.Bar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Ts.Before(sorted[j].Ts) })

	capacity := eval.Lookback()
	if capacity < 1 {
		capacity = 1
	}

	var (
		window      = make([]market.Bar, 0, capacity)
		balance     = cfg.InitialBalance
		position    float64
		entryPrice  float64
		entryTs     time.Time
		trades      []Trade
		equityCurve = make([]float64, 0, len(sorted))
		peakEquity  = cfg.InitialBalance
		maxDrawdown float64
	)

	for _, bar := range sorted {
		if len(window) == capacity {
			copy(window, window[1:])
			window = window[:capacity-1]
		}
		window = append(window, bar)

		sig := eval.Evaluate(window)
		switch {
		case sig == strategy.Buy && position == 0:
			cost := bar.Close * cfg.Quantity * (1 + cfg.Commission)
			balance -= cost
			position = cfg.Quantity
			entryPrice = bar.Close
			entryTs = bar.Ts

		case sig == strategy.Sell && position > 0:
			proceeds := bar.Close * position * (1 - cfg.Commission)
			balance += proceeds
			pnl := proceeds - entryPrice*position*(1+cfg.Commission)
			trades = append(trades, Trade{
				EntryTs:    entryTs,
				ExitTs:     bar.Ts,
				EntryPrice: entryPrice,
				ExitPrice:  bar.Close,
				Quantity:   position,
				PnL:        pnl,
			})
			position = 0
		}

		equity := balance + position*bar.Close
		equityCurve = append(equityCurve, equity)
		if equity > peakEquity {
			peakEquity = equity
		}
		if peakEquity > 0 {
			if dd := (peakEquity - equity) / peakEquity; dd > maxDrawdown {
				maxDrawdown = dd
			}
		}
	}

	finalEquity := equityCurve[len(equityCurve)-1]
	winning, losing := 0, 0
	for _, tr := range trades {
		if tr.PnL > 0 {
			winning++
		} else if tr.PnL < 0 {
			losing++
		}
	}
	winRate := 0.0
	if len(trades) > 0 {
		winRate = float64(winning) / float64(len(trades))
	}

	return &Result{
		StartTime:      sorted[0].Ts,
		EndTime:        sorted[len(sorted)-1].Ts,
		InitialBalance: cfg.InitialBalance,
		FinalBalance:   finalEquity,
		TotalPnL:       finalEquity - cfg.InitialBalance,
		TotalReturn:    (finalEquity - cfg.InitialBalance) / cfg.InitialBalance,
		TotalTrades:    len(trades),
		WinningTrades:  winning,
		LosingTrades:   losing,
		WinRate:        winRate,
		MaxDrawdown:    maxDrawdown,
		Trades:         trades,
		EquityCurve:    equityCurve,
	}, nil
}

// PrintResult 打印回测结果摘要。
func (r *Result) PrintResult() {
	fmt.Println("=== 回测结果 ===")
	fmt.Printf("时间范围: %s - %s\n", r.StartTime.Format("2006-01-02"), r.EndTime.Format("2006-01-02"))
	fmt.Printf("初始资金: %.2f\n", r.InitialBalance)
	fmt.Printf("最终权益: %.2f\n", r.FinalBalance)
	fmt.Printf("总盈亏: %.2f (%.2f%%)\n", r.TotalPnL, r.TotalReturn*100)
	fmt.Printf("总交易次数: %d (胜 %d / 负 %d, 胜率 %.2f%%)\n",
		r.TotalTrades, r.WinningTrades, r.LosingTrades, r.WinRate*100)
	fmt.Printf("最大回撤: %.2f%%\n", r.MaxDrawdown*100)
	fmt.Println("================")
}

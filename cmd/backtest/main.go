package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"algo-trader-go/backtest"
	"algo-trader-go/config"
	"algo-trader-go/internal/store"
	"algo-trader-go/market"
	"algo-trader-go/strategy"

	"github.com/joho/godotenv"
)

// 离线参数寻优：读取 backfill 写入的分钟线，对每个配置的 symbol 做两种
// 策略的网格搜索，打印收益最高的参数组合。
// 用法：
//
//	go run ./cmd/backtest -config configs/config.yaml -start 2025-06-01T00:00:00Z
func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	startStr := flag.String("start", "", "起始时间（RFC3339），默认一年前")
	endStr := flag.String("end", "", "结束时间（RFC3339），默认起始后100天")
	balance := flag.Float64("balance", 10000, "初始资金")
	commission := flag.Float64("commission", 0.001, "单边手续费率")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if cfg.Database.DSN == "" {
		log.Fatal("database.dsn is required for backtest")
	}

	start := time.Now().UTC().AddDate(-1, 0, 0)
	end := start.AddDate(0, 0, 100)
	if *startStr != "" {
		if start, err = time.Parse(time.RFC3339, *startStr); err != nil {
			log.Fatalf("解析 start 失败: %v", err)
		}
		end = start.AddDate(0, 0, 100)
	}
	if *endStr != "" {
		if end, err = time.Parse(time.RFC3339, *endStr); err != nil {
			log.Fatalf("解析 end 失败: %v", err)
		}
	}

	st, err := store.Open(cfg.Database.DSN)
	if err != nil {
		log.Fatalf("连接数据库失败: %v", err)
	}

	ctx := context.Background()
	for sym, sc := range cfg.Symbols {
		symbol := strings.ToUpper(sym)
		rows, err := st.BarsBetween(ctx, symbol, start, end)
		if err != nil {
			log.Fatalf("读取 %s 分钟线失败: %v", symbol, err)
		}
		if len(rows) == 0 {
			log.Printf("%s: 区间内没有数据，先运行 backfill", symbol)
			continue
		}
		bars := make([]market.Bar, len(rows))
		for i, r := range rows {
			bars[i] = market.Bar{Close: r.Close, High: r.High, Low: r.Low, Ts: r.Ts}
		}

		btCfg := backtest.Config{
			InitialBalance: *balance,
			Commission:     *commission,
			Quantity:       sc.Quantity,
		}

		trendCfg, trendRes, err := backtest.OptimizeTrend(btCfg, bars)
		if err != nil {
			log.Fatalf("%s 趋势寻优失败: %v", symbol, err)
		}
		mrCfg, mrRes, err := backtest.OptimizeMeanReversion(btCfg, bars)
		if err != nil {
			log.Fatalf("%s 均值回归寻优失败: %v", symbol, err)
		}

		fmt.Printf("\n===== %s (%d bars) =====\n", symbol, len(bars))
		fmt.Printf("最优趋势参数: ema=%d adx=%d threshold=%.0f\n",
			trendCfg.EMAWindow, trendCfg.ADXWindow, trendCfg.ADXThreshold)
		trendRes.PrintResult()
		fmt.Printf("最优均值回归参数: window=%d numStdDev=%.1f\n",
			mrCfg.Window, mrCfg.NumStdDev)
		mrRes.PrintResult()

		printRecommendation(symbol, trendCfg, trendRes, mrCfg, mrRes)
	}
}

func printRecommendation(symbol string, trendCfg strategy.Config, trendRes *backtest.Result,
	mrCfg strategy.Config, mrRes *backtest.Result) {
	best, bestRes := trendCfg, trendRes
	if mrRes.TotalReturn > trendRes.TotalReturn {
		best, bestRes = mrCfg, mrRes
	}
	fmt.Printf("推荐 %s 使用 %s（收益 %.2f%%）\n", symbol, best.Kind, bestRes.TotalReturn*100)
}

package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"algo-trader-go/config"
	"algo-trader-go/gateway"
	"algo-trader-go/internal/store"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
)

// 默认回补窗口：从一年前开始的100个自然日，避开数据订阅对最近数据的限制。
func defaultRange() (time.Time, time.Time) {
	start := time.Now().UTC().AddDate(-1, 0, 0)
	return start, start.AddDate(0, 0, 100)
}

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	startStr := flag.String("start", "", "起始时间（RFC3339），默认一年前")
	endStr := flag.String("end", "", "结束时间（RFC3339），默认起始后100天")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if cfg.Database.DSN == "" {
		log.Fatal("database.dsn is required for backfill")
	}

	start, end := defaultRange()
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
	if !end.After(start) {
		log.Fatalf("end %s must be after start %s", end, start)
	}

	st, err := store.Open(cfg.Database.DSN)
	if err != nil {
		log.Fatalf("连接数据库失败: %v", err)
	}

	client := &gateway.AlpacaRESTClient{
		BaseURL:    cfg.Gateway.BaseURL,
		DataURL:    cfg.Gateway.DataURL,
		APIKey:     cfg.Gateway.APIKey,
		APISecret:  cfg.Gateway.APISecret,
		HTTPClient: gateway.NewDefaultHTTPClient(),
		Limiter:    rate.NewLimiter(3, 5),
	}

	ctx := context.Background()
	for sym := range cfg.Symbols {
		symbol := strings.ToUpper(sym)
		bars, err := client.GetMinuteBars(ctx, symbol, start, end)
		if err != nil {
			log.Fatalf("拉取 %s 分钟线失败: %v", symbol, err)
		}
		rows := make([]store.MinuteBar, len(bars))
		for i, b := range bars {
			rows[i] = store.MinuteBar{
				Ts:     b.Ts,
				Symbol: symbol,
				Open:   b.Open,
				High:   b.High,
				Low:    b.Low,
				Close:  b.Close,
				Volume: b.Volume,
			}
		}
		if err := st.UpsertBars(ctx, rows); err != nil {
			log.Fatalf("写入 %s 分钟线失败: %v", symbol, err)
		}
		total, err := st.Count(ctx, symbol)
		if err != nil {
			log.Fatalf("统计 %s 失败: %v", symbol, err)
		}
		log.Printf("%s: fetched %d bars, %d stored total", symbol, len(bars), total)
	}
}

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"algo-trader-go/config"
	"algo-trader-go/gateway"
	"algo-trader-go/infrastructure/logger"
	"algo-trader-go/internal/engine"
	"algo-trader-go/inventory"
	"algo-trader-go/metrics"
	"algo-trader-go/order"
	"algo-trader-go/risk"
	"algo-trader-go/strategy"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	metricsAddr := flag.String("metricsAddr", ":9100", "Prometheus metrics 监听地址，留空则关闭")
	dryRun := flag.Bool("dryRun", false, "仅日志输出，不真正下单")
	restRate := flag.Float64("restRate", 3, "REST 限流：每秒令牌数")
	restBurst := flag.Int("restBurst", 5, "REST 限流：最大突发令牌数")
	flag.Parse()

	// .env 不存在时静默跳过，密钥也可以直接来自环境变量。
	_ = godotenv.Load()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	logCfg := logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}
	if logCfg.Level == "" {
		logCfg = logger.DefaultConfig()
	}
	lg, err := logger.New(logCfg)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer lg.Close()

	m := metrics.NewSet(prometheus.DefaultRegisterer)
	if *metricsAddr != "" {
		metrics.StartServer(*metricsAddr)
		lg.Info("metrics server started", zap.String("addr", *metricsAddr))
	}

	symbols := make(map[string]engine.SymbolSpec, len(cfg.Symbols))
	for sym, sc := range cfg.Symbols {
		eval, err := strategy.New(sc.Strategy)
		if err != nil {
			log.Fatalf("初始化策略失败 %s: %v", sym, err)
		}
		symbols[strings.ToUpper(sym)] = engine.SymbolSpec{Evaluator: eval, Quantity: sc.Quantity}
	}

	ledger := inventory.NewLedger()
	gate, err := risk.NewGate(risk.Limits{
		MaxPositionSize:    cfg.Risk.MaxPositionSize,
		StopLossPct:        cfg.Risk.StopLossPct,
		TakeProfitPct:      cfg.Risk.TakeProfitPct,
		VaRConfidenceLevel: cfg.Risk.VaRConfidenceLevel,
	}, ledger)
	if err != nil {
		log.Fatalf("初始化风控失败: %v", err)
	}

	restClient := &gateway.AlpacaRESTClient{
		BaseURL:    cfg.Gateway.BaseURL,
		DataURL:    cfg.Gateway.DataURL,
		APIKey:     cfg.Gateway.APIKey,
		APISecret:  cfg.Gateway.APISecret,
		HTTPClient: gateway.NewDefaultHTTPClient(),
		Limiter:    rate.NewLimiter(rate.Limit(*restRate), *restBurst),
	}
	var orderGW order.Gateway = &brokerGateway{client: restClient}
	if *dryRun {
		lg.Warn("dry-run 模式：订单不会发送到券商")
		orderGW = &dryRunGateway{}
	}

	mgr := order.NewManager(orderGW)
	rec := order.NewReconciler(orderGW, mgr, ledger, order.ReconcilerConfig{
		Interval: time.Duration(cfg.Reconcile.IntervalMs) * time.Millisecond,
		MaxPolls: cfg.Reconcile.MaxPolls,
	}, lg)
	rec.OnTerminal = func(o order.Order, st order.Status) {
		switch st {
		case order.StatusFilled:
			m.OrdersFilled.Inc()
		case order.StatusCanceled:
			m.OrdersCanceled.Inc()
		case order.StatusStalled:
			m.OrdersStalled.Inc()
		}
		m.Notional.WithLabelValues(o.Symbol).Set(ledger.Notional(o.Symbol))
	}
	rec.OnPollError = func(o order.Order, err error) {
		m.PollErrors.Inc()
	}

	eng, err := engine.New(engine.Config{
		Symbols:       symbols,
		TickQueueSize: cfg.Engine.TickQueueSize,
	}, engine.Components{
		Gate:       gate,
		Orders:     mgr,
		Reconciler: rec,
		Ledger:     ledger,
		Logger:     lg,
		Metrics:    m,
	})
	if err != nil {
		log.Fatalf("初始化引擎失败: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 配置文件变更只提示，不热加载。
	go func() {
		err := config.Watcher{Path: *cfgPath}.Start(ctx, func() {
			lg.Warn("config changed on disk; restart to apply", zap.String("path", *cfgPath))
		})
		if err != nil && ctx.Err() == nil {
			lg.Error("config watcher exited", zap.Error(err))
		}
	}()

	stream := gateway.NewStreamClient(cfg.Gateway.StreamURL, cfg.Gateway.APIKey, cfg.Gateway.APISecret)
	for sym := range symbols {
		stream.Subscribe(sym)
	}
	stream.OnConnect = func() {
		lg.Info("market stream connected", zap.String("endpoint", cfg.Gateway.StreamURL))
	}
	stream.OnDisconnect = func(err error) {
		lg.Warn("market stream disconnected", zap.Error(err))
	}

	go func() {
		if err := eng.Run(ctx); err != nil && ctx.Err() == nil {
			lg.Error("engine exited", zap.Error(err))
			cancel()
		}
	}()
	go func() {
		if err := stream.Run(ctx, eng); err != nil && ctx.Err() == nil {
			lg.Error("market stream exited", zap.Error(err))
			cancel()
		}
	}()

	lg.Info("trader started",
		zap.String("env", cfg.Env),
		zap.Int("symbols", len(symbols)),
		zap.Bool("dry_run", *dryRun))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	cancel()

	// 等在途订单的对账协程收尾后再退出。
	rec.Wait()
	lg.Info("trader exit")
}

// brokerGateway 把券商 REST 客户端适配成 order.Gateway，并把券商的状态
// 字符串映射到内部订单状态。
type brokerGateway struct {
	client *gateway.AlpacaRESTClient
}

func (g *brokerGateway) SubmitOrder(ctx context.Context, symbol string, qty float64, side order.Side) (string, error) {
	return g.client.SubmitOrder(ctx, symbol, qty, string(side))
}

func (g *brokerGateway) GetOrder(ctx context.Context, orderID string) (order.StatusReport, error) {
	st, err := g.client.GetOrder(ctx, orderID)
	if err != nil {
		return order.StatusReport{}, err
	}
	return order.StatusReport{
		Status:    mapBrokerStatus(st.Status),
		Qty:       st.Qty,
		FilledQty: st.FilledQty,
	}, nil
}

func mapBrokerStatus(s string) order.Status {
	switch strings.ToLower(s) {
	case "filled":
		return order.StatusFilled
	case "partially_filled":
		return order.StatusPartial
	case "canceled", "expired", "rejected", "done_for_day":
		return order.StatusCanceled
	default:
		return order.StatusSubmitted
	}
}

// dryRunGateway 本地生成订单号并立即视为全部成交。
type dryRunGateway struct{}

func (g *dryRunGateway) SubmitOrder(ctx context.Context, symbol string, qty float64, side order.Side) (string, error) {
	return "dry-" + uuid.NewString(), nil
}

func (g *dryRunGateway) GetOrder(ctx context.Context, orderID string) (order.StatusReport, error) {
	return order.StatusReport{Status: order.StatusFilled}, nil
}

// Package engine drives the per-tick decision pipeline: ingest → history →
// strategy → risk gate → order submission → async fill reconciliation.
package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"algo-trader-go/gateway"
	"algo-trader-go/indicator"
	"algo-trader-go/infrastructure/logger"
	"algo-trader-go/inventory"
	"algo-trader-go/market"
	"algo-trader-go/metrics"
	"algo-trader-go/order"
	"algo-trader-go/risk"
	"algo-trader-go/strategy"
)

// SymbolSpec 单个交易对的评估器与下单数量。
type SymbolSpec struct {
	Evaluator strategy.Evaluator
	Quantity  float64
}

// Components 引擎依赖组件
type Components struct {
	Gate       *risk.Gate
	Orders     *order.Manager
	Reconciler *order.Reconciler
	Ledger     *inventory.Ledger
	Logger     *logger.Logger
	Metrics    *metrics.Set
}

// Config 引擎配置
type Config struct {
	Symbols       map[string]SymbolSpec
	TickQueueSize int
}

// Engine 持有全部共享状态（历史窗口、仓位账本、订单登记表），组件间显式
// 传递。tick 在单一消费循环中顺序处理，保证每个交易对的到达顺序；成交对账
// 在独立协程中与 tick 处理交错执行。
type Engine struct {
	symbols map[string]SymbolSpec
	history *market.History

	gate       *risk.Gate
	orders     *order.Manager
	reconciler *order.Reconciler
	ledger     *inventory.Ledger
	log        *logger.Logger
	metrics    *metrics.Set

	ticks chan market.Tick
}

// New 创建交易引擎；历史窗口容量取策略回看期与 VaR 最小样本数的较大者。
func New(cfg Config, c Components) (*Engine, error) {
	if len(cfg.Symbols) == 0 {
		return nil, errors.New("no symbols configured")
	}
	if c.Gate == nil || c.Orders == nil || c.Reconciler == nil || c.Ledger == nil {
		return nil, errors.New("missing components")
	}
	if c.Logger == nil {
		c.Logger = logger.NewNop()
	}
	if cfg.TickQueueSize <= 0 {
		cfg.TickQueueSize = 1024
	}

	capacities := make(map[string]int, len(cfg.Symbols))
	for sym, spec := range cfg.Symbols {
		if spec.Evaluator == nil {
			return nil, fmt.Errorf("symbol %s has no evaluator", sym)
		}
		if spec.Quantity <= 0 {
			return nil, fmt.Errorf("symbol %s quantity must be > 0", sym)
		}
		capacity := spec.Evaluator.Lookback()
		if capacity < indicator.VaRMinSamples {
			capacity = indicator.VaRMinSamples
		}
		capacities[sym] = capacity
	}

	return &Engine{
		symbols:    cfg.Symbols,
		history:    market.NewHistory(capacities),
		gate:       c.Gate,
		orders:     c.Orders,
		reconciler: c.Reconciler,
		ledger:     c.Ledger,
		log:        c.Logger,
		metrics:    c.Metrics,
		ticks:      make(chan market.Tick, cfg.TickQueueSize),
	}, nil
}

// OnTrade 实现 gateway.TradeHandler：非阻塞入队，队列满则丢弃并计数，
// 避免处理停滞时 tick 无界堆积。
func (e *Engine) OnTrade(t gateway.TradeTick) {
	tick := market.Tick{Symbol: t.Symbol, Price: t.Price, Ts: t.Ts}
	select {
	case e.ticks <- tick:
		if e.metrics != nil {
			e.metrics.QueueDepth.Set(float64(len(e.ticks)))
		}
	default:
		if e.metrics != nil {
			e.metrics.TicksDropped.Inc()
		}
		e.log.Warn("tick dropped: queue full", zap.String("symbol", t.Symbol))
	}
}

// Run 消费 tick 队列直到 ctx 取消。单笔 tick 的失败只记录日志，循环继续。
func (e *Engine) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case tick := <-e.ticks:
			e.processTick(ctx, tick)
		}
	}
}

func (e *Engine) processTick(ctx context.Context, tick market.Tick) {
	if e.metrics != nil {
		e.metrics.TicksProcessed.Inc()
		e.metrics.QueueDepth.Set(float64(len(e.ticks)))
	}

	spec, ok := e.symbols[tick.Symbol]
	if !ok {
		return
	}

	// 无效行情：丢弃 tick，不进历史窗口，不产生信号。
	if err := risk.ValidateMarketData(tick.Price); err != nil {
		if e.metrics != nil {
			e.metrics.InvalidTicks.Inc()
		}
		e.log.LogRisk("invalid_tick", map[string]interface{}{
			"symbol": tick.Symbol, "price": tick.Price,
		})
		return
	}

	e.history.Append(tick.Symbol, market.BarFromTick(tick))

	sig := spec.Evaluator.Evaluate(e.history.Window(tick.Symbol))
	if sig == strategy.Hold {
		return
	}
	if e.metrics != nil {
		e.metrics.Signals.WithLabelValues(tick.Symbol, sig.String()).Inc()
	}

	if err := e.gate.PreOrder(tick.Symbol, e.history.Closes(tick.Symbol), spec.Quantity, tick.Price); err != nil {
		if e.metrics != nil {
			e.metrics.RiskRejects.WithLabelValues(tick.Symbol, risk.RejectReason(err)).Inc()
		}
		e.log.LogRisk("order_rejected", map[string]interface{}{
			"symbol": tick.Symbol,
			"signal": sig.String(),
			"reason": err.Error(),
		})
		return
	}

	side := order.SideBuy
	if sig == strategy.Sell {
		side = order.SideSell
	}
	o, err := e.orders.Submit(ctx, tick.Symbol, spec.Quantity, tick.Price, side)
	if err != nil {
		// 提交失败对该信号是终局的；下一个 tick 的信号可再次触发。
		if e.metrics != nil {
			e.metrics.SubmitErrors.Inc()
		}
		e.log.LogError(err, map[string]interface{}{
			"symbol": tick.Symbol, "side": string(side), "qty": spec.Quantity,
		})
		return
	}
	if e.metrics != nil {
		e.metrics.OrdersSubmitted.Inc()
	}
	e.log.LogOrder("order_submitted", o.ID, map[string]interface{}{
		"symbol": o.Symbol, "side": string(o.Side), "qty": o.Quantity, "price": o.EntryPrice,
	})

	e.reconciler.Track(ctx, *o)
}

// HistoryLen 返回某交易对当前的历史长度（监控/测试用）。
func (e *Engine) HistoryLen(symbol string) int {
	return e.history.Len(symbol)
}

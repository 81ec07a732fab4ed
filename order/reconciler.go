package order

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"algo-trader-go/infrastructure/logger"
	"algo-trader-go/inventory"
)

// Reconciler 为每个已提交订单启动独立协程，按固定间隔轮询券商订单状态，
// 直到终态（FILLED/CANCELED）或轮询预算耗尽（STALLED）。成交后在账本锁内
// 更新名义敞口，保证与风控读仓位互斥。
type Reconciler struct {
	gw       Gateway
	mgr      *Manager
	ledger   *inventory.Ledger
	interval time.Duration
	maxPolls int
	log      *logger.Logger

	// OnTerminal 在订单到达终态后回调（指标/告警挂接点），可为 nil。
	OnTerminal func(o Order, st Status)
	// OnPollError 在轮询遇到瞬时错误时回调，可为 nil。
	OnPollError func(o Order, err error)

	wg sync.WaitGroup
}

// ReconcilerConfig 对账配置
type ReconcilerConfig struct {
	Interval time.Duration // 轮询间隔
	MaxPolls int           // 轮询预算，耗尽后订单标记为 STALLED
}

func NewReconciler(gw Gateway, mgr *Manager, ledger *inventory.Ledger, cfg ReconcilerConfig, log *logger.Logger) *Reconciler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = 300
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Reconciler{
		gw:       gw,
		mgr:      mgr,
		ledger:   ledger,
		interval: cfg.Interval,
		maxPolls: cfg.MaxPolls,
		log:      log,
	}
}

// Track 启动该订单的对账协程；tick 处理不被阻塞。
func (r *Reconciler) Track(ctx context.Context, o Order) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.pollLoop(ctx, o)
	}()
}

// Wait 等待所有对账协程退出（停机时用）。
func (r *Reconciler) Wait() {
	r.wg.Wait()
}

func (r *Reconciler) pollLoop(ctx context.Context, o Order) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for polls := 0; polls < r.maxPolls; {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		polls++

		report, err := r.gw.GetOrder(ctx, o.ID)
		if err != nil {
			// 瞬时错误：记录后下一个间隔重试。
			r.log.Warn("order poll failed",
				zap.String("symbol", o.Symbol), zap.String("order_id", o.ID), zap.Error(err))
			if r.OnPollError != nil {
				r.OnPollError(o, err)
			}
			continue
		}

		switch {
		case report.Status == StatusCanceled:
			_ = r.mgr.Update(o.ID, StatusCanceled)
			r.log.LogOrder("order_canceled", o.ID, map[string]interface{}{"symbol": o.Symbol})
			r.finish(o, StatusCanceled)
			return

		case r.filled(report):
			_ = r.mgr.Update(o.ID, StatusFilled)
			r.applyFill(o)
			r.log.LogOrder("order_filled", o.ID, map[string]interface{}{
				"symbol": o.Symbol,
				"side":   string(o.Side),
				"qty":    o.Quantity,
				"price":  o.EntryPrice,
			})
			r.finish(o, StatusFilled)
			return

		case report.FilledQty > 0:
			_ = r.mgr.Update(o.ID, StatusPartial)
		}
	}

	// 轮询预算耗尽：标记 STALLED 上报，不触碰账本。
	_ = r.mgr.Update(o.ID, StatusStalled)
	r.log.Error("order stalled: polling budget exhausted",
		zap.String("symbol", o.Symbol), zap.String("order_id", o.ID))
	r.finish(o, StatusStalled)
}

// filled 判断是否全部成交；券商可能先置状态、后补足 filled_qty，两者任一
// 满足即视为成交。
func (r *Reconciler) filled(report StatusReport) bool {
	if report.Status == StatusFilled {
		return true
	}
	return report.Qty > 0 && report.FilledQty >= report.Qty
}

func (r *Reconciler) applyFill(o Order) {
	if o.Side == SideBuy {
		r.ledger.ApplyBuy(o.Symbol, o.Quantity, o.EntryPrice)
	} else {
		r.ledger.ApplySell(o.Symbol, o.Quantity, o.EntryPrice)
	}
}

func (r *Reconciler) finish(o Order, st Status) {
	r.mgr.Archive(o.ID)
	if r.OnTerminal != nil {
		r.OnTerminal(o, st)
	}
}

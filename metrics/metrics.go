// Package metrics provides Prometheus metrics for the trading pipeline
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Set 汇总交易管线的全部指标。
type Set struct {
	TicksProcessed  prometheus.Counter
	TicksDropped    prometheus.Counter
	InvalidTicks    prometheus.Counter
	Signals         *prometheus.CounterVec
	RiskRejects     *prometheus.CounterVec
	OrdersSubmitted prometheus.Counter
	OrdersFilled    prometheus.Counter
	OrdersCanceled  prometheus.Counter
	OrdersStalled   prometheus.Counter
	SubmitErrors    prometheus.Counter
	PollErrors      prometheus.Counter
	Notional        *prometheus.GaugeVec
	QueueDepth      prometheus.Gauge
}

// NewSet 在给定 Registerer 上注册全部指标。
func NewSet(reg prometheus.Registerer) *Set {
	factory := promauto.With(reg)
	return &Set{
		TicksProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "trader_ticks_processed_total", Help: "Ticks consumed from the market data stream"}),
		TicksDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "trader_ticks_dropped_total", Help: "Ticks dropped because the ingest queue was full"}),
		InvalidTicks: factory.NewCounter(prometheus.CounterOpts{
			Name: "trader_invalid_ticks_total", Help: "Ticks discarded by market data validation"}),
		Signals: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_signals_total", Help: "Strategy signals by side"}, []string{"symbol", "side"}),
		RiskRejects: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_risk_rejects_total", Help: "Risk gate rejections by reason"}, []string{"symbol", "reason"}),
		OrdersSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "trader_orders_submitted_total", Help: "Orders accepted by the brokerage"}),
		OrdersFilled: factory.NewCounter(prometheus.CounterOpts{
			Name: "trader_orders_filled_total", Help: "Orders reconciled as filled"}),
		OrdersCanceled: factory.NewCounter(prometheus.CounterOpts{
			Name: "trader_orders_canceled_total", Help: "Orders reconciled as canceled"}),
		OrdersStalled: factory.NewCounter(prometheus.CounterOpts{
			Name: "trader_orders_stalled_total", Help: "Orders abandoned after the polling budget"}),
		SubmitErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "trader_submit_errors_total", Help: "Brokerage errors on order submission"}),
		PollErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "trader_poll_errors_total", Help: "Transient brokerage errors while polling order status"}),
		Notional: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trader_position_notional", Help: "Current notional exposure per symbol"}, []string{"symbol"}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "trader_tick_queue_depth", Help: "Current depth of the tick ingest queue"}),
	}
}

// StartServer 启动Prometheus指标服务器
func StartServer(addr string) {
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		_ = http.ListenAndServe(addr, nil)
	}()
}

package risk

import (
	"errors"
	"fmt"
	"math"

	"algo-trader-go/indicator"
)

// Reject reasons, matchable with errors.Is.
var (
	ErrInvalidMarketData = errors.New("invalid market data")
	ErrVaRNotComputable  = errors.New("var not computable: insufficient data")
	ErrVaRExceeded       = errors.New("var exceeds risk threshold")
	ErrPositionExceeded  = errors.New("position size exceeds maximum")
)

// Limits 进程级风控参数，启动后不变。
type Limits struct {
	MaxPositionSize    float64
	StopLossPct        float64
	TakeProfitPct      float64
	VaRConfidenceLevel float64
}

// Positions 提供当前名义敞口；门禁只读，不修改仓位。
type Positions interface {
	Notional(symbol string) float64
}

// Gate 按顺序执行风控检查，任一失败立即拒绝。
type Gate struct {
	cfg Limits
	pos Positions
}

func NewGate(cfg Limits, pos Positions) (*Gate, error) {
	if cfg.MaxPositionSize <= 0 {
		return nil, errors.New("maxPositionSize must be > 0")
	}
	if cfg.VaRConfidenceLevel <= 0 || cfg.VaRConfidenceLevel >= 1 {
		return nil, fmt.Errorf("varConfidenceLevel must be in (0,1), got %v", cfg.VaRConfidenceLevel)
	}
	if pos == nil {
		return nil, errors.New("positions source required")
	}
	return &Gate{cfg: cfg, pos: pos}, nil
}

// ValidateMarketData 校验 tick 价格；非正数或 NaN 一律拒绝。
func ValidateMarketData(price float64) error {
	if math.IsNaN(price) || price <= 0 {
		return fmt.Errorf("%w: price %v", ErrInvalidMarketData, price)
	}
	return nil
}

// PreOrder 在下单前依次检查：行情有效性、VaR 可计算、VaR 阈值、仓位上限。
// closes 为该交易对当前的收盘序列。通过返回 nil。
func (g *Gate) PreOrder(symbol string, closes []float64, qty, price float64) error {
	if err := ValidateMarketData(price); err != nil {
		return err
	}

	varValue, ok := indicator.HistoricalVaR(closes, g.cfg.VaRConfidenceLevel)
	if !ok {
		return fmt.Errorf("%w: %s has %d closes, need %d",
			ErrVaRNotComputable, symbol, len(closes), indicator.VaRMinSamples)
	}
	if varValue > g.cfg.MaxPositionSize {
		return fmt.Errorf("%w: %s var %.2f > max %.2f",
			ErrVaRExceeded, symbol, varValue, g.cfg.MaxPositionSize)
	}

	notional := g.pos.Notional(symbol)
	if notional+qty*price > g.cfg.MaxPositionSize {
		return fmt.Errorf("%w: %s %.2f + %.2f > max %.2f",
			ErrPositionExceeded, symbol, notional, qty*price, g.cfg.MaxPositionSize)
	}
	return nil
}

// RejectReason 将拒绝错误映射为指标标签。
func RejectReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidMarketData):
		return "invalid_market_data"
	case errors.Is(err, ErrVaRNotComputable):
		return "var_not_computable"
	case errors.Is(err, ErrVaRExceeded):
		return "var_exceeded"
	case errors.Is(err, ErrPositionExceeded):
		return "position_exceeded"
	default:
		return "other"
	}
}

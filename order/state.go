package order

import "time"

// Status represents order lifecycle.
type Status string

const (
	StatusSubmitted Status = "SUBMITTED"
	StatusPartial   Status = "PARTIALLY_FILLED"
	StatusFilled    Status = "FILLED"
	StatusCanceled  Status = "CANCELED"
	// StatusStalled marks an order abandoned after the reconciliation
	// polling budget ran out without a terminal brokerage status.
	StatusStalled Status = "STALLED"
)

// Side of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Order holds a simplified order view.
type Order struct {
	ID          string
	Symbol      string
	Side        Side
	Quantity    float64
	EntryPrice  float64
	Status      Status
	SubmittedAt time.Time
	LastError   string
}

// IsTerminal 判断是否是终态
func IsTerminal(st Status) bool {
	switch st {
	case StatusFilled, StatusCanceled, StatusStalled:
		return true
	default:
		return false
	}
}

// IsActive 判断是否是活跃状态（可能产生成交）
func IsActive(st Status) bool {
	switch st {
	case StatusSubmitted, StatusPartial:
		return true
	default:
		return false
	}
}

package inventory

import "sync"

// Ledger 维护每个交易对的名义敞口。只有成交回报协程写入；风控在同一把锁下
// 读取，保证敞口检查与成交更新互不交错。
type Ledger struct {
	mu       sync.RWMutex
	notional map[string]float64
}

func NewLedger() *Ledger {
	return &Ledger{notional: make(map[string]float64)}
}

// ApplyBuy 成交买单后增加名义敞口。
func (l *Ledger) ApplyBuy(symbol string, qty, price float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notional[symbol] += qty * price
}

// ApplySell 成交卖单后减少名义敞口，下限为零，不允许负敞口。
func (l *Ledger) ApplySell(symbol string, qty, price float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	next := l.notional[symbol] - qty*price
	if next < 0 {
		next = 0
	}
	l.notional[symbol] = next
}

// Notional 返回当前名义敞口。
func (l *Ledger) Notional(symbol string) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.notional[symbol]
}

// Snapshot 返回所有交易对敞口的只读副本。
func (l *Ledger) Snapshot() map[string]float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]float64, len(l.notional))
	for sym, n := range l.notional {
		out[sym] = n
	}
	return out
}

package order

import (
	"context"
	"errors"
	"sync"
	"time"
)

// StatusReport 是券商侧的订单视图。
type StatusReport struct {
	Status    Status
	FilledQty float64
	Qty       float64
}

// Gateway 券商下单/查单抽象；与 gateway 的 REST 客户端对接。
type Gateway interface {
	SubmitOrder(ctx context.Context, symbol string, qty float64, side Side) (string, error)
	GetOrder(ctx context.Context, orderID string) (StatusReport, error)
}

var ErrUnknownOrder = errors.New("unknown order")

// Manager 维护活跃订单登记表并通过 Gateway 下发。
type Manager struct {
	gw     Gateway
	mu     sync.RWMutex
	orders map[string]*Order
}

func NewManager(gw Gateway) *Manager {
	return &Manager{gw: gw, orders: make(map[string]*Order)}
}

// Submit 同步调用 Gateway 下单；成功则以 SUBMITTED 状态登记。券商报错时
// 不登记、不重试，该信号的订单流程就此终止。
func (m *Manager) Submit(ctx context.Context, symbol string, qty, price float64, side Side) (*Order, error) {
	id, err := m.gw.SubmitOrder(ctx, symbol, qty, side)
	if err != nil {
		return nil, err
	}
	o := &Order{
		ID:          id,
		Symbol:      symbol,
		Side:        side,
		Quantity:    qty,
		EntryPrice:  price,
		Status:      StatusSubmitted,
		SubmittedAt: time.Now().UTC(),
	}
	m.mu.Lock()
	m.orders[id] = o
	m.mu.Unlock()
	cp := *o
	return &cp, nil
}

// Update 收到回报后更新状态。
func (m *Manager) Update(id string, st Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return ErrUnknownOrder
	}
	o.Status = st
	return nil
}

// Get 返回订单副本，如不存在则第二个返回值为 false。
func (m *Manager) Get(id string) (Order, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return Order{}, false
	}
	return *o, true
}

// Active 返回所有未到终态的订单副本。
func (m *Manager) Active() []Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Order, 0, len(m.orders))
	for _, o := range m.orders {
		if IsActive(o.Status) {
			out = append(out, *o)
		}
	}
	return out
}

// Archive 将终态订单从登记表移除。
func (m *Manager) Archive(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orders[id]; ok && IsTerminal(o.Status) {
		delete(m.orders, id)
	}
}

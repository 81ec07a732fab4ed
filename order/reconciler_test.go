package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"algo-trader-go/infrastructure/logger"
	"algo-trader-go/inventory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pollGateway serves a scripted sequence of reports/errors, thread safe.
type pollGateway struct {
	mu   sync.Mutex
	seq  []pollStep
	next int
}

type pollStep struct {
	report StatusReport
	err    error
}

func (g *pollGateway) SubmitOrder(ctx context.Context, symbol string, qty float64, side Side) (string, error) {
	return "ord-1", nil
}

func (g *pollGateway) GetOrder(ctx context.Context, orderID string) (StatusReport, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.next
	if i >= len(g.seq) {
		i = len(g.seq) - 1
	}
	g.next++
	return g.seq[i].report, g.seq[i].err
}

func trackAndWait(t *testing.T, gw Gateway, cfg ReconcilerConfig, o Order) (*Manager, *inventory.Ledger, []Status) {
	t.Helper()
	mgr := NewManager(gw)
	ledger := inventory.NewLedger()
	rec := NewReconciler(gw, mgr, ledger, cfg, logger.NewNop())

	var mu sync.Mutex
	var terminals []Status
	rec.OnTerminal = func(_ Order, st Status) {
		mu.Lock()
		terminals = append(terminals, st)
		mu.Unlock()
	}

	submitted, err := mgr.Submit(context.Background(), o.Symbol, o.Quantity, o.EntryPrice, o.Side)
	require.NoError(t, err)
	rec.Track(context.Background(), *submitted)
	rec.Wait()
	return mgr, ledger, terminals
}

func fastConfig(maxPolls int) ReconcilerConfig {
	return ReconcilerConfig{Interval: time.Millisecond, MaxPolls: maxPolls}
}

func TestReconcilerAppliesBuyFill(t *testing.T) {
	gw := &pollGateway{seq: []pollStep{
		{report: StatusReport{Status: StatusSubmitted, Qty: 2}},
		{report: StatusReport{Status: StatusFilled, FilledQty: 2, Qty: 2}},
	}}
	_, ledger, terminals := trackAndWait(t, gw, fastConfig(10),
		Order{Symbol: "MCD", Side: SideBuy, Quantity: 2, EntryPrice: 100})

	assert.Equal(t, 200.0, ledger.Notional("MCD"))
	assert.Equal(t, []Status{StatusFilled}, terminals)
}

func TestReconcilerCanceledLeavesLedgerUntouched(t *testing.T) {
	gw := &pollGateway{seq: []pollStep{
		{report: StatusReport{Status: StatusCanceled, Qty: 1}},
	}}
	mgr, ledger, terminals := trackAndWait(t, gw, fastConfig(10),
		Order{Symbol: "MCD", Side: SideBuy, Quantity: 1, EntryPrice: 100})

	assert.Equal(t, 0.0, ledger.Notional("MCD"))
	assert.Equal(t, []Status{StatusCanceled}, terminals)
	assert.Empty(t, mgr.Active())
}

func TestReconcilerPartialThenFilled(t *testing.T) {
	gw := &pollGateway{seq: []pollStep{
		{report: StatusReport{Status: StatusPartial, FilledQty: 1, Qty: 3}},
		{report: StatusReport{Status: StatusPartial, FilledQty: 2, Qty: 3}},
		{report: StatusReport{Status: StatusFilled, FilledQty: 3, Qty: 3}},
	}}
	_, ledger, terminals := trackAndWait(t, gw, fastConfig(10),
		Order{Symbol: "KO", Side: SideBuy, Quantity: 3, EntryPrice: 60})

	// Ledger mutated once, on the FILLED transition, with the full quantity.
	assert.Equal(t, 180.0, ledger.Notional("KO"))
	assert.Equal(t, []Status{StatusFilled}, terminals)
}

func TestReconcilerRetriesTransientErrors(t *testing.T) {
	gw := &pollGateway{seq: []pollStep{
		{err: errors.New("503")},
		{err: errors.New("503")},
		{report: StatusReport{Status: StatusFilled, FilledQty: 1, Qty: 1}},
	}}
	_, ledger, terminals := trackAndWait(t, gw, fastConfig(10),
		Order{Symbol: "PEP", Side: SideBuy, Quantity: 1, EntryPrice: 170})

	assert.Equal(t, 170.0, ledger.Notional("PEP"))
	assert.Equal(t, []Status{StatusFilled}, terminals)
}

func TestReconcilerStallsAfterBudget(t *testing.T) {
	gw := &pollGateway{seq: []pollStep{
		{report: StatusReport{Status: StatusSubmitted, Qty: 1}},
	}}
	_, ledger, terminals := trackAndWait(t, gw, fastConfig(3),
		Order{Symbol: "MCD", Side: SideBuy, Quantity: 1, EntryPrice: 100})

	assert.Equal(t, 0.0, ledger.Notional("MCD"))
	assert.Equal(t, []Status{StatusStalled}, terminals)
}

func TestReconcilerSellFillReducesNotional(t *testing.T) {
	ledger := inventory.NewLedger()
	ledger.ApplyBuy("MCD", 1, 100)

	gw := &pollGateway{seq: []pollStep{
		{report: StatusReport{Status: StatusFilled, FilledQty: 1, Qty: 1}},
	}}
	mgr := NewManager(gw)
	rec := NewReconciler(gw, mgr, ledger, fastConfig(10), logger.NewNop())

	o, err := mgr.Submit(context.Background(), "MCD", 1, 100, SideSell)
	require.NoError(t, err)
	rec.Track(context.Background(), *o)
	rec.Wait()

	assert.Equal(t, 0.0, ledger.Notional("MCD"))
}

func TestReconcilerStopsOnContextCancel(t *testing.T) {
	gw := &pollGateway{seq: []pollStep{
		{report: StatusReport{Status: StatusSubmitted, Qty: 1}},
	}}
	mgr := NewManager(gw)
	ledger := inventory.NewLedger()
	rec := NewReconciler(gw, mgr, ledger, ReconcilerConfig{Interval: time.Hour, MaxPolls: 10}, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	o, err := mgr.Submit(ctx, "MCD", 1, 100, SideBuy)
	require.NoError(t, err)
	rec.Track(ctx, *o)
	cancel()

	done := make(chan struct{})
	go func() {
		rec.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reconciler did not stop on context cancel")
	}
}

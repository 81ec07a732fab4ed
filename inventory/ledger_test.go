package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLedgerBuySellRoundTrip(t *testing.T) {
	l := NewLedger()
	before := l.Notional("MCD")

	l.ApplyBuy("MCD", 1, 100)
	assert.Equal(t, before+100, l.Notional("MCD"))

	l.ApplySell("MCD", 1, 100)
	assert.Equal(t, before, l.Notional("MCD"))
}

func TestLedgerSellClampedAtZero(t *testing.T) {
	l := NewLedger()
	l.ApplyBuy("KO", 1, 50)
	l.ApplySell("KO", 2, 100)
	assert.Equal(t, 0.0, l.Notional("KO"))

	// Never negative under any fill sequence.
	l.ApplySell("KO", 5, 500)
	assert.Equal(t, 0.0, l.Notional("KO"))
}

func TestLedgerPerSymbolIsolation(t *testing.T) {
	l := NewLedger()
	l.ApplyBuy("MCD", 2, 100)
	l.ApplyBuy("PEP", 1, 50)

	snap := l.Snapshot()
	assert.Equal(t, 200.0, snap["MCD"])
	assert.Equal(t, 50.0, snap["PEP"])
	assert.Equal(t, 0.0, l.Notional("KO"))
}

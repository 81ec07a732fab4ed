package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewSetRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	set := NewSet(reg)

	set.TicksProcessed.Inc()
	set.Signals.WithLabelValues("MCD", "BUY").Inc()
	set.RiskRejects.WithLabelValues("MCD", "position_exceeded").Inc()
	set.Notional.WithLabelValues("MCD").Set(9500)

	assert.Equal(t, 1.0, testutil.ToFloat64(set.TicksProcessed))
	assert.Equal(t, 1.0, testutil.ToFloat64(set.Signals.WithLabelValues("MCD", "BUY")))
	assert.Equal(t, 9500.0, testutil.ToFloat64(set.Notional.WithLabelValues("MCD")))
}

func TestNewSetIndependentRegistries(t *testing.T) {
	// Two sets on separate registries must not collide.
	a := NewSet(prometheus.NewRegistry())
	b := NewSet(prometheus.NewRegistry())
	a.OrdersSubmitted.Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.OrdersSubmitted))
}

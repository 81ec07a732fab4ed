package market

import "time"

// Bar represents close/high/low data for one interval. Immutable once appended.
type Bar struct {
	Close float64
	High  float64
	Low   float64
	Ts    time.Time
}

// Tick represents a normalized trade tick.
type Tick struct {
	Symbol string
	Price  float64
	Ts     time.Time
}

// BarFromTick builds a degenerate bar where close/high/low all equal the
// trade price. Proper OHLC aggregation happens upstream in the data store.
func BarFromTick(t Tick) Bar {
	return Bar{Close: t.Price, High: t.Price, Low: t.Price, Ts: t.Ts}
}

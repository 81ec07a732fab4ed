package market

import "sync"

// History keeps a bounded per-symbol sequence of bars. Capacity is fixed per
// symbol at construction time; the oldest bar is evicted on overflow.
type History struct {
	mu       sync.RWMutex
	capacity map[string]int
	bars     map[string][]Bar
}

// NewHistory creates a history store with the given per-symbol capacities.
func NewHistory(capacity map[string]int) *History {
	caps := make(map[string]int, len(capacity))
	bars := make(map[string][]Bar, len(capacity))
	for sym, c := range capacity {
		if c <= 0 {
			c = 1
		}
		caps[sym] = c
		bars[sym] = make([]Bar, 0, c)
	}
	return &History{capacity: caps, bars: bars}
}

// Append adds a bar for symbol, evicting the oldest entry when full.
// Symbols without a configured capacity are ignored.
func (h *History) Append(symbol string, b Bar) {
	h.mu.Lock()
	defer h.mu.Unlock()
	capacity, ok := h.capacity[symbol]
	if !ok {
		return
	}
	seq := h.bars[symbol]
	if len(seq) >= capacity {
		copy(seq, seq[1:])
		seq = seq[:len(seq)-1]
	}
	h.bars[symbol] = append(seq, b)
}

// Window returns a copy of the current sequence for symbol, oldest first.
func (h *History) Window(symbol string) []Bar {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seq := h.bars[symbol]
	out := make([]Bar, len(seq))
	copy(out, seq)
	return out
}

// Len returns the number of bars currently held for symbol.
func (h *History) Len(symbol string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.bars[symbol])
}

// Closes returns the close price series for symbol, oldest first.
func (h *History) Closes(symbol string) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seq := h.bars[symbol]
	out := make([]float64, len(seq))
	for i, b := range seq {
		out[i] = b.Close
	}
	return out
}

// Series splits a bar window into close/high/low slices for indicator input.
func Series(window []Bar) (closes, highs, lows []float64) {
	closes = make([]float64, len(window))
	highs = make([]float64, len(window))
	lows = make([]float64, len(window))
	for i, b := range window {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
	}
	return closes, highs, lows
}

package indicator

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEMAConstantSeries(t *testing.T) {
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 42
	}
	ema, err := EMA(closes, 10)
	require.NoError(t, err)
	assert.InDelta(t, 42, ema, 1e-9)
}

func TestEMAFollowsTrend(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	ema, err := EMA(closes, 10)
	require.NoError(t, err)
	// EMA lags a rising series but stays below the latest close.
	assert.Less(t, ema, closes[len(closes)-1])
	assert.Greater(t, ema, closes[len(closes)-11])
}

func TestEMAInsufficientData(t *testing.T) {
	_, err := EMA([]float64{1, 2, 3}, 10)
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestADXStrongTrend(t *testing.T) {
	n := 60
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		base := 100 + float64(i)
		highs[i] = base + 0.5
		lows[i] = base - 0.5
		closes[i] = base
	}
	adx, err := ADX(highs, lows, closes, 14)
	require.NoError(t, err)
	// One-directional movement drives DX to 100.
	assert.Greater(t, adx, 90.0)
}

func TestADXFlatSeries(t *testing.T) {
	n := 40
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		highs[i], lows[i], closes[i] = 100, 100, 100
	}
	adx, err := ADX(highs, lows, closes, 10)
	require.NoError(t, err)
	assert.Zero(t, adx)
}

func TestADXInsufficientData(t *testing.T) {
	s := []float64{1, 2, 3, 4, 5}
	_, err := ADX(s, s, s, 10)
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestBollingerFlatSeriesCollapses(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
	}
	upper, middle, lower, err := BollingerBands(closes, 15, 2)
	require.NoError(t, err)
	assert.Equal(t, 100.0, middle)
	assert.Equal(t, 100.0, upper)
	assert.Equal(t, 100.0, lower)
}

func TestBollingerBandsKnownValues(t *testing.T) {
	// Last 4 closes {11, 11, 8, 12}: mean 10.5, population σ = 1.5.
	closes := []float64{9, 9, 11, 11, 8, 12}
	upper, middle, lower, err := BollingerBands(closes, 4, 2)
	require.NoError(t, err)
	assert.InDelta(t, 10.5, middle, 1e-9)
	assert.InDelta(t, 13.5, upper, 1e-9)
	assert.InDelta(t, 7.5, lower, 1e-9)
}

func TestHistoricalVaRBelowMinSamples(t *testing.T) {
	closes := make([]float64, VaRMinSamples-1)
	for i := range closes {
		closes[i] = 100
	}
	_, ok := HistoricalVaR(closes, 0.95)
	assert.False(t, ok)
}

func TestHistoricalVaRMonetaryValue(t *testing.T) {
	// Alternate ±1% moves so the return distribution is two-valued; the 5th
	// percentile lands on the negative return.
	closes := make([]float64, 0, 120)
	price := 100.0
	for i := 0; i < 120; i++ {
		closes = append(closes, price)
		if i%2 == 0 {
			price *= 1.01
		} else {
			price /= 1.01
		}
	}
	v, ok := HistoricalVaR(closes, 0.95)
	require.True(t, ok)
	last := closes[len(closes)-1]
	expected := last * math.Abs(math.Log(1/1.01))
	assert.InDelta(t, expected, v, expected*0.05)
	assert.Greater(t, v, 0.0)
}

func TestHistoricalVaRConstantSeries(t *testing.T) {
	closes := make([]float64, 150)
	for i := range closes {
		closes[i] = 100
	}
	v, ok := HistoricalVaR(closes, 0.95)
	require.True(t, ok)
	assert.Zero(t, v)
}

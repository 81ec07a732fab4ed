// Package indicator provides pure technical indicator computations over
// price series. All functions are stateless; callers pass the full window.
package indicator

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInsufficientData is returned when a series is shorter than the minimum
// sample count an indicator needs.
var ErrInsufficientData = errors.New("insufficient data")

// VaRMinSamples is the minimum close count for historical VaR.
const VaRMinSamples = 100

// EMA computes the exponential moving average of closes over period.
// The first period samples seed the average, the rest are smoothed with
// multiplier 2/(period+1).
func EMA(closes []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("ema period must be > 0, got %d", period)
	}
	if len(closes) < period {
		return 0, fmt.Errorf("%w: ema needs %d closes, got %d", ErrInsufficientData, period, len(closes))
	}
	var sum float64
	for _, c := range closes[:period] {
		sum += c
	}
	ema := sum / float64(period)
	k := 2.0 / float64(period+1)
	for _, c := range closes[period:] {
		ema = (c-ema)*k + ema
	}
	return ema, nil
}

// ADX computes the Average Directional Index with Wilder smoothing.
// Needs at least 2*period samples: one period to seed the smoothed
// TR/DM sums and one to seed the DX average.
func ADX(highs, lows, closes []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("adx period must be > 0, got %d", period)
	}
	n := len(closes)
	if len(highs) != n || len(lows) != n {
		return 0, fmt.Errorf("adx series length mismatch: high=%d low=%d close=%d", len(highs), len(lows), n)
	}
	if n < 2*period {
		return 0, fmt.Errorf("%w: adx needs %d samples, got %d", ErrInsufficientData, 2*period, n)
	}

	tr := make([]float64, n-1)
	pdm := make([]float64, n-1)
	mdm := make([]float64, n-1)
	for i := 1; i < n; i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr[i-1] = math.Max(hl, math.Max(hc, lc))

		up := highs[i] - highs[i-1]
		down := lows[i-1] - lows[i]
		if up > down && up > 0 {
			pdm[i-1] = up
		}
		if down > up && down > 0 {
			mdm[i-1] = down
		}
	}

	var smTR, smPDM, smMDM float64
	for i := 0; i < period; i++ {
		smTR += tr[i]
		smPDM += pdm[i]
		smMDM += mdm[i]
	}

	dxs := make([]float64, 0, len(tr)-period+1)
	dxs = append(dxs, dx(smTR, smPDM, smMDM))
	for i := period; i < len(tr); i++ {
		smTR = smTR - smTR/float64(period) + tr[i]
		smPDM = smPDM - smPDM/float64(period) + pdm[i]
		smMDM = smMDM - smMDM/float64(period) + mdm[i]
		dxs = append(dxs, dx(smTR, smPDM, smMDM))
	}

	var adx float64
	for i := 0; i < period; i++ {
		adx += dxs[i]
	}
	adx /= float64(period)
	for _, v := range dxs[period:] {
		adx = (adx*float64(period-1) + v) / float64(period)
	}
	return adx, nil
}

func dx(smTR, smPDM, smMDM float64) float64 {
	if smTR == 0 {
		return 0
	}
	pdi := 100 * smPDM / smTR
	mdi := 100 * smMDM / smTR
	if pdi+mdi == 0 {
		return 0
	}
	return 100 * math.Abs(pdi-mdi) / (pdi + mdi)
}

// BollingerBands computes the bands over the last period closes:
// middle = SMA, upper/lower = middle ± numStdDev·σ (population stddev).
func BollingerBands(closes []float64, period int, numStdDev float64) (upper, middle, lower float64, err error) {
	if period <= 0 {
		return 0, 0, 0, fmt.Errorf("bollinger period must be > 0, got %d", period)
	}
	if len(closes) < period {
		return 0, 0, 0, fmt.Errorf("%w: bollinger needs %d closes, got %d", ErrInsufficientData, period, len(closes))
	}
	window := closes[len(closes)-period:]
	var sum float64
	for _, c := range window {
		sum += c
	}
	middle = sum / float64(period)

	var sq float64
	for _, c := range window {
		d := c - middle
		sq += d * d
	}
	sigma := math.Sqrt(sq / float64(period))
	upper = middle + numStdDev*sigma
	lower = middle - numStdDev*sigma
	return upper, middle, lower, nil
}

// HistoricalVaR computes value-at-risk by historical simulation on log
// returns: the (1-confidence) quantile of returns converted to a monetary
// value against the last price. The second return is false when fewer than
// VaRMinSamples closes are available; that is a soft signal, not an error.
func HistoricalVaR(closes []float64, confidence float64) (float64, bool) {
	if len(closes) < VaRMinSamples {
		return 0, false
	}
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 || closes[i] <= 0 {
			continue
		}
		returns = append(returns, math.Log(closes[i])-math.Log(closes[i-1]))
	}
	if len(returns) < 2 {
		return 0, false
	}
	sort.Float64s(returns)

	// Linear-interpolated percentile at (1-confidence)*100.
	rank := (1 - confidence) * float64(len(returns)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo < 0 {
		lo, hi = 0, 0
	}
	if hi >= len(returns) {
		lo, hi = len(returns)-1, len(returns)-1
	}
	q := returns[lo] + (rank-float64(lo))*(returns[hi]-returns[lo])

	last := closes[len(closes)-1]
	return last * math.Abs(q), true
}

package indicator

import "math"

// BollingerResult holds the bands aligned with the SMA output, i.e. of
// length len(prices) - period + 1.
type BollingerResult struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// Bollinger calculates Bollinger Bands: SMA(period) plus/minus k sample
// standard deviations.
func Bollinger(prices []float64, period int, k float64) BollingerResult {
	if period < 2 || len(prices) < period {
		return BollingerResult{}
	}

	middle := SMA(prices, period)
	upper := make([]float64, len(middle))
	lower := make([]float64, len(middle))

	for i, mean := range middle {
		var ss float64
		for _, p := range prices[i : i+period] {
			d := p - mean
			ss += d * d
		}
		std := math.Sqrt(ss / float64(period-1))
		upper[i] = mean + k*std
		lower[i] = mean - k*std
	}

	return BollingerResult{Upper: upper, Middle: middle, Lower: lower}
}

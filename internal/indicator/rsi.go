package indicator

import "math"

// RSI calculates the Relative Strength Index using simple rolling means of
// gains and losses over period price changes.
// Returns slice of length: len(prices) - period. A window with no movement
// at all yields NaN.
func RSI(prices []float64, period int) []float64 {
	if period < 1 || len(prices) <= period {
		return []float64{}
	}

	gains := make([]float64, len(prices))
	losses := make([]float64, len(prices))
	for i := 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	result := make([]float64, 0, len(prices)-period)

	var gainSum, lossSum float64
	for i := 1; i <= period; i++ {
		gainSum += gains[i]
		lossSum += losses[i]
	}
	result = append(result, rsiValue(gainSum, lossSum))

	for i := period + 1; i < len(prices); i++ {
		gainSum += gains[i] - gains[i-period]
		lossSum += losses[i] - losses[i-period]
		result = append(result, rsiValue(gainSum, lossSum))
	}

	return result
}

// rsiValue works on sums; the period divisor cancels out of gain/loss.
func rsiValue(gainSum, lossSum float64) float64 {
	// Rolling subtraction can leave tiny negative residue.
	if gainSum < 1e-12 {
		gainSum = 0
	}
	if lossSum < 1e-12 {
		lossSum = 0
	}

	switch {
	case gainSum == 0 && lossSum == 0:
		return math.NaN()
	case lossSum == 0:
		return 100
	}
	rs := gainSum / lossSum
	return 100 - 100/(1+rs)
}

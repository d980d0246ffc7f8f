package indicator

// EWM calculates an exponentially weighted mean with span-based decay and
// adjusted weights: each output is sum((1-a)^i * x[t-i]) / sum((1-a)^i)
// over all prior observations, a = 2/(span+1). Output has the same length
// as the input; the first value equals the first input.
func EWM(values []float64, span int) []float64 {
	if len(values) == 0 || span < 1 {
		return []float64{}
	}

	alpha := 2.0 / float64(span+1)
	decay := 1 - alpha

	result := make([]float64, len(values))
	var num, den float64
	for i, v := range values {
		num = v + decay*num
		den = 1 + decay*den
		result[i] = num / den
	}

	return result
}

// MACDResult holds the MACD line, its signal line and the histogram, all
// aligned with the input prices.
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD calculates Moving Average Convergence Divergence using adjusted
// EWM smoothing for the fast, slow and signal lines.
func MACD(prices []float64, fast, slow, signal int) MACDResult {
	if len(prices) == 0 {
		return MACDResult{}
	}

	emaFast := EWM(prices, fast)
	emaSlow := EWM(prices, slow)

	line := make([]float64, len(prices))
	for i := range prices {
		line[i] = emaFast[i] - emaSlow[i]
	}

	sig := EWM(line, signal)
	hist := make([]float64, len(prices))
	for i := range line {
		hist[i] = line[i] - sig[i]
	}

	return MACDResult{MACD: line, Signal: sig, Histogram: hist}
}
